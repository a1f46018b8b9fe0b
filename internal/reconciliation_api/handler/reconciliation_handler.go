package handler

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/account"
	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/reconciliation_api/middleware"
	"github.com/bankrecon-engine/internal/reconciliation_api/service"
)

// ReconciliationHandler handles HTTP requests for reconciliation run operations
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// Start claims and publishes a reconciliation run. A second start for the same
// account and period while a run is active returns 409.
func (h *ReconciliationHandler) Start(c *gin.Context) {
	var req StartReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	run, err := h.reconciliationService.StartRun(
		c.Request.Context(),
		accountID,
		period,
		recon.Method(req.Method),
		middleware.GetCorrelationID(c),
	)
	if err != nil {
		switch {
		case errors.Is(err, recon.ErrRunAlreadyActive{}):
			RespondConflict(c, err.Error())
		case errors.Is(err, account.ErrAccountNotFound{}):
			RespondNotFound(c, "Account not found")
		case errors.Is(err, service.ErrAccountInactive):
			RespondConflict(c, err.Error())
		default:
			h.logger.Error("Failed to start reconciliation", "account_id", req.AccountID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, mapReconciliationToResponse(run))
}

// GetByID retrieves a reconciliation run, returns 404 if not found
func (h *ReconciliationHandler) GetByID(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	run, err := h.reconciliationService.GetRun(c.Request.Context(), id)
	if err != nil {
		h.respondRunError(c, id, err)
		return
	}

	RespondOK(c, mapReconciliationToResponse(run))
}

// Approve applies discrepancy resolutions and approves the run
func (h *ReconciliationHandler) Approve(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	var req ApproveReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resolutions := make([]service.DiscrepancyResolution, 0, len(req.Resolutions))
	for _, res := range req.Resolutions {
		discrepancyID, err := uuid.Parse(res.DiscrepancyID)
		if err != nil {
			RespondBadRequest(c, "Invalid discrepancy ID: "+res.DiscrepancyID)
			return
		}
		resolutions = append(resolutions, service.DiscrepancyResolution{
			DiscrepancyID: discrepancyID,
			Status:        recon.DiscrepancyStatus(res.Status),
			Notes:         res.Notes,
		})
	}

	run, err := h.reconciliationService.ApproveRun(c.Request.Context(), id, req.Actor, resolutions)
	if err != nil {
		var transition recon.ErrIllegalTransition
		switch {
		case errors.Is(err, recon.ErrRunNotFound{}):
			RespondNotFound(c, "Reconciliation not found")
		case errors.Is(err, service.ErrUnresolvedDiscrepancies):
			RespondConflict(c, err.Error())
		case errors.As(err, &transition):
			RespondConflict(c, err.Error())
		default:
			h.logger.Error("Failed to approve reconciliation", "id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, mapReconciliationToResponse(run))
}

// Cancel cancels a pending run or requests cancellation of a running one
func (h *ReconciliationHandler) Cancel(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	var req CancelReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	run, err := h.reconciliationService.CancelRun(c.Request.Context(), id, req.Reason)
	if err != nil {
		var transition recon.ErrIllegalTransition
		switch {
		case errors.Is(err, recon.ErrRunNotFound{}):
			RespondNotFound(c, "Reconciliation not found")
		case errors.As(err, &transition):
			RespondConflict(c, err.Error())
		default:
			h.logger.Error("Failed to cancel reconciliation", "id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, mapReconciliationToResponse(run))
}

// CreateMatch commits a human-asserted match on a run awaiting review
func (h *ReconciliationHandler) CreateMatch(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	var req ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	bankLineIDs, err := parseUUIDs(req.BankLineIDs)
	if err != nil {
		RespondBadRequest(c, "Invalid bank line ID")
		return
	}
	internalTxnIDs, err := parseUUIDs(req.InternalTxnIDs)
	if err != nil {
		RespondBadRequest(c, "Invalid internal transaction ID")
		return
	}

	match, err := h.reconciliationService.CreateManualMatch(c.Request.Context(), id, bankLineIDs, internalTxnIDs, req.Actor)
	if err != nil {
		switch {
		case errors.Is(err, recon.ErrRunNotFound{}):
			RespondNotFound(c, "Reconciliation not found")
		case errors.Is(err, service.ErrRunNotReviewable):
			RespondConflict(c, err.Error())
		case errors.Is(err, service.ErrUnbalancedMatch),
			errors.Is(err, service.ErrItemsAlreadyReconciled),
			errors.Is(err, service.ErrItemsAlreadyMatched),
			errors.Is(err, recon.ErrEmptyMatchSides):
			RespondUnprocessable(c, err.Error())
		default:
			h.logger.Error("Failed to create manual match", "id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapMatchToResponse(match))
}

// ListMatches returns the committed matches of a run
func (h *ReconciliationHandler) ListMatches(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	matches, err := h.reconciliationService.ListMatches(c.Request.Context(), id)
	if err != nil {
		h.respondRunError(c, id, err)
		return
	}

	responses := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		responses = append(responses, mapMatchToResponse(m))
	}
	RespondOK(c, responses)
}

// ListDiscrepancies returns the discrepancies of a run
func (h *ReconciliationHandler) ListDiscrepancies(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	discrepancies, err := h.reconciliationService.ListDiscrepancies(c.Request.Context(), id)
	if err != nil {
		h.respondRunError(c, id, err)
		return
	}

	responses := make([]DiscrepancyResponse, 0, len(discrepancies))
	for _, d := range discrepancies {
		responses = append(responses, mapDiscrepancyToResponse(d))
	}
	RespondOK(c, responses)
}

// ListSuggestions returns the scored suggestions of a run
func (h *ReconciliationHandler) ListSuggestions(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	suggestions, err := h.reconciliationService.ListSuggestions(c.Request.Context(), id)
	if err != nil {
		h.respondRunError(c, id, err)
		return
	}

	responses := make([]SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		responses = append(responses, SuggestionResponse{
			ID:            s.ID.String(),
			BankLineID:    s.BankLineID.String(),
			InternalTxnID: s.InternalTxnID.String(),
			Score:         s.Score,
			Status:        string(s.Status),
			CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		})
	}
	RespondOK(c, responses)
}

// ListReports returns recent run reports for an account, newest first.
// Supports limit and offset query parameters.
func (h *ReconciliationHandler) ListReports(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	reports, err := h.reconciliationService.ListReports(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to list run reports", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, reports)
}

// GetReport returns the denormalized run report
func (h *ReconciliationHandler) GetReport(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	report, err := h.reconciliationService.GetReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, recon.ErrReportNotFound{}) {
			RespondNotFound(c, "Run report not found")
			return
		}
		h.logger.Error("Failed to get run report", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, report)
}

func (h *ReconciliationHandler) runID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid reconciliation ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReconciliationHandler) respondRunError(c *gin.Context, id uuid.UUID, err error) {
	if errors.Is(err, recon.ErrRunNotFound{}) {
		RespondNotFound(c, "Reconciliation not found")
		return
	}
	h.logger.Error("Reconciliation request failed", "id", id.String(), "error", err)
	RespondInternalError(c)
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// mapReconciliationToResponse maps a run to a response DTO
func mapReconciliationToResponse(run *recon.Reconciliation) ReconciliationResponse {
	response := ReconciliationResponse{
		ID:               run.ID.String(),
		AccountID:        run.AccountID.String(),
		PeriodStart:      run.Period.Start.Format(dayFormat),
		PeriodEnd:        run.Period.End.Format(dayFormat),
		Status:           string(run.Status),
		Method:           string(run.Method),
		MatchedCount:     run.MatchedCount,
		DiscrepancyCount: run.DiscrepancyCount,
		TotalCount:       run.TotalCount,
		MatchRate:        run.MatchRate,
		CancelRequested:  run.CancelRequested,
		FailureReason:    run.FailureReason,
		StartedAt:        run.StartedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		response.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return response
}

func mapMatchToResponse(m *recon.Match) MatchResponse {
	return MatchResponse{
		ID:             m.ID.String(),
		Type:           string(m.Type),
		BankLineIDs:    uuidStrings(m.BankLineIDs),
		InternalTxnIDs: uuidStrings(m.InternalTxnIDs),
		Confidence:     m.Confidence,
		AmountMinor:    m.AmountMinor,
		CreatedBy:      string(m.CreatedBy),
		Actor:          m.Actor,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

func mapDiscrepancyToResponse(d *recon.Discrepancy) DiscrepancyResponse {
	response := DiscrepancyResponse{
		ID:              d.ID.String(),
		Type:            string(d.Type),
		Status:          string(d.Status),
		BankLineIDs:     uuidStrings(d.BankLineIDs),
		InternalTxnIDs:  uuidStrings(d.InternalTxnIDs),
		AmountMinor:     d.AmountMinor,
		Description:     d.Description,
		ResolutionNotes: d.ResolutionNotes,
		CreatedAt:       d.CreatedAt.Format(time.RFC3339),
	}
	if d.ResolvedAt != nil {
		response.ResolvedAt = d.ResolvedAt.Format(time.RFC3339)
	}
	return response
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
