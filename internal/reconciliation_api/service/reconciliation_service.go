package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/domain/statement"
	"github.com/bankrecon-engine/internal/platform/messaging/producers"
	"github.com/bankrecon-engine/internal/platform/persistence"

	accountdomain "github.com/bankrecon-engine/internal/domain/account"
)

const (
	defaultReportPageSize = 20
	maxReportPageSize     = 100
)

// ReconciliationServiceImpl implements the ReconciliationService interface.
// It owns the claim-then-publish handoff to the worker and the review-side
// operations on finished runs.
type ReconciliationServiceImpl struct {
	pgDB          *persistence.PostgresDB
	accountRepo   accountdomain.Repository
	statementRepo statement.Repository
	ledgerRepo    ledger.Repository
	reconRepo     recon.Repository
	reportRepo    recon.ReportRepository
	producer      producers.MessagePublisher
	logger        *slog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	logger *slog.Logger,
	pgDB *persistence.PostgresDB,
	accountRepo accountdomain.Repository,
	statementRepo statement.Repository,
	ledgerRepo ledger.Repository,
	reconRepo recon.Repository,
	reportRepo recon.ReportRepository,
	producer producers.MessagePublisher,
) ReconciliationService {
	return &ReconciliationServiceImpl{
		pgDB:          pgDB,
		accountRepo:   accountRepo,
		statementRepo: statementRepo,
		ledgerRepo:    ledgerRepo,
		reconRepo:     reconRepo,
		reportRepo:    reportRepo,
		producer:      producer,
		logger:        logger,
	}
}

// StartRun claims a run for the (account, period) pair and publishes it for
// asynchronous execution. The claim is the exclusivity control point: a second
// start for the same pair fails with ErrRunAlreadyActive while the first run
// stays active.
func (s *ReconciliationServiceImpl) StartRun(ctx context.Context, accountID uuid.UUID, period shared.Period, method recon.Method, correlationID string) (*recon.Reconciliation, error) {
	cfg, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !cfg.Active {
		return nil, ErrAccountInactive
	}

	run := recon.NewReconciliation(accountID, period, method)
	if err := s.reconRepo.ClaimRun(ctx, run); err != nil {
		return nil, err
	}

	request := &recon.RunRequest{
		ReconciliationID: run.ID,
		AccountID:        accountID,
		Period:           period,
		Method:           method,
		CorrelationID:    correlationID,
		Timestamp:        time.Now(),
	}

	if err := s.producer.Publish(ctx, run.ID.String(), request); err != nil {
		s.logger.Error("Failed to publish run request, releasing claim",
			"reconciliation_id", run.ID.String(),
			"account_id", accountID.String(),
			"error", err,
		)
		// Release the claim so the caller can retry
		if cancelErr := run.Cancel("failed to publish run request"); cancelErr == nil {
			if updateErr := s.reconRepo.UpdateStatus(ctx, run); updateErr != nil {
				s.logger.Error("Failed to release claim after publish failure",
					"reconciliation_id", run.ID.String(),
					"error", updateErr,
				)
			}
		}
		return nil, err
	}

	s.logger.Info("Reconciliation run claimed and published",
		"reconciliation_id", run.ID.String(),
		"account_id", accountID.String(),
		"period", period.Key(),
		"method", string(method),
	)
	return run, nil
}

// GetRun retrieves a run by its ID
func (s *ReconciliationServiceImpl) GetRun(ctx context.Context, id uuid.UUID) (*recon.Reconciliation, error) {
	return s.reconRepo.GetByID(ctx, id)
}

// ApproveRun applies the reviewer's resolutions, approves the run, and flags
// every matched item as reconciled. All writes happen in one database
// transaction so a failure leaves the run awaiting review with nothing marked.
func (s *ReconciliationServiceImpl) ApproveRun(ctx context.Context, id uuid.UUID, actor string, resolutions []DiscrepancyResolution) (*recon.Reconciliation, error) {
	run, err := s.reconRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	discrepancies, err := s.reconRepo.ListDiscrepancies(ctx, id)
	if err != nil {
		return nil, err
	}

	resolutionByID := make(map[uuid.UUID]DiscrepancyResolution, len(resolutions))
	for _, res := range resolutions {
		resolutionByID[res.DiscrepancyID] = res
	}

	var resolved []*recon.Discrepancy
	for _, d := range discrepancies {
		if res, ok := resolutionByID[d.ID]; ok {
			if err := d.Resolve(res.Status, res.Notes); err != nil {
				return nil, err
			}
			resolved = append(resolved, d)
		}
		if !d.Status.Terminal() {
			return nil, ErrUnresolvedDiscrepancies
		}
	}

	matches, err := s.reconRepo.ListMatches(ctx, id)
	if err != nil {
		return nil, err
	}

	var lineIDs, txnIDs []uuid.UUID
	for _, m := range matches {
		lineIDs = append(lineIDs, m.BankLineIDs...)
		txnIDs = append(txnIDs, m.InternalTxnIDs...)
	}

	if err := run.Approve(); err != nil {
		return nil, err
	}

	err = s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		reconTx := s.reconRepo.WithTx(tx)
		for _, d := range resolved {
			if err := reconTx.UpdateDiscrepancy(ctx, d); err != nil {
				return err
			}
		}
		if err := s.statementRepo.WithTx(tx).MarkLinesReconciled(ctx, lineIDs); err != nil {
			return err
		}
		if err := s.ledgerRepo.WithTx(tx).MarkTransactionsReconciled(ctx, txnIDs); err != nil {
			return err
		}
		return reconTx.UpdateStatus(ctx, run)
	})
	if err != nil {
		s.logger.Error("Failed to approve reconciliation", "reconciliation_id", id.String(), "error", err)
		return nil, err
	}

	s.logger.Info("Reconciliation approved",
		"reconciliation_id", id.String(),
		"actor", actor,
		"matched_lines", len(lineIDs),
		"matched_transactions", len(txnIDs),
	)
	return run, nil
}

// CancelRun cancels a Pending run immediately. For an InProgress run it only
// sets the cooperative flag; the worker observes it between passes and records
// the terminal state itself.
func (s *ReconciliationServiceImpl) CancelRun(ctx context.Context, id uuid.UUID, reason string) (*recon.Reconciliation, error) {
	run, err := s.reconRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch run.Status {
	case recon.StatusPending:
		if err := run.Cancel(reason); err != nil {
			return nil, err
		}
		if err := s.reconRepo.UpdateStatus(ctx, run); err != nil {
			return nil, err
		}
	case recon.StatusInProgress:
		if err := s.reconRepo.RequestCancel(ctx, id); err != nil {
			return nil, err
		}
		run.CancelRequested = true
	default:
		return nil, recon.ErrIllegalTransition{From: run.Status, To: recon.StatusCancelled}
	}

	s.logger.Info("Reconciliation cancellation requested",
		"reconciliation_id", id.String(),
		"status", string(run.Status),
		"reason", reason,
	)
	return run, nil
}

// CreateManualMatch commits a human-asserted match on a run awaiting review.
// Both sides must exist, be unreconciled, and balance to the same signed
// amount. A suggestion covering the same pair is promoted rather than left open.
func (s *ReconciliationServiceImpl) CreateManualMatch(ctx context.Context, reconciliationID uuid.UUID, bankLineIDs, internalTxnIDs []uuid.UUID, actor string) (*recon.Match, error) {
	run, err := s.reconRepo.GetByID(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	if run.Status != recon.StatusRequiresReview {
		return nil, ErrRunNotReviewable
	}

	// IsReconciled flips only at approval, so items inside an already
	// committed match of this run must be rejected here to keep every item
	// in at most one match.
	committed, err := s.reconRepo.ListMatches(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	matchedLines := make(map[uuid.UUID]bool)
	matchedTxns := make(map[uuid.UUID]bool)
	for _, m := range committed {
		for _, id := range m.BankLineIDs {
			matchedLines[id] = true
		}
		for _, id := range m.InternalTxnIDs {
			matchedTxns[id] = true
		}
	}
	for _, id := range bankLineIDs {
		if matchedLines[id] {
			return nil, ErrItemsAlreadyMatched
		}
	}
	for _, id := range internalTxnIDs {
		if matchedTxns[id] {
			return nil, ErrItemsAlreadyMatched
		}
	}

	lines, err := s.statementRepo.GetLinesByIDs(ctx, bankLineIDs)
	if err != nil {
		return nil, err
	}
	if len(lines) != len(bankLineIDs) {
		return nil, statement.ErrStatementNotFound{}
	}

	var bankTotal int64
	for _, line := range lines {
		if line.IsReconciled {
			return nil, ErrItemsAlreadyReconciled
		}
		bankTotal += line.SignedAmount()
	}

	var internalTotal int64
	for _, txnID := range internalTxnIDs {
		txn, err := s.ledgerRepo.GetByID(ctx, txnID)
		if err != nil {
			return nil, err
		}
		if txn.IsReconciled {
			return nil, ErrItemsAlreadyReconciled
		}
		internalTotal += txn.AmountMinor
	}

	if bankTotal != internalTotal {
		return nil, ErrUnbalancedMatch
	}

	match, err := recon.NewMatch(reconciliationID, recon.MatchTypeManual, bankLineIDs, internalTxnIDs, 1.0, bankTotal, recon.CreatedByHuman, actor)
	if err != nil {
		return nil, err
	}

	if err := s.reconRepo.PersistMatches(ctx, []*recon.Match{match}); err != nil {
		return nil, err
	}

	// Promote any open suggestion the human just confirmed
	suggestions, err := s.reconRepo.ListSuggestions(ctx, reconciliationID)
	if err != nil {
		s.logger.Warn("Failed to list suggestions after manual match", "reconciliation_id", reconciliationID.String(), "error", err)
		return match, nil
	}

	lineSet := make(map[uuid.UUID]bool, len(bankLineIDs))
	for _, id := range bankLineIDs {
		lineSet[id] = true
	}
	txnSet := make(map[uuid.UUID]bool, len(internalTxnIDs))
	for _, id := range internalTxnIDs {
		txnSet[id] = true
	}

	for _, sug := range suggestions {
		if sug.Status != recon.SuggestionStatusOpen {
			continue
		}
		if lineSet[sug.BankLineID] && txnSet[sug.InternalTxnID] {
			if err := s.reconRepo.UpdateSuggestionStatus(ctx, sug.ID, recon.SuggestionStatusPromoted); err != nil {
				s.logger.Warn("Failed to promote suggestion",
					"suggestion_id", sug.ID.String(),
					"error", err,
				)
			}
		}
	}

	s.logger.Info("Manual match created",
		"reconciliation_id", reconciliationID.String(),
		"match_id", match.ID.String(),
		"actor", actor,
		"amount_minor", bankTotal,
	)
	return match, nil
}

// ListMatches returns the committed matches of a run
func (s *ReconciliationServiceImpl) ListMatches(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Match, error) {
	if _, err := s.reconRepo.GetByID(ctx, reconciliationID); err != nil {
		return nil, err
	}
	return s.reconRepo.ListMatches(ctx, reconciliationID)
}

// ListDiscrepancies returns the discrepancies of a run
func (s *ReconciliationServiceImpl) ListDiscrepancies(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Discrepancy, error) {
	if _, err := s.reconRepo.GetByID(ctx, reconciliationID); err != nil {
		return nil, err
	}
	return s.reconRepo.ListDiscrepancies(ctx, reconciliationID)
}

// ListSuggestions returns the scored suggestions of a run
func (s *ReconciliationServiceImpl) ListSuggestions(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Suggestion, error) {
	if _, err := s.reconRepo.GetByID(ctx, reconciliationID); err != nil {
		return nil, err
	}
	return s.reconRepo.ListSuggestions(ctx, reconciliationID)
}

// GetReport retrieves the denormalized run report from the document store
func (s *ReconciliationServiceImpl) GetReport(ctx context.Context, reconciliationID uuid.UUID) (*recon.RunReport, error) {
	return s.reportRepo.GetByReconciliationID(ctx, reconciliationID)
}

// ListReports returns recent run reports for an account, newest first
func (s *ReconciliationServiceImpl) ListReports(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*recon.RunReport, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxReportPageSize {
		limit = defaultReportPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.reportRepo.ListByAccount(ctx, accountID, limit, offset)
}
