package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/account"
	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/domain/statement"
	"github.com/bankrecon-engine/internal/reconciliation_api/service"
)

// dayFormat is the wire format for period bounds and transaction dates
const dayFormat = "2006-01-02"

// IngestionHandler handles HTTP requests that load reconciliation inputs:
// bank statement imports and internal transaction records
type IngestionHandler struct {
	ingestionService service.IngestionService
	logger           *slog.Logger
}

// NewIngestionHandler creates a new ingestion handler
func NewIngestionHandler(logger *slog.Logger, ingestionService service.IngestionService) *IngestionHandler {
	return &IngestionHandler{
		ingestionService: ingestionService,
		logger:           logger,
	}
}

// ImportStatement stores a bank statement with its lines for an account period
func (h *IngestionHandler) ImportStatement(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var req ImportStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	lines := make([]*statement.BankStatementLine, 0, len(req.Lines))
	for _, lr := range req.Lines {
		transactionAt, err := time.Parse(dayFormat, lr.TransactionAt)
		if err != nil {
			RespondBadRequest(c, "Invalid line transaction date: "+lr.TransactionAt)
			return
		}

		lineType := statement.TransactionTypeCredit
		if lr.DebitMinor > 0 {
			lineType = statement.TransactionTypeDebit
		}

		lines = append(lines, &statement.BankStatementLine{
			ID:             uuid.New(),
			TransactionAt:  transactionAt,
			DebitMinor:     lr.DebitMinor,
			CreditMinor:    lr.CreditMinor,
			RunningBalance: lr.RunningBalance,
			Reference:      lr.Reference,
			Description:    lr.Description,
			BankCategory:   lr.BankCategory,
			Beneficiary:    lr.Beneficiary,
			OriginAccount:  lr.OriginAccount,
			Type:           lineType,
		})
	}

	st, err := h.ingestionService.ImportStatement(c.Request.Context(), accountID, period, req.OpeningBalanceMinor, req.ClosingBalanceMinor, lines)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrAccountNotFound{}):
			RespondNotFound(c, "Account not found")
		case errors.Is(err, service.ErrAccountInactive):
			RespondConflict(c, err.Error())
		case errors.Is(err, statement.ErrNegativeAmount),
			errors.Is(err, statement.ErrDebitAndCreditSet),
			errors.Is(err, statement.ErrLineOutsidePeriod):
			RespondUnprocessable(c, err.Error())
		default:
			h.logger.Error("Failed to import statement", "account_id", accountID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, StatementResponse{
		ID:                  st.ID.String(),
		AccountID:           st.AccountID.String(),
		PeriodStart:         st.Period.Start.Format(dayFormat),
		PeriodEnd:           st.Period.End.Format(dayFormat),
		OpeningBalanceMinor: st.OpeningBalance,
		ClosingBalanceMinor: st.ClosingBalance,
		SourceLineCount:     st.SourceLineCount,
		ImportedAt:          st.ImportedAt.Format(time.RFC3339),
	})
}

// CreateTransaction records one internally tracked movement for an account
func (h *IngestionHandler) CreateTransaction(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	transactionAt, err := time.Parse(dayFormat, req.TransactionAt)
	if err != nil {
		RespondBadRequest(c, "Invalid transaction date: "+req.TransactionAt)
		return
	}

	txnType := ledger.TransactionTypeCredit
	if req.AmountMinor < 0 {
		txnType = ledger.TransactionTypeDebit
	}

	txn := &ledger.InternalTransaction{
		ID:             uuid.New(),
		AccountID:      accountID,
		TransactionAt:  transactionAt,
		AmountMinor:    req.AmountMinor,
		Type:           txnType,
		Reference:      req.Reference,
		Description:    req.Description,
		SourceEntityID: req.SourceEntityID,
		CreatedAt:      time.Now(),
	}

	if err := h.ingestionService.CreateInternalTransaction(c.Request.Context(), txn); err != nil {
		switch {
		case errors.Is(err, account.ErrAccountNotFound{}):
			RespondNotFound(c, "Account not found")
		case errors.Is(err, ledger.ErrZeroAmount):
			RespondUnprocessable(c, err.Error())
		default:
			h.logger.Error("Failed to create internal transaction", "account_id", accountID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, gin.H{"transaction_id": txn.ID.String()})
}

// parsePeriod parses the inclusive day bounds of a reconciliation period
func parsePeriod(start, end string) (shared.Period, error) {
	startDay, err := time.Parse(dayFormat, start)
	if err != nil {
		return shared.Period{}, errors.New("invalid period start: " + start)
	}
	endDay, err := time.Parse(dayFormat, end)
	if err != nil {
		return shared.Period{}, errors.New("invalid period end: " + end)
	}
	return shared.NewPeriod(startDay, endDay)
}
