package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/account"
	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/domain/statement"
)

// IngestionServiceImpl implements the IngestionService interface
type IngestionServiceImpl struct {
	accountRepo   account.Repository
	statementRepo statement.Repository
	ledgerRepo    ledger.Repository
	logger        *slog.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(logger *slog.Logger, accountRepo account.Repository, statementRepo statement.Repository, ledgerRepo ledger.Repository) IngestionService {
	return &IngestionServiceImpl{
		accountRepo:   accountRepo,
		statementRepo: statementRepo,
		ledgerRepo:    ledgerRepo,
		logger:        logger,
	}
}

// ImportStatement validates and stores a statement with its lines atomically.
// Every line must pass the debit-XOR-credit check and fall inside the period;
// one bad line rejects the whole import.
func (s *IngestionServiceImpl) ImportStatement(ctx context.Context, accountID uuid.UUID, period shared.Period, opening, closing int64, lines []*statement.BankStatementLine) (*statement.BankStatement, error) {
	cfg, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !cfg.Active {
		return nil, ErrAccountInactive
	}

	st := statement.NewBankStatement(accountID, period, opening, closing, len(lines))

	for _, line := range lines {
		line.StatementID = st.ID
		if err := line.Validate(); err != nil {
			s.logger.Error("Rejected statement line",
				"account_id", accountID.String(),
				"reference", line.Reference,
				"error", err,
			)
			return nil, err
		}
		if !period.Contains(line.TransactionAt) {
			return nil, statement.ErrLineOutsidePeriod
		}
	}

	if err := s.statementRepo.CreateWithLines(ctx, st, lines); err != nil {
		return nil, err
	}

	s.logger.Info("Statement imported",
		"statement_id", st.ID.String(),
		"account_id", accountID.String(),
		"period", period.Key(),
		"lines", len(lines),
	)
	return st, nil
}

// CreateInternalTransaction records one internally tracked movement
func (s *IngestionServiceImpl) CreateInternalTransaction(ctx context.Context, txn *ledger.InternalTransaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	if _, err := s.accountRepo.GetByID(ctx, txn.AccountID); err != nil {
		return err
	}

	if err := s.ledgerRepo.Create(ctx, txn); err != nil {
		s.logger.Error("Failed to create internal transaction",
			"account_id", txn.AccountID.String(),
			"error", err,
		)
		return err
	}

	return nil
}
