package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/bankrecon-engine/internal/domain/account"
	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/domain/statement"
)

// MockAccountRepository is a mock implementation of account.Repository
type MockAccountRepository struct {
	mock.Mock
}

var _ account.Repository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) Create(ctx context.Context, cfg *account.BankAccountConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.BankAccountConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.BankAccountConfig), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, cfg *account.BankAccountConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	args := m.Called(tx)
	return args.Get(0).(account.Repository)
}

// MockStatementRepository is a mock implementation of statement.Repository
type MockStatementRepository struct {
	mock.Mock
}

var _ statement.Repository = (*MockStatementRepository)(nil)

func (m *MockStatementRepository) CreateWithLines(ctx context.Context, st *statement.BankStatement, lines []*statement.BankStatementLine) error {
	args := m.Called(ctx, st, lines)
	return args.Error(0)
}

func (m *MockStatementRepository) GetByID(ctx context.Context, id uuid.UUID) (*statement.BankStatement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statement.BankStatement), args.Error(1)
}

func (m *MockStatementRepository) GetLinesByIDs(ctx context.Context, lineIDs []uuid.UUID) ([]*statement.BankStatementLine, error) {
	args := m.Called(ctx, lineIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*statement.BankStatementLine), args.Error(1)
}

func (m *MockStatementRepository) LoadUnreconciledLines(ctx context.Context, accountID uuid.UUID, period shared.Period) ([]*statement.BankStatementLine, error) {
	args := m.Called(ctx, accountID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*statement.BankStatementLine), args.Error(1)
}

func (m *MockStatementRepository) MarkLinesReconciled(ctx context.Context, lineIDs []uuid.UUID) error {
	args := m.Called(ctx, lineIDs)
	return args.Error(0)
}

func (m *MockStatementRepository) WithTx(tx pgx.Tx) statement.Repository {
	args := m.Called(tx)
	return args.Get(0).(statement.Repository)
}

// MockLedgerRepository is a mock implementation of ledger.Repository
type MockLedgerRepository struct {
	mock.Mock
}

var _ ledger.Repository = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) Create(ctx context.Context, txn *ledger.InternalTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.InternalTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InternalTransaction), args.Error(1)
}

func (m *MockLedgerRepository) LoadUnreconciledTransactions(ctx context.Context, accountID uuid.UUID, period shared.Period) ([]*ledger.InternalTransaction, error) {
	args := m.Called(ctx, accountID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.InternalTransaction), args.Error(1)
}

func (m *MockLedgerRepository) MarkTransactionsReconciled(ctx context.Context, txnIDs []uuid.UUID) error {
	args := m.Called(ctx, txnIDs)
	return args.Error(0)
}

func (m *MockLedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	args := m.Called(tx)
	return args.Get(0).(ledger.Repository)
}

// MockReconciliationRepository is a mock implementation of recon.Repository
type MockReconciliationRepository struct {
	mock.Mock
}

var _ recon.Repository = (*MockReconciliationRepository)(nil)

func (m *MockReconciliationRepository) ClaimRun(ctx context.Context, run *recon.Reconciliation) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockReconciliationRepository) GetByID(ctx context.Context, id uuid.UUID) (*recon.Reconciliation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) GetActiveByKey(ctx context.Context, accountID uuid.UUID, period shared.Period) (*recon.Reconciliation, error) {
	args := m.Called(ctx, accountID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) UpdateStatus(ctx context.Context, run *recon.Reconciliation) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockReconciliationRepository) RequestCancel(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReconciliationRepository) IsCancelRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReconciliationRepository) PersistMatches(ctx context.Context, matches []*recon.Match) error {
	args := m.Called(ctx, matches)
	return args.Error(0)
}

func (m *MockReconciliationRepository) PersistDiscrepancies(ctx context.Context, discrepancies []*recon.Discrepancy) error {
	args := m.Called(ctx, discrepancies)
	return args.Error(0)
}

func (m *MockReconciliationRepository) PersistSuggestions(ctx context.Context, suggestions []*recon.Suggestion) error {
	args := m.Called(ctx, suggestions)
	return args.Error(0)
}

func (m *MockReconciliationRepository) ListMatches(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Match, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recon.Match), args.Error(1)
}

func (m *MockReconciliationRepository) ListDiscrepancies(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Discrepancy, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recon.Discrepancy), args.Error(1)
}

func (m *MockReconciliationRepository) ListSuggestions(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Suggestion, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recon.Suggestion), args.Error(1)
}

func (m *MockReconciliationRepository) UpdateDiscrepancy(ctx context.Context, d *recon.Discrepancy) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockReconciliationRepository) UpdateSuggestionStatus(ctx context.Context, id uuid.UUID, status recon.SuggestionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockReconciliationRepository) WithTx(tx pgx.Tx) recon.Repository {
	args := m.Called(tx)
	return args.Get(0).(recon.Repository)
}

// MockReportRepository is a mock implementation of recon.ReportRepository
type MockReportRepository struct {
	mock.Mock
}

var _ recon.ReportRepository = (*MockReportRepository)(nil)

func (m *MockReportRepository) Save(ctx context.Context, report *recon.RunReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) GetByReconciliationID(ctx context.Context, reconciliationID uuid.UUID) (*recon.RunReport, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.RunReport), args.Error(1)
}

func (m *MockReportRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*recon.RunReport, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recon.RunReport), args.Error(1)
}

// MockMessagePublisher is a mock implementation of producers.MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
