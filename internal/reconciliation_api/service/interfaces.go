package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/account"
	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/domain/statement"
)

// Common service errors
var (
	ErrAccountInactive         = errors.New("account configuration is inactive")
	ErrRunNotReviewable        = errors.New("reconciliation is not awaiting review")
	ErrUnresolvedDiscrepancies = errors.New("reconciliation has unresolved discrepancies")
	ErrUnbalancedMatch         = errors.New("manual match amounts do not balance")
	ErrItemsAlreadyReconciled  = errors.New("one or more items are already reconciled")
	ErrItemsAlreadyMatched     = errors.New("one or more items are already part of a committed match")
)

// AccountService defines the interface for account configuration operations
type AccountService interface {
	// CreateAccount registers a bank account configuration for a tenant.
	// Returns ErrDuplicateProvider when the tenant already configured the provider.
	CreateAccount(ctx context.Context, tenantID uuid.UUID, provider, currency string, method account.ImportMethod) (*account.BankAccountConfig, error)

	// GetAccountByID retrieves an account configuration by its ID
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.BankAccountConfig, error)

	// DeactivateAccount marks the configuration inactive; new runs are rejected
	DeactivateAccount(ctx context.Context, id uuid.UUID) (*account.BankAccountConfig, error)
}

// IngestionService defines the interface for loading both sides of a
// reconciliation: bank statements and internal transactions
type IngestionService interface {
	// ImportStatement validates and stores a statement with its lines atomically
	ImportStatement(ctx context.Context, accountID uuid.UUID, period shared.Period, opening, closing int64, lines []*statement.BankStatementLine) (*statement.BankStatement, error)

	// CreateInternalTransaction records one internally tracked movement
	CreateInternalTransaction(ctx context.Context, txn *ledger.InternalTransaction) error
}

// DiscrepancyResolution carries a reviewer's verdict on one discrepancy
type DiscrepancyResolution struct {
	DiscrepancyID uuid.UUID
	Status        recon.DiscrepancyStatus
	Notes         string
}

// ReconciliationService defines the interface for run lifecycle operations.
// Starting a run claims the (account, period) pair and hands execution to the
// worker through the message queue.
type ReconciliationService interface {
	// StartRun claims a run and publishes it for asynchronous execution.
	// Returns ErrRunAlreadyActive when the pair already has an active run.
	StartRun(ctx context.Context, accountID uuid.UUID, period shared.Period, method recon.Method, correlationID string) (*recon.Reconciliation, error)

	// GetRun retrieves a run by its ID
	GetRun(ctx context.Context, id uuid.UUID) (*recon.Reconciliation, error)

	// ApproveRun applies the reviewer's discrepancy resolutions, approves the
	// run, and flags every matched item as reconciled, atomically.
	// Returns ErrUnresolvedDiscrepancies when any discrepancy stays non-terminal.
	ApproveRun(ctx context.Context, id uuid.UUID, actor string, resolutions []DiscrepancyResolution) (*recon.Reconciliation, error)

	// CancelRun cancels a Pending run immediately, or requests cooperative
	// cancellation of an InProgress run
	CancelRun(ctx context.Context, id uuid.UUID, reason string) (*recon.Reconciliation, error)

	// CreateManualMatch commits a human-asserted match on a reviewable run and
	// promotes any suggestion covering the same pair
	CreateManualMatch(ctx context.Context, reconciliationID uuid.UUID, bankLineIDs, internalTxnIDs []uuid.UUID, actor string) (*recon.Match, error)

	// ListMatches returns the committed matches of a run
	ListMatches(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Match, error)

	// ListDiscrepancies returns the discrepancies of a run
	ListDiscrepancies(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Discrepancy, error)

	// ListSuggestions returns the scored suggestions of a run
	ListSuggestions(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Suggestion, error)

	// GetReport retrieves the denormalized run report from the document store
	GetReport(ctx context.Context, reconciliationID uuid.UUID) (*recon.RunReport, error)

	// ListReports returns recent run reports for an account, newest first
	ListReports(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*recon.RunReport, error)
}
