package recon

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bankrecon-engine/internal/domain/shared"
)

// Repository manages reconciliation run persistence. ClaimRun is the single
// exclusivity control point: it must atomically fail when another run with an
// Active status exists for the same (account, period).
type Repository interface {
	// ClaimRun atomically inserts a Pending run for the pair, or fails with
	// ErrRunAlreadyActive when a non-terminal run exists
	ClaimRun(ctx context.Context, run *Reconciliation) error

	GetByID(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
	GetActiveByKey(ctx context.Context, accountID uuid.UUID, period shared.Period) (*Reconciliation, error)

	// UpdateStatus persists a state transition already validated by the domain
	UpdateStatus(ctx context.Context, run *Reconciliation) error

	// RequestCancel sets the cooperative cancellation flag on an Active run
	RequestCancel(ctx context.Context, id uuid.UUID) error
	// IsCancelRequested reads the flag; the worker polls it between strategy passes
	IsCancelRequested(ctx context.Context, id uuid.UUID) (bool, error)

	PersistMatches(ctx context.Context, matches []*Match) error
	PersistDiscrepancies(ctx context.Context, discrepancies []*Discrepancy) error
	PersistSuggestions(ctx context.Context, suggestions []*Suggestion) error

	ListMatches(ctx context.Context, reconciliationID uuid.UUID) ([]*Match, error)
	ListDiscrepancies(ctx context.Context, reconciliationID uuid.UUID) ([]*Discrepancy, error)
	ListSuggestions(ctx context.Context, reconciliationID uuid.UUID) ([]*Suggestion, error)

	UpdateDiscrepancy(ctx context.Context, d *Discrepancy) error
	UpdateSuggestionStatus(ctx context.Context, id uuid.UUID, status SuggestionStatus) error

	// WithTx returns a repository instance that uses the provided transaction
	WithTx(tx pgx.Tx) Repository
}

// ErrRunAlreadyActive indicates a claim attempt while a non-terminal run exists
// for the same account and period
type ErrRunAlreadyActive struct {
	AccountID uuid.UUID
	PeriodKey string
}

func (e ErrRunAlreadyActive) Error() string {
	return "reconciliation already active for account " + e.AccountID.String() + " period " + e.PeriodKey
}

// Is implements the errors.Is interface for ErrRunAlreadyActive
func (e ErrRunAlreadyActive) Is(target error) bool {
	t, ok := target.(ErrRunAlreadyActive)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID && e.PeriodKey == t.PeriodKey
}

// ErrRunNotFound indicates missing reconciliation run
type ErrRunNotFound struct {
	ReconciliationID uuid.UUID
}

func (e ErrRunNotFound) Error() string {
	return "reconciliation not found: " + e.ReconciliationID.String()
}

// Is implements the errors.Is interface for ErrRunNotFound
func (e ErrRunNotFound) Is(target error) bool {
	t, ok := target.(ErrRunNotFound)
	if !ok {
		return false
	}
	if t.ReconciliationID == uuid.Nil {
		return true
	}
	return e.ReconciliationID == t.ReconciliationID
}
