package statement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bankrecon-engine/internal/domain/shared"
)

// Repository manages statement and statement line persistence
type Repository interface {
	// CreateWithLines stores a statement and its lines atomically
	CreateWithLines(ctx context.Context, st *BankStatement, lines []*BankStatementLine) error

	GetByID(ctx context.Context, id uuid.UUID) (*BankStatement, error)

	// GetLinesByIDs returns the lines with the given ids, in id order
	GetLinesByIDs(ctx context.Context, lineIDs []uuid.UUID) ([]*BankStatementLine, error)

	// LoadUnreconciledLines returns the lines of the account's statements inside
	// the period that have not been included in an approved match yet
	LoadUnreconciledLines(ctx context.Context, accountID uuid.UUID, period shared.Period) ([]*BankStatementLine, error)

	// MarkLinesReconciled flips IsReconciled on the given lines; called only when
	// a reconciliation run is approved
	MarkLinesReconciled(ctx context.Context, lineIDs []uuid.UUID) error

	// WithTx returns a repository instance that uses the provided transaction
	WithTx(tx pgx.Tx) Repository
}

// ErrStatementNotFound indicates missing statement
type ErrStatementNotFound struct {
	StatementID uuid.UUID
}

func (e ErrStatementNotFound) Error() string {
	return "bank statement not found: " + e.StatementID.String()
}

// Is implements the errors.Is interface for ErrStatementNotFound
func (e ErrStatementNotFound) Is(target error) bool {
	t, ok := target.(ErrStatementNotFound)
	if !ok {
		return false
	}
	if t.StatementID == uuid.Nil {
		return true
	}
	return e.StatementID == t.StatementID
}
