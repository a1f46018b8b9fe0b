package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bankrecon-engine/internal/domain/shared"
)

// Repository reads internal transactions for matching and flags them on approval
type Repository interface {
	Create(ctx context.Context, txn *InternalTransaction) error

	GetByID(ctx context.Context, id uuid.UUID) (*InternalTransaction, error)

	// LoadUnreconciledTransactions returns the account's unreconciled
	// transactions dated inside the period
	LoadUnreconciledTransactions(ctx context.Context, accountID uuid.UUID, period shared.Period) ([]*InternalTransaction, error)

	// MarkTransactionsReconciled flips IsReconciled; called only on run approval
	MarkTransactionsReconciled(ctx context.Context, txnIDs []uuid.UUID) error

	// WithTx returns a repository instance that uses the provided transaction
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates missing internal transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "internal transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
