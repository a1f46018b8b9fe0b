package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account configuration persistence operations
type Repository interface {
	Create(ctx context.Context, cfg *BankAccountConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*BankAccountConfig, error)
	Update(ctx context.Context, cfg *BankAccountConfig) error

	// WithTx returns a repository instance that uses the provided transaction
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account configuration
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "bank account config not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrDuplicateProvider indicates provider uniqueness violation within a tenant
type ErrDuplicateProvider struct {
	Provider string
}

func (e ErrDuplicateProvider) Error() string {
	return "account config for provider already exists: " + e.Provider
}
