// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the reconciliation system.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bankrecon-engine/internal/domain/account"
	"github.com/bankrecon-engine/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account configuration. Provider identifiers are unique
// per tenant; a second config for the same provider is rejected.
func (r *AccountRepository) Create(ctx context.Context, cfg *account.BankAccountConfig) error {
	query := `
		INSERT INTO bank_account_configs (id, tenant_id, provider, currency, import_method, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		cfg.ID,
		cfg.TenantID,
		cfg.Provider,
		cfg.Currency,
		cfg.ImportMethod,
		cfg.Active,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return account.ErrDuplicateProvider{Provider: cfg.Provider}
		}
		r.logger.Error("Failed to create account config", "error", err)
		return fmt.Errorf("failed to create account config: %w", err)
	}

	return nil
}

// GetByID retrieves an account configuration by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.BankAccountConfig, error) {
	query := `
		SELECT id, tenant_id, provider, currency, import_method, active, created_at, updated_at
		FROM bank_account_configs
		WHERE id = $1
	`

	var cfg account.BankAccountConfig
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&cfg.ID,
		&cfg.TenantID,
		&cfg.Provider,
		&cfg.Currency,
		&cfg.ImportMethod,
		&cfg.Active,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account config", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account config: %w", err)
	}

	return &cfg, nil
}

// Update updates an existing account configuration
func (r *AccountRepository) Update(ctx context.Context, cfg *account.BankAccountConfig) error {
	query := `
		UPDATE bank_account_configs
		SET provider = $1, currency = $2, import_method = $3, active = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		cfg.Provider,
		cfg.Currency,
		cfg.ImportMethod,
		cfg.Active,
		cfg.UpdatedAt,
		cfg.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update account config", "id", cfg.ID.String(), "error", err)
		return fmt.Errorf("failed to update account config: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: cfg.ID}
	}

	return nil
}
