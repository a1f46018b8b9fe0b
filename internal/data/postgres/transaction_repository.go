package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/platform/persistence"
)

// TransactionRepository implements the ledger.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL internal transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *TransactionRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new internal transaction
func (r *TransactionRepository) Create(ctx context.Context, txn *ledger.InternalTransaction) error {
	query := `
		INSERT INTO internal_transactions (id, account_id, transaction_at, amount_minor, type, reference, description, source_entity_id, is_reconciled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.TransactionAt,
		txn.AmountMinor,
		txn.Type,
		txn.Reference,
		txn.Description,
		txn.SourceEntityID,
		txn.IsReconciled,
		txn.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create internal transaction", "error", err)
		return fmt.Errorf("failed to create internal transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an internal transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.InternalTransaction, error) {
	query := `
		SELECT id, account_id, transaction_at, amount_minor, type, reference, description, source_entity_id, is_reconciled, created_at
		FROM internal_transactions
		WHERE id = $1
	`

	var txn ledger.InternalTransaction
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.TransactionAt,
		&txn.AmountMinor,
		&txn.Type,
		&txn.Reference,
		&txn.Description,
		&txn.SourceEntityID,
		&txn.IsReconciled,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get internal transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get internal transaction: %w", err)
	}

	return &txn, nil
}

// LoadUnreconciledTransactions returns the account's unreconciled transactions
// dated inside the period, ordered for deterministic runs.
func (r *TransactionRepository) LoadUnreconciledTransactions(ctx context.Context, accountID uuid.UUID, period shared.Period) ([]*ledger.InternalTransaction, error) {
	query := `
		SELECT id, account_id, transaction_at, amount_minor, type, reference, description, source_entity_id, is_reconciled, created_at
		FROM internal_transactions
		WHERE account_id = $1
		  AND transaction_at >= $2
		  AND transaction_at < $3
		  AND is_reconciled = FALSE
		ORDER BY transaction_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, accountID, period.Start, period.End.AddDate(0, 0, 1))
	if err != nil {
		r.logger.Error("Failed to load unreconciled transactions", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to load unreconciled transactions: %w", err)
	}
	defer rows.Close()

	var txns []*ledger.InternalTransaction
	for rows.Next() {
		var txn ledger.InternalTransaction
		err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&txn.TransactionAt,
			&txn.AmountMinor,
			&txn.Type,
			&txn.Reference,
			&txn.Description,
			&txn.SourceEntityID,
			&txn.IsReconciled,
			&txn.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan internal transaction", "error", err)
			return nil, fmt.Errorf("failed to scan internal transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over internal transactions", "error", err)
		return nil, fmt.Errorf("error iterating over internal transactions: %w", err)
	}

	return txns, nil
}

// MarkTransactionsReconciled flips the reconciled flag on the given
// transactions. Called only when a reconciliation run is approved.
func (r *TransactionRepository) MarkTransactionsReconciled(ctx context.Context, txnIDs []uuid.UUID) error {
	if len(txnIDs) == 0 {
		return nil
	}

	query := `
		UPDATE internal_transactions
		SET is_reconciled = TRUE
		WHERE id = ANY($1)
	`

	result, err := r.querier.Exec(ctx, query, txnIDs)
	if err != nil {
		r.logger.Error("Failed to mark internal transactions reconciled", "error", err)
		return fmt.Errorf("failed to mark internal transactions reconciled: %w", err)
	}

	if int(result.RowsAffected()) != len(txnIDs) {
		r.logger.Warn("Marked fewer internal transactions than requested",
			"requested", len(txnIDs),
			"updated", result.RowsAffected(),
		)
	}

	return nil
}
