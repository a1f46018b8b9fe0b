package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/domain/statement"
	"github.com/bankrecon-engine/internal/platform/persistence"
)

// StatementRepository implements the statement.Repository interface for PostgreSQL
type StatementRepository struct {
	querier persistence.Querier
	db      *persistence.PostgresDB // nil when wrapped in a transaction
	logger  *slog.Logger
}

// NewStatementRepository creates a new PostgreSQL statement repository
func NewStatementRepository(logger *slog.Logger, db *persistence.PostgresDB) statement.Repository {
	return &StatementRepository{
		querier: db.Pool(),
		db:      db,
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *StatementRepository) WithTx(tx pgx.Tx) statement.Repository {
	return &StatementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateWithLines stores a statement and all its lines atomically. A failed
// line insert rolls back the whole import.
func (r *StatementRepository) CreateWithLines(ctx context.Context, st *statement.BankStatement, lines []*statement.BankStatementLine) error {
	if r.db != nil {
		return r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			return r.createWithLines(ctx, tx, st, lines)
		})
	}
	return r.createWithLines(ctx, r.querier, st, lines)
}

func (r *StatementRepository) createWithLines(ctx context.Context, q persistence.Querier, st *statement.BankStatement, lines []*statement.BankStatementLine) error {
	statementQuery := `
		INSERT INTO bank_statements (id, account_id, period_start, period_end, opening_balance, closing_balance, source_line_count, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, statementQuery,
		st.ID,
		st.AccountID,
		st.Period.Start,
		st.Period.End,
		st.OpeningBalance,
		st.ClosingBalance,
		st.SourceLineCount,
		st.ImportedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create bank statement", "account_id", st.AccountID.String(), "error", err)
		return fmt.Errorf("failed to create bank statement: %w", err)
	}

	lineQuery := `
		INSERT INTO bank_statement_lines (id, statement_id, transaction_at, debit_minor, credit_minor, running_balance, reference, description, bank_category, beneficiary, origin_account, type, is_reconciled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, line := range lines {
		_, err := q.Exec(ctx, lineQuery,
			line.ID,
			line.StatementID,
			line.TransactionAt,
			line.DebitMinor,
			line.CreditMinor,
			line.RunningBalance,
			line.Reference,
			line.Description,
			line.BankCategory,
			line.Beneficiary,
			line.OriginAccount,
			line.Type,
			line.IsReconciled,
		)
		if err != nil {
			r.logger.Error("Failed to create statement line",
				"statement_id", st.ID.String(),
				"line_id", line.ID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to create statement line: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a statement by its ID
func (r *StatementRepository) GetByID(ctx context.Context, id uuid.UUID) (*statement.BankStatement, error) {
	query := `
		SELECT id, account_id, period_start, period_end, opening_balance, closing_balance, source_line_count, imported_at
		FROM bank_statements
		WHERE id = $1
	`

	var st statement.BankStatement
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&st.ID,
		&st.AccountID,
		&st.Period.Start,
		&st.Period.End,
		&st.OpeningBalance,
		&st.ClosingBalance,
		&st.SourceLineCount,
		&st.ImportedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, statement.ErrStatementNotFound{StatementID: id}
		}
		r.logger.Error("Failed to get bank statement", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get bank statement: %w", err)
	}

	return &st, nil
}

// GetLinesByIDs returns the lines with the given ids
func (r *StatementRepository) GetLinesByIDs(ctx context.Context, lineIDs []uuid.UUID) ([]*statement.BankStatementLine, error) {
	if len(lineIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, statement_id, transaction_at, debit_minor, credit_minor, running_balance, reference, description, bank_category, beneficiary, origin_account, type, is_reconciled
		FROM bank_statement_lines
		WHERE id = ANY($1)
		ORDER BY id ASC
	`

	rows, err := r.querier.Query(ctx, query, lineIDs)
	if err != nil {
		r.logger.Error("Failed to get statement lines by ids", "error", err)
		return nil, fmt.Errorf("failed to get statement lines by ids: %w", err)
	}
	defer rows.Close()

	var lines []*statement.BankStatementLine
	for rows.Next() {
		var line statement.BankStatementLine
		err := rows.Scan(
			&line.ID,
			&line.StatementID,
			&line.TransactionAt,
			&line.DebitMinor,
			&line.CreditMinor,
			&line.RunningBalance,
			&line.Reference,
			&line.Description,
			&line.BankCategory,
			&line.Beneficiary,
			&line.OriginAccount,
			&line.Type,
			&line.IsReconciled,
		)
		if err != nil {
			r.logger.Error("Failed to scan statement line", "error", err)
			return nil, fmt.Errorf("failed to scan statement line: %w", err)
		}
		lines = append(lines, &line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over statement lines", "error", err)
		return nil, fmt.Errorf("error iterating over statement lines: %w", err)
	}

	return lines, nil
}

// LoadUnreconciledLines returns the account's statement lines inside the period
// that are not part of an approved match yet, ordered for deterministic runs.
func (r *StatementRepository) LoadUnreconciledLines(ctx context.Context, accountID uuid.UUID, period shared.Period) ([]*statement.BankStatementLine, error) {
	query := `
		SELECT l.id, l.statement_id, l.transaction_at, l.debit_minor, l.credit_minor, l.running_balance, l.reference, l.description, l.bank_category, l.beneficiary, l.origin_account, l.type, l.is_reconciled
		FROM bank_statement_lines l
		JOIN bank_statements s ON s.id = l.statement_id
		WHERE s.account_id = $1
		  AND l.transaction_at >= $2
		  AND l.transaction_at < $3
		  AND l.is_reconciled = FALSE
		ORDER BY l.transaction_at ASC, l.id ASC
	`

	// The period's end day is inclusive; query with the following midnight
	rows, err := r.querier.Query(ctx, query, accountID, period.Start, period.End.AddDate(0, 0, 1))
	if err != nil {
		r.logger.Error("Failed to load unreconciled statement lines", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to load unreconciled statement lines: %w", err)
	}
	defer rows.Close()

	var lines []*statement.BankStatementLine
	for rows.Next() {
		var line statement.BankStatementLine
		err := rows.Scan(
			&line.ID,
			&line.StatementID,
			&line.TransactionAt,
			&line.DebitMinor,
			&line.CreditMinor,
			&line.RunningBalance,
			&line.Reference,
			&line.Description,
			&line.BankCategory,
			&line.Beneficiary,
			&line.OriginAccount,
			&line.Type,
			&line.IsReconciled,
		)
		if err != nil {
			r.logger.Error("Failed to scan statement line", "error", err)
			return nil, fmt.Errorf("failed to scan statement line: %w", err)
		}
		lines = append(lines, &line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over statement lines", "error", err)
		return nil, fmt.Errorf("error iterating over statement lines: %w", err)
	}

	return lines, nil
}

// MarkLinesReconciled flips the reconciled flag on the given lines. Called only
// when a reconciliation run is approved.
func (r *StatementRepository) MarkLinesReconciled(ctx context.Context, lineIDs []uuid.UUID) error {
	if len(lineIDs) == 0 {
		return nil
	}

	query := `
		UPDATE bank_statement_lines
		SET is_reconciled = TRUE
		WHERE id = ANY($1)
	`

	result, err := r.querier.Exec(ctx, query, lineIDs)
	if err != nil {
		r.logger.Error("Failed to mark statement lines reconciled", "error", err)
		return fmt.Errorf("failed to mark statement lines reconciled: %w", err)
	}

	if int(result.RowsAffected()) != len(lineIDs) {
		r.logger.Warn("Marked fewer statement lines than requested",
			"requested", len(lineIDs),
			"updated", result.RowsAffected(),
		)
	}

	return nil
}
