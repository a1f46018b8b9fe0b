package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/platform/persistence"
)

const reconciliationColumns = `id, account_id, period_start, period_end, status, method, matched_count, discrepancy_count, total_count, match_rate, cancel_requested, failure_reason, started_at, completed_at`

// ReconciliationRepository implements the recon.Repository interface for PostgreSQL
type ReconciliationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewReconciliationRepository creates a new PostgreSQL reconciliation repository
func NewReconciliationRepository(logger *slog.Logger, db *persistence.PostgresDB) recon.Repository {
	return &ReconciliationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *ReconciliationRepository) WithTx(tx pgx.Tx) recon.Repository {
	return &ReconciliationRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// ClaimRun atomically inserts a Pending run for the (account, period) pair.
// The insert is guarded twice: the NOT EXISTS predicate rejects concurrent
// claims seen by this statement, and the partial unique index on active runs
// rejects the race the predicate cannot see.
func (r *ReconciliationRepository) ClaimRun(ctx context.Context, run *recon.Reconciliation) error {
	query := `
		INSERT INTO reconciliations (id, account_id, period_start, period_end, status, method, matched_count, discrepancy_count, total_count, match_rate, cancel_requested, failure_reason, started_at)
		SELECT $1, $2, $3, $4, $5, $6, 0, 0, 0, 0, FALSE, '', $7
		WHERE NOT EXISTS (
			SELECT 1 FROM reconciliations
			WHERE account_id = $2
			  AND period_start = $3
			  AND period_end = $4
			  AND status IN ('PENDING', 'IN_PROGRESS', 'REQUIRES_REVIEW')
		)
	`

	result, err := r.querier.Exec(ctx, query,
		run.ID,
		run.AccountID,
		run.Period.Start,
		run.Period.End,
		run.Status,
		run.Method,
		run.StartedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return recon.ErrRunAlreadyActive{AccountID: run.AccountID, PeriodKey: run.Period.Key()}
		}
		r.logger.Error("Failed to claim reconciliation run",
			"account_id", run.AccountID.String(),
			"period", run.Period.Key(),
			"error", err,
		)
		return fmt.Errorf("failed to claim reconciliation run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return recon.ErrRunAlreadyActive{AccountID: run.AccountID, PeriodKey: run.Period.Key()}
	}

	return nil
}

// GetByID retrieves a reconciliation run by its ID
func (r *ReconciliationRepository) GetByID(ctx context.Context, id uuid.UUID) (*recon.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE id = $1`

	run, err := r.scanReconciliation(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recon.ErrRunNotFound{ReconciliationID: id}
		}
		r.logger.Error("Failed to get reconciliation run", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get reconciliation run: %w", err)
	}

	return run, nil
}

// GetActiveByKey retrieves the active run for an (account, period) pair.
// Returns nil, nil when no active run exists.
func (r *ReconciliationRepository) GetActiveByKey(ctx context.Context, accountID uuid.UUID, period shared.Period) (*recon.Reconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM reconciliations
		WHERE account_id = $1
		  AND period_start = $2
		  AND period_end = $3
		  AND status IN ('PENDING', 'IN_PROGRESS', 'REQUIRES_REVIEW')
	`

	run, err := r.scanReconciliation(r.querier.QueryRow(ctx, query, accountID, period.Start, period.End))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get active reconciliation run",
			"account_id", accountID.String(),
			"period", period.Key(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get active reconciliation run: %w", err)
	}

	return run, nil
}

// UpdateStatus persists a state transition already validated by the domain,
// along with the run's result counters.
func (r *ReconciliationRepository) UpdateStatus(ctx context.Context, run *recon.Reconciliation) error {
	query := `
		UPDATE reconciliations
		SET status = $1, matched_count = $2, discrepancy_count = $3, total_count = $4, match_rate = $5, failure_reason = $6, completed_at = $7
		WHERE id = $8
	`

	result, err := r.querier.Exec(ctx, query,
		run.Status,
		run.MatchedCount,
		run.DiscrepancyCount,
		run.TotalCount,
		run.MatchRate,
		run.FailureReason,
		run.CompletedAt,
		run.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update reconciliation status",
			"id", run.ID.String(),
			"status", string(run.Status),
			"error", err,
		)
		return fmt.Errorf("failed to update reconciliation status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return recon.ErrRunNotFound{ReconciliationID: run.ID}
	}

	return nil
}

// RequestCancel sets the cooperative cancellation flag on an active run.
// The worker observes the flag between strategy passes and stops cleanly.
func (r *ReconciliationRepository) RequestCancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE reconciliations
		SET cancel_requested = TRUE
		WHERE id = $1 AND status IN ('PENDING', 'IN_PROGRESS')
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to request reconciliation cancel", "id", id.String(), "error", err)
		return fmt.Errorf("failed to request reconciliation cancel: %w", err)
	}

	if result.RowsAffected() == 0 {
		return recon.ErrRunNotFound{ReconciliationID: id}
	}

	return nil
}

// IsCancelRequested reads the cancellation flag for a run
func (r *ReconciliationRepository) IsCancelRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT cancel_requested FROM reconciliations WHERE id = $1`

	var requested bool
	err := r.querier.QueryRow(ctx, query, id).Scan(&requested)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, recon.ErrRunNotFound{ReconciliationID: id}
		}
		r.logger.Error("Failed to read reconciliation cancel flag", "id", id.String(), "error", err)
		return false, fmt.Errorf("failed to read reconciliation cancel flag: %w", err)
	}

	return requested, nil
}

// PersistMatches stores committed matches. Matches are immutable; there is no
// update path.
func (r *ReconciliationRepository) PersistMatches(ctx context.Context, matches []*recon.Match) error {
	query := `
		INSERT INTO reconciliation_matches (id, reconciliation_id, match_type, bank_line_ids, internal_txn_ids, confidence, amount_minor, created_by, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, m := range matches {
		_, err := r.querier.Exec(ctx, query,
			m.ID,
			m.ReconciliationID,
			m.Type,
			m.BankLineIDs,
			m.InternalTxnIDs,
			m.Confidence,
			m.AmountMinor,
			m.CreatedBy,
			m.Actor,
			m.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to persist match",
				"reconciliation_id", m.ReconciliationID.String(),
				"match_id", m.ID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to persist match: %w", err)
		}
	}

	return nil
}

// PersistDiscrepancies stores classified discrepancies
func (r *ReconciliationRepository) PersistDiscrepancies(ctx context.Context, discrepancies []*recon.Discrepancy) error {
	query := `
		INSERT INTO reconciliation_discrepancies (id, reconciliation_id, discrepancy_type, status, bank_line_ids, internal_txn_ids, amount_minor, description, resolution_notes, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, d := range discrepancies {
		_, err := r.querier.Exec(ctx, query,
			d.ID,
			d.ReconciliationID,
			d.Type,
			d.Status,
			d.BankLineIDs,
			d.InternalTxnIDs,
			d.AmountMinor,
			d.Description,
			d.ResolutionNotes,
			d.CreatedAt,
			d.ResolvedAt,
		)
		if err != nil {
			r.logger.Error("Failed to persist discrepancy",
				"reconciliation_id", d.ReconciliationID.String(),
				"discrepancy_id", d.ID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to persist discrepancy: %w", err)
		}
	}

	return nil
}

// PersistSuggestions stores scored suggestions
func (r *ReconciliationRepository) PersistSuggestions(ctx context.Context, suggestions []*recon.Suggestion) error {
	query := `
		INSERT INTO reconciliation_suggestions (id, reconciliation_id, bank_line_id, internal_txn_id, score, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, s := range suggestions {
		_, err := r.querier.Exec(ctx, query,
			s.ID,
			s.ReconciliationID,
			s.BankLineID,
			s.InternalTxnID,
			s.Score,
			s.Status,
			s.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to persist suggestion",
				"reconciliation_id", s.ReconciliationID.String(),
				"suggestion_id", s.ID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to persist suggestion: %w", err)
		}
	}

	return nil
}

// ListMatches returns the committed matches of a run ordered by creation time
func (r *ReconciliationRepository) ListMatches(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Match, error) {
	query := `
		SELECT id, reconciliation_id, match_type, bank_line_ids, internal_txn_ids, confidence, amount_minor, created_by, actor, created_at
		FROM reconciliation_matches
		WHERE reconciliation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, reconciliationID)
	if err != nil {
		r.logger.Error("Failed to list matches", "reconciliation_id", reconciliationID.String(), "error", err)
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*recon.Match
	for rows.Next() {
		var m recon.Match
		err := rows.Scan(
			&m.ID,
			&m.ReconciliationID,
			&m.Type,
			&m.BankLineIDs,
			&m.InternalTxnIDs,
			&m.Confidence,
			&m.AmountMinor,
			&m.CreatedBy,
			&m.Actor,
			&m.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan match", "error", err)
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over matches", "error", err)
		return nil, fmt.Errorf("error iterating over matches: %w", err)
	}

	return matches, nil
}

// ListDiscrepancies returns the discrepancies of a run ordered by creation time
func (r *ReconciliationRepository) ListDiscrepancies(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Discrepancy, error) {
	query := `
		SELECT id, reconciliation_id, discrepancy_type, status, bank_line_ids, internal_txn_ids, amount_minor, description, resolution_notes, created_at, resolved_at
		FROM reconciliation_discrepancies
		WHERE reconciliation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, reconciliationID)
	if err != nil {
		r.logger.Error("Failed to list discrepancies", "reconciliation_id", reconciliationID.String(), "error", err)
		return nil, fmt.Errorf("failed to list discrepancies: %w", err)
	}
	defer rows.Close()

	var discrepancies []*recon.Discrepancy
	for rows.Next() {
		var d recon.Discrepancy
		err := rows.Scan(
			&d.ID,
			&d.ReconciliationID,
			&d.Type,
			&d.Status,
			&d.BankLineIDs,
			&d.InternalTxnIDs,
			&d.AmountMinor,
			&d.Description,
			&d.ResolutionNotes,
			&d.CreatedAt,
			&d.ResolvedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan discrepancy", "error", err)
			return nil, fmt.Errorf("failed to scan discrepancy: %w", err)
		}
		discrepancies = append(discrepancies, &d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over discrepancies", "error", err)
		return nil, fmt.Errorf("error iterating over discrepancies: %w", err)
	}

	return discrepancies, nil
}

// ListSuggestions returns the suggestions of a run ordered by descending score
func (r *ReconciliationRepository) ListSuggestions(ctx context.Context, reconciliationID uuid.UUID) ([]*recon.Suggestion, error) {
	query := `
		SELECT id, reconciliation_id, bank_line_id, internal_txn_id, score, status, created_at
		FROM reconciliation_suggestions
		WHERE reconciliation_id = $1
		ORDER BY score DESC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, reconciliationID)
	if err != nil {
		r.logger.Error("Failed to list suggestions", "reconciliation_id", reconciliationID.String(), "error", err)
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*recon.Suggestion
	for rows.Next() {
		var s recon.Suggestion
		err := rows.Scan(
			&s.ID,
			&s.ReconciliationID,
			&s.BankLineID,
			&s.InternalTxnID,
			&s.Score,
			&s.Status,
			&s.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan suggestion", "error", err)
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestions = append(suggestions, &s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over suggestions", "error", err)
		return nil, fmt.Errorf("error iterating over suggestions: %w", err)
	}

	return suggestions, nil
}

// UpdateDiscrepancy persists a discrepancy lifecycle change already validated
// by the domain
func (r *ReconciliationRepository) UpdateDiscrepancy(ctx context.Context, d *recon.Discrepancy) error {
	query := `
		UPDATE reconciliation_discrepancies
		SET status = $1, resolution_notes = $2, resolved_at = $3
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query, d.Status, d.ResolutionNotes, d.ResolvedAt, d.ID)
	if err != nil {
		r.logger.Error("Failed to update discrepancy", "id", d.ID.String(), "error", err)
		return fmt.Errorf("failed to update discrepancy: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("discrepancy not found: %s", d.ID)
	}

	return nil
}

// UpdateSuggestionStatus moves a suggestion between open, promoted, and dismissed
func (r *ReconciliationRepository) UpdateSuggestionStatus(ctx context.Context, id uuid.UUID, status recon.SuggestionStatus) error {
	query := `
		UPDATE reconciliation_suggestions
		SET status = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update suggestion status", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update suggestion status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("suggestion not found: %s", id)
	}

	return nil
}

func (r *ReconciliationRepository) scanReconciliation(row pgx.Row) (*recon.Reconciliation, error) {
	var run recon.Reconciliation
	err := row.Scan(
		&run.ID,
		&run.AccountID,
		&run.Period.Start,
		&run.Period.End,
		&run.Status,
		&run.Method,
		&run.MatchedCount,
		&run.DiscrepancyCount,
		&run.TotalCount,
		&run.MatchRate,
		&run.CancelRequested,
		&run.FailureReason,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
