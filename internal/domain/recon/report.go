package recon

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunReport is the denormalized document describing one finished run. It is
// written once by the worker when a run reaches Completed, RequiresReview, or
// Cancelled, and serves audit and review reads without touching the relational
// stores.
type RunReport struct {
	ReconciliationID uuid.UUID `bson:"reconciliation_id" json:"reconciliation_id"`
	AccountID        uuid.UUID `bson:"account_id" json:"account_id"`
	PeriodStart      time.Time `bson:"period_start" json:"period_start"`
	PeriodEnd        time.Time `bson:"period_end" json:"period_end"`
	Status           Status    `bson:"status" json:"status"`
	Method           Method    `bson:"method" json:"method"`

	MatchedCount     int     `bson:"matched_count" json:"matched_count"`
	DiscrepancyCount int     `bson:"discrepancy_count" json:"discrepancy_count"`
	SuggestionCount  int     `bson:"suggestion_count" json:"suggestion_count"`
	TotalCount       int     `bson:"total_count" json:"total_count"`
	MatchRate        float64 `bson:"match_rate" json:"match_rate"`

	MatchedAmountMinor int64 `bson:"matched_amount_minor" json:"matched_amount_minor"`

	MatchesByType       map[string]int `bson:"matches_by_type" json:"matches_by_type"`
	DiscrepanciesByType map[string]int `bson:"discrepancies_by_type" json:"discrepancies_by_type"`

	Events []RunEvent `bson:"events" json:"events"`

	GeneratedAt    time.Time `bson:"generated_at" json:"generated_at"`
	DurationMillis int64     `bson:"duration_millis" json:"duration_millis"`
}

// RunEvent is one audit trail entry recorded while the run executed
type RunEvent struct {
	Stage      string    `bson:"stage" json:"stage"`
	Message    string    `bson:"message" json:"message"`
	OccurredAt time.Time `bson:"occurred_at" json:"occurred_at"`
}

// ReportRepository stores run reports in the document store
type ReportRepository interface {
	// Save upserts the report keyed by reconciliation id; a re-run of a cancelled
	// run overwrites the stale report
	Save(ctx context.Context, report *RunReport) error
	GetByReconciliationID(ctx context.Context, reconciliationID uuid.UUID) (*RunReport, error)
	// ListByAccount returns recent reports for an account, newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*RunReport, error)
}

// ErrReportNotFound indicates no report document exists for the run
type ErrReportNotFound struct {
	ReconciliationID uuid.UUID
}

func (e ErrReportNotFound) Error() string {
	return "run report not found: " + e.ReconciliationID.String()
}

// Is implements the errors.Is interface for ErrReportNotFound
func (e ErrReportNotFound) Is(target error) bool {
	t, ok := target.(ErrReportNotFound)
	if !ok {
		return false
	}
	if t.ReconciliationID == uuid.Nil {
		return true
	}
	return e.ReconciliationID == t.ReconciliationID
}
