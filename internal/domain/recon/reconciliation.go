package recon

import (
	"time"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/shared"
)

// Reconciliation is one run over a (BankAccountConfig, period) pair. At most
// one run with an Active status may exist per pair; the repository claim
// operation enforces this.
type Reconciliation struct {
	ID               uuid.UUID     `json:"id"`
	AccountID        uuid.UUID     `json:"account_id"`
	Period           shared.Period `json:"period"`
	Status           Status        `json:"status"`
	Method           Method        `json:"method"`
	MatchedCount     int           `json:"matched_count"`
	DiscrepancyCount int           `json:"discrepancy_count"`
	TotalCount       int           `json:"total_count"`
	MatchRate        float64       `json:"match_rate"`
	CancelRequested  bool          `json:"cancel_requested"`
	FailureReason    string        `json:"failure_reason,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// ErrIllegalTransition indicates a state machine violation
type ErrIllegalTransition struct {
	From Status
	To   Status
}

func (e ErrIllegalTransition) Error() string {
	return "illegal reconciliation transition: " + string(e.From) + " -> " + string(e.To)
}

// Is implements the errors.Is interface for ErrIllegalTransition
func (e ErrIllegalTransition) Is(target error) bool {
	t, ok := target.(ErrIllegalTransition)
	if !ok {
		return false
	}
	if t.From == "" && t.To == "" {
		return true
	}
	return e.From == t.From && e.To == t.To
}

// NewReconciliation creates a claimed run in Pending state
func NewReconciliation(accountID uuid.UUID, period shared.Period, method Method) *Reconciliation {
	return &Reconciliation{
		ID:        uuid.New(),
		AccountID: accountID,
		Period:    period,
		Status:    StatusPending,
		Method:    method,
		StartedAt: time.Now(),
	}
}

// Begin transitions the run into InProgress; only a Pending run may begin
func (r *Reconciliation) Begin() error {
	if r.Status != StatusPending {
		return ErrIllegalTransition{From: r.Status, To: StatusInProgress}
	}
	r.Status = StatusInProgress
	return nil
}

// Finish records the outcome of the pipeline and classifier. The run lands in
// Completed only when nothing needs a reviewer; any discrepancy, tie, or open
// suggestion sends it to RequiresReview.
func (r *Reconciliation) Finish(matched, discrepant, total int, needsReview bool) error {
	if r.Status != StatusInProgress {
		to := StatusCompleted
		if needsReview {
			to = StatusRequiresReview
		}
		return ErrIllegalTransition{From: r.Status, To: to}
	}

	r.MatchedCount = matched
	r.DiscrepancyCount = discrepant
	r.TotalCount = total
	if total > 0 {
		r.MatchRate = float64(matched) / float64(total)
	}

	now := time.Now()
	r.CompletedAt = &now
	if needsReview {
		r.Status = StatusRequiresReview
	} else {
		r.Status = StatusCompleted
	}
	return nil
}

// Approve confirms the run; allowed only from RequiresReview or Completed
func (r *Reconciliation) Approve() error {
	if r.Status != StatusRequiresReview && r.Status != StatusCompleted {
		return ErrIllegalTransition{From: r.Status, To: StatusApproved}
	}
	r.Status = StatusApproved
	if r.CompletedAt == nil {
		now := time.Now()
		r.CompletedAt = &now
	}
	return nil
}

// Cancel aborts the run; allowed only from Pending or InProgress. Matches
// committed before cancellation stay valid.
func (r *Reconciliation) Cancel(reason string) error {
	if r.Status != StatusPending && r.Status != StatusInProgress {
		return ErrIllegalTransition{From: r.Status, To: StatusCancelled}
	}
	r.Status = StatusCancelled
	r.FailureReason = reason
	now := time.Now()
	r.CompletedAt = &now
	return nil
}
