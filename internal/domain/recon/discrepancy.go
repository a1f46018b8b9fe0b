package recon

import (
	"time"

	"github.com/google/uuid"
)

// Discrepancy is one unresolved item, or a pair of conflicting items, left
// behind by the matching pipeline.
type Discrepancy struct {
	ID               uuid.UUID         `json:"id"`
	ReconciliationID uuid.UUID         `json:"reconciliation_id"`
	Type             DiscrepancyType   `json:"type"`
	Status           DiscrepancyStatus `json:"status"`
	BankLineIDs      []uuid.UUID       `json:"bank_line_ids,omitempty"`
	InternalTxnIDs   []uuid.UUID       `json:"internal_txn_ids,omitempty"`
	AmountMinor      int64             `json:"amount_minor"`
	Description      string            `json:"description"`
	ResolutionNotes  string            `json:"resolution_notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	ResolvedAt       *time.Time        `json:"resolved_at,omitempty"`
}

// NewDiscrepancy creates a discrepancy in Pending status
func NewDiscrepancy(reconciliationID uuid.UUID, dt DiscrepancyType, lineIDs, txnIDs []uuid.UUID, amountMinor int64, description string) *Discrepancy {
	return &Discrepancy{
		ID:               uuid.New(),
		ReconciliationID: reconciliationID,
		Type:             dt,
		Status:           DiscrepancyStatusPending,
		BankLineIDs:      lineIDs,
		InternalTxnIDs:   txnIDs,
		AmountMinor:      amountMinor,
		Description:      description,
		CreatedAt:        time.Now(),
	}
}

// ErrIllegalResolution indicates a discrepancy lifecycle violation
type ErrIllegalResolution struct {
	From DiscrepancyStatus
	To   DiscrepancyStatus
}

func (e ErrIllegalResolution) Error() string {
	return "illegal discrepancy transition: " + string(e.From) + " -> " + string(e.To)
}

// Review moves a pending discrepancy under review
func (d *Discrepancy) Review() error {
	if d.Status != DiscrepancyStatusPending {
		return ErrIllegalResolution{From: d.Status, To: DiscrepancyStatusUnderReview}
	}
	d.Status = DiscrepancyStatusUnderReview
	return nil
}

// Resolve closes the discrepancy with a terminal status and reviewer notes
func (d *Discrepancy) Resolve(to DiscrepancyStatus, notes string) error {
	if !to.Terminal() {
		return ErrIllegalResolution{From: d.Status, To: to}
	}
	if d.Status.Terminal() {
		return ErrIllegalResolution{From: d.Status, To: to}
	}
	d.Status = to
	d.ResolutionNotes = notes
	now := time.Now()
	d.ResolvedAt = &now
	return nil
}
