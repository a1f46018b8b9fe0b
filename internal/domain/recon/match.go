package recon

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common match errors
var (
	ErrEmptyMatchSides   = errors.New("match needs at least one line and one transaction")
	ErrInvalidConfidence = errors.New("confidence must be within [0,1]")
)

// CreatedBy distinguishes system-committed matches from human-created ones
type CreatedBy string

const (
	CreatedBySystem CreatedBy = "SYSTEM"
	CreatedByHuman  CreatedBy = "HUMAN"
)

// Match links one or more bank statement lines to one or more internal
// transactions under a single match type. It is an explicit join entity with
// ordered id sets; immutable once created.
type Match struct {
	ID               uuid.UUID   `json:"id"`
	ReconciliationID uuid.UUID   `json:"reconciliation_id"`
	Type             MatchType   `json:"type"`
	BankLineIDs      []uuid.UUID `json:"bank_line_ids"`
	InternalTxnIDs   []uuid.UUID `json:"internal_txn_ids"`
	Confidence       float64     `json:"confidence"`
	AmountMinor      int64       `json:"amount_minor"` // matched signed amount in minor units
	CreatedBy        CreatedBy   `json:"created_by"`
	Actor            string      `json:"actor,omitempty"` // set for human-created matches
	CreatedAt        time.Time   `json:"created_at"`
}

// NewMatch creates a committed match record
func NewMatch(reconciliationID uuid.UUID, mt MatchType, lineIDs, txnIDs []uuid.UUID, confidence float64, amountMinor int64, createdBy CreatedBy, actor string) (*Match, error) {
	if len(lineIDs) == 0 || len(txnIDs) == 0 {
		return nil, ErrEmptyMatchSides
	}
	if confidence < 0 || confidence > 1 {
		return nil, ErrInvalidConfidence
	}

	return &Match{
		ID:               uuid.New(),
		ReconciliationID: reconciliationID,
		Type:             mt,
		BankLineIDs:      lineIDs,
		InternalTxnIDs:   txnIDs,
		Confidence:       confidence,
		AmountMinor:      amountMinor,
		CreatedBy:        createdBy,
		Actor:            actor,
		CreatedAt:        time.Now(),
	}, nil
}
