package recon

import (
	"time"

	"github.com/google/uuid"
)

// SuggestionStatus tracks what happened to a scored suggestion
type SuggestionStatus string

const (
	SuggestionStatusOpen      SuggestionStatus = "OPEN"
	SuggestionStatusPromoted  SuggestionStatus = "PROMOTED"
	SuggestionStatusDismissed SuggestionStatus = "DISMISSED"
)

// Suggestion is a scored near-match produced by the external scoring
// collaborator. Suggestions are never committed matches: a human promotes one
// through the manual match operation, or an Automatic run promotes it when the
// score clears the auto-accept threshold and no competing suggestion shares a
// candidate.
type Suggestion struct {
	ID               uuid.UUID        `json:"id"`
	ReconciliationID uuid.UUID        `json:"reconciliation_id"`
	BankLineID       uuid.UUID        `json:"bank_line_id"`
	InternalTxnID    uuid.UUID        `json:"internal_txn_id"`
	Score            float64          `json:"score"`
	Status           SuggestionStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewSuggestion creates an open suggestion
func NewSuggestion(reconciliationID, bankLineID, internalTxnID uuid.UUID, score float64) *Suggestion {
	return &Suggestion{
		ID:               uuid.New(),
		ReconciliationID: reconciliationID,
		BankLineID:       bankLineID,
		InternalTxnID:    internalTxnID,
		Score:            score,
		Status:           SuggestionStatusOpen,
		CreatedAt:        time.Now(),
	}
}
