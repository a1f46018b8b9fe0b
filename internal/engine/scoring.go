package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CandidatePair is one bank line / internal transaction pairing submitted to
// the external scoring collaborator
type CandidatePair struct {
	BankLineID          uuid.UUID `json:"bank_line_id"`
	InternalTxnID       uuid.UUID `json:"internal_txn_id"`
	BankAmountMinor     int64     `json:"bank_amount_minor"`
	InternalAmountMinor int64     `json:"internal_amount_minor"`
	BankDate            time.Time `json:"bank_date"`
	InternalDate        time.Time `json:"internal_date"`
	BankReference       string    `json:"bank_reference"`
	InternalReference   string    `json:"internal_reference"`
	BankDescription     string    `json:"bank_description"`
}

// ScoredPair is the collaborator's verdict on one pair, score in [0,1]
type ScoredPair struct {
	BankLineID    uuid.UUID `json:"bank_line_id"`
	InternalTxnID uuid.UUID `json:"internal_txn_id"`
	Score         float64   `json:"score"`
}

// Scorer is the optional ML scoring collaborator. The pipeline degrades
// gracefully when the scorer is nil or failing: the suggestion pass is skipped.
type Scorer interface {
	ScoreCandidatePairs(ctx context.Context, pairs []CandidatePair) ([]ScoredPair, error)
}
