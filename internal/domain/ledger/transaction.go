// Package ledger holds the internally recorded side of a reconciliation: the
// transactions supplied by upstream finance systems. The engine only reads
// these records and flips their reconciled flag on approval.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrZeroAmount indicates a transaction with no monetary effect
var ErrZeroAmount = errors.New("internal transaction amount must not be zero")

// TransactionType tags the direction of an internal movement
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// InternalTransaction is one internally recorded movement. AmountMinor is
// signed: credits positive, debits negative, in cents/minor units.
type InternalTransaction struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      uuid.UUID       `json:"account_id"`
	TransactionAt  time.Time       `json:"transaction_at"`
	AmountMinor    int64           `json:"amount_minor"`
	Type           TransactionType `json:"type"`
	Reference      string          `json:"reference"`
	Description    string          `json:"description,omitempty"`
	SourceEntityID string          `json:"source_entity_id,omitempty"` // originating invoice/payment id
	IsReconciled   bool            `json:"is_reconciled"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Validate rejects transactions that cannot participate in matching
func (t *InternalTransaction) Validate() error {
	if t.AmountMinor == 0 {
		return ErrZeroAmount
	}
	return nil
}
