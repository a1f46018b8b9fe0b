// Package statement holds the imported bank statement model. Statements are
// append-only: a re-import supersedes an earlier statement, it never edits one
// in place.
package statement

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/shared"
)

// Common errors
var (
	ErrNegativeAmount    = errors.New("statement line amounts must not be negative")
	ErrDebitAndCreditSet = errors.New("statement line must set exactly one of debit or credit")
	ErrLineOutsidePeriod = errors.New("statement line dated outside the statement period")
)

// TransactionType tags the direction of a bank-reported movement
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// BankStatement is one imported period for one bank account config
type BankStatement struct {
	ID              uuid.UUID     `json:"id"`
	AccountID       uuid.UUID     `json:"account_id"`
	Period          shared.Period `json:"period"`
	OpeningBalance  int64         `json:"opening_balance"` // Stored in cents/minor units
	ClosingBalance  int64         `json:"closing_balance"`
	SourceLineCount int           `json:"source_line_count"`
	ImportedAt      time.Time     `json:"imported_at"`
}

// BankStatementLine is one bank-reported movement inside a statement.
// DebitMinor and CreditMinor are mutually exclusive and never negative.
type BankStatementLine struct {
	ID             uuid.UUID       `json:"id"`
	StatementID    uuid.UUID       `json:"statement_id"`
	TransactionAt  time.Time       `json:"transaction_at"`
	DebitMinor     int64           `json:"debit_minor"`
	CreditMinor    int64           `json:"credit_minor"`
	RunningBalance int64           `json:"running_balance"`
	Reference      string          `json:"reference"`
	Description    string          `json:"description"`
	BankCategory   string          `json:"bank_category,omitempty"`
	Beneficiary    string          `json:"beneficiary,omitempty"`
	OriginAccount  string          `json:"origin_account,omitempty"`
	Type           TransactionType `json:"type"`
	IsReconciled   bool            `json:"is_reconciled"`
}

// Validate enforces the debit-XOR-credit invariant on a line
func (l *BankStatementLine) Validate() error {
	if l.DebitMinor < 0 || l.CreditMinor < 0 {
		return ErrNegativeAmount
	}
	if (l.DebitMinor == 0) == (l.CreditMinor == 0) {
		return ErrDebitAndCreditSet
	}
	return nil
}

// SignedAmount is the line amount with bank direction applied: credits are
// positive, debits negative. Matching compares signed minor units on both sides.
func (l *BankStatementLine) SignedAmount() int64 {
	return l.CreditMinor - l.DebitMinor
}

// NewBankStatement creates a statement shell for an import; lines are attached
// by the importing collaborator and validated on persist.
func NewBankStatement(accountID uuid.UUID, period shared.Period, opening, closing int64, lineCount int) *BankStatement {
	return &BankStatement{
		ID:              uuid.New(),
		AccountID:       accountID,
		Period:          period,
		OpeningBalance:  opening,
		ClosingBalance:  closing,
		SourceLineCount: lineCount,
		ImportedAt:      time.Now(),
	}
}
