// Package engine implements the reconciliation matching engine: the run-local
// candidate index, the ordered strategy pipeline, and the discrepancy
// classifier. Strategies are pure functions over the index; each pass consumes
// what it matches so a candidate participates in at most one committed match.
package engine

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/statement"
)

// Side distinguishes the two populations being matched
type Side string

const (
	SideBank     Side = "BANK"
	SideInternal Side = "INTERNAL"
)

// Candidate is one matchable item, either a bank statement line or an internal
// transaction, reduced to the fields matching needs. Amounts are signed minor
// units (credits positive), dates are day-truncated UTC.
type Candidate struct {
	ID          uuid.UUID
	Side        Side
	AmountMinor int64
	Date        time.Time
	Reference   string // normalized form, see NormalizeReference
	Description string
}

// NormalizeReference case-folds a bank reference and strips whitespace and
// punctuation so that "INV-2024/001" and "inv 2024 001" compare equal.
func NormalizeReference(ref string) string {
	var b strings.Builder
	b.Grow(len(ref))
	for _, r := range ref {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// candidateFromLine maps a statement line into the index representation
func candidateFromLine(l *statement.BankStatementLine) *Candidate {
	return &Candidate{
		ID:          l.ID,
		Side:        SideBank,
		AmountMinor: l.SignedAmount(),
		Date:        dayOf(l.TransactionAt),
		Reference:   NormalizeReference(l.Reference),
		Description: l.Description,
	}
}

// candidateFromTxn maps an internal transaction into the index representation
func candidateFromTxn(t *ledger.InternalTransaction) *Candidate {
	return &Candidate{
		ID:          t.ID,
		Side:        SideInternal,
		AmountMinor: t.AmountMinor,
		Date:        dayOf(t.TransactionAt),
		Reference:   NormalizeReference(t.Reference),
		Description: t.Description,
	}
}

// dayDelta is the absolute distance between two day-truncated dates in days
func dayDelta(a, b time.Time) int {
	d := int(a.Sub(b) / (24 * time.Hour))
	if d < 0 {
		return -d
	}
	return d
}
