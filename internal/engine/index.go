package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/statement"
)

// Index is the run-local candidate lookup built fresh for every reconciliation
// run from the unreconciled statement lines and internal transactions of the
// period. It is never cached across runs. Consumption is tracked here so later
// strategies only see what earlier passes left behind.
type Index struct {
	bank     map[uuid.UUID]*Candidate
	internal map[uuid.UUID]*Candidate

	byAmount map[int64][]*Candidate     // both sides, exact signed minor units
	byDay    map[time.Time][]*Candidate // calendar-day bucket
	byRef    map[string][]*Candidate    // normalized reference, empty refs excluded

	consumed map[uuid.UUID]bool
}

// BuildIndex constructs the three lookup structures from the unreconciled
// inputs. Pure read and build; no side effects on the inputs.
func BuildIndex(lines []*statement.BankStatementLine, txns []*ledger.InternalTransaction) *Index {
	idx := &Index{
		bank:     make(map[uuid.UUID]*Candidate, len(lines)),
		internal: make(map[uuid.UUID]*Candidate, len(txns)),
		byAmount: make(map[int64][]*Candidate),
		byDay:    make(map[time.Time][]*Candidate),
		byRef:    make(map[string][]*Candidate),
		consumed: make(map[uuid.UUID]bool),
	}

	for _, l := range lines {
		if l.IsReconciled {
			continue
		}
		idx.add(candidateFromLine(l))
	}
	for _, t := range txns {
		if t.IsReconciled {
			continue
		}
		idx.add(candidateFromTxn(t))
	}
	return idx
}

func (x *Index) add(c *Candidate) {
	if c.Side == SideBank {
		x.bank[c.ID] = c
	} else {
		x.internal[c.ID] = c
	}
	x.byAmount[c.AmountMinor] = append(x.byAmount[c.AmountMinor], c)
	x.byDay[c.Date] = append(x.byDay[c.Date], c)
	if c.Reference != "" {
		x.byRef[c.Reference] = append(x.byRef[c.Reference], c)
	}
}

// Consume removes candidates from further consideration in this run
func (x *Index) Consume(ids ...uuid.UUID) {
	for _, id := range ids {
		x.consumed[id] = true
	}
}

// Consumed reports whether a candidate has been claimed by an earlier pass
func (x *Index) Consumed(id uuid.UUID) bool {
	return x.consumed[id]
}

// BankRemaining returns unconsumed bank candidates in deterministic order
// (date, then id)
func (x *Index) BankRemaining() []*Candidate {
	return x.remaining(x.bank)
}

// InternalRemaining returns unconsumed internal candidates in deterministic order
func (x *Index) InternalRemaining() []*Candidate {
	return x.remaining(x.internal)
}

func (x *Index) remaining(side map[uuid.UUID]*Candidate) []*Candidate {
	out := make([]*Candidate, 0, len(side))
	for _, c := range side {
		if !x.consumed[c.ID] {
			out = append(out, c)
		}
	}
	sortCandidates(out)
	return out
}

// SameAmount returns the unconsumed candidates of the given side holding
// exactly this signed amount
func (x *Index) SameAmount(amount int64, side Side) []*Candidate {
	var out []*Candidate
	for _, c := range x.byAmount[amount] {
		if c.Side == side && !x.consumed[c.ID] {
			out = append(out, c)
		}
	}
	sortCandidates(out)
	return out
}

// SameReference returns the unconsumed candidates of the given side sharing a
// normalized reference. An empty reference never matches anything.
func (x *Index) SameReference(ref string, side Side) []*Candidate {
	if ref == "" {
		return nil
	}
	var out []*Candidate
	for _, c := range x.byRef[ref] {
		if c.Side == side && !x.consumed[c.ID] {
			out = append(out, c)
		}
	}
	sortCandidates(out)
	return out
}

// SameDay returns the unconsumed candidates of the given side dated on the day
func (x *Index) SameDay(day time.Time, side Side) []*Candidate {
	var out []*Candidate
	for _, c := range x.byDay[day] {
		if c.Side == side && !x.consumed[c.ID] {
			out = append(out, c)
		}
	}
	sortCandidates(out)
	return out
}

// InternalCount reports how many internal candidates the index was built with,
// consumed or not. The classifier uses it to tell "missing in system" from
// "unknown movement".
func (x *Index) InternalCount() int {
	return len(x.internal)
}

func sortCandidates(cs []*Candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].Date.Equal(cs[j].Date) {
			return cs[i].Date.Before(cs[j].Date)
		}
		return cs[i].ID.String() < cs[j].ID.String()
	})
}
