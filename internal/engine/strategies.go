package engine

import (
	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/recon"
)

// Confidence bounds of the deterministic strategies
const (
	confidenceExact         = 1.0
	confidenceWindowBest    = 0.95
	confidenceWindowWorst   = 0.70
	confidenceAmountOnly    = 0.5
	confidenceSplitBase     = 0.6
	confidenceSplitPerExtra = 0.05
)

// Tie records an ambiguous situation a strategy refused to resolve: one bank
// line with two or more candidates inside the epsilon confidence margin. Ties
// are escalated as discrepancies, never auto-matched.
type Tie struct {
	Bank       *Candidate
	Candidates []*Candidate
}

// MatchExact pairs bank lines and internal transactions sharing identical
// amount, identical date, and identical non-empty normalized reference.
// Confidence 1.0.
func MatchExact(runID uuid.UUID, idx *Index) []*recon.Match {
	var matches []*recon.Match

	for _, line := range idx.BankRemaining() {
		if line.Reference == "" {
			continue
		}
		for _, txn := range idx.SameReference(line.Reference, SideInternal) {
			if txn.AmountMinor != line.AmountMinor || !txn.Date.Equal(line.Date) {
				continue
			}
			m, err := recon.NewMatch(runID, recon.MatchTypeExact,
				[]uuid.UUID{line.ID}, []uuid.UUID{txn.ID},
				confidenceExact, line.AmountMinor, recon.CreatedBySystem, "")
			if err != nil {
				continue
			}
			idx.Consume(line.ID, txn.ID)
			matches = append(matches, m)
			break
		}
	}
	return matches
}

// MatchAmountAndDate pairs identical amounts whose dates fall within the
// tolerance window; reference mismatch is allowed. Confidence scales linearly
// from 0.95 at zero day delta down to 0.70 at the window edge. When two
// candidates sit at the same closest delta the line is escalated as a tie.
func MatchAmountAndDate(runID uuid.UUID, idx *Index, windowDays int) ([]*recon.Match, []*Tie) {
	var matches []*recon.Match
	var ties []*Tie

	for _, line := range idx.BankRemaining() {
		cands := idx.SameAmount(line.AmountMinor, SideInternal)
		best, second := closestByDate(line, cands, windowDays)
		if best == nil {
			continue
		}
		if second != nil && dayDelta(second.Date, line.Date) == dayDelta(best.Date, line.Date) {
			idx.Consume(line.ID, best.ID, second.ID)
			ties = append(ties, &Tie{Bank: line, Candidates: []*Candidate{best, second}})
			continue
		}

		delta := dayDelta(best.Date, line.Date)
		conf := windowConfidence(delta, windowDays)
		m, err := recon.NewMatch(runID, recon.MatchTypeAmountAndDate,
			[]uuid.UUID{line.ID}, []uuid.UUID{best.ID},
			conf, line.AmountMinor, recon.CreatedBySystem, "")
		if err != nil {
			continue
		}
		idx.Consume(line.ID, best.ID)
		matches = append(matches, m)
	}
	return matches, ties
}

// windowConfidence interpolates confidence across the date window
func windowConfidence(delta, windowDays int) float64 {
	if windowDays <= 0 {
		return confidenceWindowBest
	}
	span := confidenceWindowBest - confidenceWindowWorst
	return confidenceWindowBest - span*float64(delta)/float64(windowDays)
}

// closestByDate returns the nearest and second-nearest unconsumed candidates
// inside the window, or nils when none qualify
func closestByDate(line *Candidate, cands []*Candidate, windowDays int) (*Candidate, *Candidate) {
	var best, second *Candidate
	for _, c := range cands {
		d := dayDelta(c.Date, line.Date)
		if windowDays >= 0 && d > windowDays {
			continue
		}
		switch {
		case best == nil || d < dayDelta(best.Date, line.Date):
			second = best
			best = c
		case second == nil || d < dayDelta(second.Date, line.Date):
			second = c
		}
	}
	return best, second
}

// MatchAmountOnly pairs identical amounts whose dates fall outside the window.
// Candidates are ranked by date closeness; when the top two rank within the
// epsilon confidence margin the line escalates as a tie instead of guessing
// where the money belongs. Confidence 0.5.
func MatchAmountOnly(runID uuid.UUID, idx *Index, tieEpsilon float64) ([]*recon.Match, []*Tie) {
	var matches []*recon.Match
	var ties []*Tie

	for _, line := range idx.BankRemaining() {
		cands := idx.SameAmount(line.AmountMinor, SideInternal)
		if len(cands) == 0 {
			continue
		}

		best, second := closestByDate(line, cands, -1) // no window bound here
		if best == nil {
			continue
		}
		if second != nil {
			margin := closenessScore(line, best) - closenessScore(line, second)
			if margin < tieEpsilon {
				all := []*Candidate{best, second}
				idx.Consume(line.ID, best.ID, second.ID)
				ties = append(ties, &Tie{Bank: line, Candidates: all})
				continue
			}
		}

		m, err := recon.NewMatch(runID, recon.MatchTypeAmountOnly,
			[]uuid.UUID{line.ID}, []uuid.UUID{best.ID},
			confidenceAmountOnly, line.AmountMinor, recon.CreatedBySystem, "")
		if err != nil {
			continue
		}
		idx.Consume(line.ID, best.ID)
		matches = append(matches, m)
	}
	return matches, ties
}

// closenessScore maps date distance into (0,1]; identical dates score 1
func closenessScore(line, cand *Candidate) float64 {
	return 1.0 / (1.0 + float64(dayDelta(cand.Date, line.Date)))
}
