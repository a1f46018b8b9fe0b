package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/recon"
)

// MatchSplits finds bounded split matches: a subset of unmatched items on one
// side whose amounts sum, within the rounding tolerance, to a single unmatched
// item on the other side. The search is a dynamic program over minor-unit
// sums with a capped candidate set and item bound, not an unrestricted
// combinatorial search. Confidence 0.6 minus 0.05 per item beyond two.
func MatchSplits(runID uuid.UUID, idx *Index, maxItems int, candidateCap int, toleranceMinor int64) []*recon.Match {
	var matches []*recon.Match

	// Bank line covered by several internal transactions is the common case;
	// the reverse direction handles combined bank postings.
	for _, target := range idx.BankRemaining() {
		if combo := findSplit(target, idx.InternalRemaining(), maxItems, candidateCap, toleranceMinor); combo != nil {
			ids := candidateIDs(combo)
			m, err := recon.NewMatch(runID, recon.MatchTypeSplit,
				[]uuid.UUID{target.ID}, ids,
				splitConfidence(len(combo)), target.AmountMinor, recon.CreatedBySystem, "")
			if err != nil {
				continue
			}
			idx.Consume(target.ID)
			idx.Consume(ids...)
			matches = append(matches, m)
		}
	}

	for _, target := range idx.InternalRemaining() {
		if combo := findSplit(target, idx.BankRemaining(), maxItems, candidateCap, toleranceMinor); combo != nil {
			ids := candidateIDs(combo)
			m, err := recon.NewMatch(runID, recon.MatchTypeSplit,
				ids, []uuid.UUID{target.ID},
				splitConfidence(len(combo)), target.AmountMinor, recon.CreatedBySystem, "")
			if err != nil {
				continue
			}
			idx.Consume(target.ID)
			idx.Consume(ids...)
			matches = append(matches, m)
		}
	}

	return matches
}

// splitConfidence degrades with every component beyond the second
func splitConfidence(items int) float64 {
	conf := confidenceSplitBase
	if items > 2 {
		conf -= confidenceSplitPerExtra * float64(items-2)
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

// findSplit returns the smallest subset of pool (2..maxItems items, same sign
// as the target) whose sum lands within tolerance of the target amount, or nil.
func findSplit(target *Candidate, pool []*Candidate, maxItems, candidateCap int, tolerance int64) []*Candidate {
	if maxItems < 2 {
		return nil
	}

	want := target.AmountMinor
	sameSign := make([]*Candidate, 0, len(pool))
	for _, c := range pool {
		if c.ID == target.ID {
			continue
		}
		if (want > 0) == (c.AmountMinor > 0) && abs64(c.AmountMinor) <= abs64(want)+tolerance {
			sameSign = append(sameSign, c)
		}
	}
	if len(sameSign) < 2 {
		return nil
	}

	// Keep the search tractable: prefer candidates dated closest to the target
	sort.SliceStable(sameSign, func(i, j int) bool {
		di, dj := dayDelta(sameSign[i].Date, target.Date), dayDelta(sameSign[j].Date, target.Date)
		if di != dj {
			return di < dj
		}
		return sameSign[i].ID.String() < sameSign[j].ID.String()
	})
	if len(sameSign) > candidateCap {
		sameSign = sameSign[:candidateCap]
	}

	// DP over reachable sums; best[s] is the shortest combination reaching s.
	// Sums are walked highest first (0/1 knapsack order) so a combination
	// updated by the current item is never extended with that item again.
	best := map[int64][]int{0: {}}
	limit := abs64(want) + tolerance
	for i, c := range sameSign {
		amt := abs64(c.AmountMinor)
		sums := sortedSums(best)
		for j := len(sums) - 1; j >= 0; j-- {
			s := sums[j]
			combo := best[s]
			if len(combo) >= maxItems {
				continue
			}
			ns := s + amt
			if ns > limit {
				continue
			}
			if existing, ok := best[ns]; !ok || len(combo)+1 < len(existing) {
				next := make([]int, len(combo), len(combo)+1)
				copy(next, combo)
				best[ns] = append(next, i)
			}
		}
	}

	var bestCombo []int
	for _, s := range sortedSums(best) {
		combo := best[s]
		if len(combo) < 2 {
			continue
		}
		if s >= abs64(want)-tolerance && s <= abs64(want)+tolerance {
			if bestCombo == nil || len(combo) < len(bestCombo) {
				bestCombo = combo
			}
		}
	}
	if bestCombo == nil {
		return nil
	}

	out := make([]*Candidate, len(bestCombo))
	for i, pos := range bestCombo {
		out[i] = sameSign[pos]
	}
	return out
}

func sortedSums(m map[int64][]int) []int64 {
	out := make([]int64, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func candidateIDs(cs []*Candidate) []uuid.UUID {
	ids := make([]uuid.UUID, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
