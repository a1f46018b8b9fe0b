package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/recon"
)

// Classify processes every candidate the pipeline left unconsumed and the ties
// the strategies escalated, producing discrepancies in Pending status.
//
// Classification order: duplicate pairs on either side first, then internal-only
// leftovers as MissingInBank, then bank-only leftovers: MissingInSystem when
// the period had no internal records at all, otherwise UnknownDeposit for
// credits and UnknownWithdrawal (or BankFee on a keyword hit) for debits.
// Escalated ties classify as Other.
func Classify(runID uuid.UUID, idx *Index, ties []*Tie, feeKeywords []string) []*recon.Discrepancy {
	var out []*recon.Discrepancy

	bankLeft := idx.BankRemaining()
	internalLeft := idx.InternalRemaining()

	bankLeft, dups := duplicatePairs(runID, bankLeft, recon.DiscrepancyDuplicateBank)
	out = append(out, dups...)
	internalLeft, dups = duplicatePairs(runID, internalLeft, recon.DiscrepancyDuplicateInternal)
	out = append(out, dups...)

	for _, c := range internalLeft {
		out = append(out, recon.NewDiscrepancy(runID, recon.DiscrepancyMissingInBank,
			nil, []uuid.UUID{c.ID}, c.AmountMinor,
			fmt.Sprintf("internal transaction %s has no bank counterpart", c.ID)))
	}

	noInternalRecords := idx.InternalCount() == 0
	for _, c := range bankLeft {
		out = append(out, classifyBankLeftover(runID, c, noInternalRecords, feeKeywords))
	}

	for _, tie := range ties {
		ids := make([]uuid.UUID, len(tie.Candidates))
		for i, c := range tie.Candidates {
			ids[i] = c.ID
		}
		out = append(out, recon.NewDiscrepancy(runID, recon.DiscrepancyOther,
			[]uuid.UUID{tie.Bank.ID}, ids, tie.Bank.AmountMinor,
			fmt.Sprintf("ambiguous match: %d internal candidates tie for bank line %s", len(ids), tie.Bank.ID)))
	}

	return out
}

func classifyBankLeftover(runID uuid.UUID, c *Candidate, noInternalRecords bool, feeKeywords []string) *recon.Discrepancy {
	if noInternalRecords {
		return recon.NewDiscrepancy(runID, recon.DiscrepancyMissingInSystem,
			[]uuid.UUID{c.ID}, nil, c.AmountMinor,
			fmt.Sprintf("bank line %s has no internal record in period", c.ID))
	}
	if c.AmountMinor > 0 {
		return recon.NewDiscrepancy(runID, recon.DiscrepancyUnknownDeposit,
			[]uuid.UUID{c.ID}, nil, c.AmountMinor,
			fmt.Sprintf("unmatched bank credit %s", c.ID))
	}
	if matchesFeeKeyword(c.Description, feeKeywords) {
		return recon.NewDiscrepancy(runID, recon.DiscrepancyBankFee,
			[]uuid.UUID{c.ID}, nil, c.AmountMinor,
			fmt.Sprintf("bank fee detected on line %s", c.ID))
	}
	return recon.NewDiscrepancy(runID, recon.DiscrepancyUnknownWithdrawal,
		[]uuid.UUID{c.ID}, nil, c.AmountMinor,
		fmt.Sprintf("unmatched bank debit %s", c.ID))
}

func matchesFeeKeyword(description string, keywords []string) bool {
	desc := strings.ToLower(description)
	for _, k := range keywords {
		if k != "" && strings.Contains(desc, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// duplicatePairs pulls same-side candidates sharing identical (amount, date,
// reference) into pair discrepancies and returns the remainder
func duplicatePairs(runID uuid.UUID, cands []*Candidate, dt recon.DiscrepancyType) ([]*Candidate, []*recon.Discrepancy) {
	type key struct {
		amount int64
		day    string
		ref    string
	}
	groups := make(map[key][]*Candidate)
	order := make([]key, 0)
	for _, c := range cands {
		k := key{amount: c.AmountMinor, day: c.Date.Format("2006-01-02"), ref: c.Reference}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	var out []*recon.Discrepancy
	var rest []*Candidate
	for _, k := range order {
		group := groups[k]
		if len(group) < 2 || k.ref == "" {
			rest = append(rest, group...)
			continue
		}
		ids := candidateIDs(group)
		var lineIDs, txnIDs []uuid.UUID
		if group[0].Side == SideBank {
			lineIDs = ids
		} else {
			txnIDs = ids
		}
		out = append(out, recon.NewDiscrepancy(runID, dt, lineIDs, txnIDs, group[0].AmountMinor,
			fmt.Sprintf("%d records share amount %d, date %s, reference %q", len(group), k.amount, k.day, k.ref)))
	}
	return rest, out
}
