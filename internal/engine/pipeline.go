package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/recon"
)

// maxScoredPairs bounds the pair set sent to the scoring collaborator per run
const maxScoredPairs = 512

// CancelCheck reports whether cooperative cancellation has been requested.
// The pipeline consults it between strategy passes only; the matching
// arithmetic itself never blocks.
type CancelCheck func(ctx context.Context) (bool, error)

// Result is the outcome of one pipeline execution. Matches committed before a
// cooperative cancellation stay in Matches with Cancelled set.
type Result struct {
	Matches     []*recon.Match
	Ties        []*Tie
	Suggestions []*recon.Suggestion
	Cancelled   bool
}

// NeedsReview reports whether anything requires a human: ties, open
// suggestions, or nothing at all to decide automatically
func (r *Result) NeedsReview() bool {
	if len(r.Ties) > 0 {
		return true
	}
	for _, s := range r.Suggestions {
		if s.Status == recon.SuggestionStatusOpen {
			return true
		}
	}
	return false
}

// Pipeline runs the ordered match strategies over a candidate index. Passes
// execute strictly sequentially: later passes depend on the consumption
// side effects of earlier ones.
type Pipeline struct {
	params Params
	scorer Scorer // nil disables the suggestion pass
	logger *slog.Logger
}

// NewPipeline creates a pipeline with the given tuning and optional scorer
func NewPipeline(logger *slog.Logger, params Params, scorer Scorer) *Pipeline {
	return &Pipeline{
		params: params,
		scorer: scorer,
		logger: logger,
	}
}

// Run executes the strategy sequence for one reconciliation run. The cancel
// check runs between passes; a requested cancellation returns the partial
// result with Cancelled set, keeping already committed matches.
func (p *Pipeline) Run(ctx context.Context, runID uuid.UUID, method recon.Method, idx *Index, cancelled CancelCheck) (*Result, error) {
	res := &Result{}

	type pass func() error
	passes := []pass{
		func() error {
			res.Matches = append(res.Matches, MatchExact(runID, idx)...)
			return nil
		},
		func() error {
			matches, ties := MatchAmountAndDate(runID, idx, p.params.DateWindowDays)
			res.Matches = append(res.Matches, matches...)
			res.Ties = append(res.Ties, ties...)
			return nil
		},
		func() error {
			matches, ties := MatchAmountOnly(runID, idx, p.params.TieEpsilon)
			res.Matches = append(res.Matches, matches...)
			res.Ties = append(res.Ties, ties...)
			return nil
		},
		func() error {
			res.Matches = append(res.Matches, MatchSplits(runID, idx,
				p.params.MaxSplitItems, p.params.SplitCandidateCap, p.params.SplitToleranceMinor)...)
			return nil
		},
		func() error {
			return p.suggestPass(ctx, runID, method, idx, res)
		},
	}

	for i, run := range passes {
		if cancelled != nil {
			stop, err := cancelled(ctx)
			if err != nil {
				return nil, err
			}
			if stop {
				p.logger.Info("Reconciliation cancelled between passes",
					"reconciliation_id", runID.String(),
					"completed_passes", i,
					"matches_committed", len(res.Matches),
				)
				res.Cancelled = true
				return res, nil
			}
		}
		if err := run(); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// suggestPass asks the scoring collaborator about the leftovers. Suggestions
// are never auto-committed except under the Automatic method, above the
// auto-accept threshold, and only when nothing competes for the same candidates.
func (p *Pipeline) suggestPass(ctx context.Context, runID uuid.UUID, method recon.Method, idx *Index, res *Result) error {
	if p.scorer == nil {
		return nil
	}

	pairs := buildCandidatePairs(idx)
	if len(pairs) == 0 {
		return nil
	}

	scored, err := p.scorer.ScoreCandidatePairs(ctx, pairs)
	if err != nil {
		// Scoring is optional; a failing collaborator must not fail the run
		p.logger.Warn("Scoring collaborator unavailable, skipping suggestion pass",
			"reconciliation_id", runID.String(),
			"error", err,
		)
		return nil
	}

	var suggestions []*recon.Suggestion
	lineCount := make(map[uuid.UUID]int)
	txnCount := make(map[uuid.UUID]int)
	for _, sp := range scored {
		if sp.Score < p.params.MinSuggestionScore || sp.Score > 1 {
			continue
		}
		if idx.Consumed(sp.BankLineID) || idx.Consumed(sp.InternalTxnID) {
			continue
		}
		suggestions = append(suggestions, recon.NewSuggestion(runID, sp.BankLineID, sp.InternalTxnID, sp.Score))
		lineCount[sp.BankLineID]++
		txnCount[sp.InternalTxnID]++
	}

	if method == recon.MethodAutomatic {
		for _, s := range suggestions {
			if s.Score < p.params.AutoAcceptScore {
				continue
			}
			if lineCount[s.BankLineID] > 1 || txnCount[s.InternalTxnID] > 1 {
				continue // competing suggestion shares a candidate
			}
			if idx.Consumed(s.BankLineID) || idx.Consumed(s.InternalTxnID) {
				continue
			}
			line, ok := idx.bank[s.BankLineID]
			if !ok {
				continue
			}
			m, err := recon.NewMatch(runID, recon.MatchTypeMLSuggested,
				[]uuid.UUID{s.BankLineID}, []uuid.UUID{s.InternalTxnID},
				s.Score, line.AmountMinor, recon.CreatedBySystem, "")
			if err != nil {
				continue
			}
			idx.Consume(s.BankLineID, s.InternalTxnID)
			s.Status = recon.SuggestionStatusPromoted
			res.Matches = append(res.Matches, m)
		}
	}

	res.Suggestions = append(res.Suggestions, suggestions...)
	return nil
}

// buildCandidatePairs enumerates same-sign leftover pairings, bounded to keep
// the scoring payload small
func buildCandidatePairs(idx *Index) []CandidatePair {
	var pairs []CandidatePair
	for _, line := range idx.BankRemaining() {
		for _, txn := range idx.InternalRemaining() {
			if (line.AmountMinor > 0) != (txn.AmountMinor > 0) {
				continue
			}
			pairs = append(pairs, CandidatePair{
				BankLineID:          line.ID,
				InternalTxnID:       txn.ID,
				BankAmountMinor:     line.AmountMinor,
				InternalAmountMinor: txn.AmountMinor,
				BankDate:            line.Date,
				InternalDate:        txn.Date,
				BankReference:       line.Reference,
				InternalReference:   txn.Reference,
				BankDescription:     line.Description,
			})
			if len(pairs) >= maxScoredPairs {
				return pairs
			}
		}
	}
	return pairs
}
