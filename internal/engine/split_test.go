package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/domain/statement"
)

func TestMatchSplits(t *testing.T) {
	runID := uuid.New()

	t.Run("BankLineCoveredByThreeTransactions", func(t *testing.T) {
		line := testLine(60000, day(2024, 3, 10), "")
		parts := []*ledger.InternalTransaction{
			testTxn(10000, day(2024, 3, 10), ""),
			testTxn(20000, day(2024, 3, 10), ""),
			testTxn(30000, day(2024, 3, 11), ""),
		}
		idx := BuildIndex([]*statement.BankStatementLine{line}, parts)

		matches := MatchSplits(runID, idx, 5, 32, 1)

		require.Len(t, matches, 1)
		m := matches[0]
		assert.Equal(t, recon.MatchTypeSplit, m.Type)
		assert.Equal(t, []uuid.UUID{line.ID}, m.BankLineIDs)
		assert.Len(t, m.InternalTxnIDs, 3)
		assert.InDelta(t, 0.55, m.Confidence, 1e-9) // 0.6 minus 0.05 for the third item
		for _, p := range parts {
			assert.True(t, idx.Consumed(p.ID))
		}
	})

	t.Run("PrefersSmallestCombination", func(t *testing.T) {
		line := testLine(30000, day(2024, 3, 10), "")
		pair := []*ledger.InternalTransaction{
			testTxn(10000, day(2024, 3, 10), ""),
			testTxn(20000, day(2024, 3, 10), ""),
		}
		triple := []*ledger.InternalTransaction{
			testTxn(5000, day(2024, 3, 10), ""),
			testTxn(12000, day(2024, 3, 10), ""),
			testTxn(13000, day(2024, 3, 10), ""),
		}
		idx := BuildIndex([]*statement.BankStatementLine{line}, append(pair, triple...))

		matches := MatchSplits(runID, idx, 5, 32, 0)

		require.Len(t, matches, 1)
		assert.Len(t, matches[0].InternalTxnIDs, 2)
		assert.InDelta(t, 0.6, matches[0].Confidence, 1e-9)
	})

	t.Run("ToleranceAbsorbsRounding", func(t *testing.T) {
		line := testLine(10001, day(2024, 3, 10), "")
		parts := []*ledger.InternalTransaction{
			testTxn(4000, day(2024, 3, 10), ""),
			testTxn(6000, day(2024, 3, 10), ""),
		}
		idx := BuildIndex([]*statement.BankStatementLine{line}, parts)

		assert.Empty(t, MatchSplits(runID, idx, 5, 32, 0))
		assert.Len(t, MatchSplits(runID, idx, 5, 32, 1), 1)
	})

	t.Run("SignMustAgree", func(t *testing.T) {
		line := testLine(-30000, day(2024, 3, 10), "")
		parts := []*ledger.InternalTransaction{
			testTxn(10000, day(2024, 3, 10), ""),
			testTxn(20000, day(2024, 3, 10), ""),
		}
		idx := BuildIndex([]*statement.BankStatementLine{line}, parts)

		assert.Empty(t, MatchSplits(runID, idx, 5, 32, 1))
	})

	t.Run("ItemBoundRespected", func(t *testing.T) {
		line := testLine(40000, day(2024, 3, 10), "")
		parts := []*ledger.InternalTransaction{
			testTxn(10000, day(2024, 3, 10), ""),
			testTxn(10000, day(2024, 3, 11), ""),
			testTxn(10000, day(2024, 3, 12), ""),
			testTxn(10000, day(2024, 3, 13), ""),
		}
		idx := BuildIndex([]*statement.BankStatementLine{line}, parts)

		// Four components needed, bound allows three
		assert.Empty(t, MatchSplits(runID, idx, 3, 32, 0))
	})

	t.Run("EachComponentUsedAtMostOnce", func(t *testing.T) {
		line := testLine(4000, day(2024, 3, 10), "")
		parts := []*ledger.InternalTransaction{
			testTxn(1000, day(2024, 3, 10), ""),
			testTxn(1000, day(2024, 3, 10), ""),
			testTxn(2000, day(2024, 3, 10), ""),
		}
		idx := BuildIndex([]*statement.BankStatementLine{line}, parts)

		matches := MatchSplits(runID, idx, 5, 32, 0)

		// No pair reaches 4000 without reusing the 2000 transaction; the only
		// valid split takes all three components exactly once.
		require.Len(t, matches, 1)
		m := matches[0]
		require.Len(t, m.InternalTxnIDs, 3)
		seen := make(map[uuid.UUID]bool, len(m.InternalTxnIDs))
		var sum int64
		for _, id := range m.InternalTxnIDs {
			assert.False(t, seen[id], "internal transaction %s appears twice in one split match", id)
			seen[id] = true
		}
		for _, p := range parts {
			assert.True(t, seen[p.ID])
			sum += p.AmountMinor
		}
		assert.Equal(t, line.SignedAmount(), sum)
	})

	t.Run("CombinedBankPostingsCoverOneTransaction", func(t *testing.T) {
		lines := []*statement.BankStatementLine{
			testLine(15000, day(2024, 3, 10), ""),
			testLine(25000, day(2024, 3, 10), ""),
		}
		txn := testTxn(40000, day(2024, 3, 10), "")
		idx := BuildIndex(lines, []*ledger.InternalTransaction{txn})

		matches := MatchSplits(runID, idx, 5, 32, 0)

		require.Len(t, matches, 1)
		assert.Len(t, matches[0].BankLineIDs, 2)
		assert.Equal(t, []uuid.UUID{txn.ID}, matches[0].InternalTxnIDs)
	})
}
