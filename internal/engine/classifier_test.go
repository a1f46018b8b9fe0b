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

var feeKeywords = []string{"fee", "charge", "commission"}

func typesOf(ds []*recon.Discrepancy) []recon.DiscrepancyType {
	out := make([]recon.DiscrepancyType, len(ds))
	for i, d := range ds {
		out[i] = d.Type
	}
	return out
}

func TestClassify(t *testing.T) {
	runID := uuid.New()

	t.Run("InternalLeftoverIsMissingInBank", func(t *testing.T) {
		txn := testTxn(5000, day(2024, 3, 5), "PAY-9")
		idx := BuildIndex(nil, []*ledger.InternalTransaction{txn})

		ds := Classify(runID, idx, nil, feeKeywords)

		require.Len(t, ds, 1)
		assert.Equal(t, recon.DiscrepancyMissingInBank, ds[0].Type)
		assert.Equal(t, recon.DiscrepancyStatusPending, ds[0].Status)
		assert.Equal(t, []uuid.UUID{txn.ID}, ds[0].InternalTxnIDs)
		assert.Empty(t, ds[0].BankLineIDs)
	})

	t.Run("BankLeftoverWithEmptyLedgerIsMissingInSystem", func(t *testing.T) {
		line := testLine(5000, day(2024, 3, 5), "")
		idx := BuildIndex([]*statement.BankStatementLine{line}, nil)

		ds := Classify(runID, idx, nil, feeKeywords)

		require.Len(t, ds, 1)
		assert.Equal(t, recon.DiscrepancyMissingInSystem, ds[0].Type)
	})

	t.Run("UnmatchedCreditIsUnknownDeposit", func(t *testing.T) {
		line := testLine(5000, day(2024, 3, 5), "")
		other := testTxn(100, day(2024, 3, 1), "")
		idx := BuildIndex([]*statement.BankStatementLine{line}, []*ledger.InternalTransaction{other})
		idx.Consume(other.ID)

		ds := Classify(runID, idx, nil, feeKeywords)

		require.Len(t, ds, 1)
		assert.Equal(t, recon.DiscrepancyUnknownDeposit, ds[0].Type)
	})

	t.Run("DebitWithFeeKeywordIsBankFee", func(t *testing.T) {
		line := testLine(-250, day(2024, 3, 5), "")
		line.Description = "Monthly Service CHARGE"
		other := testTxn(100, day(2024, 3, 1), "")
		idx := BuildIndex([]*statement.BankStatementLine{line}, []*ledger.InternalTransaction{other})
		idx.Consume(other.ID)

		ds := Classify(runID, idx, nil, feeKeywords)

		require.Len(t, ds, 1)
		assert.Equal(t, recon.DiscrepancyBankFee, ds[0].Type)
	})

	t.Run("DebitWithoutKeywordIsUnknownWithdrawal", func(t *testing.T) {
		line := testLine(-250, day(2024, 3, 5), "")
		line.Description = "cash machine"
		other := testTxn(100, day(2024, 3, 1), "")
		idx := BuildIndex([]*statement.BankStatementLine{line}, []*ledger.InternalTransaction{other})
		idx.Consume(other.ID)

		ds := Classify(runID, idx, nil, feeKeywords)

		require.Len(t, ds, 1)
		assert.Equal(t, recon.DiscrepancyUnknownWithdrawal, ds[0].Type)
	})

	t.Run("DuplicateBankLinesPairUp", func(t *testing.T) {
		a := testLine(900, day(2024, 3, 5), "DUP-1")
		b := testLine(900, day(2024, 3, 5), "DUP-1")
		other := testTxn(100, day(2024, 3, 1), "")
		idx := BuildIndex([]*statement.BankStatementLine{a, b}, []*ledger.InternalTransaction{other})
		idx.Consume(other.ID)

		ds := Classify(runID, idx, nil, feeKeywords)

		require.Len(t, ds, 1)
		assert.Equal(t, recon.DiscrepancyDuplicateBank, ds[0].Type)
		assert.Len(t, ds[0].BankLineIDs, 2)
	})

	t.Run("DuplicateInternalTransactionsPairUp", func(t *testing.T) {
		a := testTxn(-900, day(2024, 3, 5), "DUP-2")
		b := testTxn(-900, day(2024, 3, 5), "DUP-2")
		idx := BuildIndex(nil, []*ledger.InternalTransaction{a, b})

		ds := Classify(runID, idx, nil, feeKeywords)

		require.Len(t, ds, 1)
		assert.Equal(t, recon.DiscrepancyDuplicateInternal, ds[0].Type)
		assert.Len(t, ds[0].InternalTxnIDs, 2)
	})

	t.Run("ReferencelessRepeatsAreNotDuplicates", func(t *testing.T) {
		a := testTxn(-900, day(2024, 3, 5), "")
		b := testTxn(-900, day(2024, 3, 5), "")
		idx := BuildIndex(nil, []*ledger.InternalTransaction{a, b})

		ds := Classify(runID, idx, nil, feeKeywords)

		require.Len(t, ds, 2)
		assert.Equal(t, []recon.DiscrepancyType{recon.DiscrepancyMissingInBank, recon.DiscrepancyMissingInBank}, typesOf(ds))
	})

	t.Run("TiesClassifyAsOther", func(t *testing.T) {
		line := testLine(5000, day(2024, 3, 10), "")
		a := testTxn(5000, day(2024, 3, 9), "")
		b := testTxn(5000, day(2024, 3, 11), "")
		idx := BuildIndex([]*statement.BankStatementLine{line}, []*ledger.InternalTransaction{a, b})

		_, ties := MatchAmountAndDate(runID, idx, 3)
		require.Len(t, ties, 1)

		ds := Classify(runID, idx, ties, feeKeywords)

		require.Len(t, ds, 1)
		assert.Equal(t, recon.DiscrepancyOther, ds[0].Type)
		assert.Equal(t, []uuid.UUID{line.ID}, ds[0].BankLineIDs)
		assert.Len(t, ds[0].InternalTxnIDs, 2)
	})
}
