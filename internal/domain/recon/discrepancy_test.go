package recon

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscrepancy(t *testing.T) {
	runID := uuid.New()
	lineID := uuid.New()

	d := NewDiscrepancy(runID, DiscrepancyBankFee, []uuid.UUID{lineID}, nil, -250, "bank fee detected")

	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Equal(t, runID, d.ReconciliationID)
	assert.Equal(t, DiscrepancyStatusPending, d.Status)
	assert.Equal(t, []uuid.UUID{lineID}, d.BankLineIDs)
	assert.Equal(t, int64(-250), d.AmountMinor)
	assert.Nil(t, d.ResolvedAt)
}

func TestDiscrepancy_Review(t *testing.T) {
	d := NewDiscrepancy(uuid.New(), DiscrepancyUnknownDeposit, []uuid.UUID{uuid.New()}, nil, 100, "")

	require.NoError(t, d.Review())
	assert.Equal(t, DiscrepancyStatusUnderReview, d.Status)

	// A second review is a no-op violation
	assert.Error(t, d.Review())
}

func TestDiscrepancy_Resolve(t *testing.T) {
	t.Run("TerminalStatusesAccepted", func(t *testing.T) {
		for _, to := range []DiscrepancyStatus{DiscrepancyStatusResolved, DiscrepancyStatusRequiresAdjustment, DiscrepancyStatusIgnored} {
			d := NewDiscrepancy(uuid.New(), DiscrepancyMissingInBank, nil, []uuid.UUID{uuid.New()}, 100, "")
			require.NoError(t, d.Resolve(to, "checked against ledger"))
			assert.Equal(t, to, d.Status)
			assert.Equal(t, "checked against ledger", d.ResolutionNotes)
			require.NotNil(t, d.ResolvedAt)
		}
	})

	t.Run("NonTerminalTargetRejected", func(t *testing.T) {
		d := NewDiscrepancy(uuid.New(), DiscrepancyMissingInBank, nil, []uuid.UUID{uuid.New()}, 100, "")
		assert.Error(t, d.Resolve(DiscrepancyStatusUnderReview, ""))
	})

	t.Run("AlreadyTerminalRejected", func(t *testing.T) {
		d := NewDiscrepancy(uuid.New(), DiscrepancyMissingInBank, nil, []uuid.UUID{uuid.New()}, 100, "")
		require.NoError(t, d.Resolve(DiscrepancyStatusResolved, ""))
		assert.Error(t, d.Resolve(DiscrepancyStatusIgnored, ""))
	})
}

func TestNewMatch(t *testing.T) {
	runID := uuid.New()

	t.Run("Valid", func(t *testing.T) {
		m, err := NewMatch(runID, MatchTypeManual, []uuid.UUID{uuid.New()}, []uuid.UUID{uuid.New()}, 1.0, 5000, CreatedByHuman, "reviewer@example.com")
		require.NoError(t, err)
		assert.Equal(t, CreatedByHuman, m.CreatedBy)
		assert.Equal(t, "reviewer@example.com", m.Actor)
	})

	t.Run("EmptySideRejected", func(t *testing.T) {
		_, err := NewMatch(runID, MatchTypeManual, nil, []uuid.UUID{uuid.New()}, 1.0, 5000, CreatedByHuman, "x")
		assert.ErrorIs(t, err, ErrEmptyMatchSides)
	})

	t.Run("ConfidenceOutOfRangeRejected", func(t *testing.T) {
		_, err := NewMatch(runID, MatchTypeExact, []uuid.UUID{uuid.New()}, []uuid.UUID{uuid.New()}, 1.5, 5000, CreatedBySystem, "")
		assert.ErrorIs(t, err, ErrInvalidConfidence)
	})
}

func TestNewSuggestion(t *testing.T) {
	runID := uuid.New()
	lineID := uuid.New()
	txnID := uuid.New()

	s := NewSuggestion(runID, lineID, txnID, 0.87)

	assert.Equal(t, SuggestionStatusOpen, s.Status)
	assert.Equal(t, lineID, s.BankLineID)
	assert.Equal(t, txnID, s.InternalTxnID)
	assert.InDelta(t, 0.87, s.Score, 1e-9)
}
