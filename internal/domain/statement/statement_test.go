package statement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankrecon-engine/internal/domain/shared"
)

func TestBankStatementLine_Validate(t *testing.T) {
	t.Run("DebitOnly", func(t *testing.T) {
		l := &BankStatementLine{DebitMinor: 1000}
		assert.NoError(t, l.Validate())
	})

	t.Run("CreditOnly", func(t *testing.T) {
		l := &BankStatementLine{CreditMinor: 1000}
		assert.NoError(t, l.Validate())
	})

	t.Run("BothSetRejected", func(t *testing.T) {
		l := &BankStatementLine{DebitMinor: 1000, CreditMinor: 500}
		assert.ErrorIs(t, l.Validate(), ErrDebitAndCreditSet)
	})

	t.Run("NeitherSetRejected", func(t *testing.T) {
		l := &BankStatementLine{}
		assert.ErrorIs(t, l.Validate(), ErrDebitAndCreditSet)
	})

	t.Run("NegativeAmountRejected", func(t *testing.T) {
		l := &BankStatementLine{DebitMinor: -100}
		assert.ErrorIs(t, l.Validate(), ErrNegativeAmount)
	})
}

func TestBankStatementLine_SignedAmount(t *testing.T) {
	credit := &BankStatementLine{CreditMinor: 2500}
	assert.Equal(t, int64(2500), credit.SignedAmount())

	debit := &BankStatementLine{DebitMinor: 2500}
	assert.Equal(t, int64(-2500), debit.SignedAmount())
}

func TestNewBankStatement(t *testing.T) {
	accountID := uuid.New()
	period, err := shared.NewPeriod(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	st := NewBankStatement(accountID, period, 100000, 85000, 42)

	assert.NotEqual(t, uuid.Nil, st.ID)
	assert.Equal(t, accountID, st.AccountID)
	assert.Equal(t, int64(100000), st.OpeningBalance)
	assert.Equal(t, int64(85000), st.ClosingBalance)
	assert.Equal(t, 42, st.SourceLineCount)
	assert.False(t, st.ImportedAt.IsZero())
}
