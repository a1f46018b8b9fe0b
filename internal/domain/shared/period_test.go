package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	t.Run("NormalizesToUTCDays", func(t *testing.T) {
		loc := time.FixedZone("CET", 3600)
		start := time.Date(2024, 3, 1, 15, 30, 0, 0, loc)
		end := time.Date(2024, 3, 31, 0, 30, 0, 0, loc)

		p, err := NewPeriod(start, end)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), p.Start)
		assert.Equal(t, time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), p.End)
		assert.Equal(t, time.UTC, p.Start.Location())
		assert.Zero(t, p.Start.Hour())
		assert.Zero(t, p.End.Hour())
	})

	t.Run("SingleDayAllowed", func(t *testing.T) {
		d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		p, err := NewPeriod(d, d)
		require.NoError(t, err)
		assert.True(t, p.Contains(d))
	})

	t.Run("EndBeforeStartRejected", func(t *testing.T) {
		_, err := NewPeriod(
			time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		)
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})
}

func TestPeriod_Contains(t *testing.T) {
	p, err := NewPeriod(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	assert.True(t, p.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)), "end day is inclusive")
	assert.True(t, p.Contains(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriod_Key(t *testing.T) {
	p, err := NewPeriod(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01_2024-03-31", p.Key())
}
