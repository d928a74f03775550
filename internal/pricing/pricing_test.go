package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		elapsed  time.Duration
		rate     float64
		cost     int64
		duration string
	}{
		{"NinetyMinutesAtTen", 90 * time.Minute, 10.00, 15, "1h 30m"},
		{"OneMinuteAtFive", 1 * time.Minute, 5.00, 1, "0h 1m"},
		{"ExactHour", 1 * time.Hour, 10.00, 10, "1h 0m"},
		{"ZeroElapsed", 0, 10.00, 0, "0h 0m"},
		{"ZeroRate", 3 * time.Hour, 0, 0, "3h 0m"},
		{"JustOverAnHour", 61 * time.Minute, 10.00, 11, "1h 1m"},
		{"FiftyNineMinutes", 59 * time.Minute, 1.00, 1, "0h 59m"},
		{"LongStay", 26*time.Hour + 15*time.Minute, 2.50, 66, "26h 15m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Compute(start, start.Add(tt.elapsed), tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.cost, quote.TotalCost)
			assert.Equal(t, tt.duration, quote.Duration)
		})
	}
}

func TestCompute_NegativeInterval(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	_, err := Compute(start, start.Add(-time.Minute), 10)
	assert.ErrorIs(t, err, ErrNegativeInterval)
}

func TestCompute_Deterministic(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(37 * time.Minute)

	first, err := Compute(start, end, 7.25)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Compute(start, end, 7.25)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompute_NonNegative(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for _, elapsed := range []time.Duration{0, time.Second, time.Minute, time.Hour, 48 * time.Hour} {
		for _, rate := range []float64{0, 0.5, 1, 9.99, 100} {
			quote, err := Compute(start, start.Add(elapsed), rate)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, quote.TotalCost, int64(0))
			assert.GreaterOrEqual(t, quote.Minutes, 0)
			assert.Less(t, quote.Minutes, 60)
		}
	}
}
