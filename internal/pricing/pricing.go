package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNegativeInterval means the caller supplied an end time earlier than
// the start time. This is a contract violation, not a recoverable state.
var ErrNegativeInterval = errors.New("end time is before start time")

// Quote is the result of pricing a parking interval. Cost is expressed
// in whole currency units, rounded up.
type Quote struct {
	TotalCost int64
	Duration  string
	Hours     int
	Minutes   int
}

// Compute prices the interval [start, end] at the given hourly rate.
// The cost is ceil(elapsedHours * rate); the duration label truncates
// minutes, so "1h 59m" covers everything up to the full two hours.
// Deterministic: no clock reads, same inputs always give the same quote.
func Compute(start, end time.Time, hourlyRate float64) (Quote, error) {
	if end.Before(start) {
		return Quote{}, ErrNegativeInterval
	}

	elapsedHours := float64(end.Sub(start).Milliseconds()) / (1000 * 60 * 60)

	hours := int(math.Floor(elapsedHours))
	minutes := int(math.Floor((elapsedHours - float64(hours)) * 60))

	return Quote{
		TotalCost: int64(math.Ceil(elapsedHours * hourlyRate)),
		Duration:  fmt.Sprintf("%dh %dm", hours, minutes),
		Hours:     hours,
		Minutes:   minutes,
	}, nil
}
