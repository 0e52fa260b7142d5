package anneal

import (
	"math"
	"math/rand/v2"
	"time"
)

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. time.Now carries a monotonic reading, so
// deadline comparisons are unaffected by wall clock adjustments.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Temperature interpolates linearly from start to end as frac goes from 0
// to 1. frac is clamped to [0, 1].
func Temperature(start, end, frac float64) float64 {
	frac = min(max(frac, 0), 1)
	return start + (end-start)*frac
}

// Accept is the Metropolis rule. Moves that do not lower the score are always
// accepted; a loss of -delta is accepted with probability exp(delta/temp).
func Accept(delta int64, temp float64, r *rand.Rand) bool {
	if delta >= 0 {
		return true
	}
	if temp <= 0 {
		return false
	}
	return r.Float64() < math.Exp(float64(delta)/temp)
}
