package anneal

import (
	"errors"
	"fmt"
	"time"

	"github.com/vancomm/flattener/internal/terrain"
)

var (
	ErrInvalidOptions = errors.New("invalid annealer options")
	ErrGridSize       = errors.New("grid size does not match options")
	ErrInfeasibleOp   = errors.New("infeasible operation")
)

// Progress is reported every time a new best solution is recorded.
type Progress struct {
	Iteration int           `json:"iteration"`
	Score     int64         `json:"score"`
	Elapsed   time.Duration `json:"elapsed"`
}

type Options struct {
	N int // grid dimension
	K int // number of operations

	TimeBudget time.Duration
	TempStart  float64
	TempEnd    float64

	// MaxIterations bounds the search by count in addition to time. Zero
	// means no bound. With a clock that does not advance it makes a run
	// fully reproducible.
	MaxIterations int

	// Initial, when set, replaces the random starting solution. It must hold
	// exactly K feasible operations.
	Initial []terrain.Op

	// OnImprove is called synchronously from the search loop.
	OnImprove func(Progress)
}

func DefaultOptions() Options {
	return Options{
		N:          100,
		K:          1000,
		TimeBudget: 5500 * time.Millisecond,
		TempStart:  10000.0,
		TempEnd:    0.0001,
	}
}

func (o Options) Validate() error {
	switch {
	case o.N < 1:
		return fmt.Errorf("%w: N = %d", ErrInvalidOptions, o.N)
	case o.K < 1:
		return fmt.Errorf("%w: K = %d", ErrInvalidOptions, o.K)
	case o.TimeBudget < 0:
		return fmt.Errorf("%w: negative time budget %s", ErrInvalidOptions, o.TimeBudget)
	case o.TempStart < 0 || o.TempEnd < 0:
		return fmt.Errorf("%w: negative temperature (%g, %g)", ErrInvalidOptions, o.TempStart, o.TempEnd)
	case o.MaxIterations < 0:
		return fmt.Errorf("%w: MaxIterations = %d", ErrInvalidOptions, o.MaxIterations)
	case o.Initial != nil && len(o.Initial) != o.K:
		return fmt.Errorf("%w: %d initial operations, want %d", ErrInvalidOptions, len(o.Initial), o.K)
	}
	for i, op := range o.Initial {
		if !op.Feasible(o.N) {
			return fmt.Errorf("%w: initial[%d] = %v", ErrInfeasibleOp, i, op)
		}
	}
	return nil
}
