// Package solve runs one annealing search from a solver configuration. It is
// shared by the CLI, the HTTP server and the Lambda handler.
package solve

import (
	"time"

	"github.com/vancomm/flattener/internal/anneal"
	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/store"
	"github.com/vancomm/flattener/internal/terrain"
	"github.com/vancomm/flattener/internal/xrand"
)

type Request struct {
	Grid   *terrain.Grid
	Solver config.Solver

	// Initial warm-starts the search; nil means a random start.
	Initial   []terrain.Op
	OnImprove func(anneal.Progress)

	// Clock defaults to the wall clock.
	Clock anneal.Clock
}

type Outcome struct {
	anneal.Result
	Seed   uint64
	Digest string
}

func (o Outcome) ElapsedMs() int64 {
	return o.Elapsed.Milliseconds()
}

// Run picks a random seed when req.Solver.Seed is zero, so the seed that was
// actually used is always reported back.
func Run(req Request) (Outcome, error) {
	seed := req.Solver.Seed
	for seed == 0 {
		seed = xrand.RandomSeed()
	}

	opts := req.Solver.Options()
	opts.Initial = req.Initial
	opts.OnImprove = req.OnImprove

	clock := req.Clock
	if clock == nil {
		clock = anneal.SystemClock{}
	}

	a, err := anneal.New(req.Grid, opts, xrand.NewRand(seed), clock)
	if err != nil {
		return Outcome{}, err
	}
	res := a.Run()
	if err := a.Verify(); err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Result: res,
		Seed:   seed,
		Digest: store.Digest(req.Grid, opts.K),
	}, nil
}

// Limits bound what remote callers may ask for.
type Limits struct {
	MaxN          int
	MaxK          int
	MaxTimeBudget time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxN:          200,
		MaxK:          5000,
		MaxTimeBudget: 10 * time.Second,
	}
}

func (l Limits) Check(s config.Solver) error {
	switch {
	case s.N > l.MaxN:
		return &LimitError{"n", s.N, l.MaxN}
	case s.K > l.MaxK:
		return &LimitError{"k", s.K, l.MaxK}
	case s.TimeBudget.Duration > l.MaxTimeBudget:
		return &LimitError{"time_ms", int(s.TimeBudget.Milliseconds()), int(l.MaxTimeBudget.Milliseconds())}
	}
	return nil
}
