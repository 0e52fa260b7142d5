// Package anneal searches for a set of flattening operations by simulated
// annealing over single-operation moves.
package anneal

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/flattener/internal/terrain"
)

var Log = logrus.New()

type State int

const (
	Init State = iota
	Searching
	Done
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Searching:
		return "searching"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

type Result struct {
	Ops          []terrain.Op  `json:"ops"`
	Score        int64         `json:"score"`
	Iterations   int           `json:"iterations"`
	Accepted     int           `json:"accepted"`
	Infeasible   int           `json:"infeasible"`
	Improvements int           `json:"improvements"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Annealer owns the residual grid, the current operations and the best
// snapshot for one search. It is not safe for concurrent use.
type Annealer struct {
	opts  Options
	rnd   *rand.Rand
	clock Clock
	state State

	input *terrain.Grid
	grid  *terrain.Grid // input minus every op in ops
	ops   []terrain.Op
	score int64 // always terrain.Score(grid)

	best      []terrain.Op
	bestScore int64

	iterations   int
	accepted     int
	infeasible   int
	improvements int
	elapsed      time.Duration
}

// New validates opts, builds the initial solution and applies it to a copy of
// input.
func New(input *terrain.Grid, opts Options, r *rand.Rand, clock Clock) (*Annealer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if input.N() != opts.N {
		return nil, fmt.Errorf("%w: grid is %dx%d, N = %d", ErrGridSize, input.N(), input.N(), opts.N)
	}
	if clock == nil {
		clock = SystemClock{}
	}

	ops := make([]terrain.Op, opts.K)
	if opts.Initial != nil {
		copy(ops, opts.Initial)
	} else {
		for i := range ops {
			ops[i] = terrain.Op{
				X:     r.IntN(opts.N),
				Y:     r.IntN(opts.N),
				Power: 1 + r.IntN(opts.N),
			}
		}
	}

	a := &Annealer{
		opts:  opts,
		rnd:   r,
		clock: clock,
		input: input.Clone(),
		ops:   ops,
		best:  make([]terrain.Op, len(ops)),
	}
	a.grid, a.score = terrain.Evaluate(a.input, a.ops)
	copy(a.best, a.ops)
	a.bestScore = a.score

	Log.WithFields(logrus.Fields{
		"n":     opts.N,
		"k":     opts.K,
		"score": a.score,
		"warm":  opts.Initial != nil,
	}).Debug("annealer initialized")

	return a, nil
}

func (a *Annealer) State() State {
	return a.state
}

func (a *Annealer) Score() int64 {
	return a.score
}

func (a *Annealer) BestScore() int64 {
	return a.bestScore
}

// Run searches until the time budget (or MaxIterations) is exhausted and
// returns the best solution seen. Calling Run again returns the same result.
func (a *Annealer) Run() Result {
	if a.state == Done {
		return a.Result()
	}
	a.state = Searching

	start := a.clock.Now()
	deadline := start.Add(a.opts.TimeBudget)
	budget := float64(a.opts.TimeBudget)
	limit := a.opts.MaxIterations

	for {
		now := a.clock.Now()
		if !now.Before(deadline) || limit > 0 && a.iterations >= limit {
			a.elapsed = now.Sub(start)
			break
		}
		frac := float64(now.Sub(start)) / budget
		if limit > 0 {
			frac = max(frac, float64(a.iterations)/float64(limit))
		}
		a.step(Temperature(a.opts.TempStart, a.opts.TempEnd, frac), now.Sub(start))
	}

	a.state = Done
	Log.WithFields(logrus.Fields{
		"iterations":   a.iterations,
		"accepted":     a.accepted,
		"infeasible":   a.infeasible,
		"improvements": a.improvements,
		"best":         a.bestScore,
		"elapsed":      a.elapsed,
	}).Debug("annealer finished")

	return a.Result()
}

// step proposes one random move and applies it if accepted.
func (a *Annealer) step(temp float64, elapsed time.Duration) {
	a.iterations++

	i := a.rnd.IntN(len(a.ops))
	m := terrain.Move(a.rnd.IntN(terrain.NumMoves))
	delta, ok := terrain.Delta(a.grid, a.ops[i], m)
	if !ok {
		a.infeasible++
		return
	}
	if !Accept(delta, temp, a.rnd) {
		return
	}

	terrain.ApplyMove(a.grid, &a.ops[i], m)
	a.score += delta
	a.accepted++

	if a.score > a.bestScore {
		copy(a.best, a.ops)
		a.bestScore = a.score
		a.improvements++
		if a.opts.OnImprove != nil {
			a.opts.OnImprove(Progress{
				Iteration: a.iterations,
				Score:     a.bestScore,
				Elapsed:   elapsed,
			})
		}
	}
}

// Result returns a copy of the best solution and the run counters.
func (a *Annealer) Result() Result {
	ops := make([]terrain.Op, len(a.best))
	copy(ops, a.best)
	return Result{
		Ops:          ops,
		Score:        a.bestScore,
		Iterations:   a.iterations,
		Accepted:     a.accepted,
		Infeasible:   a.infeasible,
		Improvements: a.improvements,
		Elapsed:      a.elapsed,
	}
}

// Verify recomputes the residual grid and the score from scratch and checks
// them against the incrementally maintained state.
func (a *Annealer) Verify() error {
	for i, op := range a.ops {
		if !op.Feasible(a.opts.N) {
			return terrain.NewAssertionError(fmt.Sprintf("op %d = %v is infeasible", i, op))
		}
	}
	grid, score := terrain.Evaluate(a.input, a.ops)
	if score != a.score {
		return terrain.NewAssertionError(fmt.Sprintf("tracked score %d, full score %d", a.score, score))
	}
	if !grid.Equal(a.grid) {
		return terrain.NewAssertionError("residual grid out of sync with operations")
	}
	_, best := terrain.Evaluate(a.input, a.best)
	if best != a.bestScore {
		return terrain.NewAssertionError(fmt.Sprintf("tracked best %d, full best %d", a.bestScore, best))
	}
	return nil
}
