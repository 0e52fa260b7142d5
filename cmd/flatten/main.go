// Command flatten reads an N x N height grid from stdin and writes K
// flattening operations to stdout.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/flattener/internal/anneal"
	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/logging"
	"github.com/vancomm/flattener/internal/snapshot"
	"github.com/vancomm/flattener/internal/solve"
	"github.com/vancomm/flattener/internal/store"
	"github.com/vancomm/flattener/internal/terrain"
	"github.com/vancomm/flattener/internal/textio"
)

const progressInterval = 250 * time.Millisecond

type options struct {
	configPath   string
	cachePath    string
	snapshotPath string
	warmPath     string
	seed         uint64
	timeBudget   string
	n, k         int
	verify       bool
	verbose      bool

	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("flatten", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.configPath, "config", config.SolverFile(), "YAML solver config")
	fs.StringVar(&o.cachePath, "cache", config.SQLitePath(), "sqlite file keeping the best result per grid")
	fs.StringVar(&o.snapshotPath, "snapshot", "", "write the result to this file (.zst compresses)")
	fs.StringVar(&o.warmPath, "warm", "", "start from the operations in this snapshot")
	fs.Uint64Var(&o.seed, "seed", 0, "PRNG seed, 0 picks one")
	fs.StringVar(&o.timeBudget, "time", "", "time budget, milliseconds or a duration such as 2s")
	fs.IntVar(&o.n, "n", 0, "grid dimension")
	fs.IntVar(&o.k, "k", 0, "number of operations")
	fs.BoolVar(&o.verify, "verify", false, "recompute the score of the result from scratch")
	fs.BoolVar(&o.verbose, "v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		o.set[f.Name] = true
	})
	return o, nil
}

func (o options) solver() (config.Solver, error) {
	s := config.DefaultSolver()
	if o.configPath != "" {
		var err error
		if s, err = config.LoadSolver(o.configPath); err != nil {
			return s, err
		}
	}
	if err := s.ApplyEnv(); err != nil {
		return s, err
	}

	if o.set["seed"] {
		s.Seed = o.seed
	}
	if o.set["time"] {
		d, err := config.ParseDuration(o.timeBudget)
		if err != nil {
			return s, fmt.Errorf("-time: %w", err)
		}
		s.TimeBudget = d
	}
	if o.set["n"] {
		s.N = o.n
	}
	if o.set["k"] {
		s.K = o.k
	}
	return s, s.Validate()
}

func usable(ops []terrain.Op, s config.Solver) bool {
	if len(ops) != s.K {
		return false
	}
	for _, op := range ops {
		if !op.Feasible(s.N) {
			return false
		}
	}
	return true
}

// warmStart looks for starting operations in the -warm snapshot first and in
// the cache second.
func warmStart(log logrus.FieldLogger, o options, s config.Solver, cache *store.Store, digest string) ([]terrain.Op, error) {
	if o.warmPath != "" {
		snap, err := snapshot.Read(o.warmPath)
		if err != nil {
			return nil, err
		}
		if snap.Header.N != s.N || !usable(snap.Ops, s) {
			return nil, fmt.Errorf("%s: snapshot is for n = %d, k = %d", o.warmPath, snap.Header.N, snap.Header.K)
		}
		log.WithField("score", snap.Header.Score).Info("warm start from snapshot")
		return snap.Ops, nil
	}

	if cache == nil {
		return nil, nil
	}
	var best store.Best
	err := cache.Get(digest, &best)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !usable(best.Ops, s) {
		log.Warn("ignoring unusable cache entry")
		return nil, nil
	}
	log.WithField("score", best.Score).Info("warm start from cache")
	return best.Ops, nil
}

func run(log *logrus.Logger, o options, in io.Reader, out io.Writer) error {
	s, err := o.solver()
	if err != nil {
		return err
	}
	log.WithFields(s.Fields()).Debug("solver config")

	grid, err := textio.ReadGrid(in, s.N)
	if err != nil {
		return fmt.Errorf("unable to read grid: %w", err)
	}
	digest := store.Digest(grid, s.K)

	var cache *store.Store
	if o.cachePath != "" {
		if cache, err = store.Open(o.cachePath, "best"); err != nil {
			return err
		}
		defer cache.Close()
	}

	initial, err := warmStart(log, o, s, cache, digest)
	if err != nil {
		return err
	}

	var lastLogged time.Duration = -progressInterval
	outcome, err := solve.Run(solve.Request{
		Grid:    grid,
		Solver:  s,
		Initial: initial,
		OnImprove: func(p anneal.Progress) {
			if p.Elapsed-lastLogged < progressInterval || !log.IsLevelEnabled(logrus.DebugLevel) {
				return
			}
			lastLogged = p.Elapsed
			log.WithFields(logrus.Fields{
				"iteration": p.Iteration,
				"score":     p.Score,
				"elapsed":   p.Elapsed,
			}).Debug("improved")
		},
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"seed":       outcome.Seed,
		"score":      outcome.Score,
		"iterations": outcome.Iterations,
		"accepted":   outcome.Accepted,
		"elapsed":    outcome.Elapsed,
	}).Info("search finished")

	if o.verify {
		if err := verify(grid, s, outcome); err != nil {
			return err
		}
		log.Info("result verified")
	}

	if cache != nil {
		saved, err := cache.SaveIfBetter(digest, store.Best{
			Score: outcome.Score,
			Seed:  outcome.Seed,
			Ops:   outcome.Ops,
		})
		if err != nil {
			return err
		}
		log.WithField("saved", saved).Debug("cache updated")
	}

	if o.snapshotPath != "" {
		err := snapshot.Write(o.snapshotPath, snapshot.Snapshot{
			Header: snapshot.Header{
				N:         s.N,
				K:         s.K,
				Score:     outcome.Score,
				Seed:      outcome.Seed,
				Digest:    digest,
				CreatedAt: time.Now().UTC(),
			},
			Ops: outcome.Ops,
		})
		if err != nil {
			return err
		}
	}

	return textio.WriteSolution(out, outcome.Ops)
}

func verify(grid *terrain.Grid, s config.Solver, outcome solve.Outcome) error {
	if !usable(outcome.Ops, s) {
		return terrain.NewAssertionError("result has infeasible operations")
	}
	_, score := terrain.Evaluate(grid, outcome.Ops)
	if score != outcome.Score {
		return terrain.NewAssertionError(fmt.Sprintf("reported score %d, recomputed %d", outcome.Score, score))
	}
	return nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(o.verbose || config.Development(), config.LogFile())
	if err != nil {
		logrus.Fatal(err)
	}
	logging.Adopt(anneal.Log, log)

	if err := run(log, o, os.Stdin, os.Stdout); err != nil {
		log.WithError(err).Fatal("flatten failed")
	}
}
