package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/repository"
	"github.com/vancomm/flattener/internal/solve"
	"github.com/vancomm/flattener/internal/store"
	"github.com/vancomm/flattener/internal/terrain"
	"github.com/vancomm/flattener/internal/textio"
)

type SolveDTO struct {
	Score      int64        `json:"score"`
	Iterations int          `json:"iterations"`
	ElapsedMs  int64        `json:"elapsed_ms"`
	Seed       uint64       `json:"seed"`
	Digest     string       `json:"digest"`
	Ops        []terrain.Op `json:"ops"`
	RunId      *int64       `json:"run_id,omitempty"`
}

func NewSolveDTO(out solve.Outcome, runId *int64) SolveDTO {
	return SolveDTO{
		Score:      out.Score,
		Iterations: out.Iterations,
		ElapsedMs:  out.ElapsedMs(),
		Seed:       out.Seed,
		Digest:     out.Digest,
		Ops:        out.Ops,
		RunId:      runId,
	}
}

// record stores the outcome when run history is configured. Failing to record
// does not fail the solve.
func (h *Handler) record(ctx context.Context, s config.Solver, out solve.Outcome) *int64 {
	if h.runs == nil {
		return nil
	}
	run, err := h.runs.CreateRun(ctx, repository.CreateRunParams{
		Digest:     out.Digest,
		N:          s.N,
		K:          s.K,
		Seed:       out.Seed,
		Score:      out.Score,
		Iterations: out.Iterations,
		Elapsed:    out.Elapsed,
		Ops:        out.Ops,
	})
	if errors.Is(err, repository.ErrDuplicateRun) {
		h.log.WithField("digest", out.Digest).Debug("run already recorded")
		return nil
	}
	if err != nil {
		h.log.WithError(err).Error("unable to record run")
		return nil
	}
	return &run.RunId
}

// warmStart returns the operations of the best recorded run for grid, or nil
// when there is none.
func (h *Handler) warmStart(ctx context.Context, grid *terrain.Grid, s config.Solver) []terrain.Op {
	if h.runs == nil {
		return nil
	}
	run, err := h.runs.BestRun(ctx, store.Digest(grid, s.K))
	if errors.Is(err, repository.ErrRunNotFound) {
		return nil
	}
	if err != nil {
		h.log.WithError(err).Error("unable to fetch best run")
		return nil
	}
	ops, err := run.Solution()
	if err != nil || len(ops) != s.K {
		h.log.WithField("run_id", run.RunId).Warn("best run is unusable for a warm start")
		return nil
	}
	for _, op := range ops {
		if !op.Feasible(s.N) {
			return nil
		}
	}
	h.log.WithFields(logrus.Fields{
		"run_id": run.RunId,
		"score":  run.Score,
	}).Debug("warm start")
	return ops
}

func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	s, params, err := h.solver(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, h.log, http.StatusBadRequest, err)
		return
	}

	grid, status, err := h.readGrid(w, r, s.N)
	if err != nil {
		sendErrorOrLog(w, h.log, status, err)
		return
	}

	var initial []terrain.Op
	if params.Warm {
		initial = h.warmStart(r.Context(), grid, s)
	}

	out, err := solve.Run(solve.Request{Grid: grid, Solver: s, Initial: initial})
	if err != nil {
		h.log.WithError(err).Error("solve failed")
		sendErrorOrLog(w, h.log, http.StatusInternalServerError, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"n":          s.N,
		"k":          s.K,
		"seed":       out.Seed,
		"score":      out.Score,
		"iterations": out.Iterations,
	}).Info("solved")

	runId := h.record(r.Context(), s, out)

	if wantsText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := textio.WriteSolution(w, out.Ops); err != nil {
			h.log.WithError(err).Error("unable to write solution")
		}
		return
	}
	sendJSONOrLog(w, h.log, NewSolveDTO(out, runId))
}
