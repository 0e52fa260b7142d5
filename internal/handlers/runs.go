package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vancomm/flattener/internal/repository"
	"github.com/vancomm/flattener/internal/terrain"
	"github.com/vancomm/flattener/internal/textio"
)

type RunDTO struct {
	repository.RunSummary
	Ops []terrain.Op `json:"ops"`
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		sendErrorOrLog(w, h.log, http.StatusServiceUnavailable, ErrNoPersistence)
		return
	}

	var params RunsParams
	if err := h.decoder.Decode(&params, r.URL.Query()); err != nil {
		sendErrorOrLog(w, h.log, http.StatusBadRequest, err)
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), repository.RunFilter(params))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to list runs")
		return
	}
	if runs == nil {
		runs = []repository.RunSummary{}
	}

	sendJSONOrLog(w, h.log, runs)
}

type BestRunParams struct {
	Digest string `schema:"digest,required"`
}

func (h *Handler) BestRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		sendErrorOrLog(w, h.log, http.StatusServiceUnavailable, ErrNoPersistence)
		return
	}

	var params BestRunParams
	if err := h.decoder.Decode(&params, r.URL.Query()); err != nil {
		sendErrorOrLog(w, h.log, http.StatusBadRequest, err)
		return
	}

	run, err := h.runs.BestRun(r.Context(), params.Digest)
	if errors.Is(err, repository.ErrRunNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to fetch best run from db")
		return
	}
	h.sendRun(w, r, run)
}

func (h *Handler) FetchRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		sendErrorOrLog(w, h.log, http.StatusServiceUnavailable, ErrNoPersistence)
		return
	}

	runId, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	run, err := h.runs.FetchRun(r.Context(), runId)
	if errors.Is(err, repository.ErrRunNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to fetch run from db")
		return
	}
	h.sendRun(w, r, run)
}

func (h *Handler) sendRun(w http.ResponseWriter, r *http.Request, run *repository.Run) {
	ops, err := run.Solution()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).WithField("run_id", run.RunId).Error("db returned invalid run.ops")
		return
	}

	if wantsText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := textio.WriteSolution(w, ops); err != nil {
			h.log.WithError(err).Error("unable to write solution")
		}
		return
	}

	sendJSONOrLog(w, h.log, RunDTO{
		RunSummary: repository.RunSummary{
			RunId:      run.RunId,
			Digest:     run.Digest,
			N:          run.N,
			K:          run.K,
			Seed:       run.Seed,
			Score:      run.Score,
			Iterations: run.Iterations,
			ElapsedMs:  run.ElapsedMs,
			CreatedAt:  run.CreatedAt,
		},
		Ops: ops,
	})
}
