// Package handlers serves the solver over HTTP and websockets.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/repository"
	"github.com/vancomm/flattener/internal/solve"
)

var ErrNoPersistence = errors.New("run history is not configured")

// RunStore is the part of [repository.Queries] the handlers use.
type RunStore interface {
	CreateRun(context.Context, repository.CreateRunParams) (*repository.Run, error)
	FetchRun(context.Context, int64) (*repository.Run, error)
	ListRuns(context.Context, repository.RunFilter) ([]repository.RunSummary, error)
	BestRun(context.Context, string) (*repository.Run, error)
}

type Handler struct {
	log      logrus.FieldLogger
	runs     RunStore
	ws       *config.WebSocket
	defaults config.Solver
	limits   solve.Limits
	decoder  *schema.Decoder
	schema   *jsonschema.Schema
	started  time.Time
}

// New builds the handler set. runs may be nil, in which case solves are not
// recorded and the /runs endpoints answer 503.
func New(
	log logrus.FieldLogger,
	runs RunStore,
	ws *config.WebSocket,
	defaults config.Solver,
	limits solve.Limits,
) (*Handler, error) {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	gridSchema, err := compileGridSchema()
	if err != nil {
		return nil, err
	}

	return &Handler{
		log:      log,
		runs:     runs,
		ws:       ws,
		defaults: defaults,
		limits:   limits,
		decoder:  dec,
		schema:   gridSchema,
		started:  time.Now(),
	}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /solve", h.Solve)
	mux.HandleFunc("GET /solve/ws", h.SolveWS)
	mux.HandleFunc("GET /runs", h.ListRuns)
	mux.HandleFunc("GET /runs/best", h.BestRun)
	mux.HandleFunc("GET /runs/{id}", h.FetchRun)
	mux.HandleFunc("GET /status", h.Status)
}

type StatusDTO struct {
	Status      string        `json:"status"`
	Persistence bool          `json:"persistence"`
	UptimeMs    int64         `json:"uptime_ms"`
	Defaults    config.Solver `json:"defaults"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	sendJSONOrLog(w, h.log, StatusDTO{
		Status:      "ok",
		Persistence: h.runs != nil,
		UptimeMs:    time.Since(h.started).Milliseconds(),
		Defaults:    h.defaults,
	})
}
