package handlers

import (
	"net/url"
	"time"

	"github.com/vancomm/flattener/internal/config"
)

type SolveParams struct {
	Seed   *uint64 `schema:"seed"`
	TimeMs *int64  `schema:"time_ms"`
	K      *int    `schema:"k"`
	N      *int    `schema:"n"`

	// Warm starts from the best recorded run for the same grid.
	Warm bool `schema:"warm"`
}

// solver applies the query parameters on top of the server defaults and
// checks the result against the request limits.
func (h *Handler) solver(query url.Values) (config.Solver, SolveParams, error) {
	var params SolveParams
	if err := h.decoder.Decode(&params, query); err != nil {
		return config.Solver{}, params, err
	}

	s := h.defaults
	if params.Seed != nil {
		s.Seed = *params.Seed
	}
	if params.TimeMs != nil {
		s.TimeBudget = config.Duration{Duration: time.Duration(*params.TimeMs) * time.Millisecond}
	}
	if params.K != nil {
		s.K = *params.K
	}
	if params.N != nil {
		s.N = *params.N
	}

	if err := s.Validate(); err != nil {
		return config.Solver{}, params, err
	}
	if err := h.limits.Check(s); err != nil {
		return config.Solver{}, params, err
	}
	return s, params, nil
}

type RunsParams struct {
	Digest *string `schema:"digest"`
	N      *int    `schema:"n"`
	K      *int    `schema:"k"`
	Limit  int     `schema:"limit"`
}
