package app

import (
	"github.com/vancomm/flattener/internal/handlers"
	"github.com/vancomm/flattener/internal/repository"
	"github.com/vancomm/flattener/internal/solve"
)

func (a *App) loadRoutes() error {
	var runs handlers.RunStore
	if a.db != nil {
		runs = repository.New(a.db)
	}

	h, err := handlers.New(a.log, runs, a.ws, a.solver, solve.DefaultLimits())
	if err != nil {
		return err
	}
	h.Register(a.router)
	return nil
}
