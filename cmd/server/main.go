package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/flattener/internal/anneal"
	"github.com/vancomm/flattener/internal/app"
	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/database"
	"github.com/vancomm/flattener/internal/logging"
)

func loadSolver() (config.Solver, error) {
	s := config.DefaultSolver()
	if path := config.SolverFile(); path != "" {
		var err error
		if s, err = config.LoadSolver(path); err != nil {
			return s, err
		}
	}
	return s, s.ApplyEnv()
}

func main() {
	log, err := logging.New(config.Development(), config.LogFile())
	if err != nil {
		logrus.Fatal(err)
	}
	logging.Adopt(anneal.Log, log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	solver, err := loadSolver()
	if err != nil {
		log.WithError(err).Fatal("invalid solver config")
	}
	log.WithFields(solver.Fields()).Debug("solver defaults")

	if err := app.New(log, solver, database.Migrations).Start(ctx, config.Port()); err != nil {
		log.Errorf("exit reason: %s", err)
		os.Exit(1)
	}
}
