package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/database"
	"github.com/vancomm/flattener/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	log        *logrus.Logger
	router     *http.ServeMux
	db         *pgxpool.Pool
	ws         *config.WebSocket
	solver     config.Solver
	migrations fs.FS
}

func New(log *logrus.Logger, solver config.Solver, migrations fs.FS) *App {
	return &App{
		log:        log,
		router:     http.NewServeMux(),
		solver:     solver,
		migrations: migrations,
	}
}

// connect leaves a.db nil when no database is configured.
func (a *App) connect(ctx context.Context) error {
	db, _, err := database.ConnectAndMigrate(ctx, a.migrations)
	if errors.Is(err, config.ErrNoDatabase) {
		a.log.Warn("no database configured, runs will not be recorded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return fmt.Errorf("unable to ping db: %w", err)
	}
	a.db = db
	return nil
}

func (a *App) Start(ctx context.Context, addr string) error {
	if err := a.connect(ctx); err != nil {
		return err
	}
	if a.db != nil {
		defer a.db.Close()
	}

	ws, err := config.NewWebSocket()
	if err != nil {
		return err
	}
	a.ws = ws

	if err := a.loadRoutes(); err != nil {
		return err
	}

	server := &http.Server{
		Addr: addr,
		Handler: middleware.Wrap(
			a.router,
			middleware.Logging(a.log),
			middleware.Cors(),
		),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	a.log.Infof("ready to serve @ %s", addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe()
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
