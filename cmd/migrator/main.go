package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/database"
	"github.com/vancomm/flattener/internal/logging"
)

func main() {
	log, err := logging.New(config.Development(), config.LogFile())
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	conn, migrator, err := database.ConnectAndMigrate(ctx, database.Migrations)
	if err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	defer conn.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		log.WithError(err).Error("failed to check migration version")
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
