// Package main starts the Curated Query Service: the HTTP API, the job reaper, and the async
// job worker, sharing one database connection and one orchestrator instance.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/TranslatorSRI/cqs/internal/api"
	"github.com/TranslatorSRI/cqs/internal/events"
	"github.com/TranslatorSRI/cqs/internal/jobs"
	"github.com/TranslatorSRI/cqs/internal/orchestrator"
	"github.com/TranslatorSRI/cqs/internal/storage"
	"github.com/TranslatorSRI/cqs/internal/template"
	"github.com/TranslatorSRI/cqs/internal/upstream"
	"github.com/TranslatorSRI/cqs/internal/worker"
	"github.com/TranslatorSRI/cqs/migrations"
)

const (
	appVersion  = "1.0.0-dev"
	serviceName = "cqs"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", serviceName, appVersion)
		os.Exit(0)
	}

	serverConfig := api.LoadServerConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: serverConfig.LogLevel,
	}))

	logger.Info("starting Curated Query Service",
		slog.String("service", serviceName),
		slog.String("version", appVersion),
	)

	storageConfig := storage.LoadConfig()
	if err := storageConfig.Validate(); err != nil {
		logger.Error("invalid database configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	conn, err := storage.NewConnection(storageConfig)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := runMigrations(conn.DB, logger); err != nil {
		logger.Error("failed to run database migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	manifest, err := template.LoadManifestFromEnv()
	if err != nil {
		logger.Error("failed to load template manifest", slog.String("error", err.Error()))
		os.Exit(1)
	}

	registry, err := template.NewRegistry(manifest, filepath.Dir(serverConfig.TemplateManifestPath))
	if err != nil {
		logger.Error("failed to build template registry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	upstreamClient := upstream.NewClient(serverConfig.WorkflowRunnerURL)
	jobStore := jobs.NewStore(conn)

	pipeline := orchestrator.New(registry, upstreamClient, orchestrator.Config{
		SchemaVersion:  serverConfig.TRAPIVersion,
		BiolinkVersion: serverConfig.BiolinkVersion,
		DebugOutputDir: serverConfig.WFROutputDir,
	})

	var publisher events.JobEventPublisher = events.NoopPublisher{}

	if len(serverConfig.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(serverConfig.KafkaBrokers, serverConfig.KafkaJobEventsTopic, logger)
		defer kafkaPublisher.Close() //nolint:errcheck

		publisher = kafkaPublisher

		logger.Info("job event publisher enabled", slog.Any("brokers", serverConfig.KafkaBrokers))
	}

	if reset := jobStore.ResetRunningToQueued(context.Background()); reset > 0 {
		logger.Info("reset jobs left running by a previous crash", slog.Int64("count", reset))
	}

	reaper := worker.NewReaper(jobStore, worker.ReaperConfig{
		Interval: serverConfig.ReaperInterval,
		Timeout:  serverConfig.ReaperTimeout,
		MaxAge:   serverConfig.ReaperMaxAge,
	})
	asyncWorker := worker.NewWorker(jobStore, pipeline, publisher).Configure(worker.WorkerConfig{
		Interval: serverConfig.WorkerInterval,
		Timeout:  serverConfig.WorkerTimeout,
	})

	go reaper.Run()
	go asyncWorker.Run()

	logger.Info("job reaper and async worker started",
		slog.Int("templates", len(registry.Templates())),
	)

	server := api.NewServer(&serverConfig, jobStore, pipeline, appVersion)

	if err := server.Start(); err != nil {
		logger.Error("server failed to start", slog.String("error", err.Error()))
		reaper.Stop()
		asyncWorker.Stop()
		os.Exit(1)
	}

	reaper.Stop()
	asyncWorker.Stop()

	logger.Info("Curated Query Service stopped")
}

// runMigrations applies every pending migration embedded in the migrations package, the same
// golang-migrate driver the standalone migrator tool uses, pointed at an iofs source instead of
// a file:// URL so the server carries its own schema with it.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("database migrations applied")

	return nil
}
