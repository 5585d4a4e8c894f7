// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/newsrank/internal/api"
	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/embedding"
	"github.com/tomtom215/newsrank/internal/feedback"
	"github.com/tomtom215/newsrank/internal/ingest"
	"github.com/tomtom215/newsrank/internal/llm"
	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/recommend"
	"github.com/tomtom215/newsrank/internal/supervisor"
	"github.com/tomtom215/newsrank/internal/supervisor/services"
	"github.com/tomtom215/newsrank/internal/vector"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Newsrank stopped with error")
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and blocks until ctx is canceled. Resources are
// released by deferred closers in reverse order of creation.
//
//nolint:gocyclo // sequential setup steps
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Str("db_path", cfg.Database.Path).
		Msg("Starting Newsrank with supervisor tree")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// === PROVIDERS ===
	provider, err := embedding.New(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("initialize embedding provider: %w", err)
	}
	extractor, err := llm.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("initialize llm extractor: %w", err)
	}
	vectors := vector.NewService(db, provider)
	logging.Info().
		Str("embedding_model", provider.Model()).
		Bool("vectors_enabled", vectors.Enabled()).
		Str("llm_provider", cfg.LLM.Provider).
		Msg("Providers initialized")

	// === CACHE AND ENGINE ===
	cacheComponents, err := initCache(ctx, cfg.Cache, db)
	if err != nil {
		return err
	}
	defer func() {
		if err := cacheComponents.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache store")
		}
	}()

	var recaller recommend.VectorRecaller
	if vectors.Enabled() {
		recaller = vectors
	}
	engine, err := recommend.NewEngine(recommend.FromAppConfig(cfg), db, recaller, cacheComponents.Cache)
	if err != nil {
		return fmt.Errorf("initialize recommendation engine: %w", err)
	}

	// === EVENTS ===
	events, err := initEvents(ctx, cfg.Events, cacheComponents.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := events.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// === FEEDBACK AND INGEST ===
	fbOpts := []feedback.Option{
		feedback.WithInterestStep(cfg.LLM.InterestStep),
		feedback.WithEventPublisher(events.Publisher),
	}
	importOpts := []ingest.Option{
		ingest.WithLimits(cfg.Feeds.MaxItemsPerImport, cfg.Feeds.MaxDocumentBytes),
	}
	if vectors.Enabled() {
		fbOpts = append(fbOpts, feedback.WithPreferenceRefresher(vectors))
		importOpts = append(importOpts, ingest.WithIndexer(vectors))
	}
	if cfg.LLM.AnalyzeOnImport {
		importOpts = append(importOpts, ingest.WithAnalyzer(extractor))
	}
	processor := feedback.NewProcessor(db, extractor, fbOpts...)
	importer := ingest.NewImporter(db, importOpts...)

	if cfg.Feeds.SeedDefaults {
		if _, err := importer.SeedSources(ctx, cfg.Feeds.DefaultSources); err != nil {
			return fmt.Errorf("seed default sources: %w", err)
		}
	}

	// === HTTP ===
	handler := api.NewHandler(engine, processor, importer, db, api.Options{
		RequestTimeout: cfg.API.RequestTimeout,
		Version:        version,
	})
	router := api.NewRouter(handler, api.NewMiddleware(api.MiddlewareConfigFromSecurity(cfg.Security)))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISOR TREE ===
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddDataService(services.NewEvictionService(cacheComponents.Evictor, cacheComponents.Cache, true))
	tree.AddMessagingService(services.NewEventRouterService(events.Router))
	tree.AddAPIService(services.NewHTTPServerService(server, services.DefaultShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// errCh receives exactly one value and is never closed.
	var runErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("supervisor tree: %w", err)
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	return runErr
}
