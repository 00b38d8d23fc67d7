// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package main is the entry point for the PlayMetric analytics server.
//
// PlayMetric reads game telemetry (players, sessions, level attempts,
// purchases, ads, missions and UI interactions) from an embedded BadgerDB
// store or the telemetry backend's MongoDB database and serves computed
// analytics over a read-only JSON API: metric summaries, level difficulty,
// churn risk, insights and recommendations.
//
// # Startup
//
//  1. Configuration: defaults, config.yaml, then environment (Koanf v2)
//  2. Store: BadgerDB or MongoDB behind a circuit breaker
//  3. Churn model: rule-based until a stored or freshly trained forest is loaded
//  4. Supervisor tree: startup import, churn bootstrap and the HTTP server
//
// # Example Usage
//
//	export STORE_BACKEND=mongo
//	export MONGODB_URI=mongodb://localhost:27017
//	export MONGODB_DB=gameanalytics
//	export CHURN_TRAIN_ON_STARTUP=true
//	./playmetric
//
// Embedded store seeded from a batch file:
//
//	export BADGER_PATH=/data/playmetric
//	export IMPORT_PATH=/data/telemetry.json
//	./playmetric
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// in-flight requests within SHUTDOWN_TIMEOUT and the store is closed last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vishnugarg323/PlayMetric/internal/api"
	"github.com/vishnugarg323/PlayMetric/internal/churn"
	"github.com/vishnugarg323/PlayMetric/internal/config"
	"github.com/vishnugarg323/PlayMetric/internal/logging"
	"github.com/vishnugarg323/PlayMetric/internal/service"
	"github.com/vishnugarg323/PlayMetric/internal/store"
	"github.com/vishnugarg323/PlayMetric/internal/supervisor"
	"github.com/vishnugarg323/PlayMetric/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingOptions())
	logger := logging.Logger()

	logging.Info().
		Str("version", version).
		Str("store_backend", cfg.Store.Backend).
		Bool("churn_training", cfg.Churn.EnabledTraining).
		Msg("Starting PlayMetric with supervisor tree")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg.StoreOptions(), logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	if err := run(ctx, cfg, st); err != nil {
		logging.Error().Err(err).Msg("Server stopped with error")
		cancel()
		_ = st.Close()
		os.Exit(1) //nolint:gocritic // store closed explicitly above
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, st store.Store) error {
	logger := logging.Logger()

	model, err := churn.NewModel(cfg.ChurnModelConfig(), logger)
	if err != nil {
		return fmt.Errorf("create churn model: %w", err)
	}

	svc, err := service.New(cfg.ServiceConfig(version), st, model, logger)
	if err != nil {
		return fmt.Errorf("create analytics service: %w", err)
	}

	routerCfg := api.DefaultRouterConfig()
	routerCfg.Middleware.CORSOrigins = cfg.Security.CORSOrigins
	routerCfg.Middleware.RateLimitRequests = cfg.Security.RateLimitRequests
	routerCfg.Middleware.RateLimitWindow = cfg.Security.RateLimitWindow
	routerCfg.Middleware.RateLimitDisabled = cfg.Security.RateLimitDisabled
	routerCfg.SlowRequestThreshold = cfg.Server.SlowRequest

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(svc, routerCfg, logger),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Data layer: the import must finish before the churn bootstrap reads
	// its training snapshot.
	importSvc := services.NewImportService(store.NewImporter(st, logger), cfg.Store.ImportPath, logger)
	tree.AddDataService(importSvc)
	tree.AddDataService(services.NewChurnService(model, st, services.ChurnServiceConfig{
		TrainOnStartup: cfg.Churn.EnabledTraining && cfg.Churn.TrainOnStartup,
		After:          importSvc.Ready(),
	}, logger))

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel receives exactly one value and is never closed.
	var runErr error
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
		runErr = err
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
