package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/orch-console/internal/api/router"
	"github.com/wolfman30/orch-console/internal/app/bootstrap"
	appconfig "github.com/wolfman30/orch-console/internal/config"
	"github.com/wolfman30/orch-console/internal/console"
	"github.com/wolfman30/orch-console/internal/observability/metrics"
	"github.com/wolfman30/orch-console/internal/orch"
	"github.com/wolfman30/orch-console/internal/web"
	"github.com/wolfman30/orch-console/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Default().Warn("failed to load .env", "error", err)
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting orchestration console",
		"env", cfg.Env,
		"port", cfg.Port,
		"orch_url", cfg.OrchURL,
	)

	ctx := context.Background()
	handler, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build console", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Orchestration calls may take the full client timeout, so writes get headroom.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.OrchTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		cleanup()
		os.Exit(1)
	}
	logger.Info("server exited")
}

// setupMetrics creates a dedicated registry with Go/process collectors and
// the orchestration metrics.
func setupMetrics() (*prometheus.Registry, http.Handler, *metrics.OrchMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orchMetrics := metrics.NewOrchMetrics(reg)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), orchMetrics
}

// buildServer wires the console: orchestration client, session store,
// optional S3 references and the router.
func buildServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	reg, metricsHandler, orchMetrics := setupMetrics()

	client, err := orch.NewClient(orch.Config{URL: cfg.OrchURL, Timeout: cfg.OrchTimeout}, orchMetrics, logger)
	if err != nil {
		return nil, nil, err
	}

	backend, err := bootstrap.BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := backend.Close(); err != nil {
			logger.Warn("session store close failed", "error", err)
		}
	}

	controller := console.NewController(client, orchMetrics, logger)
	if resolver, err := bootstrap.BuildURLResolver(ctx, cfg, logger); err != nil {
		logger.Warn("s3 references disabled", "error", err)
	} else {
		controller.WithURLResolver(resolver)
	}

	consoleHandler := web.NewHandler(controller, backend.Store, logger, web.Options{
		Gatherer:     reg,
		SecureCookie: cfg.Env == "production",
		LockTTL:      cfg.OrchTimeout + 15*time.Second,
	})

	handler := router.New(&router.Config{
		Logger:             logger,
		Console:            consoleHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ConsoleJWTSecret:   cfg.ConsoleJWTSecret,
		HealthCheck:        backend.Health,
	})
	return handler, cleanup, nil
}
