package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/deck-pipeline/internal/bootstrap"
	"github.com/kirillkom/deck-pipeline/internal/config"
	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/observability/logging"
	"github.com/kirillkom/deck-pipeline/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.NATSURL == "" {
		logger.Error("worker_requires_nats", "hint", "set NATS_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:    service,
		Logger:     logger,
		Registerer: workerMetrics.Registry(),
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSRunSubject)
	err = app.Queue.SubscribeRunRequests(ctx, func(handlerCtx context.Context, req domain.RunRequest) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		workerMetrics.StartRun()
		started := time.Now()
		run, err := app.Pipeline.Run(runCtx, req)
		workerMetrics.FinishRun(service, time.Since(started), run != nil && run.Fatal(), err)
		if err != nil {
			return err
		}
		logging.ForProject(logger, run.ProjectID, run.ID).Info("run_request_handled", "status", run.Status, "artifact", run.FinalArtifactPath)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
