// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"travel-planner/internal/app"
	"travel-planner/internal/common/camunda"
	"travel-planner/internal/common/config"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/observability"
	"travel-planner/pkg/registry"

	pc "travel-planner/internal/workers/travel/parse-conversation"
	pt "travel-planner/internal/workers/travel/plan-trip"
	sf "travel-planner/internal/workers/travel/search-flights"
	sh "travel-planner/internal/workers/travel/search-hotels"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	if err := config.ValidateForWorkers(cfg); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}

	reg, err := registry.LoadRegistry(cfg.Planner.RegistryPath)
	if err != nil {
		zapLog.Fatal("stage registry load failed", zap.String("path", cfg.Planner.RegistryPath), zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("stage registry invalid", zap.Error(err))
	}

	obs, err := observability.New("worker-manager")
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx := context.Background()

	planner, err := app.New(ctx, cfg, log, app.WithObservability(obs))
	if err != nil {
		zapLog.Fatal("planner setup failed", zap.Error(err))
	}

	zeebe, err := camunda.Dial(ctx, cfg.Camunda, 10, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}

	var workers []*camunda.Worker
	start := func(taskType string, build func(wcfg config.WorkerConfig, stage *registry.Stage) worker.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		stage, ok := reg.Find(taskType)
		if !ok {
			zapLog.Fatal("stage not registered", zap.String("taskType", taskType))
		}
		if w := camunda.StartWorker(zeebe.Zeebe(), taskType, wcfg, build(wcfg, stage), log); w != nil {
			workers = append(workers, w)
		}
	}

	start(sf.TaskType, func(wcfg config.WorkerConfig, stage *registry.Stage) worker.JobHandler {
		return sf.NewHandler(sf.LoadConfig(wcfg, stage), planner.Planner, stage, &searchFlightsLoggerAdapter{log}).Handle
	})
	start(sh.TaskType, func(wcfg config.WorkerConfig, stage *registry.Stage) worker.JobHandler {
		return sh.NewHandler(sh.LoadConfig(wcfg, stage), planner.Planner, stage, &searchHotelsLoggerAdapter{log}).Handle
	})
	start(pc.TaskType, func(wcfg config.WorkerConfig, stage *registry.Stage) worker.JobHandler {
		return pc.NewHandler(pc.LoadConfig(wcfg, stage), planner.Parser, stage, &parseConversationLoggerAdapter{log}).Handle
	})
	start(pt.TaskType, func(wcfg config.WorkerConfig, stage *registry.Stage) worker.JobHandler {
		return pt.NewHandler(pt.LoadConfig(wcfg, stage), planner.Planner, stage, &planTripLoggerAdapter{log}).Handle
	})

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(ctx); err != nil {
			zapLog.Warn("zeebe not ready", zap.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		if err := planner.Ready(ctx); err != nil {
			zapLog.Warn("stores not ready", zap.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	healthServer := &http.Server{
		Addr:              cfg.Server.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := planner.Close(shutdownCtx); err != nil {
		zapLog.Error("Error releasing planner resources", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, status int, state string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": state,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Logger adapters for workers that declare their own Logger interfaces
type searchFlightsLoggerAdapter struct {
	logger.Logger
}

func (a *searchFlightsLoggerAdapter) With(fields map[string]interface{}) sf.Logger {
	return &searchFlightsLoggerAdapter{a.Logger.With(fields)}
}

type searchHotelsLoggerAdapter struct {
	logger.Logger
}

func (a *searchHotelsLoggerAdapter) With(fields map[string]interface{}) sh.Logger {
	return &searchHotelsLoggerAdapter{a.Logger.With(fields)}
}

type parseConversationLoggerAdapter struct {
	logger.Logger
}

func (a *parseConversationLoggerAdapter) With(fields map[string]interface{}) pc.Logger {
	return &parseConversationLoggerAdapter{a.Logger.With(fields)}
}

type planTripLoggerAdapter struct {
	logger.Logger
}

func (a *planTripLoggerAdapter) With(fields map[string]interface{}) pt.Logger {
	return &planTripLoggerAdapter{a.Logger.With(fields)}
}
