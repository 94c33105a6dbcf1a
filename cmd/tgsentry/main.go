package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/tgsentry/tgsentry/pkg/api"
	"github.com/tgsentry/tgsentry/pkg/audit"
	"github.com/tgsentry/tgsentry/pkg/config"
	"github.com/tgsentry/tgsentry/pkg/observability"
	"github.com/tgsentry/tgsentry/pkg/rules"
	"github.com/tgsentry/tgsentry/pkg/security"
	"github.com/tgsentry/tgsentry/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("fatal error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	if metrics != nil {
		store = storage.NewInstrumentedStore(store, metrics)
	}
	defer store.Close()
	logger.WithField("type", cfg.Storage.Type).Info("storage initialized")

	auditLog, err := buildAuditLogger(cfg)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	registry := rules.NewRegistry(cfg.Security.CommandPrefix)
	roles, err := security.NewRoleResolver(ctx, store, cfg.Security.BotID)
	if err != nil {
		return err
	}
	masks, err := security.NewMaskStore(ctx, store)
	if err != nil {
		return err
	}
	tsec, err := security.NewTargetedRuleStore(ctx, store, roles)
	if err != nil {
		return err
	}

	opts := []security.EvaluatorOption{security.WithAuditLog(auditLog)}
	if metrics != nil {
		opts = append(opts, security.WithMetrics(metrics))
	}
	evaluator := security.NewEvaluator(registry, masks, tsec, roles, logger, opts...)

	sweeper, err := startSweeper(ctx, cfg.Security.SweepSchedule, tsec, auditLog, logger)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      api.NewServer(evaluator, registry, roles, masks, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthHandler(store, metrics),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("addr", apiServer.Addr).Info("starting api server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("api server shutdown failed")
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("health server shutdown failed")
	}
	return nil
}

func buildAuditLogger(cfg *config.Config) (audit.Logger, error) {
	if !cfg.Security.AuditEnabled {
		return audit.NopLogger{}, nil
	}
	return audit.NewFileLogger(audit.FileLoggerConfig{
		BasePath: cfg.Security.AuditLogDir,
		MaxSize:  cfg.Security.AuditMaxSize,
		MaxFiles: cfg.Security.AuditMaxFiles,
	})
}

// startSweeper schedules the periodic expired-rule sweep. Lazy eviction keeps
// checks correct without it; the sweep keeps the persisted lists short.
func startSweeper(ctx context.Context, schedule string, tsec *security.TargetedRuleStore, auditLog audit.Logger, logger *observability.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		dropped := tsec.Sweep(ctx, time.Now())
		if dropped == 0 {
			return
		}
		logger.WithField("dropped", dropped).Info("swept expired targeted rules")
		if err := auditLog.Log(&audit.Event{
			EventType: audit.EventTypeRulesSweep,
			Status:    audit.EventStatusSuccess,
			Message:   fmt.Sprintf("dropped %d expired rules", dropped),
		}); err != nil {
			logger.WithError(err).Warn("failed to write audit event")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func healthHandler(store storage.Store, metrics *observability.Metrics) http.Handler {
	deps := map[string]observability.Pinger{}
	if pinger, ok := store.(observability.Pinger); ok {
		deps["storage"] = pinger
	}
	checker := observability.NewHealthChecker(deps)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", checker.Liveness).Methods("GET")
	router.HandleFunc("/readyz", checker.Readiness).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
	return router
}
