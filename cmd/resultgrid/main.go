package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resultgrid/internal/config"
	logpkg "github.com/kailas-cloud/resultgrid/internal/logger"
	"github.com/kailas-cloud/resultgrid/internal/metrics"
	sessionrepo "github.com/kailas-cloud/resultgrid/internal/repository/session"
	chiTransport "github.com/kailas-cloud/resultgrid/internal/transport/chi"
	griduc "github.com/kailas-cloud/resultgrid/internal/usecase/grid"
	healthuc "github.com/kailas-cloud/resultgrid/internal/usecase/health"
	"github.com/kailas-cloud/resultgrid/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting resultgrid API server",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("max_sessions", cfg.Sessions.MaxSessions),
		zap.Int("session_ttl_sec", cfg.Sessions.IdleTTLSec),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterGridMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := sessionrepo.New(
		time.Duration(cfg.Sessions.IdleTTLSec)*time.Second,
		cfg.Sessions.MaxSessions,
	)
	go store.Run(ctx, time.Duration(cfg.Sessions.SweepIntervalSec)*time.Second, func(removed, remaining int) {
		metrics.SessionsActive.Set(float64(remaining))
		if removed > 0 {
			logger.Debug("Expired sessions swept", zap.Int("removed", removed), zap.Int("remaining", remaining))
		}
	})

	gridSvc := griduc.New(store, griduc.Config{
		ColumnWidth:    cfg.Grid.DefaultColumnWidth,
		VisibleColumns: cfg.Grid.DefaultVisibleColumns,
		MaxRecords:     cfg.Grid.MaxRecords,
		DateLayout:     cfg.Grid.DateLayout,
	}, logger)
	healthSvc := healthuc.New(store, store, cfg.Sessions.MaxSessions)

	server := chiTransport.NewServer(gridSvc, healthSvc, logger).WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			logger.Debug("Rejected request parameters", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, `{"code":%q,"message":"invalid request"}`, chiTransport.ErrorResponseCodeBadRequest)
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully", zap.Int("open_sessions", store.Len()))
}
