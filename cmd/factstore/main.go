package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/config"
	"github.com/nocap-labs/factstore/internal/index"
	logpkg "github.com/nocap-labs/factstore/internal/logger"
	"github.com/nocap-labs/factstore/internal/metrics"
	"github.com/nocap-labs/factstore/internal/storage/hybrid"
	chiTransport "github.com/nocap-labs/factstore/internal/transport/chi"
	factsuc "github.com/nocap-labs/factstore/internal/usecase/facts"
	healthuc "github.com/nocap-labs/factstore/internal/usecase/health"
	"github.com/nocap-labs/factstore/internal/version"
	"github.com/nocap-labs/factstore/internal/walrus"
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

	logger.Info("Starting factstore API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("walrus_publisher", cfg.Walrus.PublisherURL),
		zap.String("walrus_aggregator", cfg.Walrus.AggregatorURL),
	)

	metrics.RegisterStorageMetrics()

	// Walrus client and hybrid store — composition root
	client := walrus.NewClient(walrus.Config{
		PublisherURL:  cfg.Walrus.PublisherURL,
		AggregatorURL: cfg.Walrus.AggregatorURL,
		MaxBlobSize:   int(cfg.Walrus.MaxBlobSize),
		ProbeTimeout:  time.Duration(cfg.Walrus.ProbeTimeoutSec) * time.Second,
		Logger:        logger,
	})

	store := hybrid.NewStore(client, hybrid.Config{
		Epochs:          cfg.Walrus.DefaultEpochs,
		HealthInterval:  time.Duration(cfg.Walrus.HealthIntervalSec) * time.Second,
		FallbackEnabled: *cfg.Walrus.FallbackEnabled,
		Logger:          logger,
	})
	store.OnFallback(func(ev hybrid.FallbackEvent) {
		logger.Warn("storage fell back to local mode",
			zap.String("reason", string(ev.Reason)),
			zap.Time("at", ev.Timestamp),
		)
	})

	// Fact index, restored from the last snapshot when present
	idx := index.New()
	if cfg.Index.PersistPath != "" {
		n, err := idx.Load(cfg.Index.PersistPath)
		if err != nil {
			logger.Warn("index snapshot not restored", zap.Error(err))
		} else if n > 0 {
			logger.Info("index restored from snapshot", zap.Int("facts", n))
		}
	}

	// Facts service
	factsSvc, err := factsuc.New(store, idx, logger)
	if err != nil {
		logger.Fatal("Failed to create facts service", zap.Error(err))
	}
	defer factsSvc.Close()
	if cfg.Index.PersistPath != "" {
		factsSvc.WithPersistence(cfg.Index.PersistPath)
	}

	ctx := context.Background()
	if cfg.Index.SeedOnEmpty {
		if err := factsSvc.Seed(ctx, cfg.Index.SeedBlobIDs); err != nil {
			logger.Warn("index seeding failed", zap.Error(err))
		}
	}

	// Health service
	healthSvc := healthuc.New(store, idx)

	// HTTP server
	server := chiTransport.NewServer(factsSvc, healthSvc, store, logger).
		WithPagination(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize).
		WithMaxBatchSize(cfg.Index.MaxBatchSize)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
