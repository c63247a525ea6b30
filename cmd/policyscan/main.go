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

	"github.com/kailas-cloud/policyscan/internal/config"
	"github.com/kailas-cloud/policyscan/internal/corpus"
	"github.com/kailas-cloud/policyscan/internal/db"
	dbRedis "github.com/kailas-cloud/policyscan/internal/db/redis"
	"github.com/kailas-cloud/policyscan/internal/domain"
	"github.com/kailas-cloud/policyscan/internal/index"
	logpkg "github.com/kailas-cloud/policyscan/internal/logger"
	"github.com/kailas-cloud/policyscan/internal/metrics"
	"github.com/kailas-cloud/policyscan/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/policyscan/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/policyscan/internal/transport/openai"
	rerankT "github.com/kailas-cloud/policyscan/internal/transport/rerank"
	toxicityT "github.com/kailas-cloud/policyscan/internal/transport/toxicity"
	healthuc "github.com/kailas-cloud/policyscan/internal/usecase/health"
	reranker "github.com/kailas-cloud/policyscan/internal/usecase/rerank"
	"github.com/kailas-cloud/policyscan/internal/usecase/retrieval"
	"github.com/kailas-cloud/policyscan/internal/usecase/risk"
	"github.com/kailas-cloud/policyscan/internal/usecase/safety"
	"github.com/kailas-cloud/policyscan/internal/usecase/screen"
	"github.com/kailas-cloud/policyscan/internal/version"
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

	logger.Info("Starting policyscan API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterScreeningMetrics()

	ctx := context.Background()

	// Optional embedding cache store
	var store db.Store
	if cfg.Cache.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache")
	} else {
		logger.Info("Embedding cache disabled")
	}

	// Build embedder chain — composition root
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.BatchEmbedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cached", store != nil),
	)

	// Load the policy corpus and build the in-memory index
	corpusStore, err := corpus.Load(cfg.Corpus.ParaphrasePath, cfg.Corpus.ChunkPaths, logger)
	if err != nil {
		logger.Fatal("Failed to load policy corpus", zap.Error(err))
	}
	idx, err := index.Build(ctx, corpusStore, embedder, logger)
	if err != nil {
		logger.Fatal("Failed to build retrieval index", zap.Error(err))
	}
	logger.Info("Retrieval index ready",
		zap.Int("chunks", corpusStore.Len()),
		zap.Int("vectors", idx.Len()),
	)

	// Relevance model client
	scorer := rerankT.New(&rerankT.Config{
		BaseURL: cfg.Relevance.BaseURL,
		APIKey:  cfg.Relevance.APIKey,
		Timeout: time.Duration(cfg.Relevance.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	// Optional external toxicity classifier.
	// Pass nil interface (not typed nil pointer!) when not configured.
	var clf domain.ToxicityClassifier
	if cfg.Safety.BaseURL != "" {
		clf = toxicityT.New(&toxicityT.Config{
			BaseURL: cfg.Safety.BaseURL,
			APIKey:  cfg.Safety.APIKey,
			Timeout: time.Duration(cfg.Safety.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("External toxicity classifier enabled",
			zap.String("base_url", cfg.Safety.BaseURL))
	}
	analyzer := safety.NewAnalyzer(clf, logger)

	// Use case services
	retriever := retrieval.New(idx, embedder)
	rr := reranker.New(corpusStore, idx, embedder, scorer, cfg.Screening.Alpha)
	policy := risk.Policy{
		High:   cfg.Screening.HighThreshold,
		Medium: cfg.Screening.MediumThreshold,
	}
	params := screen.Params{
		TopK:         cfg.Screening.TopK,
		QueryTopK:    cfg.Screening.QueryTopK,
		RerankTop:    cfg.Screening.RerankTop,
		SimThreshold: cfg.Screening.SimThreshold,
		PageWorkers:  cfg.Screening.PageWorkers,
	}
	screener, err := screen.New(retriever, rr, analyzer, corpusStore, policy, params, logger)
	if err != nil {
		logger.Fatal("Failed to create screening service", zap.Error(err))
	}
	defer screener.Close()

	// Health service. Typed-nil gotcha again: store is already an interface.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger, base)

	// HTTP server
	server := chiTransport.NewServer(screener, healthSvc, cfg.Screening.MaxPages, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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
