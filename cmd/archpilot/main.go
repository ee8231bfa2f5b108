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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/archpilot/archpilot/internal/config"
	dbRedis "github.com/archpilot/archpilot/internal/db/redis"
	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/domain/chunk"
	"github.com/archpilot/archpilot/internal/index"
	logpkg "github.com/archpilot/archpilot/internal/logger"
	"github.com/archpilot/archpilot/internal/metrics"
	"github.com/archpilot/archpilot/internal/repository/embcache"
	"github.com/archpilot/archpilot/internal/similarity"
	chiTransport "github.com/archpilot/archpilot/internal/transport/chi"
	openaiEmb "github.com/archpilot/archpilot/internal/transport/openai"
	healthuc "github.com/archpilot/archpilot/internal/usecase/health"
	searchuc "github.com/archpilot/archpilot/internal/usecase/search"
	toolsuc "github.com/archpilot/archpilot/internal/usecase/tools"
	"github.com/archpilot/archpilot/internal/version"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

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

	logger.Info("Starting archpilot server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("artifact", cfg.Index.ArtifactPath),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	// Load the index artifact. The store is immutable after this point; any
	// inconsistency in the artifact is fatal.
	store, err := index.Load(cfg.Index.ArtifactPath)
	if err != nil {
		logger.Fatal("Failed to load index artifact", zap.Error(err))
	}
	metrics.IndexChunks.Set(float64(store.Len()))
	logger.Info("Index loaded",
		zap.Int("chunks", store.Len()),
		zap.Int("dimension", store.Dimension()),
		zap.String("model", store.ModelID()),
	)

	// Query embedder. Must produce vectors in the same space the artifact was
	// built with, so a model mismatch refuses to start.
	embedder := buildEmbedder(cfg, logger)
	if embedder.ModelID() != store.ModelID() {
		logger.Fatal("Embedding model does not match the index artifact",
			zap.String("configured", embedder.ModelID()),
			zap.String("artifact", store.ModelID()),
			zap.Error(domain.ErrModelMismatch),
		)
	}

	engine, err := similarity.NewEngine()
	if err != nil {
		logger.Fatal("Failed to create similarity engine", zap.Error(err))
	}
	defer engine.Release()

	searchSvc := searchuc.New(store, embedder, engine, logger,
		searchuc.WithRankConfig(rankConfigFromSettings(cfg.Search)),
		searchuc.WithMaxResults(cfg.Search.MaxResults),
		searchuc.WithOverscan(cfg.Search.Overscan),
		searchuc.WithEmbedTimeout(time.Duration(cfg.Embedding.TimeoutSec)*time.Second),
	)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	// Tool dispatch table
	runner := toolsuc.NewRunner(time.Duration(cfg.Tools.ExecTimeoutSec)*time.Second, logger)
	registry := toolsuc.NewRegistry(logger)
	registry.Register(toolsuc.NewKBSearch(searchSvc))
	registry.Register(toolsuc.NewSkopeo(runner))
	registry.Register(toolsuc.NewCheckImage(runner, nil))
	registry.Register(toolsuc.NewMCA(runner, cfg.Tools.WorkspaceDir))
	registry.Register(toolsuc.NewMigrateScan(runner, cfg.Tools.WorkspaceDir, cfg.Tools.Scanners))
	registry.Register(toolsuc.NewSysReport())

	server := chiTransport.NewServer(searchSvc, registry, healthSvc, logger)

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

// buildEmbedder assembles the embedder chain: OpenAI base, optionally wrapped
// in the Redis-backed cache when one is configured.
func buildEmbedder(cfg config.Config, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	if !cfg.Cache.Enabled {
		return base
	}

	cacheStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create embedding cache store", zap.Error(err))
	}

	if err := cacheStore.WaitForReady(context.Background(), 10*time.Second); err != nil {
		// Cache is an optimization: start without it rather than fail.
		logger.Warn("Embedding cache not ready, continuing without cache", zap.Error(err))
		cacheStore.Close()
		return base
	}
	logger.Info("Embedding cache connected", zap.Strings("addrs", cfg.Cache.Addrs))

	return embcache.New(base, cacheStore,
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger)
}

// rankConfigFromSettings converts the config ranking policy to the domain form.
func rankConfigFromSettings(sc config.SearchConfig) searchuc.RankConfig {
	rc := searchuc.DefaultRankConfig()
	if len(sc.CategoryWeights) > 0 {
		weights := make(map[chunk.Category]float64, len(sc.CategoryWeights))
		for name, w := range sc.CategoryWeights {
			weights[chunk.Category(name)] = w
		}
		rc.Weights = weights
	}
	if sc.DedupOverlap > 0 {
		rc.DedupOverlap = sc.DedupOverlap
	}
	return rc
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

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
