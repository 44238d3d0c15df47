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

	"github.com/nordkart/shopsearch/internal/cache"
	"github.com/nordkart/shopsearch/internal/config"
	dbRedis "github.com/nordkart/shopsearch/internal/db/redis"
	"github.com/nordkart/shopsearch/internal/domain"
	logpkg "github.com/nordkart/shopsearch/internal/logger"
	"github.com/nordkart/shopsearch/internal/metrics"
	affinityrepo "github.com/nordkart/shopsearch/internal/repository/affinity"
	orderrepo "github.com/nordkart/shopsearch/internal/repository/order"
	productrepo "github.com/nordkart/shopsearch/internal/repository/product"
	chiTransport "github.com/nordkart/shopsearch/internal/transport/chi"
	localEmb "github.com/nordkart/shopsearch/internal/transport/local"
	openaiEmb "github.com/nordkart/shopsearch/internal/transport/openai"
	affinityuc "github.com/nordkart/shopsearch/internal/usecase/affinity"
	embeddinguc "github.com/nordkart/shopsearch/internal/usecase/embedding"
	healthuc "github.com/nordkart/shopsearch/internal/usecase/health"
	ingestuc "github.com/nordkart/shopsearch/internal/usecase/ingest"
	recommenduc "github.com/nordkart/shopsearch/internal/usecase/recommend"
	searchuc "github.com/nordkart/shopsearch/internal/usecase/search"
	"github.com/nordkart/shopsearch/internal/version"
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

	logger.Info("Starting shopsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_driver", cfg.Embedding.Driver),
	)

	domain.KeyPrefix = cfg.Storage.KeyPrefix

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterCacheMetrics()
	metrics.RegisterSearchMetrics()

	// Per-data-class caches; the algorithm is shared, the sizing differs.
	cacheObserver := metrics.CacheObserver{}
	searchCache := newCache("search", cfg.Caches.Search, cacheObserver)
	productCache := newCache("product", cfg.Caches.Product, cacheObserver)
	recommendationCache := newCache("recommendations", cfg.Caches.Recommendations, cacheObserver)

	embedder := buildEmbedder(cfg.Embedding, productCache)
	logger.Info("Embedder created",
		zap.String("driver", cfg.Embedding.Driver),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories over the narrow store contract
	productRepo := productrepo.New(store)
	orderRepo := orderrepo.New(store)
	affinityRepo := affinityrepo.New(store)

	// Use case services
	affinitySvc := affinityuc.New(affinityRepo, orderRepo)
	recommendSvc := recommenduc.New(productRepo, orderRepo, affinityRepo, recommendationCache,
		recommenduc.Config{
			DefaultLimit:         cfg.Recommend.DefaultLimit,
			ContentMinSimilarity: cfg.Recommend.ContentMinSimilarity,
			StockBoost:           cfg.Recommend.StockBoost,
			SaleBoost:            cfg.Recommend.SaleBoost,
		})
	searchSvc := searchuc.New(productRepo, embedder, searchCache, metrics.StrategyObserver{},
		searchuc.Config{
			MinQueryLength:      cfg.Search.MinQueryLength,
			MaxCategories:       cfg.Search.MaxCategories,
			MaxBrands:           cfg.Search.MaxBrands,
			MaxProducts:         cfg.Search.MaxProducts,
			VectorMinSimilarity: cfg.Search.VectorMinSimilarity,
		})
	ingestSvc := ingestuc.New(productRepo, orderRepo, embedder)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder), affinityRepo)

	server := chiTransport.NewServer(
		searchSvc, recommendSvc, affinitySvc, ingestSvc, healthSvc,
		[]*cache.Cache{searchCache, productCache, recommendationCache},
		logger,
	)

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

func newCache(name string, cc config.CacheClassConfig, observer cache.Observer) *cache.Cache {
	return cache.New(name, cc.MaxSize, time.Duration(cc.TTLSeconds)*time.Second,
		cache.WithObserver(observer))
}

// buildEmbedder assembles the embedder chain: provider -> Cached.
// The cache decorator shares the product cache class, so identical text
// is vectorized once per cache lifetime.
func buildEmbedder(cfg config.EmbeddingConfig, cache embeddinguc.ResultCache) domain.Embedder {
	var base domain.Embedder
	switch cfg.Driver {
	case "openai":
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	default:
		base = localEmb.NewEmbedder(cfg.Dimensions)
	}

	return embeddinguc.NewCached(base, cache)
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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
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
