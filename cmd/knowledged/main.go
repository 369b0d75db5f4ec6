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

	blobMinio "github.com/calixflow/knowledge/internal/blob/minio"
	"github.com/calixflow/knowledge/internal/config"
	dbRedis "github.com/calixflow/knowledge/internal/db/redis"
	"github.com/calixflow/knowledge/internal/domain"
	logpkg "github.com/calixflow/knowledge/internal/logger"
	"github.com/calixflow/knowledge/internal/metrics"
	chunkrepo "github.com/calixflow/knowledge/internal/repository/chunk"
	documentrepo "github.com/calixflow/knowledge/internal/repository/document"
	"github.com/calixflow/knowledge/internal/repository/embcache"
	chiTransport "github.com/calixflow/knowledge/internal/transport/chi"
	openaiTransport "github.com/calixflow/knowledge/internal/transport/openai"
	chatuc "github.com/calixflow/knowledge/internal/usecase/chat"
	ingestuc "github.com/calixflow/knowledge/internal/usecase/ingest"
	retrievaluc "github.com/calixflow/knowledge/internal/usecase/retrieval"
	"github.com/calixflow/knowledge/internal/version"
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

	logger.Info("Starting knowledge API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
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

	blobStore, err := blobMinio.NewStore(ctx, blobMinio.Config{
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		Bucket:    cfg.Blob.Bucket,
		UseSSL:    cfg.Blob.UseSSL,
	})
	if err != nil {
		logger.Fatal("Failed to create blob store", zap.Error(err))
	}
	logger.Info("Connected to blob storage", zap.String("bucket", cfg.Blob.Bucket))

	// Register AI metrics explicitly (no init())
	metrics.RegisterAIMetrics()

	// Build embedder chain — composition root
	aiCfg := &openaiTransport.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Logger:  logger,
	}

	baseEmbedder := openaiTransport.NewEmbedder(aiCfg, cfg.AI.Embedding.Model, cfg.AI.Embedding.Dimensions)
	var embedder domain.Embedder = embcache.New(
		baseEmbedder, store,
		time.Duration(cfg.AI.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
	logger.Info("Embedder created",
		zap.String("model", cfg.AI.Embedding.Model),
		zap.Int("dimensions", cfg.AI.Embedding.Dimensions),
	)

	chatModel := openaiTransport.NewChatModel(
		aiCfg, cfg.AI.Chat.Model, cfg.AI.Chat.Temperature, cfg.AI.Chat.MaxTokens,
	)

	// Create repositories
	docRepo := documentrepo.New(store)
	chunkRepo := chunkrepo.New(store)

	// Create use case services
	ingestSvc := ingestuc.New(docRepo, chunkRepo, blobStore, embedder, logger).
		WithLimits(cfg.Ingest.MaxFileBytes, cfg.Ingest.ChunkMaxChars)
	retrievalSvc := retrievaluc.New(chunkRepo, embedder, logger).
		WithTopK(cfg.Retrieval.TopK)
	chatSvc := chatuc.New(retrievalSvc, chatModel, logger).
		WithTemplate(cfg.AI.Chat.Template)

	// Create chi server
	server := chiTransport.NewServer(
		ingestSvc, chatSvc, store, baseEmbedder, cfg.Ingest.MaxFileBytes, logger,
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
