package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/yatube/internal/auth"
	"github.com/sujalbistaa/yatube/internal/cache"
	"github.com/sujalbistaa/yatube/internal/config"
	"github.com/sujalbistaa/yatube/internal/db"
	"github.com/sujalbistaa/yatube/internal/follow"
	routes "github.com/sujalbistaa/yatube/internal/http"
	"github.com/sujalbistaa/yatube/internal/listing"
	"github.com/sujalbistaa/yatube/internal/logger"
	"github.com/sujalbistaa/yatube/internal/media"
	"github.com/sujalbistaa/yatube/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Database
	database, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	logger.Log.Info("running database migrations")
	if err := db.Migrate(database); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	// 2. Page cache
	pageCache, err := newCache(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize cache", zap.Error(err))
	}

	// 3. Media storage
	storage, mediaRoot, err := newStorage(cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize media storage", zap.Error(err))
	}

	s := store.New(database)
	graph := follow.NewGraph(s)
	env := &routes.Env{
		Store:         s,
		Graph:         graph,
		Listing:       listing.NewService(s, graph, cfg.PageSize),
		Cache:         pageCache,
		Media:         storage,
		Tokens:        auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		IndexCacheTTL: cfg.IndexCacheTTL,
		MaxImageBytes: cfg.MaxImageBytes,
	}

	// 4. Router
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxImageBytes
	routes.SetupRoutes(ctx, router, env, routes.RouteOptions{
		AdminToken:     cfg.AdminToken,
		CORSOrigin:     cfg.CORSOrigin,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MediaRoot:      mediaRoot,
	})

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server forced to shutdown", zap.Error(err))
	}
	if closer, ok := pageCache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Log.Info("server exiting")
}

func newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.CacheBackend != config.CacheRedis {
		return cache.NewMemory(), nil
	}
	addr := net.JoinHostPort(cfg.RedisHost, cfg.RedisPort)
	rc, err := cache.NewRedis(ctx, addr, cfg.RedisPasswd)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("using redis page cache", zap.String("addr", addr))
	return rc, nil
}

// newStorage also returns the directory to serve under /media, which is empty
// for remote backends.
func newStorage(cfg config.Config) (media.Storage, string, error) {
	if cfg.MediaBackend == config.MediaS3 {
		s3, err := media.NewS3Storage(cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			return nil, "", err
		}
		logger.Log.Info("using s3 media storage", zap.String("bucket", cfg.S3Bucket))
		return s3, "", nil
	}
	local, err := media.NewLocalStorage(cfg.MediaRoot, "/media")
	if err != nil {
		return nil, "", err
	}
	return local, local.Root(), nil
}
