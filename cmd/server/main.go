package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmstand/backend/internal/cache"
	"github.com/farmstand/backend/internal/database"
	"github.com/farmstand/backend/internal/handlers"
	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/maintenance"
	"github.com/farmstand/backend/internal/metrics"
	"github.com/farmstand/backend/internal/middleware"
	"github.com/farmstand/backend/internal/personalization"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	if err := logger.Initialize(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FILE", "")); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	metrics.Initialize()

	var redisClient *cache.RedisClient
	if host := os.Getenv("REDIS_HOST"); host != "" {
		var err error
		redisClient, err = cache.NewRedisClient(host, getEnv("REDIS_PORT", "6379"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.Warn("redis unavailable, response caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	engine := personalization.NewService(database.DB)
	h := handlers.New(database.DB, engine, redisClient)

	sweeper := maintenance.NewSweeper(engine, sweepInterval())
	sweeper.Start()
	defer sweeper.Stop()

	if getEnv("GIN_MODE", "") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.GinLoggerMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.IdentityMiddleware())
	api.Use(middleware.RequireUser())
	h.RegisterRoutes(api)

	addr := ":" + getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func corsOrigins() []string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return []string{origins}
	}
	return []string{"http://localhost:3000"}
}

func sweepInterval() time.Duration {
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}
	return maintenance.DefaultSweepInterval
}
