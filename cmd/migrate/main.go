package main

import (
	"os"

	"github.com/farmstand/backend/internal/database"
	"github.com/farmstand/backend/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Initialize(getEnv("LOG_LEVEL", "info"), ""); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("migrations complete")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
