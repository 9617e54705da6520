package main

import (
	"flag"
	"os"

	"github.com/farmstand/backend/internal/database"
	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/seed"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	clean := flag.Bool("clean", false, "remove existing data before seeding")
	seedValue := flag.Uint64("seed", 11, "random seed for reproducible data")
	flag.Parse()

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

	seeder := seed.New(database.DB)

	if *clean {
		if err := seeder.Clean(); err != nil {
			logger.Error("clean failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("existing data removed")
	}

	if err := seeder.Run(*seedValue); err != nil {
		logger.Error("seeding failed", zap.Error(err))
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
