package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/farmstand/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "farmstand")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	// Configure GORM logger
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// Enable UUID extension for PostgreSQL
	err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
	if err != nil {
		log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Farm{},
		&models.Product{},
		&models.UserInteraction{},
		&models.UserPreference{},
		&models.PersonalizationScore{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes for performance
	err = createIndexes()
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// Interaction log indexes for windowed affinity and popularity queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_user_interactions_user_created ON user_interactions (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_user_interactions_product_created ON user_interactions (product_id, created_at DESC) WHERE product_id IS NOT NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_user_interactions_user_action ON user_interactions (user_id, action)")

	// Product catalog indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_products_farm ON products (farm_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_products_certifications ON products USING GIN (certifications)")

	// Score cache indexes: composite key lookup, user-ranked reads, expiry sweep
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_personalization_scores_key ON personalization_scores (user_id, entity_type, entity_id, season)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_personalization_scores_top ON personalization_scores (user_id, entity_type, season, total_score DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_personalization_scores_expiry ON personalization_scores (expires_at)")

	// Preference lookup by user
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_user_preferences_user ON user_preferences (user_id) WHERE deleted_at IS NULL")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
