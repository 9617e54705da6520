package personalization

import (
	"testing"
	"time"

	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fixedClock pins "now" so season defaults and expiry checks are
// deterministic
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// midsummer, so the current season is SUMMER
var testNow = time.Date(2025, time.July, 15, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	logger.Log = zap.NewNop()
	logger.SugaredLog = logger.Log.Sugar()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// the in-memory database is per-connection; a pool would silently hand
	// the concurrent component queries empty databases
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			display_name TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE farms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			city TEXT,
			is_local BOOLEAN DEFAULT FALSE,
			latitude REAL,
			longitude REAL,
			certifications TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE products (
			id TEXT PRIMARY KEY,
			farm_id TEXT NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			description TEXT,
			price REAL DEFAULT 0,
			unit TEXT,
			certifications TEXT,
			seasonality TEXT,
			is_available BOOLEAN DEFAULT TRUE,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE user_interactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			product_id TEXT,
			action TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE user_preferences (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			prefer_organic BOOLEAN DEFAULT FALSE,
			prefer_local BOOLEAN DEFAULT FALSE,
			biodynamic_only BOOLEAN DEFAULT FALSE,
			price_range_min REAL DEFAULT 0,
			price_range_max REAL DEFAULT 0,
			favorite_categories TEXT,
			favorite_farms TEXT,
			default_latitude REAL,
			default_longitude REAL,
			dietary_restrictions TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE personalization_scores (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			season TEXT NOT NULL,
			relevance_score REAL DEFAULT 0,
			affinity_score REAL DEFAULT 0,
			seasonal_score REAL DEFAULT 0,
			proximity_score REAL DEFAULT 0,
			popularity_score REAL DEFAULT 0,
			total_score REAL DEFAULT 0,
			calculated_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE UNIQUE INDEX idx_personalization_scores_key
			ON personalization_scores (user_id, entity_type, entity_id, season)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewServiceWithClock(db, fixedClock{now: testNow}), db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.NewString(),
		Email:       uuid.NewString() + "@example.com",
		DisplayName: "Test Shopper",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestFarm(t *testing.T, db *gorm.DB, opts func(*models.Farm)) *models.Farm {
	t.Helper()
	farm := &models.Farm{
		ID:   uuid.NewString(),
		Name: "Hillside Farm",
		City: "Concord",
	}
	if opts != nil {
		opts(farm)
	}
	require.NoError(t, db.Create(farm).Error)
	return farm
}

func createTestProduct(t *testing.T, db *gorm.DB, farmID string, opts func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:          uuid.NewString(),
		FarmID:      farmID,
		Name:        "Heirloom Tomatoes",
		Category:    "vegetables",
		Price:       4.50,
		Unit:        "lb",
		Seasonality: models.StringArray{"SUMMER"},
		IsAvailable: true,
	}
	if opts != nil {
		opts(product)
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createInteraction(t *testing.T, db *gorm.DB, userID, productID string, action models.InteractionAction, at time.Time) {
	t.Helper()
	in := &models.UserInteraction{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: &productID,
		Action:    action,
		CreatedAt: at,
	}
	require.NoError(t, db.Create(in).Error)
}

func createInteractionWithPrice(t *testing.T, db *gorm.DB, userID, productID string, price float64, at time.Time) {
	t.Helper()
	in := &models.UserInteraction{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: &productID,
		Action:    models.ActionPurchase,
		Metadata:  &models.InteractionMetadata{Price: &price},
		CreatedAt: at,
	}
	require.NoError(t, db.Create(in).Error)
}

func ptr[T any](v T) *T { return &v }
