package maintenance

import (
	"testing"
	"time"

	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/models"
	"github.com/farmstand/backend/internal/personalization"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupSweeperDB(t *testing.T) *gorm.DB {
	t.Helper()

	logger.Log = zap.NewNop()
	logger.SugaredLog = logger.Log.Sugar()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`CREATE TABLE personalization_scores (
		id TEXT PRIMARY KEY, user_id TEXT NOT NULL, entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL, season TEXT NOT NULL,
		relevance_score REAL DEFAULT 0, affinity_score REAL DEFAULT 0,
		seasonal_score REAL DEFAULT 0, proximity_score REAL DEFAULT 0,
		popularity_score REAL DEFAULT 0, total_score REAL DEFAULT 0,
		calculated_at DATETIME NOT NULL, expires_at DATETIME NOT NULL,
		created_at DATETIME, updated_at DATETIME
	)`).Error)

	return db
}

func TestSweeperDeletesExpiredOnStart(t *testing.T) {
	db := setupSweeperDB(t)
	now := time.Now().UTC()

	for _, expiry := range []time.Time{now.Add(-time.Hour), now.Add(-2 * time.Hour), now.Add(time.Hour)} {
		require.NoError(t, db.Create(&models.PersonalizationScore{
			ID:           uuid.NewString(),
			UserID:       "u1",
			EntityType:   models.EntityProduct,
			EntityID:     uuid.NewString(),
			Season:       "SUMMER",
			CalculatedAt: now.Add(-7 * time.Hour),
			ExpiresAt:    expiry,
		}).Error)
	}

	sweeper := NewSweeper(personalization.NewService(db), time.Hour)
	sweeper.Start()
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		var count int64
		if err := db.Model(&models.PersonalizationScore{}).Count(&count).Error; err != nil {
			return false
		}
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	db := setupSweeperDB(t)
	sweeper := NewSweeper(personalization.NewService(db), time.Hour)

	sweeper.Start()
	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop()
}

func TestSweeperDefaultInterval(t *testing.T) {
	sweeper := NewSweeper(nil, 0)
	assert.Equal(t, DefaultSweepInterval, sweeper.interval)
}
