package personalization

import (
	"context"
	"testing"
	"time"

	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/models"
	"github.com/farmstand/backend/internal/season"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func seedScore(t *testing.T, db *gorm.DB, userID, entityID string, total float64, expiresAt time.Time) {
	t.Helper()
	score := &models.PersonalizationScore{
		UserID:       userID,
		EntityType:   models.EntityProduct,
		EntityID:     entityID,
		Season:       season.Summer,
		TotalScore:   total,
		CalculatedAt: testNow,
		ExpiresAt:    expiresAt,
	}
	require.NoError(t, db.Create(score).Error)
}

func TestGetTopProductsOrdering(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)

	seedScore(t, db, user.ID, "p-low", 40, testNow.Add(time.Hour))
	seedScore(t, db, user.ID, "p-high", 90, testNow.Add(time.Hour))
	seedScore(t, db, user.ID, "p-mid", 65, testNow.Add(time.Hour))

	scores, err := svc.GetTopProducts(context.Background(), user.ID, season.Summer, 10)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, "p-high", scores[0].EntityID)
	assert.Equal(t, "p-mid", scores[1].EntityID)
	assert.Equal(t, "p-low", scores[2].EntityID)
}

func TestGetTopProductsSkipsExpiredAndForeign(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	other := createTestUser(t, db)

	seedScore(t, db, user.ID, "p-live", 80, testNow.Add(time.Hour))
	seedScore(t, db, user.ID, "p-expired", 95, testNow.Add(-time.Hour))
	seedScore(t, db, other.ID, "p-foreign", 99, testNow.Add(time.Hour))

	scores, err := svc.GetTopProducts(context.Background(), user.ID, season.Summer, 10)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "p-live", scores[0].EntityID)
}

func TestGetTopProductsIsPureRead(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	createTestProduct(t, db, farm.ID, nil)

	// an unscored catalog yields an empty list, not fresh computations
	scores, err := svc.GetTopProducts(context.Background(), user.ID, season.Summer, 10)
	require.NoError(t, err)
	assert.Empty(t, scores)

	var count int64
	require.NoError(t, db.Model(&models.PersonalizationScore{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetTopProductsLimit(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)

	for i := 0; i < 5; i++ {
		seedScore(t, db, user.ID, uuid.NewString(), float64(50+i), testNow.Add(time.Hour))
	}

	scores, err := svc.GetTopProducts(context.Background(), user.ID, season.Summer, 2)
	require.NoError(t, err)
	assert.Len(t, scores, 2)
}

func TestBatchCalculateIsolatesFailures(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	product := createTestProduct(t, db, farm.ID, nil)

	entities := []EntityRef{
		{Type: models.EntityProduct, ID: product.ID},
		{Type: "BOGUS", ID: "x"},
		{Type: models.EntityFarm, ID: farm.ID},
	}

	results, err := svc.BatchCalculate(context.Background(), user.ID, entities, season.Summer)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])
	assert.Equal(t, product.ID, results[0].EntityID)
	assert.Equal(t, farm.ID, results[2].EntityID)
}

func TestBatchCalculateLogsFailureReason(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)

	core, logs := observer.New(zap.WarnLevel)
	logger.Log = zap.New(core)
	defer func() { logger.Log = zap.NewNop() }()

	_, err := svc.BatchCalculate(context.Background(), user.ID, []EntityRef{{Type: "BOGUS", ID: "x"}}, season.Summer)
	require.NoError(t, err)

	entries := logs.FilterMessage("batch score calculation failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "error")
}

func TestRecalculateExpired(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	product := createTestProduct(t, db, farm.ID, nil)

	seedScore(t, db, user.ID, product.ID, 10, testNow.Add(-time.Hour))
	seedScore(t, db, user.ID, "p-live", 70, testNow.Add(time.Hour))

	refreshed, err := svc.RecalculateExpired(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)

	var updated models.PersonalizationScore
	require.NoError(t, db.Where("user_id = ? AND entity_id = ?", user.ID, product.ID).First(&updated).Error)
	assert.True(t, updated.ExpiresAt.After(testNow))
}

func TestCleanupExpired(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)

	seedScore(t, db, user.ID, "p-dead-1", 10, testNow.Add(-time.Hour))
	seedScore(t, db, user.ID, "p-dead-2", 20, testNow.Add(-2*time.Hour))
	seedScore(t, db, user.ID, "p-live", 80, testNow.Add(time.Hour))

	deleted, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.PersonalizationScore{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}
