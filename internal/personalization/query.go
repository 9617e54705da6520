package personalization

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/metrics"
	"github.com/farmstand/backend/internal/models"
	"github.com/farmstand/backend/internal/season"
	"go.uber.org/zap"
)

const defaultTopLimit = 20

// GetTopProducts reads the user's highest-scoring unexpired product scores.
// It is a pure read: products that have never been scored (or whose scores
// lapsed) simply do not appear, and nothing is recomputed here.
func (s *Service) GetTopProducts(ctx context.Context, userID string, szn season.Season, limit int) ([]models.PersonalizationScore, error) {
	if szn == "" {
		szn = season.FromTime(s.clock.Now())
	}
	if !szn.Valid() {
		return nil, fmt.Errorf("invalid season %q", szn)
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}

	var scores []models.PersonalizationScore
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND season = ? AND expires_at > ?",
			userID, models.EntityProduct, szn, s.clock.Now()).
		Order("total_score DESC").
		Limit(limit).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}

	return scores, nil
}

// BatchCalculate scores many entities for one user concurrently. Entities
// are isolated from each other: a failed entity leaves a nil slot in the
// result and the rest still complete. Results keep input order.
func (s *Service) BatchCalculate(ctx context.Context, userID string, entities []EntityRef, szn season.Season) ([]*models.PersonalizationScore, error) {
	if szn == "" {
		szn = season.FromTime(s.clock.Now())
	}
	if !szn.Valid() {
		return nil, fmt.Errorf("invalid season %q", szn)
	}

	results := make([]*models.PersonalizationScore, len(entities))
	var wg sync.WaitGroup

	for i, ref := range entities {
		wg.Add(1)
		go func(i int, ref EntityRef) {
			defer wg.Done()
			score, err := s.CalculateScore(ctx, userID, ref.Type, ref.ID, szn)
			if err != nil {
				logger.Warn("batch score calculation failed",
					logger.WithUserID(userID),
					logger.WithEntity(string(ref.Type), ref.ID),
					zap.Error(err),
				)
				return
			}
			results[i] = score
		}(i, ref)
	}

	wg.Wait()
	return results, nil
}

// RecalculateExpired recomputes every expired score the user has
// accumulated, in parallel, and reports how many were refreshed.
func (s *Service) RecalculateExpired(ctx context.Context, userID string) (int, error) {
	var expired []models.PersonalizationScore
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at <= ?", userID, s.clock.Now()).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list expired scores: %w", err)
	}

	var refreshed int64
	var wg sync.WaitGroup

	for _, score := range expired {
		wg.Add(1)
		go func(score models.PersonalizationScore) {
			defer wg.Done()
			_, err := s.CalculateScore(ctx, score.UserID, score.EntityType, score.EntityID, score.Season)
			if err != nil {
				logger.WarnWithError("expired score recalculation failed", err)
				return
			}
			atomic.AddInt64(&refreshed, 1)
		}(score)
	}

	wg.Wait()
	return int(refreshed), nil
}

// CleanupExpired bulk-deletes every expired score row across all users and
// returns the number removed. The maintenance sweeper calls this on a timer.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.clock.Now()).
		Delete(&models.PersonalizationScore{})
	if result.Error != nil {
		metrics.Get().ErrorsTotal.WithLabelValues("cleanup").Inc()
		return 0, fmt.Errorf("failed to delete expired scores: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.Get().ExpiredScoresDeleted.Add(float64(result.RowsAffected))
	}

	return result.RowsAffected, nil
}
