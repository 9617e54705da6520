package personalization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/farmstand/backend/internal/metrics"
	"github.com/farmstand/backend/internal/models"
	"github.com/farmstand/backend/internal/season"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// componentScores holds the five sub-scores, each in [0,100]
type componentScores struct {
	relevance  float64
	affinity   float64
	seasonal   float64
	proximity  float64
	popularity float64
}

// total applies the component weights and rounds to the final score
func (c componentScores) total() float64 {
	return math.Round(models.WeightRelevance*c.relevance +
		models.WeightAffinity*c.affinity +
		models.WeightSeasonal*c.seasonal +
		models.WeightProximity*c.proximity +
		models.WeightPopularity*c.popularity)
}

// CalculateScore returns the personalization score for (user, entity, season),
// serving from the score cache when the cached row has not expired. On a miss
// or expiry the five components are computed concurrently, combined into the
// weighted total and upserted with a fresh 6-hour expiry.
//
// An empty season defaults to the current calendar season. A missing entity is
// not an error: the affected components contribute zero (or their neutral
// value) and a score row is still produced and cached.
func (s *Service) CalculateScore(ctx context.Context, userID string, entityType models.EntityType, entityID string, szn season.Season) (*models.PersonalizationScore, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("invalid entity type: %q", entityType)
	}

	now := s.clock.Now()
	if szn == "" {
		szn = season.FromTime(now)
	}
	if !szn.Valid() {
		return nil, fmt.Errorf("invalid season: %q", szn)
	}

	var cached models.PersonalizationScore
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND entity_id = ? AND season = ?",
			userID, entityType, entityID, szn).
		First(&cached).Error
	switch {
	case err == nil:
		if !cached.Expired(now) {
			metrics.Get().ScoreCalculationsTotal.WithLabelValues(string(entityType), "hit").Inc()
			return &cached, nil
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to look up cached score: %w", err)
	}

	start := time.Now()
	components, err := s.computeComponents(ctx, userID, entityType, entityID, szn, now)
	if err != nil {
		metrics.Get().ScoreCalculationsTotal.WithLabelValues(string(entityType), "error").Inc()
		return nil, err
	}

	score := &models.PersonalizationScore{
		UserID:          userID,
		EntityType:      entityType,
		EntityID:        entityID,
		Season:          szn,
		RelevanceScore:  components.relevance,
		AffinityScore:   components.affinity,
		SeasonalScore:   components.seasonal,
		ProximityScore:  components.proximity,
		PopularityScore: components.popularity,
		TotalScore:      components.total(),
		CalculatedAt:    now,
		ExpiresAt:       now.Add(models.ScoreTTL),
	}

	// Idempotent upsert on the composite key. Concurrent requests racing past
	// the same expired row both recompute; last writer wins, which is fine for
	// soft scores that re-expire anyway.
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "entity_type"}, {Name: "entity_id"}, {Name: "season"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"relevance_score", "affinity_score", "seasonal_score",
			"proximity_score", "popularity_score", "total_score",
			"calculated_at", "expires_at", "updated_at",
		}),
	}).Create(score).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save personalization score: %w", err)
	}

	m := metrics.Get()
	m.ScoreCalculationsTotal.WithLabelValues(string(entityType), "computed").Inc()
	m.ScoreCalculationDuration.WithLabelValues(string(entityType)).Observe(time.Since(start).Seconds())

	return score, nil
}

// computeComponents fans the five independent component queries out to
// goroutines and joins them. The components share no state; each runs its own
// reads. Any component error fails the whole computation (storage problems
// propagate to the caller), but a missing entity is handled inside the
// component and is not an error.
func (s *Service) computeComponents(ctx context.Context, userID string, entityType models.EntityType, entityID string, szn season.Season, now time.Time) (componentScores, error) {
	type componentResult struct {
		name  string
		score float64
		err   error
	}

	results := make(chan componentResult, 5)

	run := func(name string, fn func() (float64, error)) {
		go func() {
			start := time.Now()
			score, err := fn()
			metrics.Get().ComponentDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			results <- componentResult{name: name, score: score, err: err}
		}()
	}

	run("relevance", func() (float64, error) {
		return s.relevanceScore(ctx, userID, entityType, entityID)
	})
	run("affinity", func() (float64, error) {
		return s.affinityScore(ctx, userID, entityType, entityID, now)
	})
	run("seasonal", func() (float64, error) {
		return s.seasonalScore(ctx, entityType, entityID, szn)
	})
	run("proximity", func() (float64, error) {
		return s.proximityScore(ctx, userID, entityType, entityID)
	})
	run("popularity", func() (float64, error) {
		return s.popularityScore(ctx, entityType, entityID, now)
	})

	var out componentScores
	var firstErr error
	for i := 0; i < 5; i++ {
		result := <-results
		if result.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s component: %w", result.name, result.err)
			}
			continue
		}
		switch result.name {
		case "relevance":
			out.relevance = result.score
		case "affinity":
			out.affinity = result.score
		case "seasonal":
			out.seasonal = result.score
		case "proximity":
			out.proximity = result.score
		case "popularity":
			out.popularity = result.score
		}
	}

	if firstErr != nil {
		return componentScores{}, firstErr
	}
	return out, nil
}
