package personalization

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/metrics"
	"github.com/farmstand/backend/internal/models"
	"gorm.io/gorm"
)

// UserProfile is the intermediate aggregate built from the user's recent
// interaction log. It drives both preference learning and the insights
// endpoint.
type UserProfile struct {
	UserID           string             `json:"userId"`
	CategoryAffinity map[string]float64 `json:"categoryAffinity"`
	FarmAffinity     map[string]float64 `json:"farmAffinity"`
	PricePreferences PricePreferences   `json:"pricePreferences"`
	TimePreferences  TimePreferences    `json:"timePreferences"`
	Behavior         BehaviorMetrics    `json:"behavior"`
	OrganicRate      float64            `json:"organicRate"`
	LocalRate        float64            `json:"localRate"`
	InteractionCount int                `json:"interactionCount"`
}

// PricePreferences summarizes the prices of the user's recent purchases.
type PricePreferences struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// TimePreferences captures when the user tends to shop.
type TimePreferences struct {
	PreferredHours    []int `json:"preferredHours"`
	PreferredWeekdays []int `json:"preferredWeekdays"`
}

// BehaviorMetrics are funnel ratios over the profile window.
type BehaviorMetrics struct {
	Views              int     `json:"views"`
	CartAdds           int     `json:"cartAdds"`
	Purchases          int     `json:"purchases"`
	ConversionRate     float64 `json:"conversionRate"`
	RepeatPurchaseRate float64 `json:"repeatPurchaseRate"`
}

// BuildProfile aggregates the user's last 30 days of interactions into a
// profile. Category and farm affinities are action-weighted (purchase 5,
// cart 3, click 2, view 1); rate metrics guard against empty windows.
func (s *Service) BuildProfile(ctx context.Context, userID string) (*UserProfile, error) {
	since := s.clock.Now().Add(-profileWindow)

	var interactions []models.UserInteraction
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Farm").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&interactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}

	profile := &UserProfile{
		UserID:           userID,
		CategoryAffinity: make(map[string]float64),
		FarmAffinity:     make(map[string]float64),
		InteractionCount: len(interactions),
	}

	var (
		purchasePrices    []float64
		hourCounts        [24]int
		weekdayCounts     [7]int
		organicHits       int
		localHits         int
		rateEligible      int
		purchasedProducts = make(map[string]bool)
	)

	for _, in := range interactions {
		weight := in.Action.Weight()

		if in.Product != nil {
			profile.CategoryAffinity[in.Product.Category] += weight
			profile.FarmAffinity[in.Product.FarmID] += weight
		}

		hourCounts[in.CreatedAt.Hour()]++
		weekdayCounts[int(in.CreatedAt.Weekday())]++

		switch in.Action {
		case models.ActionView:
			profile.Behavior.Views++
		case models.ActionAddToCart:
			profile.Behavior.CartAdds++
		case models.ActionPurchase:
			profile.Behavior.Purchases++
			// only the recorded transaction price counts; the catalog price
			// may have changed since the purchase
			if in.Metadata != nil && in.Metadata.Price != nil {
				purchasePrices = append(purchasePrices, *in.Metadata.Price)
			}
			if in.ProductID != nil {
				purchasedProducts[*in.ProductID] = true
			}
		}

		// organic/local rates consider intent-bearing actions only
		if in.Action == models.ActionView || in.Action == models.ActionAddToCart || in.Action == models.ActionPurchase {
			rateEligible++
			if in.Product != nil {
				if in.Product.HasCertification(models.CertificationOrganic) {
					organicHits++
				}
				if in.Product.Farm.IsLocal {
					localHits++
				}
			}
		}
	}

	if len(purchasePrices) > 0 {
		min, max, sum := purchasePrices[0], purchasePrices[0], 0.0
		for _, p := range purchasePrices {
			if p < min {
				min = p
			}
			if p > max {
				max = p
			}
			sum += p
		}
		profile.PricePreferences = PricePreferences{
			Min: min,
			Max: max,
			Avg: sum / float64(len(purchasePrices)),
		}
	}

	profile.TimePreferences.PreferredHours = topBuckets(hourCounts[:], 3)
	profile.TimePreferences.PreferredWeekdays = topBuckets(weekdayCounts[:], 3)

	if profile.Behavior.Views > 0 {
		profile.Behavior.ConversionRate = float64(profile.Behavior.Purchases) / float64(profile.Behavior.Views)
	}
	if profile.Behavior.Purchases > 0 {
		repeats := profile.Behavior.Purchases - len(purchasedProducts)
		profile.Behavior.RepeatPurchaseRate = float64(repeats) / float64(profile.Behavior.Purchases)
	}
	if rateEligible > 0 {
		profile.OrganicRate = float64(organicHits) / float64(rateEligible)
		profile.LocalRate = float64(localHits) / float64(rateEligible)
	}

	return profile, nil
}

// LearnPreferences rebuilds the user's profile and folds it into the stored
// preference row. Boolean preferences only ratchet on: once a user crosses
// the organic or local threshold the flag stays set even if later windows
// dip below it. Favorite lists are replaced wholesale with the current top 5.
func (s *Service) LearnPreferences(ctx context.Context, userID string) (*models.UserPreference, error) {
	timer := metrics.Get().LearningRunDuration
	start := s.clock.Now()

	profile, err := s.BuildProfile(ctx, userID)
	if err != nil {
		metrics.Get().LearningRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	var pref models.UserPreference
	err = s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.UserPreference{UserID: userID}
	} else if err != nil {
		metrics.Get().LearningRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load user preference: %w", err)
	}

	if profile.OrganicRate > organicThreshold {
		pref.PreferOrganic = true
	}
	if profile.LocalRate > localThreshold {
		pref.PreferLocal = true
	}

	if profile.PricePreferences.Avg > 0 {
		pref.PriceRangeMin = profile.PricePreferences.Min
		pref.PriceRangeMax = profile.PricePreferences.Max
	}

	pref.FavoriteCategories = topKeys(profile.CategoryAffinity, 5)
	pref.FavoriteFarms = topKeys(profile.FarmAffinity, 5)

	if err := s.db.WithContext(ctx).Save(&pref).Error; err != nil {
		metrics.Get().LearningRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to save user preference: %w", err)
	}

	metrics.Get().LearningRunsTotal.WithLabelValues("success").Inc()
	timer.Observe(s.clock.Now().Sub(start).Seconds())

	logger.Info("learned user preferences",
		logger.WithUserID(userID),
	)

	return &pref, nil
}

// topKeys returns the up-to-n highest-weighted keys, ties broken
// alphabetically so runs are deterministic
func topKeys(weights map[string]float64, n int) []string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// topBuckets returns the indexes of the up-to-n busiest histogram buckets,
// skipping empty ones
func topBuckets(counts []int, n int) []int {
	idx := make([]int, 0, len(counts))
	for i, c := range counts {
		if c > 0 {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(i, j int) bool {
		if counts[idx[i]] != counts[idx[j]] {
			return counts[idx[i]] > counts[idx[j]]
		}
		return idx[i] < idx[j]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}
