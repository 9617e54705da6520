package personalization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/farmstand/backend/internal/models"
	"github.com/farmstand/backend/internal/season"
	"gorm.io/gorm"
)

// relevanceBase is the neutral relevance score used when there is nothing to
// match against (non-product entities, or users with no learned preferences)
const relevanceBase = 50.0

// loadPreference fetches the user's preference row, returning nil (not an
// error) when the user has never been through a learning run
func (s *Service) loadPreference(ctx context.Context, userID string) (*models.UserPreference, error) {
	var pref models.UserPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user preference: %w", err)
	}
	return &pref, nil
}

// relevanceScore matches product attributes against the user's learned
// preferences. Base 50; +15 organic match, +20 biodynamic match, +15 local
// match, +10 when dietary restrictions are set; capped at 100.
// Non-product entities score a flat 50. A deleted product scores 0.
func (s *Service) relevanceScore(ctx context.Context, userID string, entityType models.EntityType, entityID string) (float64, error) {
	if entityType != models.EntityProduct {
		return relevanceBase, nil
	}

	var product models.Product
	err := s.db.WithContext(ctx).Preload("Farm").First(&product, "id = ?", entityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load product: %w", err)
	}

	pref, err := s.loadPreference(ctx, userID)
	if err != nil {
		return 0, err
	}
	if pref == nil {
		return relevanceBase, nil
	}

	score := relevanceBase
	if pref.PreferOrganic && product.HasCertification(models.CertificationOrganic) {
		score += 15
	}
	if pref.BiodynamicOnly && product.HasCertification(models.CertificationBiodynamic) {
		score += 20
	}
	if pref.PreferLocal && product.Farm.IsLocal {
		score += 15
	}
	// TODO: check restriction compatibility against product attributes once
	// they are modeled; today any stored restriction earns the bonus
	if len(pref.DietaryRestrictions) > 0 {
		score += 10
	}

	return math.Min(score, 100), nil
}

// affinityScore measures the user's recent engagement (30-day window) with
// the entity's category and farm. Interactions are counted, not weighted:
// the purchase/cart/click/view weights apply in profile learning, while this
// signal deliberately tracks raw activity volume.
func (s *Service) affinityScore(ctx context.Context, userID string, entityType models.EntityType, entityID string, now time.Time) (float64, error) {
	since := now.Add(-profileWindow)

	switch entityType {
	case models.EntityProduct:
		var product models.Product
		err := s.db.WithContext(ctx).First(&product, "id = ?", entityID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to load product: %w", err)
		}

		var categoryCount int64
		err = s.db.WithContext(ctx).
			Model(&models.UserInteraction{}).
			Joins("JOIN products ON products.id = user_interactions.product_id").
			Where("user_interactions.user_id = ? AND user_interactions.created_at >= ? AND products.category = ?",
				userID, since, product.Category).
			Count(&categoryCount).Error
		if err != nil {
			return 0, fmt.Errorf("failed to count category interactions: %w", err)
		}

		var farmCount int64
		err = s.db.WithContext(ctx).
			Model(&models.UserInteraction{}).
			Joins("JOIN products ON products.id = user_interactions.product_id").
			Where("user_interactions.user_id = ? AND user_interactions.created_at >= ? AND products.farm_id = ?",
				userID, since, product.FarmID).
			Count(&farmCount).Error
		if err != nil {
			return 0, fmt.Errorf("failed to count farm interactions: %w", err)
		}

		// 10 category interactions or 5 farm interactions saturate each half
		categoryAffinity := math.Min(float64(categoryCount)/10*50, 50)
		farmAffinity := math.Min(float64(farmCount)/5*50, 50)
		return math.Round(categoryAffinity + farmAffinity), nil

	case models.EntityFarm:
		var count int64
		err := s.db.WithContext(ctx).
			Model(&models.UserInteraction{}).
			Joins("JOIN products ON products.id = user_interactions.product_id").
			Where("user_interactions.user_id = ? AND user_interactions.created_at >= ? AND products.farm_id = ?",
				userID, since, entityID).
			Count(&count).Error
		if err != nil {
			return 0, fmt.Errorf("failed to count farm interactions: %w", err)
		}
		return math.Min(float64(count)/5*100, 100), nil

	default:
		return 0, nil
	}
}

// seasonalScore rewards products harvested in the requested season: exact
// match 100, adjacent season 60, year-round catalog (3+ seasons) 50,
// otherwise 20. The adjacency check runs before the year-round fallback, so
// a three-season product still scores 60 in the season bordering its list.
// Non-product entities (and deleted products) are seasonally neutral at 50.
func (s *Service) seasonalScore(ctx context.Context, entityType models.EntityType, entityID string, szn season.Season) (float64, error) {
	if entityType != models.EntityProduct {
		return 50, nil
	}

	var product models.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", entityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 50, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load product: %w", err)
	}

	if product.InSeason(szn) {
		return 100, nil
	}

	for _, raw := range product.Seasonality {
		listed, err := season.Parse(raw)
		if err != nil {
			continue
		}
		if szn.Adjacent(listed) {
			return 60, nil
		}
	}

	if len(product.Seasonality) >= 3 {
		return 50, nil
	}

	return 20, nil
}

// proximityScore bands the great-circle distance between the user's stored
// location and the farm's location: <10km 100, <25km 80, <50km 60, <100km 40,
// else 20. Missing location on either side is neutral 50.
func (s *Service) proximityScore(ctx context.Context, userID string, entityType models.EntityType, entityID string) (float64, error) {
	pref, err := s.loadPreference(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !pref.HasLocation() {
		return 50, nil
	}

	farm, err := s.resolveFarm(ctx, entityType, entityID)
	if err != nil {
		return 0, err
	}
	if !farm.HasLocation() {
		return 50, nil
	}

	distance := haversineKm(*pref.DefaultLatitude, *pref.DefaultLongitude, *farm.Latitude, *farm.Longitude)
	return proximityBand(distance), nil
}

// resolveFarm finds the farm behind the scored entity. Category entities and
// deleted products/farms resolve to nil.
func (s *Service) resolveFarm(ctx context.Context, entityType models.EntityType, entityID string) (*models.Farm, error) {
	switch entityType {
	case models.EntityProduct:
		var product models.Product
		err := s.db.WithContext(ctx).Preload("Farm").First(&product, "id = ?", entityID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		return &product.Farm, nil
	case models.EntityFarm:
		var farm models.Farm
		err := s.db.WithContext(ctx).First(&farm, "id = ?", entityID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load farm: %w", err)
		}
		return &farm, nil
	default:
		return nil, nil
	}
}

// popularityScore counts platform-wide interactions on the entity over the
// last 7 days; 50 interactions saturate the score at 100
func (s *Service) popularityScore(ctx context.Context, entityType models.EntityType, entityID string, now time.Time) (float64, error) {
	since := now.Add(-popularityWindow)

	query := s.db.WithContext(ctx).
		Model(&models.UserInteraction{}).
		Where("user_interactions.created_at >= ?", since)

	switch entityType {
	case models.EntityProduct:
		query = query.Where("user_interactions.product_id = ?", entityID)
	case models.EntityFarm:
		query = query.
			Joins("JOIN products ON products.id = user_interactions.product_id").
			Where("products.farm_id = ?", entityID)
	case models.EntityCategory:
		query = query.
			Joins("JOIN products ON products.id = user_interactions.product_id").
			Where("products.category = ?", entityID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}

	return math.Min(float64(count)/50*100, 100), nil
}

// proximityBand converts a distance in kilometers to the banded score
func proximityBand(km float64) float64 {
	switch {
	case km < 10:
		return 100
	case km < 25:
		return 80
	case km < 50:
		return 60
	case km < 100:
		return 40
	default:
		return 20
	}
}

// haversineKm computes the great-circle distance between two coordinates
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	toRadians := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
