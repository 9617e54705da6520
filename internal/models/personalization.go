package models

import (
	"time"

	"github.com/farmstand/backend/internal/season"
	"gorm.io/gorm"
)

// EntityType is the kind of entity a personalization score applies to
type EntityType string

const (
	EntityProduct  EntityType = "PRODUCT"
	EntityFarm     EntityType = "FARM"
	EntityCategory EntityType = "CATEGORY"
)

// Valid reports whether t is one of the scoreable entity types
func (t EntityType) Valid() bool {
	switch t {
	case EntityProduct, EntityFarm, EntityCategory:
		return true
	}
	return false
}

// ScoreTTL is how long a computed score stays valid before it must be
// recalculated
const ScoreTTL = 6 * time.Hour

// Component weights for the total score. They sum to 1.0 so the total stays
// in [0,100] whenever each component does.
const (
	WeightRelevance  = 0.30
	WeightAffinity   = 0.25
	WeightSeasonal   = 0.20
	WeightProximity  = 0.15
	WeightPopularity = 0.10
)

// PersonalizationScore is a cached, expiring relevance fact keyed by
// (user, entity type, entity id, season). The engine is the sole writer.
type PersonalizationScore struct {
	ID         string        `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID     string        `gorm:"not null;uniqueIndex:idx_personalization_scores_key" json:"user_id"`
	EntityType EntityType    `gorm:"not null;uniqueIndex:idx_personalization_scores_key" json:"entity_type"`
	EntityID   string        `gorm:"not null;uniqueIndex:idx_personalization_scores_key" json:"entity_id"`
	Season     season.Season `gorm:"not null;uniqueIndex:idx_personalization_scores_key" json:"season"`

	// Component scores, each in [0,100]
	RelevanceScore  float64 `gorm:"default:0" json:"relevance_score"`
	AffinityScore   float64 `gorm:"default:0" json:"affinity_score"`
	SeasonalScore   float64 `gorm:"default:0" json:"seasonal_score"`
	ProximityScore  float64 `gorm:"default:0" json:"proximity_score"`
	PopularityScore float64 `gorm:"default:0" json:"popularity_score"`

	TotalScore float64 `gorm:"default:0;index" json:"total_score"`

	CalculatedAt time.Time `gorm:"not null" json:"calculated_at"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the cached score is stale at the given time
func (s *PersonalizationScore) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

func (s *PersonalizationScore) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	return nil
}
