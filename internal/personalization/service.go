// Package personalization computes per-user relevance scores for products,
// farms and categories, and learns per-user preference profiles from the
// interaction log. Scores are cached in the personalization_scores table
// with a 6-hour expiry; the engine is the sole writer of that table and of
// user_preferences, and only ever reads user_interactions, products and farms.
package personalization

import (
	"time"

	"github.com/farmstand/backend/internal/models"
	"gorm.io/gorm"
)

// Rolling windows over the interaction log
const (
	// profileWindow bounds affinity and preference learning
	profileWindow = 30 * 24 * time.Hour
	// popularityWindow bounds the platform-wide popularity signal
	popularityWindow = 7 * 24 * time.Hour
)

// Learning thresholds for the behavioral opt-in flags
const (
	organicThreshold = 0.7
	localThreshold   = 0.6
)

// Clock abstracts time so tests can pin the season and expiry checks
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// EntityRef identifies one entity in a batch scoring request
type EntityRef struct {
	Type models.EntityType `json:"type"`
	ID   string            `json:"id"`
}

// Service is the personalization engine. It is stateless apart from the
// database handle, so any number of instances sharing the same store see
// the same cache.
type Service struct {
	db    *gorm.DB
	clock Clock
}

// NewService creates an engine backed by the given database
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, clock: systemClock{}}
}

// NewServiceWithClock creates an engine with an injected clock, for tests
func NewServiceWithClock(db *gorm.DB, clock Clock) *Service {
	return &Service{db: db, clock: clock}
}
