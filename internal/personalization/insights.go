package personalization

import (
	"context"

	"github.com/farmstand/backend/internal/models"
)

// Insights is the read-only view of a user's learned shopping behavior
// served by the insights endpoint. It pairs the stored preference record
// with a profile rebuilt from the interaction log on every call, and never
// mutates stored preferences.
type Insights struct {
	UserID           string                 `json:"userId"`
	Preferences      *models.UserPreference `json:"preferences"`
	TopCategories    map[string]float64     `json:"topCategories"`
	TopFarms         map[string]float64     `json:"topFarms"`
	PricePreferences PricePreferences       `json:"pricePreferences"`
	TimePreferences  TimePreferences        `json:"timePreferences"`
	Behavior         BehaviorMetrics        `json:"behavior"`
	OrganicRate      float64                `json:"organicRate"`
	LocalRate        float64                `json:"localRate"`
	InteractionCount int                    `json:"interactionCount"`
}

// GetInsights builds a fresh profile and projects it into the insight view,
// alongside whatever preferences past learning runs have stored. Preferences
// is nil for users who have never been through a learning run.
func (s *Service) GetInsights(ctx context.Context, userID string) (*Insights, error) {
	profile, err := s.BuildProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	pref, err := s.loadPreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Insights{
		UserID:           profile.UserID,
		Preferences:      pref,
		TopCategories:    topAffinities(profile.CategoryAffinity, 5),
		TopFarms:         topAffinities(profile.FarmAffinity, 5),
		PricePreferences: profile.PricePreferences,
		TimePreferences:  profile.TimePreferences,
		Behavior:         profile.Behavior,
		OrganicRate:      profile.OrganicRate,
		LocalRate:        profile.LocalRate,
		InteractionCount: profile.InteractionCount,
	}, nil
}

// topAffinities projects the up-to-n highest-weighted entries into a
// key→score map
func topAffinities(weights map[string]float64, n int) map[string]float64 {
	out := make(map[string]float64, n)
	for _, k := range topKeys(weights, n) {
		out[k] = weights[k]
	}
	return out
}
