package personalization

import (
	"context"
	"testing"
	"time"

	"github.com/farmstand/backend/internal/models"
	"github.com/farmstand/backend/internal/season"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonalScoreBands(t *testing.T) {
	svc, db := newTestService(t)
	farm := createTestFarm(t, db, nil)

	cases := []struct {
		name        string
		seasonality models.StringArray
		szn         season.Season
		want        float64
	}{
		{"exact match", models.StringArray{"SUMMER"}, season.Summer, 100},
		{"adjacent season", models.StringArray{"SPRING"}, season.Summer, 60},
		{"year round", models.StringArray{"SPRING", "SUMMER", "FALL", "WINTER"}, season.Winter, 100},
		{"long list without adjacency", models.StringArray{"WINTER", "WINTER", "WINTER"}, season.Summer, 50},
		{"opposite season", models.StringArray{"WINTER"}, season.Summer, 20},
		{"empty seasonality", models.StringArray{}, season.Summer, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := createTestProduct(t, db, farm.ID, func(p *models.Product) {
				p.Seasonality = tc.seasonality
			})
			got, err := svc.seasonalScore(context.Background(), models.EntityProduct, product.ID, tc.szn)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSeasonalScoreAdjacencyBeatsYearRound(t *testing.T) {
	svc, db := newTestService(t)
	farm := createTestFarm(t, db, nil)

	// WINTER is adjacent to both SPRING and FALL; the 60 band applies even
	// though three listed seasons would otherwise read as year-round 50
	product := createTestProduct(t, db, farm.ID, func(p *models.Product) {
		p.Seasonality = models.StringArray{"SPRING", "SUMMER", "FALL"}
	})
	got, err := svc.seasonalScore(context.Background(), models.EntityProduct, product.ID, season.Winter)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got)
}

func TestSeasonalScoreNeutralCases(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.seasonalScore(context.Background(), models.EntityFarm, "any-farm", season.Summer)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	got, err = svc.seasonalScore(context.Background(), models.EntityProduct, "missing", season.Summer)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)
}

func TestProximityScoreBands(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)

	// one degree of latitude is roughly 111km
	require.NoError(t, db.Create(&models.UserPreference{
		ID:               "pref-prox",
		UserID:           user.ID,
		DefaultLatitude:  ptr(42.0),
		DefaultLongitude: ptr(-71.0),
	}).Error)

	cases := []struct {
		name   string
		latOff float64
		want   float64
	}{
		{"under 10km", 0.05, 100},
		{"under 25km", 0.2, 80},
		{"under 50km", 0.4, 60},
		{"under 100km", 0.8, 40},
		{"far away", 3.0, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			farm := createTestFarm(t, db, func(f *models.Farm) {
				f.Latitude = ptr(42.0 + tc.latOff)
				f.Longitude = ptr(-71.0)
			})
			got, err := svc.proximityScore(context.Background(), user.ID, models.EntityFarm, farm.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProximityScoreNeutralWithoutLocations(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, func(f *models.Farm) {
		f.Latitude = ptr(42.0)
		f.Longitude = ptr(-71.0)
	})

	// no preference row at all
	got, err := svc.proximityScore(context.Background(), user.ID, models.EntityFarm, farm.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	// user located, farm not geocoded
	require.NoError(t, db.Create(&models.UserPreference{
		ID:               "pref-loc",
		UserID:           user.ID,
		DefaultLatitude:  ptr(42.0),
		DefaultLongitude: ptr(-71.0),
	}).Error)
	bareFarm := createTestFarm(t, db, nil)
	got, err = svc.proximityScore(context.Background(), user.ID, models.EntityFarm, bareFarm.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	// category entities have no location either way
	got, err = svc.proximityScore(context.Background(), user.ID, models.EntityCategory, "vegetables")
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)
}

func TestRelevanceScoreBonuses(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, func(f *models.Farm) {
		f.IsLocal = true
	})
	product := createTestProduct(t, db, farm.ID, func(p *models.Product) {
		p.Certifications = models.StringArray{models.CertificationOrganic, models.CertificationBiodynamic}
	})

	// no preference row: neutral base
	got, err := svc.relevanceScore(context.Background(), user.ID, models.EntityProduct, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	require.NoError(t, db.Create(&models.UserPreference{
		ID:                  "pref-rel",
		UserID:              user.ID,
		PreferOrganic:       true,
		PreferLocal:         true,
		BiodynamicOnly:      true,
		DietaryRestrictions: models.StringArray{"gluten-free"},
	}).Error)

	// 50 + 15 organic + 20 biodynamic + 15 local + 10 dietary, capped at 100
	got, err = svc.relevanceScore(context.Background(), user.ID, models.EntityProduct, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

func TestRelevanceScorePartialMatch(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	product := createTestProduct(t, db, farm.ID, func(p *models.Product) {
		p.Certifications = models.StringArray{models.CertificationOrganic}
	})

	require.NoError(t, db.Create(&models.UserPreference{
		ID:            "pref-partial",
		UserID:        user.ID,
		PreferOrganic: true,
		PreferLocal:   true, // farm is not local, no bonus
	}).Error)

	got, err := svc.relevanceScore(context.Background(), user.ID, models.EntityProduct, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 65.0, got)
}

func TestAffinityScoreProduct(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	product := createTestProduct(t, db, farm.ID, nil)

	// 4 interactions with the product's category and farm:
	// category 4/10*50=20, farm 4/5*50=40
	for i := 0; i < 4; i++ {
		createInteraction(t, db, user.ID, product.ID, models.ActionView, testNow.Add(-time.Duration(i+1)*time.Hour))
	}

	got, err := svc.affinityScore(context.Background(), user.ID, models.EntityProduct, product.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got)
}

func TestAffinityScoreCaps(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	product := createTestProduct(t, db, farm.ID, nil)

	for i := 0; i < 20; i++ {
		createInteraction(t, db, user.ID, product.ID, models.ActionView, testNow.Add(-time.Duration(i+1)*time.Hour))
	}

	got, err := svc.affinityScore(context.Background(), user.ID, models.EntityProduct, product.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

func TestAffinityScoreIgnoresOldInteractions(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	product := createTestProduct(t, db, farm.ID, nil)

	createInteraction(t, db, user.ID, product.ID, models.ActionPurchase, testNow.AddDate(0, 0, -31))

	got, err := svc.affinityScore(context.Background(), user.ID, models.EntityProduct, product.ID, testNow)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAffinityScoreFarm(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	product := createTestProduct(t, db, farm.ID, nil)

	for i := 0; i < 3; i++ {
		createInteraction(t, db, user.ID, product.ID, models.ActionClick, testNow.Add(-time.Duration(i+1)*time.Hour))
	}

	got, err := svc.affinityScore(context.Background(), user.ID, models.EntityFarm, farm.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got)
}

func TestPopularityScore(t *testing.T) {
	svc, db := newTestService(t)
	farm := createTestFarm(t, db, nil)
	product := createTestProduct(t, db, farm.ID, nil)

	// 25 interactions from different users inside the 7-day window, plus
	// one outside it that must not count
	for i := 0; i < 25; i++ {
		u := createTestUser(t, db)
		createInteraction(t, db, u.ID, product.ID, models.ActionView, testNow.Add(-time.Duration(i+1)*time.Hour))
	}
	old := createTestUser(t, db)
	createInteraction(t, db, old.ID, product.ID, models.ActionView, testNow.AddDate(0, 0, -8))

	got, err := svc.popularityScore(context.Background(), models.EntityProduct, product.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)
}

func TestPopularityScoreCategory(t *testing.T) {
	svc, db := newTestService(t)
	user := createTestUser(t, db)
	farm := createTestFarm(t, db, nil)
	veg := createTestProduct(t, db, farm.ID, nil)
	dairy := createTestProduct(t, db, farm.ID, func(p *models.Product) {
		p.Category = "dairy"
	})

	for i := 0; i < 10; i++ {
		createInteraction(t, db, user.ID, veg.ID, models.ActionView, testNow.Add(-time.Duration(i+1)*time.Hour))
	}
	createInteraction(t, db, user.ID, dairy.ID, models.ActionView, testNow.Add(-time.Hour))

	got, err := svc.popularityScore(context.Background(), models.EntityCategory, "vegetables", testNow)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)
}

func TestProximityBandBoundaries(t *testing.T) {
	assert.Equal(t, 100.0, proximityBand(9.99))
	assert.Equal(t, 80.0, proximityBand(10))
	assert.Equal(t, 60.0, proximityBand(25))
	assert.Equal(t, 40.0, proximityBand(50))
	assert.Equal(t, 20.0, proximityBand(100))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Boston to New York is about 306km
	d := haversineKm(42.3601, -71.0589, 40.7128, -74.0060)
	assert.InDelta(t, 306, d, 5)
}
