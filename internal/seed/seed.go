// Package seed populates the database with realistic development data:
// farms with catalogs, users, and a month of interaction history dense
// enough to exercise scoring and preference learning.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/models"
	"github.com/farmstand/backend/internal/season"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	farmCount        = 12
	productsPerFarm  = 8
	userCount        = 25
	interactionDays  = 30
	interactionsPday = 40
)

var categories = []string{
	"vegetables", "fruit", "dairy", "eggs", "meat", "bread", "honey", "flowers",
}

var units = []string{"lb", "bunch", "dozen", "pint", "each", "quart"}

// Seeder writes fake marketplace data through the usual GORM models.
type Seeder struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run seeds farms, products, users and interactions. It is not idempotent;
// use Clean first when reseeding.
func (s *Seeder) Run(seedValue uint64) error {
	faker := gofakeit.New(seedValue)
	rng := rand.New(rand.NewSource(int64(seedValue)))

	farms, err := s.seedFarms(faker, rng)
	if err != nil {
		return err
	}

	products, err := s.seedProducts(faker, rng, farms)
	if err != nil {
		return err
	}

	users, err := s.seedUsers(faker)
	if err != nil {
		return err
	}

	if err := s.seedInteractions(rng, users, products); err != nil {
		return err
	}

	logger.Info("seeded development data",
		zap.Int("farms", len(farms)),
		zap.Int("products", len(products)),
		zap.Int("users", len(users)),
	)
	return nil
}

// Clean removes all seeded domain data, dependents first.
func (s *Seeder) Clean() error {
	tables := []any{
		&models.PersonalizationScore{},
		&models.UserInteraction{},
		&models.UserPreference{},
		&models.Product{},
		&models.Farm{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clean table: %w", err)
		}
	}
	return nil
}

func (s *Seeder) seedFarms(faker *gofakeit.Faker, rng *rand.Rand) ([]models.Farm, error) {
	// cluster farms around a market town so proximity bands vary
	const centerLat, centerLon = 42.36, -71.06

	farms := make([]models.Farm, 0, farmCount)
	for i := 0; i < farmCount; i++ {
		lat := centerLat + (rng.Float64()-0.5)*2.0
		lon := centerLon + (rng.Float64()-0.5)*2.0

		var certs models.StringArray
		if rng.Float64() < 0.5 {
			certs = append(certs, models.CertificationOrganic)
		}
		if rng.Float64() < 0.15 {
			certs = append(certs, models.CertificationBiodynamic)
		}

		farm := models.Farm{
			Name:           faker.LastName() + " Family Farm",
			Description:    faker.Sentence(12),
			City:           faker.City(),
			IsLocal:        rng.Float64() < 0.6,
			Latitude:       &lat,
			Longitude:      &lon,
			Certifications: certs,
		}
		if err := s.db.Create(&farm).Error; err != nil {
			return nil, fmt.Errorf("failed to seed farm: %w", err)
		}
		farms = append(farms, farm)
	}
	return farms, nil
}

func (s *Seeder) seedProducts(faker *gofakeit.Faker, rng *rand.Rand, farms []models.Farm) ([]models.Product, error) {
	products := make([]models.Product, 0, len(farms)*productsPerFarm)
	for _, farm := range farms {
		for i := 0; i < productsPerFarm; i++ {
			product := models.Product{
				FarmID:         farm.ID,
				Name:           faker.Vegetable(),
				Category:       categories[rng.Intn(len(categories))],
				Description:    faker.Sentence(8),
				Price:          float64(rng.Intn(2000)+100) / 100,
				Unit:           units[rng.Intn(len(units))],
				Certifications: farm.Certifications,
				Seasonality:    randomSeasonality(rng),
				IsAvailable:    true,
			}
			if err := s.db.Create(&product).Error; err != nil {
				return nil, fmt.Errorf("failed to seed product: %w", err)
			}
			products = append(products, product)
		}
	}
	return products, nil
}

func (s *Seeder) seedUsers(faker *gofakeit.Faker) ([]models.User, error) {
	users := make([]models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		user := models.User{
			Email:       fmt.Sprintf("%d.%s", i, faker.Email()),
			DisplayName: faker.Name(),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedInteractions(rng *rand.Rand, users []models.User, products []models.Product) error {
	now := time.Now().UTC()

	for day := 0; day < interactionDays; day++ {
		dayStart := now.AddDate(0, 0, -day)
		for i := 0; i < interactionsPday; i++ {
			user := users[rng.Intn(len(users))]
			product := products[rng.Intn(len(products))]

			interaction := models.UserInteraction{
				UserID:    user.ID,
				ProductID: &product.ID,
				Action:    randomAction(rng),
				CreatedAt: dayStart.Add(-time.Duration(rng.Intn(86400)) * time.Second),
			}
			if interaction.Action == models.ActionPurchase {
				price := product.Price
				interaction.Metadata = &models.InteractionMetadata{
					Price:  &price,
					Source: "seed",
				}
			}
			if err := s.db.Create(&interaction).Error; err != nil {
				return fmt.Errorf("failed to seed interaction: %w", err)
			}
		}
	}
	return nil
}

// randomAction skews toward views the way a real funnel does
func randomAction(rng *rand.Rand) models.InteractionAction {
	switch roll := rng.Float64(); {
	case roll < 0.55:
		return models.ActionView
	case roll < 0.75:
		return models.ActionClick
	case roll < 0.90:
		return models.ActionAddToCart
	default:
		return models.ActionPurchase
	}
}

func randomSeasonality(rng *rand.Rand) models.StringArray {
	all := season.All
	switch rng.Intn(4) {
	case 0: // single season
		return models.StringArray{string(all[rng.Intn(len(all))])}
	case 1: // two adjacent seasons
		i := rng.Intn(len(all))
		return models.StringArray{string(all[i]), string(all[(i+1)%len(all)])}
	case 2: // year-round
		out := make(models.StringArray, 0, len(all))
		for _, s := range all {
			out = append(out, string(s))
		}
		return out
	default: // three seasons
		i := rng.Intn(len(all))
		return models.StringArray{string(all[i]), string(all[(i+1)%len(all)]), string(all[(i+2)%len(all)])}
	}
}
