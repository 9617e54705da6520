package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a marketplace customer account. Authentication and profile
// management live in the host application; the personalization engine only
// needs the identity row.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string `gorm:"not null" json:"display_name"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InteractionAction is the kind of event recorded in the interaction log
type InteractionAction string

const (
	ActionView      InteractionAction = "VIEW"
	ActionClick     InteractionAction = "CLICK"
	ActionAddToCart InteractionAction = "ADD_TO_CART"
	ActionPurchase  InteractionAction = "PURCHASE"
)

// Weight returns the affinity weight of the action for profile learning
// (PURCHASE=5, ADD_TO_CART=3, CLICK=2, VIEW=1)
func (a InteractionAction) Weight() float64 {
	switch a {
	case ActionPurchase:
		return 5
	case ActionAddToCart:
		return 3
	case ActionClick:
		return 2
	case ActionView:
		return 1
	}
	return 0
}

// Valid reports whether a is one of the defined actions
func (a InteractionAction) Valid() bool {
	switch a {
	case ActionView, ActionClick, ActionAddToCart, ActionPurchase:
		return true
	}
	return false
}

// InteractionMetadata carries optional context captured with an interaction
type InteractionMetadata struct {
	Price  *float64 `json:"price,omitempty"` // price at time of purchase
	Source string   `json:"source,omitempty"`
}

// UserInteraction is one row of the append-only behavioral log. The
// personalization engine only ever reads this table; writes come from the
// storefront via the interactions endpoint.
type UserInteraction struct {
	ID        string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string   `gorm:"not null;index" json:"user_id"`
	User      User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProductID *string  `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Action   InteractionAction    `gorm:"not null" json:"action"`
	Metadata *InteractionMetadata `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// UserPreference is the learned per-user profile. One row per user, owned
// entirely by the learning pipeline.
type UserPreference struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;uniqueIndex" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Behavioral opt-in flags. The learner only ever sets these to true,
	// once the corresponding rate crosses its threshold.
	PreferOrganic  bool `gorm:"default:false" json:"prefer_organic"`
	PreferLocal    bool `gorm:"default:false" json:"prefer_local"`
	BiodynamicOnly bool `gorm:"default:false" json:"biodynamic_only"`

	// Observed purchase price range; zero until the user has purchases
	PriceRangeMin float64 `gorm:"default:0" json:"price_range_min"`
	PriceRangeMax float64 `gorm:"default:0" json:"price_range_max"`

	// Top-5 lists, fully replaced on each learning run
	FavoriteCategories StringArray `gorm:"type:text[]" json:"favorite_categories"`
	FavoriteFarms      StringArray `gorm:"type:text[]" json:"favorite_farms"`

	// Reference location for proximity scoring, nullable
	DefaultLatitude  *float64 `json:"default_latitude"`
	DefaultLongitude *float64 `json:"default_longitude"`

	DietaryRestrictions StringArray `gorm:"type:text[]" json:"dietary_restrictions"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasLocation reports whether the user has a stored reference location
func (p *UserPreference) HasLocation() bool {
	return p != nil && p.DefaultLatitude != nil && p.DefaultLongitude != nil
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (i *UserInteraction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = generateUUID()
	}
	return nil
}

func (p *UserPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
