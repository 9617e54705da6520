package models

import (
	"time"

	"github.com/farmstand/backend/internal/season"
	"gorm.io/gorm"
)

// Certification labels recognized on products and farms
const (
	CertificationOrganic    = "ORGANIC"
	CertificationBiodynamic = "BIODYNAMIC"
)

// Farm represents a producer selling through the marketplace
type Farm struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	City        string `json:"city"`

	// Whether the farm qualifies as "local" to the marketplace region
	IsLocal bool `gorm:"default:false" json:"is_local"`

	// Geographic coordinates, nullable when the farm has not been geocoded
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	Certifications StringArray `gorm:"type:text[]" json:"certifications"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasLocation reports whether the farm has geocoded coordinates
func (f *Farm) HasLocation() bool {
	return f != nil && f.Latitude != nil && f.Longitude != nil
}

// Product represents a listing in a farm's catalog
type Product struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FarmID string `gorm:"not null;index" json:"farm_id"`
	Farm   Farm   `gorm:"foreignKey:FarmID" json:"farm,omitempty"`

	Name        string  `gorm:"not null" json:"name"`
	Category    string  `gorm:"not null;index" json:"category"` // e.g. "vegetables", "dairy"
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"default:0" json:"price"`
	Unit        string  `json:"unit"` // e.g. "lb", "bunch", "dozen"

	Certifications StringArray `gorm:"type:text[]" json:"certifications"`

	// Seasons the product is harvested in; three or more entries is
	// treated as year-round availability by the scoring engine
	Seasonality StringArray `gorm:"type:text[]" json:"seasonality"`

	IsAvailable bool `gorm:"default:true" json:"is_available"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasCertification reports whether the product carries the given certification
func (p *Product) HasCertification(cert string) bool {
	return p.Certifications.Contains(cert)
}

// InSeason reports whether the product's seasonality list contains s
func (p *Product) InSeason(s season.Season) bool {
	return p.Seasonality.Contains(string(s))
}

func (f *Farm) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}
