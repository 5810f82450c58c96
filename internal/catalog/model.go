package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Brand         string    `json:"brand" db:"brand"`
	Description   string    `json:"description" db:"description"`
	Category      string    `json:"category" db:"category"`
	Price         float64   `json:"price" db:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty" db:"original_price"`
	Images        []string  `json:"images" db:"images"`
	Sizes         []string  `json:"sizes" db:"sizes"`
	Colors        []string  `json:"colors" db:"colors"`
	Rating        float64   `json:"rating" db:"rating"`
	ReviewCount   int       `json:"review_count" db:"review_count"`
	InStock       bool      `json:"in_stock" db:"in_stock"`
	Featured      bool      `json:"featured" db:"featured"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// HasSize reports whether size is one of the product's offered sizes.
func (p *Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// HasColor reports whether color is one of the product's offered colors.
func (p *Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}
