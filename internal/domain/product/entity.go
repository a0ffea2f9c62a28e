// internal/domain/product/entity.go
package product

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// DefaultImage is stored for products created without a main image
	DefaultImage = "catalog/default.png"
	// MediaPrefix is the URL path uploaded files are served under
	MediaPrefix = "/media/"
)

// AvailabilityStatus is derived from stock and the orderable flag
type AvailabilityStatus string

const (
	StatusInStock     AvailabilityStatus = "in_stock"
	StatusBackorder   AvailabilityStatus = "backorder"
	StatusUnavailable AvailabilityStatus = "unavailable"
)

// Product represents a catalog item
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	SKU               string          `gorm:"uniqueIndex;not null;size:50" json:"sku"`
	Name              string          `gorm:"not null;size:200" json:"name"`
	Slug              string          `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:numeric(10,2);not null;check:price >= 0" json:"price"`
	Discount          int             `gorm:"not null;default:0;check:discount >= 0 AND discount <= 100" json:"discount"`
	Stock             int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	AvailableForOrder bool            `gorm:"not null;index" json:"available_for_order"`
	CategoryID        *uint           `gorm:"index" json:"category_id"`
	MainImage         string          `gorm:"not null;size:255" json:"main_image"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Relationships
	Category *Category      `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"extra_images,omitempty"`
}

// ProductImage is an extra gallery image; lower Ordering is shown first
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Image     string    `gorm:"not null;size:255" json:"image"`
	Ordering  int       `gorm:"not null;default:0" json:"ordering"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups products
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null;size:120" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `gorm:"size:255" json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// TableName overrides
func (Product) TableName() string      { return "products" }
func (Category) TableName() string     { return "categories" }
func (ProductImage) TableName() string { return "product_extra_images" }

// BeforeCreate fills in the default main image
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.MainImage == "" {
		p.MainImage = DefaultImage
	}
	return nil
}

// ImageURL is the public URL of a stored image path; a blank path falls back
// to the default image.
func ImageURL(path string) string {
	if path == "" {
		path = DefaultImage
	}
	return MediaPrefix + path
}

// NextImageOrdering is one past the highest ordering among the product's
// extra images, or 1 when it has none. Callers that need a stable answer run
// it inside a transaction holding the product row lock.
func NextImageOrdering(ctx context.Context, db *gorm.DB, productID uint) (int, error) {
	var next int
	err := db.WithContext(ctx).Model(&ProductImage{}).
		Select("COALESCE(MAX(ordering), 0) + 1").
		Where("product_id = ?", productID).
		Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute image ordering: %w", err)
	}
	return next, nil
}

// ActualPrice is the catalog price after discount, rounded half-up to 2 places
func (p *Product) ActualPrice() decimal.Decimal {
	return ActualPrice(p.Price, p.Discount)
}

// Availability derives the availability status from stock and the orderable flag
func (p *Product) Availability() AvailabilityStatus {
	switch {
	case p.Stock > 0:
		return StatusInStock
	case p.AvailableForOrder:
		return StatusBackorder
	default:
		return StatusUnavailable
	}
}

// IsInStock reports whether any units are on hand
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}
