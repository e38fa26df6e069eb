package model

import (
	"errors"
	"strings"
	"time"

	"github.com/threadline/storefront-backend/internal/pricing"
	"gorm.io/gorm"
)

var (
	ErrInvalidSalePrice = errors.New("sale price must be lower than base price")
	ErrInvalidBasePrice = errors.New("base price must not be negative")
	ErrProductTitle     = errors.New("product title is required")
)

type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	BasePriceCents int64          `gorm:"not null" json:"base_price_cents"`
	SalePriceCents *int64         `json:"sale_price_cents,omitempty"`
	Category       string         `gorm:"type:varchar(100);index" json:"category"`
	Slug           string         `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
	Images         []string       `gorm:"type:text;serializer:json" json:"images"`
	IsActive       bool           `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// Validate enforces the write-time pricing rules. A sale price must sit
// strictly below the base price.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrProductTitle
	}
	if p.BasePriceCents < 0 {
		return ErrInvalidBasePrice
	}
	if p.SalePriceCents != nil && (*p.SalePriceCents < 0 || *p.SalePriceCents >= p.BasePriceCents) {
		return ErrInvalidSalePrice
	}
	return nil
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Slug = strings.ToLower(strings.TrimSpace(p.Slug))
	return p.Validate()
}

func (p Product) PricingProduct() pricing.Product {
	return pricing.Product{BasePriceCents: p.BasePriceCents, SalePriceCents: p.SalePriceCents}
}

// PrimaryImage is the first product image, or "" when there is none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) PricingVariants() []pricing.Variant {
	out := make([]pricing.Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		out = append(out, v.PricingVariant())
	}
	return out
}

// Variant returns the loaded variant with the given id.
func (p Product) Variant(id uint) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}
