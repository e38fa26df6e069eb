package model

import (
	"time"

	"github.com/threadline/storefront-backend/internal/pricing"
	"gorm.io/gorm"
)

// ProductVariant is a purchasable configuration of a product. Option slots are
// not positional: either slot may hold color or size, identified by its name.
type ProductVariant struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	ProductID    uint           `gorm:"index;not null" json:"product_id"`
	Option1Name  string         `gorm:"type:varchar(50)" json:"option1_name"`
	Option1Value string         `gorm:"type:varchar(100)" json:"option1_value"`
	Option2Name  string         `gorm:"type:varchar(50)" json:"option2_name"`
	Option2Value string         `gorm:"type:varchar(100)" json:"option2_value"`
	PriceCents   *int64         `json:"price_cents,omitempty"` // absolute override, not a delta
	ImageURL     string         `json:"image_url"`
	Inventory    int            `gorm:"not null;default:0" json:"inventory"`
	IsAvailable  bool           `gorm:"not null" json:"is_available"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

func (v ProductVariant) PricingVariant() pricing.Variant {
	return pricing.Variant{
		ID:           v.ID,
		Option1Name:  v.Option1Name,
		Option1Value: v.Option1Value,
		Option2Name:  v.Option2Name,
		Option2Value: v.Option2Value,
		PriceCents:   v.PriceCents,
		ImageURL:     v.ImageURL,
		Inventory:    v.Inventory,
		IsAvailable:  v.IsAvailable,
	}
}
