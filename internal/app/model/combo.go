package model

import (
	"time"

	"github.com/threadline/storefront-backend/internal/pricing"
	"gorm.io/gorm"
)

type ComboProduct struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	Name               string         `gorm:"not null" json:"name"`
	Description        string         `gorm:"type:text" json:"description"`
	Images             []string       `gorm:"type:text;serializer:json" json:"images"`
	OriginalPriceCents int64          `gorm:"not null" json:"original_price_cents"`
	ComboPriceCents    int64          `gorm:"not null" json:"combo_price_cents"`
	DiscountPercentage int            `json:"discount_percentage"` // display only
	MinQuantity        int            `gorm:"not null" json:"min_quantity"`
	SizeType           string         `gorm:"type:varchar(50)" json:"size_type"`
	AvailableSizes     []string       `gorm:"type:text;serializer:json" json:"available_sizes"`
	IsActive           bool           `gorm:"not null" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Items []ComboProductItem `gorm:"foreignKey:ComboID" json:"items,omitempty"`
}

func (ComboProduct) TableName() string {
	return "combo_products"
}

type ComboProductItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ComboID   uint      `gorm:"index;not null" json:"combo_id"`
	Color     string    `gorm:"not null" json:"color"`
	ImageURL  string    `json:"image_url"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ComboProductItem) TableName() string {
	return "combo_product_items"
}

func (c ComboProduct) PricingCombo() pricing.Combo {
	items := make([]pricing.ComboItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, pricing.ComboItem{ID: it.ID, Color: it.Color, ImageURL: it.ImageURL})
	}
	return pricing.Combo{
		ID:              c.ID,
		Name:            c.Name,
		ComboPriceCents: c.ComboPriceCents,
		MinQuantity:     c.MinQuantity,
		AvailableSizes:  c.AvailableSizes,
		Items:           items,
	}
}
