package model

import (
	"time"
)

// Cart is the per-user cart document. Version increases by one on every write
// and is checked on save.
type Cart struct {
	UserID    string     `gorm:"primaryKey;type:varchar(128)" json:"user_id"`
	Items     []CartItem `gorm:"type:text;serializer:json" json:"items"`
	Version   int64      `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line of the cart. UnitPriceCents is a display cache and is
// refreshed from catalog data whenever the cart is loaded.
type CartItem struct {
	ID             string          `json:"id"`
	ProductID      *uint           `json:"product_id,omitempty"`
	VariantID      *uint           `json:"variant_id,omitempty"`
	ComboID        *uint           `json:"combo_id,omitempty"`
	Name           string          `json:"name"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	Quantity       int             `json:"quantity"`
	Size           string          `json:"size,omitempty"`
	Color          string          `json:"color,omitempty"`
	Image          string          `json:"image,omitempty"`
	ComboItems     []CartComboItem `json:"combo_items,omitempty"`
	Available      bool            `json:"available"`
}

// CartComboItem is one swatch inside a combo line.
type CartComboItem struct {
	ComboItemID uint   `json:"combo_item_id"`
	Color       string `json:"color"`
	Image       string `json:"image"`
	Quantity    int    `json:"quantity"`
}

func (i CartItem) IsCombo() bool {
	return i.ComboID != nil
}

// FindItem returns the index of the line with the given id, or -1.
func (c *Cart) FindItem(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
