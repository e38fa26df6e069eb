package model

import (
	"time"
)

type OrderStatus string   // fulfilment state
type PaymentMethod string // how the shopper pays

const (
	OrderStatusPending   OrderStatus = "pending"   // placed, not yet paid (COD)
	OrderStatusPaid      OrderStatus = "paid"      // online payment verified
	OrderStatusPacked    OrderStatus = "packed"    // ready to ship
	OrderStatusShipped   OrderStatus = "shipped"   // handed to the courier
	OrderStatusDelivered OrderStatus = "delivered" // terminal
	OrderStatusCancelled OrderStatus = "cancelled" // terminal

	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCOD    PaymentMethod = "cod"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusPacked, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusPacked, OrderStatusCancelled},
	OrderStatusPacked:  {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPacked,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an admin may move an order from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	OrderNumber      string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`   // public tracking id
	UserID           string          `gorm:"type:varchar(128);not null;index" json:"user_id"`             // auth provider subject
	ShippingAddress  ShippingAddress `gorm:"type:text;serializer:json" json:"shipping_address"`           // snapshot at checkout
	SubtotalCents    int64           `gorm:"not null" json:"subtotal_cents"`
	ShippingCents    int64           `gorm:"not null" json:"shipping_cents"`
	DiscountCents    int64           `gorm:"not null" json:"discount_cents"`
	TotalCents       int64           `gorm:"not null" json:"total_cents"`
	CouponCode       string          `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`
	PaymentMethod    PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	GatewayOrderID   *string         `gorm:"type:varchar(64);uniqueIndex" json:"gateway_order_id,omitempty"` // online only
	GatewayPaymentID string          `gorm:"type:varchar(64)" json:"gateway_payment_id,omitempty"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	OrderID        uint            `gorm:"not null;index" json:"order_id"`
	ProductID      *uint           `gorm:"index" json:"product_id,omitempty"`
	VariantID      *uint           `json:"variant_id,omitempty"`
	ComboID        *uint           `gorm:"index" json:"combo_id,omitempty"`
	Name           string          `gorm:"not null" json:"name"`
	UnitPriceCents int64           `gorm:"not null" json:"unit_price_cents"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	Size           string          `json:"size,omitempty"`
	Color          string          `json:"color,omitempty"`
	Image          string          `json:"image,omitempty"`
	ComboItems     []CartComboItem `gorm:"type:text;serializer:json" json:"combo_items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderItemFromCart snapshots a priced cart line.
func OrderItemFromCart(it CartItem) OrderItem {
	return OrderItem{
		ProductID:      it.ProductID,
		VariantID:      it.VariantID,
		ComboID:        it.ComboID,
		Name:           it.Name,
		UnitPriceCents: it.UnitPriceCents,
		Quantity:       it.Quantity,
		Size:           it.Size,
		Color:          it.Color,
		Image:          it.Image,
		ComboItems:     it.ComboItems,
	}
}
