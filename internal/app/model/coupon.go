package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadline/storefront-backend/internal/pricing"
	"gorm.io/gorm"
)

var (
	ErrInvalidDiscountType  = errors.New("discount type must be percentage or fixed")
	ErrInvalidDiscountValue = errors.New("discount value must be positive")
	ErrPercentageTooLarge   = errors.New("percentage discount cannot exceed 100")
	ErrCouponCodeRequired   = errors.New("coupon code is required")
	ErrInvalidCouponCode    = errors.New("coupon code must be 3-32 letters, digits, '-' or '_'")
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID                   uint                 `gorm:"primarykey" json:"id"`
	Code                 string               `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	DiscountType         pricing.DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue        decimal.Decimal      `gorm:"type:decimal(10,2);not null" json:"discount_value"`
	MinimumOrderCents    int64                `gorm:"not null;default:0" json:"minimum_order_cents"`
	MaximumDiscountCents *int64               `json:"maximum_discount_cents,omitempty"`
	UsageLimit           *int                 `json:"usage_limit,omitempty"`
	UsedCount            int                  `gorm:"not null;default:0" json:"used_count"`
	IsActive             bool                 `gorm:"not null;index" json:"is_active"`
	ValidFrom            time.Time            `gorm:"not null" json:"valid_from"`
	ValidUntil           *time.Time           `gorm:"index" json:"valid_until,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

func (c *Coupon) BeforeSave(tx *gorm.DB) error {
	c.Code = pricing.NormalizeCouponCode(c.Code)
	if c.Code == "" {
		return ErrCouponCodeRequired
	}
	if !pricing.ValidCouponCode(c.Code) {
		return ErrInvalidCouponCode
	}
	if !c.DiscountType.Valid() {
		return ErrInvalidDiscountType
	}
	if !c.DiscountValue.IsPositive() {
		return ErrInvalidDiscountValue
	}
	if c.DiscountType == pricing.DiscountPercentage && c.DiscountValue.GreaterThan(hundred) {
		return ErrPercentageTooLarge
	}
	return nil
}

func (c Coupon) PricingCoupon() pricing.Coupon {
	return pricing.Coupon{
		Code:                 c.Code,
		DiscountType:         c.DiscountType,
		DiscountValue:        c.DiscountValue,
		MinimumOrderCents:    c.MinimumOrderCents,
		MaximumDiscountCents: c.MaximumDiscountCents,
		UsageLimit:           c.UsageLimit,
		UsedCount:            c.UsedCount,
		IsActive:             c.IsActive,
		ValidFrom:            c.ValidFrom,
		ValidUntil:           c.ValidUntil,
	}
}
