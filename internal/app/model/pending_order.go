package model

import "time"

// PaymentState is the server-held state of an online payment attempt.
type PaymentState string

const (
	PaymentStatePrepared  PaymentState = "prepared"
	PaymentStateVerified  PaymentState = "verified"
	PaymentStateDismissed PaymentState = "dismissed"
	PaymentStateFailed    PaymentState = "failed"
)

// CanTransitionTo allows prepared to move to any terminal state and nothing
// else.
func (s PaymentState) CanTransitionTo(next PaymentState) bool {
	if s != PaymentStatePrepared {
		return false
	}
	switch next {
	case PaymentStateVerified, PaymentStateDismissed, PaymentStateFailed:
		return true
	}
	return false
}

// PendingOrder is the order staged between gateway order creation and
// signature verification. It lives in Redis, keyed by GatewayOrderID.
type PendingOrder struct {
	GatewayOrderID  string          `json:"gateway_order_id"`
	Receipt         string          `json:"receipt"`
	UserID          string          `json:"user_id"`
	CartVersion     int64           `json:"cart_version"`
	Currency        string          `json:"currency"`
	Items           []CartItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	SubtotalCents   int64           `json:"subtotal_cents"`
	ShippingCents   int64           `json:"shipping_cents"`
	DiscountCents   int64           `json:"discount_cents"`
	TotalCents      int64           `json:"total_cents"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	State           PaymentState    `json:"state"`
	CreatedAt       time.Time       `json:"created_at"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
}
