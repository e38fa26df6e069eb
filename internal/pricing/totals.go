package pricing

import (
	"fmt"
	"time"
)

const DefaultFreeShippingThresholdCents int64 = 99900

// ShippingPolicy decides the shipping fee. It is unrelated to the
// free-shipping progress threshold, which only drives messaging.
type ShippingPolicy struct {
	FlatFeeCents int64
}

// Fee returns the flat fee for a non-empty order. Zero means free shipping.
func (p ShippingPolicy) Fee(subtotalCents int64) int64 {
	if subtotalCents <= 0 || p.FlatFeeCents < 0 {
		return 0
	}
	return p.FlatFeeCents
}

// Line is one priced cart line. Combo lines carry the bundle price with
// quantity 1. Unavailable lines are excluded from the subtotal.
type Line struct {
	UnitPriceCents int64
	Quantity       int
	Available      bool
}

func (l Line) TotalCents() int64 {
	if !l.Available || l.Quantity <= 0 {
		return 0
	}
	return l.UnitPriceCents * int64(l.Quantity)
}

type Totals struct {
	SubtotalCents int64         `json:"subtotal_cents"`
	ShippingCents int64         `json:"shipping_cents"`
	DiscountCents int64         `json:"discount_cents"`
	TotalCents    int64         `json:"total_cents"`
	Coupon        *CouponResult `json:"-"`
}

// Subtotal sums line totals over available lines.
func Subtotal(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.TotalCents()
	}
	return sum
}

// ComputeTotals aggregates the cart. When a coupon is given it is validated
// against the subtotal; an accepted discount is clamped to the subtotal so the
// total never goes negative. A rejected coupon contributes nothing and its
// result is reported in Totals.Coupon.
func ComputeTotals(lines []Line, coupon *Coupon, now time.Time, policy ShippingPolicy) Totals {
	t := Totals{SubtotalCents: Subtotal(lines)}
	t.ShippingCents = policy.Fee(t.SubtotalCents)

	if coupon != nil {
		res := ValidateCoupon(*coupon, t.SubtotalCents, now)
		if res.OK() {
			t.DiscountCents = min(res.DiscountCents, t.SubtotalCents)
			res.DiscountCents = t.DiscountCents
		}
		t.Coupon = &res
	}

	t.TotalCents = t.SubtotalCents + t.ShippingCents - t.DiscountCents
	return t
}

// ShippingProgressInfo is the free-shipping progress indicator.
type ShippingProgressInfo struct {
	ThresholdCents int64  `json:"threshold_cents"`
	RemainingCents int64  `json:"remaining_cents"`
	Qualified      bool   `json:"qualified"`
	Message        string `json:"message"`
}

// ShippingProgress reports how far the subtotal is from the messaging
// threshold. It never affects the fee.
func ShippingProgress(subtotalCents, thresholdCents int64) ShippingProgressInfo {
	if thresholdCents <= 0 {
		thresholdCents = DefaultFreeShippingThresholdCents
	}
	p := ShippingProgressInfo{ThresholdCents: thresholdCents}
	if subtotalCents >= thresholdCents {
		p.Qualified = true
		p.Message = "You've unlocked free shipping!"
		return p
	}
	p.RemainingCents = thresholdCents - subtotalCents
	p.Message = fmt.Sprintf("Add %s more for free shipping", FormatMoney(p.RemainingCents))
	return p
}
