package pricing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// Coupon is the evaluation view of a stored coupon. DiscountValue is a percent
// for percentage coupons and minor units for fixed ones.
type Coupon struct {
	Code                 string
	DiscountType         DiscountType
	DiscountValue        decimal.Decimal
	MinimumOrderCents    int64
	MaximumDiscountCents *int64
	UsageLimit           *int
	UsedCount            int
	IsActive             bool
	ValidFrom            time.Time
	ValidUntil           *time.Time
}

var couponCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

// NormalizeCouponCode is the canonical form used for storage and lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCouponCode reports whether code normalizes to 3-32 letters, digits,
// '-' or '_'. Stored coupons and request fields share this rule.
func ValidCouponCode(code string) bool {
	return couponCodePattern.MatchString(NormalizeCouponCode(code))
}

// CouponReason says why a coupon was rejected. The zero value means accepted.
type CouponReason int

const (
	CouponAccepted CouponReason = iota
	CouponInvalidCode
	CouponNotYetValid
	CouponExpired
	CouponMinimumNotMet
	CouponUsageLimitReached
)

func (r CouponReason) String() string {
	switch r {
	case CouponAccepted:
		return "accepted"
	case CouponInvalidCode:
		return "invalid code"
	case CouponNotYetValid:
		return "not yet valid"
	case CouponExpired:
		return "expired"
	case CouponMinimumNotMet:
		return "minimum order not met"
	case CouponUsageLimitReached:
		return "usage limit reached"
	default:
		return "unknown"
	}
}

// CouponResult is either accepted with a discount or rejected with a reason
// and a shopper-facing message.
type CouponResult struct {
	Code          string
	Reason        CouponReason
	DiscountCents int64
	Message       string
}

func (r CouponResult) OK() bool {
	return r.Reason == CouponAccepted
}

// RejectUnknownCoupon is the result for a code with no stored coupon.
func RejectUnknownCoupon(code string) CouponResult {
	return reject(NormalizeCouponCode(code), CouponInvalidCode, "This coupon code is not valid")
}

func reject(code string, reason CouponReason, msg string) CouponResult {
	return CouponResult{Code: code, Reason: reason, Message: msg}
}

// ValidateCoupon checks the coupon against the subtotal at time now. Checks run
// in a fixed order and the first failure wins. The returned discount is not
// clamped to the subtotal; ComputeTotals does that.
func ValidateCoupon(c Coupon, subtotalCents int64, now time.Time) CouponResult {
	code := NormalizeCouponCode(c.Code)

	if !c.IsActive {
		return reject(code, CouponInvalidCode, "This coupon code is not valid")
	}
	if !c.ValidFrom.IsZero() && now.Before(c.ValidFrom) {
		return reject(code, CouponNotYetValid, "This coupon is not active yet")
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return reject(code, CouponExpired, "This coupon has expired")
	}
	if subtotalCents < c.MinimumOrderCents {
		shortfall := c.MinimumOrderCents - subtotalCents
		return reject(code, CouponMinimumNotMet, fmt.Sprintf(
			"Add %s more to use this coupon (minimum order %s)",
			FormatMoney(shortfall), FormatMoney(c.MinimumOrderCents),
		))
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return reject(code, CouponUsageLimitReached, "This coupon has reached its usage limit")
	}

	discount := CouponDiscount(c, subtotalCents)
	return CouponResult{
		Code:          code,
		Reason:        CouponAccepted,
		DiscountCents: discount,
		Message:       fmt.Sprintf("Coupon applied: you save %s", FormatMoney(discount)),
	}
}

// CouponDiscount computes the raw discount without eligibility checks.
// Percentage discounts are floored then capped; fixed discounts are verbatim.
func CouponDiscount(c Coupon, subtotalCents int64) int64 {
	switch c.DiscountType {
	case DiscountPercentage:
		d := decimal.NewFromInt(subtotalCents).
			Mul(c.DiscountValue).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
		if c.MaximumDiscountCents != nil && d > *c.MaximumDiscountCents {
			d = *c.MaximumDiscountCents
		}
		if d < 0 {
			return 0
		}
		return d
	case DiscountFixed:
		d := c.DiscountValue.Floor().IntPart()
		if d < 0 {
			return 0
		}
		return d
	default:
		return 0
	}
}
