package service

import (
	"errors"

	"github.com/threadline/storefront-backend/internal/pricing"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("no variant matches the requested options")
	ErrOutOfStock       = errors.New("requested quantity is not in stock")
	ErrComboNotFound    = errors.New("combo not found")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrCartConflict     = errors.New("cart was modified concurrently")
	ErrCartUnavailable  = errors.New("cart contains unavailable items")
	ErrAddressNotFound  = errors.New("address not found")
	ErrOrderNotFound    = errors.New("order not found")

	ErrInvalidStatusTransition   = errors.New("order status transition not allowed")
	ErrPaymentNotFound           = errors.New("pending payment not found")
	ErrPaymentVerificationFailed = errors.New("payment signature verification failed")
	ErrPaymentGateway            = errors.New("payment gateway unavailable")
	ErrPaymentNotRequired        = errors.New("order total is zero, nothing to pay online")
	ErrPaymentClosed             = errors.New("payment attempt is no longer open")
	ErrPaymentAmountMismatch     = errors.New("gateway order amount does not match the checkout total")

	// ErrCouponRejected matches every *CouponError.
	ErrCouponRejected = errors.New("coupon rejected")
)

// CouponError carries the validator's verdict when a coupon blocks checkout.
type CouponError struct {
	Result pricing.CouponResult
}

func (e *CouponError) Error() string {
	return "coupon " + e.Result.Code + ": " + e.Result.Reason.String()
}

func (e *CouponError) Is(target error) bool {
	return target == ErrCouponRejected
}
