package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/payment/razorpay"
)

func fillCart(t *testing.T, env *testEnv, unitCents int64, qty int) *model.Product {
	t.Helper()
	p := env.product(t, "tee", unitCents, nil, variant("Black", "M", nil, 10))
	_, err := env.carts.AddItem(testUser, AddCartItemInput{ProductID: p.ID, Color: "Black", Size: "M", Quantity: qty})
	require.NoError(t, err)
	return p
}

func TestCheckoutService_QuoteWithCoupon(t *testing.T) {
	env := setupEnv(t)
	fillCart(t, env, 50000, 2)
	env.coupon(t, "SAVE10", pricing.DiscountPercentage, 10, nil)

	quote, err := env.checkout.Quote(testUser, " save10 ")
	require.NoError(t, err)
	require.NotNil(t, quote.Coupon)
	assert.True(t, quote.Coupon.Valid)
	assert.Equal(t, "SAVE10", quote.Coupon.Code)
	assert.Equal(t, int64(100000), quote.Totals.SubtotalCents)
	assert.Equal(t, int64(10000), quote.Totals.DiscountCents)
	assert.Equal(t, int64(90000), quote.Totals.TotalCents)
	assert.True(t, quote.ShippingProgress.Qualified)
}

func TestCheckoutService_QuoteRejectedCouponIsNotAnError(t *testing.T) {
	env := setupEnv(t)
	fillCart(t, env, 50000, 1)

	quote, err := env.checkout.Quote(testUser, "NOPE")
	require.NoError(t, err)
	require.NotNil(t, quote.Coupon)
	assert.False(t, quote.Coupon.Valid)
	assert.Equal(t, "invalid code", quote.Coupon.Reason)
	assert.Equal(t, int64(0), quote.Totals.DiscountCents)
	assert.Equal(t, int64(50000), quote.Totals.TotalCents)
}

func TestCheckoutService_FixedCouponClampedToSubtotal(t *testing.T) {
	env := setupEnv(t)
	fillCart(t, env, 30000, 1)
	env.coupon(t, "FLAT500", pricing.DiscountFixed, 50000, nil)

	quote, err := env.checkout.Quote(testUser, "FLAT500")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), quote.Totals.DiscountCents)
	assert.Equal(t, int64(0), quote.Totals.TotalCents)
}

func TestCheckoutService_PlaceCODOrder(t *testing.T) {
	env := setupEnv(t)
	p := fillCart(t, env, 50000, 2)
	env.coupon(t, "SAVE10", pricing.DiscountPercentage, 10, intPtr(5))
	addr := env.address(t, testUser)

	order, err := env.checkout.PlaceCODOrder(testUser, PlaceOrderInput{AddressID: addr.ID, CouponCode: "save10"})
	require.NoError(t, err)
	assert.Regexp(t, `^TL\d{6}[0-9A-F]{8}$`, order.OrderNumber)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentMethodCOD, order.PaymentMethod)
	assert.Equal(t, int64(90000), order.TotalCents)
	assert.Equal(t, "SAVE10", order.CouponCode)
	assert.Equal(t, "Bengaluru", order.ShippingAddress.City)
	require.Len(t, order.Items, 1)

	var coupon model.Coupon
	require.NoError(t, env.db.Where("code = ?", "SAVE10").First(&coupon).Error)
	assert.Equal(t, 1, coupon.UsedCount)

	var v model.ProductVariant
	require.NoError(t, env.db.Where("product_id = ?", p.ID).First(&v).Error)
	assert.Equal(t, 8, v.Inventory)

	view, err := env.carts.GetCart(testUser)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	require.Len(t, env.notifier.orders, 1)
	assert.Equal(t, order.OrderNumber, env.notifier.orders[0].OrderNumber)
}

func TestCheckoutService_PlaceCODOrderBlocked(t *testing.T) {
	env := setupEnv(t)
	addr := env.address(t, testUser)

	_, err := env.checkout.PlaceCODOrder(testUser, PlaceOrderInput{AddressID: addr.ID})
	assert.ErrorIs(t, err, ErrCartEmpty)

	fillCart(t, env, 50000, 1)

	_, err = env.checkout.PlaceCODOrder(testUser, PlaceOrderInput{AddressID: 9999})
	assert.ErrorIs(t, err, ErrAddressNotFound)

	other := env.address(t, "user-2")
	_, err = env.checkout.PlaceCODOrder(testUser, PlaceOrderInput{AddressID: other.ID})
	assert.ErrorIs(t, err, ErrAddressNotFound)

	env.coupon(t, "USEDUP", pricing.DiscountPercentage, 10, intPtr(0))
	_, err = env.checkout.PlaceCODOrder(testUser, PlaceOrderInput{AddressID: addr.ID, CouponCode: "USEDUP"})
	require.ErrorIs(t, err, ErrCouponRejected)

	var couponErr *CouponError
	require.True(t, errors.As(err, &couponErr))
	assert.Equal(t, pricing.CouponUsageLimitReached, couponErr.Result.Reason)

	view, err := env.carts.GetCart(testUser)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestCheckoutService_OnlinePaymentFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	fillCart(t, env, 50000, 1)
	env.coupon(t, "SAVE10", pricing.DiscountPercentage, 10, intPtr(1))
	addr := env.address(t, testUser)

	intent, err := env.checkout.PreparePayment(ctx, testUser, PlaceOrderInput{AddressID: addr.ID, CouponCode: "SAVE10"})
	require.NoError(t, err)
	assert.Equal(t, "order_test1", intent.GatewayOrderID)
	assert.Equal(t, "rzp_test_key", intent.KeyID)
	assert.Equal(t, int64(45000), intent.AmountCents)
	assert.Equal(t, 1, env.redis.Len())

	var orders int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	input := VerifyPaymentInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        razorpay.Sign(gatewaySecret, intent.GatewayOrderID, "pay_1"),
	}
	order, err := env.checkout.VerifyPayment(ctx, testUser, input)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, model.PaymentMethodOnline, order.PaymentMethod)
	assert.Equal(t, int64(45000), order.TotalCents)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, model.PaymentStateVerified, env.pendingState(t, intent.GatewayOrderID))

	again, err := env.checkout.VerifyPayment(ctx, testUser, input)
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.ID)

	_, err = env.checkout.VerifyPayment(ctx, "user-2", input)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	var coupon model.Coupon
	require.NoError(t, env.db.Where("code = ?", "SAVE10").First(&coupon).Error)
	assert.Equal(t, 1, coupon.UsedCount)

	view, err := env.carts.GetCart(testUser)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCheckoutService_VerifyWithBadSignatureCreatesNoOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	fillCart(t, env, 50000, 1)
	addr := env.address(t, testUser)

	intent, err := env.checkout.PreparePayment(ctx, testUser, PlaceOrderInput{AddressID: addr.ID})
	require.NoError(t, err)

	_, err = env.checkout.VerifyPayment(ctx, testUser, VerifyPaymentInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "deadbeef",
	})
	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)

	var orders int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	assert.Equal(t, model.PaymentStateFailed, env.pendingState(t, intent.GatewayOrderID))

	view, err := env.carts.GetCart(testUser)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	// A failed attempt cannot be retried with a good signature.
	_, err = env.checkout.VerifyPayment(ctx, testUser, VerifyPaymentInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        razorpay.Sign(gatewaySecret, intent.GatewayOrderID, "pay_1"),
	})
	assert.ErrorIs(t, err, ErrPaymentClosed)
}

func TestCheckoutService_DismissThenVerify(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	fillCart(t, env, 50000, 1)
	addr := env.address(t, testUser)

	intent, err := env.checkout.PreparePayment(ctx, testUser, PlaceOrderInput{AddressID: addr.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, env.checkout.DismissPayment(ctx, "user-2", intent.GatewayOrderID), ErrPaymentNotFound)
	require.NoError(t, env.checkout.DismissPayment(ctx, testUser, intent.GatewayOrderID))
	assert.ErrorIs(t, env.checkout.DismissPayment(ctx, testUser, intent.GatewayOrderID), ErrPaymentNotFound)
	assert.Equal(t, model.PaymentStateDismissed, env.pendingState(t, intent.GatewayOrderID))

	_, err = env.checkout.VerifyPayment(ctx, testUser, VerifyPaymentInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        razorpay.Sign(gatewaySecret, intent.GatewayOrderID, "pay_1"),
	})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCheckoutService_PreparePaymentFailures(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	fillCart(t, env, 30000, 1)
	addr := env.address(t, testUser)
	env.coupon(t, "FREEBIE", pricing.DiscountFixed, 30000, nil)

	_, err := env.checkout.PreparePayment(ctx, testUser, PlaceOrderInput{AddressID: addr.ID, CouponCode: "FREEBIE"})
	assert.ErrorIs(t, err, ErrPaymentNotRequired)

	env.gateway.err = razorpay.ErrGatewayFailure
	_, err = env.checkout.PreparePayment(ctx, testUser, PlaceOrderInput{AddressID: addr.ID})
	assert.ErrorIs(t, err, ErrPaymentGateway)
	assert.Equal(t, 0, env.redis.Len())
}

func TestCheckoutService_VerifyRejectsGatewayAmountMismatch(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	fillCart(t, env, 50000, 1)
	addr := env.address(t, testUser)

	intent, err := env.checkout.PreparePayment(ctx, testUser, PlaceOrderInput{AddressID: addr.ID})
	require.NoError(t, err)

	gwOrder := env.gateway.orders[intent.GatewayOrderID]
	gwOrder.Amount = 100
	env.gateway.orders[intent.GatewayOrderID] = gwOrder

	_, err = env.checkout.VerifyPayment(ctx, testUser, VerifyPaymentInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        razorpay.Sign(gatewaySecret, intent.GatewayOrderID, "pay_1"),
	})
	assert.ErrorIs(t, err, ErrPaymentAmountMismatch)
	assert.Equal(t, model.PaymentStateFailed, env.pendingState(t, intent.GatewayOrderID))

	var orders int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCheckoutService_VerifyGatewayOutageKeepsAttemptOpen(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	fillCart(t, env, 50000, 1)
	addr := env.address(t, testUser)

	intent, err := env.checkout.PreparePayment(ctx, testUser, PlaceOrderInput{AddressID: addr.ID})
	require.NoError(t, err)
	input := VerifyPaymentInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        razorpay.Sign(gatewaySecret, intent.GatewayOrderID, "pay_1"),
	}

	env.gateway.fetchErr = razorpay.ErrNetworkError
	_, err = env.checkout.VerifyPayment(ctx, testUser, input)
	assert.ErrorIs(t, err, ErrPaymentGateway)
	assert.Equal(t, model.PaymentStatePrepared, env.pendingState(t, intent.GatewayOrderID))

	env.gateway.fetchErr = nil
	order, err := env.checkout.VerifyPayment(ctx, testUser, input)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestCheckoutService_DismissAfterVerifyIsRejected(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	fillCart(t, env, 50000, 1)
	addr := env.address(t, testUser)

	intent, err := env.checkout.PreparePayment(ctx, testUser, PlaceOrderInput{AddressID: addr.ID})
	require.NoError(t, err)
	_, err = env.checkout.VerifyPayment(ctx, testUser, VerifyPaymentInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        razorpay.Sign(gatewaySecret, intent.GatewayOrderID, "pay_1"),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, env.checkout.DismissPayment(ctx, testUser, intent.GatewayOrderID), ErrPaymentClosed)
	assert.Equal(t, model.PaymentStateVerified, env.pendingState(t, intent.GatewayOrderID))
}
