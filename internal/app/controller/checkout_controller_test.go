package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	apperrors "github.com/threadline/storefront-backend/internal/errors"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/payment/razorpay"
)

func TestCheckoutController_Quote(t *testing.T) {
	api := setupAPI(t)
	p := api.product("blazer", 200000, nil)
	api.coupon("SAVE10", pricing.DiscountPercentage, 10)
	require.Equal(t, http.StatusOK, api.addToCart(shopper, p.ID, "", "", 1).Code)

	w := api.do(http.MethodPost, "/api/v1/checkout/quote", shopper, map[string]interface{}{
		"coupon_code": "save10",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode(t, w)["quote"].(map[string]interface{})
	totals := quote["totals"].(map[string]interface{})
	assert.EqualValues(t, 200000, totals["subtotal_cents"])
	assert.EqualValues(t, 20000, totals["discount_cents"])
	assert.EqualValues(t, 184900, totals["total_cents"])

	coupon := quote["coupon"].(map[string]interface{})
	assert.Equal(t, true, coupon["valid"])
	assert.Equal(t, "SAVE10", coupon["code"])
}

func TestCheckoutController_Quote_WithoutBody(t *testing.T) {
	api := setupAPI(t)
	p := api.product("belt", 30000, nil)
	require.Equal(t, http.StatusOK, api.addToCart(shopper, p.ID, "", "", 2).Code)

	w := api.do(http.MethodPost, "/api/v1/checkout/quote", shopper, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode(t, w)["quote"].(map[string]interface{})
	assert.Nil(t, quote["coupon"])
	assert.EqualValues(t, 64900, quote["totals"].(map[string]interface{})["total_cents"])
}

func TestCheckoutController_PlaceCODOrder(t *testing.T) {
	api := setupAPI(t)
	p := api.product("kurta", 150000, nil)
	api.coupon("FLAT500", pricing.DiscountFixed, 50000)
	addressID := api.address(shopper)
	require.Equal(t, http.StatusOK, api.addToCart(shopper, p.ID, "", "", 1).Code)

	w := api.do(http.MethodPost, "/api/v1/checkout/cod", shopper, map[string]interface{}{
		"address_id":  addressID,
		"coupon_code": "FLAT500",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode(t, w)["order"].(map[string]interface{})
	assert.Equal(t, string(model.OrderStatusPending), order["status"])
	assert.Equal(t, string(model.PaymentMethodCOD), order["payment_method"])
	assert.EqualValues(t, 150000, order["subtotal_cents"])
	assert.EqualValues(t, 50000, order["discount_cents"])
	assert.EqualValues(t, 104900, order["total_cents"])
	assert.Equal(t, "Bengaluru", order["shipping_address"].(map[string]interface{})["city"])

	var coupon model.Coupon
	require.NoError(t, api.db.Where("code = ?", "FLAT500").First(&coupon).Error)
	assert.Equal(t, 1, coupon.UsedCount)

	w = api.do(http.MethodGet, "/api/v1/cart", shopper, nil)
	assert.EqualValues(t, 0, cartOf(t, decode(t, w))["item_count"])
}

func TestCheckoutController_PlaceCODOrder_Errors(t *testing.T) {
	api := setupAPI(t)
	addressID := api.address(shopper)

	w := api.do(http.MethodPost, "/api/v1/checkout/cod", shopper, map[string]interface{}{
		"address_id": addressID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.CartEmpty, decode(t, w)["error"])

	p := api.product("socks", 9900, nil)
	require.Equal(t, http.StatusOK, api.addToCart(shopper, p.ID, "", "", 1).Code)

	w = api.do(http.MethodPost, "/api/v1/checkout/cod", shopper, map[string]interface{}{
		"address_id":  addressID,
		"coupon_code": "NOPE123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.CouponInvalidCode, decode(t, w)["error"])

	w = api.do(http.MethodPost, "/api/v1/checkout/cod", shopper, map[string]interface{}{
		"address_id": addressID + 100,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.AddressNotFound, decode(t, w)["error"])

	w = api.do(http.MethodPost, "/api/v1/checkout/cod", shopper, map[string]interface{}{
		"address_id":  addressID,
		"coupon_code": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "coupon_code")
}

func TestCheckoutController_OnlinePayment(t *testing.T) {
	api := setupAPI(t)
	p := api.product("saree", 250000, nil)
	addressID := api.address(shopper)
	require.Equal(t, http.StatusOK, api.addToCart(shopper, p.ID, "", "", 1).Code)

	w := api.do(http.MethodPost, "/api/v1/checkout/payments", shopper, map[string]interface{}{
		"address_id": addressID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	payment := decode(t, w)["payment"].(map[string]interface{})
	gatewayOrderID := payment["gateway_order_id"].(string)
	assert.Equal(t, "rzp_test_ctrl", payment["key_id"])
	assert.EqualValues(t, 254900, payment["amount_cents"])
	assert.Equal(t, "INR", payment["currency"])

	w = api.do(http.MethodPost, "/api/v1/checkout/payments/verify", shopper, map[string]interface{}{
		"razorpay_order_id":   gatewayOrderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  razorpay.Sign(gatewaySecret, gatewayOrderID, "pay_1"),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decode(t, w)["order"].(map[string]interface{})
	assert.Equal(t, string(model.OrderStatusPaid), order["status"])
	assert.Equal(t, gatewayOrderID, order["gateway_order_id"])
	assert.EqualValues(t, 254900, order["total_cents"])
}

func TestCheckoutController_VerifyPayment_BadSignature(t *testing.T) {
	api := setupAPI(t)
	p := api.product("dupatta", 40000, nil)
	addressID := api.address(shopper)
	require.Equal(t, http.StatusOK, api.addToCart(shopper, p.ID, "", "", 1).Code)

	w := api.do(http.MethodPost, "/api/v1/checkout/payments", shopper, map[string]interface{}{
		"address_id": addressID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	gatewayOrderID := decode(t, w)["payment"].(map[string]interface{})["gateway_order_id"].(string)

	w = api.do(http.MethodPost, "/api/v1/checkout/payments/verify", shopper, map[string]interface{}{
		"razorpay_order_id":   gatewayOrderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
	})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, apperrors.PaymentVerificationFailed, decode(t, w)["error"])

	var count int64
	api.db.Model(&model.Order{}).Count(&count)
	assert.Zero(t, count)

	w = api.do(http.MethodPost, "/api/v1/checkout/payments/verify", shopper, map[string]interface{}{
		"razorpay_order_id":   gatewayOrderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  razorpay.Sign(gatewaySecret, gatewayOrderID, "pay_1"),
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.PaymentClosed, decode(t, w)["error"])
}

func TestCheckoutController_DismissPayment(t *testing.T) {
	api := setupAPI(t)
	p := api.product("shawl", 70000, nil)
	addressID := api.address(shopper)
	require.Equal(t, http.StatusOK, api.addToCart(shopper, p.ID, "", "", 1).Code)

	w := api.do(http.MethodPost, "/api/v1/checkout/payments", shopper, map[string]interface{}{
		"address_id": addressID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	gatewayOrderID := decode(t, w)["payment"].(map[string]interface{})["gateway_order_id"].(string)

	w = api.do(http.MethodPost, "/api/v1/checkout/payments/"+gatewayOrderID+"/dismiss", "intruder", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/v1/checkout/payments/"+gatewayOrderID+"/dismiss", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/checkout/payments/verify", shopper, map[string]interface{}{
		"razorpay_order_id":   gatewayOrderID,
		"razorpay_payment_id": "pay_9",
		"razorpay_signature":  razorpay.Sign(gatewaySecret, gatewayOrderID, "pay_9"),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.PaymentNotFound, decode(t, w)["error"])
}
