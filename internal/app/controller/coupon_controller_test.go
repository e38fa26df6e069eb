package controller

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	apperrors "github.com/threadline/storefront-backend/internal/errors"
	"github.com/threadline/storefront-backend/internal/pricing"
)

func TestCouponController_ValidateCoupon(t *testing.T) {
	api := setupAPI(t)
	api.coupon("SAVE10", pricing.DiscountPercentage, 10)

	minimum := api.coupon("BIGSPEND", pricing.DiscountFixed, 20000)
	require.NoError(t, api.db.Model(minimum).UpdateColumn("minimum_order_cents", 300000).Error)

	expired := api.coupon("OLDIES", pricing.DiscountFixed, 10000)
	require.NoError(t, api.db.Model(&model.Coupon{}).Where("id = ?", expired.ID).
		UpdateColumn("valid_until", time.Now().Add(-time.Minute)).Error)

	tests := []struct {
		name     string
		code     string
		subtotal int64
		status   int
		errCode  string
		discount float64
	}{
		{"percentage accepted case-insensitively", " save10 ", 150000, http.StatusOK, "", 15000},
		{"unknown code", "NOSUCH", 150000, http.StatusUnprocessableEntity, apperrors.CouponInvalidCode, 0},
		{"minimum not met", "BIGSPEND", 150000, http.StatusUnprocessableEntity, apperrors.CouponMinimumNotMet, 0},
		{"expired", "OLDIES", 150000, http.StatusUnprocessableEntity, apperrors.CouponExpired, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/api/v1/coupons/validate", "", map[string]interface{}{
				"code":           tt.code,
				"subtotal_cents": tt.subtotal,
			})
			require.Equal(t, tt.status, w.Code, w.Body.String())

			body := decode(t, w)
			if tt.errCode != "" {
				assert.Equal(t, tt.errCode, body["error"])
				assert.NotEmpty(t, body["message"])
				return
			}
			coupon := body["coupon"].(map[string]interface{})
			assert.Equal(t, true, coupon["valid"])
			assert.Equal(t, tt.discount, coupon["discount_cents"])
		})
	}
}

func TestCouponController_ValidateCoupon_BadCode(t *testing.T) {
	api := setupAPI(t)

	w := api.do(http.MethodPost, "/api/v1/coupons/validate", "", map[string]interface{}{
		"code":           "no spaces!",
		"subtotal_cents": 1000,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "code")
}

func TestAddressController_Lifecycle(t *testing.T) {
	api := setupAPI(t)

	first := api.address(shopper)
	second := api.address(shopper)

	w := api.do(http.MethodGet, "/api/v1/addresses", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["count"])

	defaults := map[float64]bool{}
	for _, raw := range body["addresses"].([]interface{}) {
		a := raw.(map[string]interface{})
		defaults[a["id"].(float64)] = a["is_default"].(bool)
		assert.Equal(t, "IN", a["country"])
	}
	assert.True(t, defaults[float64(first)])
	assert.False(t, defaults[float64(second)])

	w = api.do(http.MethodPut, pathf("/api/v1/addresses/%d/default", second), shopper, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored model.Address
	require.NoError(t, api.db.First(&stored, first).Error)
	assert.False(t, stored.IsDefault)

	w = api.do(http.MethodDelete, pathf("/api/v1/addresses/%d", first), "intruder", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.AddressNotFound, decode(t, w)["error"])

	w = api.do(http.MethodDelete, pathf("/api/v1/addresses/%d", first), shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/addresses", shopper, nil)
	assert.EqualValues(t, 1, decode(t, w)["count"])
}

func TestAddressController_CreateAddress_Validation(t *testing.T) {
	api := setupAPI(t)

	w := api.do(http.MethodPost, "/api/v1/addresses", shopper, map[string]interface{}{
		"full_name": "Asha Rao",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "line1")
	assert.Contains(t, fields, "postal_code")
}
