package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	apperrors "github.com/threadline/storefront-backend/internal/errors"
)

func placeCODOrder(t *testing.T, api *apiTest, userID string) map[string]interface{} {
	t.Helper()
	p := api.product(fmt.Sprintf("shirt-%s", userID), 120000, nil)
	addressID := api.address(userID)
	require.Equal(t, http.StatusOK, api.addToCart(userID, p.ID, "", "", 1).Code)

	w := api.do(http.MethodPost, "/api/v1/checkout/cod", userID, map[string]interface{}{
		"address_id": addressID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["order"].(map[string]interface{})
}

func orderPath(order map[string]interface{}) string {
	return fmt.Sprintf("/api/v1/orders/%d", uint(order["id"].(float64)))
}

func TestOrderController_GetOrders(t *testing.T) {
	api := setupAPI(t)
	placeCODOrder(t, api, shopper)
	placeCODOrder(t, api, "other-user")

	w := api.do(http.MethodGet, "/api/v1/orders", shopper, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["count"])
}

func TestOrderController_GetOrderByID(t *testing.T) {
	api := setupAPI(t)
	order := placeCODOrder(t, api, shopper)

	w := api.do(http.MethodGet, orderPath(order), shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)["order"].(map[string]interface{})
	assert.Equal(t, order["order_number"], got["order_number"])
	assert.Len(t, got["items"], 1)

	w = api.do(http.MethodGet, orderPath(order), "other-user", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.OrderNotFound, decode(t, w)["error"])

	w = api.do(http.MethodGet, "/api/v1/orders/abc", shopper, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderController_TrackOrder(t *testing.T) {
	api := setupAPI(t)
	order := placeCODOrder(t, api, shopper)

	w := api.do(http.MethodGet, "/api/v1/orders/track/"+order["order_number"].(string), "", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tracking := decode(t, w)["tracking"].(map[string]interface{})
	assert.Equal(t, string(model.OrderStatusPending), tracking["status"])
	assert.Equal(t, "Bengaluru", tracking["city"])
	assert.NotContains(t, tracking, "user_id")

	w = api.do(http.MethodGet, "/api/v1/orders/track/TL000000NOPE", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderController_UpdateOrderStatus(t *testing.T) {
	api := setupAPI(t)
	order := placeCODOrder(t, api, shopper)
	path := orderPath(order) + "/status"

	w := api.do(http.MethodPut, path, shopper, map[string]interface{}{"status": "packed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.doAs(http.MethodPut, path, "admin-1", model.RoleAdmin, map[string]interface{}{"status": "packed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "packed", decode(t, w)["order"].(map[string]interface{})["status"])

	w = api.doAs(http.MethodPut, path, "admin-1", model.RoleAdmin, map[string]interface{}{"status": "delivered"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.OrderInvalidTransition, decode(t, w)["error"])

	w = api.doAs(http.MethodPut, path, "admin-1", model.RoleAdmin, map[string]interface{}{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "status")
}
