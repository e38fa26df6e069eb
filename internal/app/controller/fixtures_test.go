package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/app/service"
	"github.com/threadline/storefront-backend/internal/db"
	"github.com/threadline/storefront-backend/internal/middleware"
	"github.com/threadline/storefront-backend/internal/pricing"
	ws "github.com/threadline/storefront-backend/internal/websocket"
	"github.com/threadline/storefront-backend/pkg/payment/razorpay"
	"github.com/threadline/storefront-backend/pkg/redis"
	"github.com/threadline/storefront-backend/pkg/redis/redistest"
	"github.com/threadline/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

const (
	jwtSecret     = "controller-test-secret"
	jwtIssuer     = "storefront-test"
	gatewaySecret = "rzp_secret"
	shopper       = "user-42"
)

type stubGateway struct {
	n      int
	orders map[string]razorpay.Order
}

func (g *stubGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*razorpay.Order, error) {
	g.n++
	order := razorpay.Order{
		ID:       fmt.Sprintf("order_ctrl%d", g.n),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   razorpay.OrderStatusCreated,
	}
	if g.orders == nil {
		g.orders = make(map[string]razorpay.Order)
	}
	g.orders[order.ID] = order
	return &order, nil
}

func (g *stubGateway) FetchOrder(_ context.Context, orderID string) (*razorpay.Order, error) {
	order, ok := g.orders[orderID]
	if !ok {
		return nil, razorpay.ErrGatewayFailure
	}
	order.Status = razorpay.OrderStatusPaid
	order.AmountPaid = order.Amount
	return &order, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) error {
	return razorpay.VerifySignature(gatewaySecret, orderID, paymentID, signature)
}

func (g *stubGateway) KeyID() string { return "rzp_test_ctrl" }

type apiTest struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func setupAPI(t *testing.T) *apiTest {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	productRepo := repository.NewProductRepository(testDB)
	comboRepo := repository.NewComboRepository(testDB)
	couponRepo := repository.NewCouponRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	pendingRepo := repository.NewPendingOrderRepository(redis.NewFromCmdable(redistest.NewMemory()))

	hub := ws.NewHub()
	shipping := pricing.ShippingPolicy{FlatFeeCents: 4900}
	carts := service.NewCartService(repository.NewCartRepository(testDB), productRepo, comboRepo, shipping, 99900)
	checkout := service.NewCheckoutService(
		carts, couponRepo, addressRepo, orderRepo, pendingRepo,
		&stubGateway{}, hub, nil,
		service.CheckoutConfig{Currency: "INR", Shipping: shipping, ThresholdCents: 99900, PendingOrderTTL: time.Hour, ClosedPaymentTTL: 15 * time.Minute},
	)

	products := NewProductController(service.NewProductService(productRepo))
	combos := NewComboController(service.NewComboService(comboRepo))
	coupons := NewCouponController(service.NewCouponService(couponRepo, nil))
	cartCtrl := NewCartController(carts)
	checkoutCtrl := NewCheckoutController(checkout)
	orders := NewOrderController(service.NewOrderService(orderRepo, hub), hub, nil)
	addresses := NewAddressController(service.NewAddressService(addressRepo))

	auth := middleware.NewAuthMiddleware(jwtSecret, jwtIssuer)
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/products", products.ListProducts)
	v1.GET("/products/slug/:slug", products.GetProductBySlug)
	v1.GET("/products/:id", products.GetProductByID)
	v1.GET("/products/:id/price", products.QuotePrice)
	v1.GET("/combos", combos.ListCombos)
	v1.GET("/combos/:id", combos.GetCombo)
	v1.POST("/combos/:id/selection", combos.EvaluateSelection)
	v1.POST("/coupons/validate", coupons.ValidateCoupon)

	authed := v1.Group("", auth.Authenticate())
	authed.GET("/cart", cartCtrl.GetCart)
	authed.DELETE("/cart", cartCtrl.ClearCart)
	authed.POST("/cart/items", cartCtrl.AddToCart)
	authed.PUT("/cart/items/:id", cartCtrl.UpdateCartItem)
	authed.DELETE("/cart/items/:id", cartCtrl.RemoveFromCart)
	authed.POST("/cart/combos", cartCtrl.AddComboToCart)
	authed.POST("/checkout/quote", checkoutCtrl.Quote)
	authed.POST("/checkout/cod", checkoutCtrl.PlaceCODOrder)
	authed.POST("/checkout/payments", checkoutCtrl.PreparePayment)
	authed.POST("/checkout/payments/verify", checkoutCtrl.VerifyPayment)
	authed.POST("/checkout/payments/:gateway_order_id/dismiss", checkoutCtrl.DismissPayment)
	authed.GET("/orders", orders.GetOrders)
	authed.GET("/orders/:id", orders.GetOrderByID)
	authed.PUT("/orders/:id/status", auth.RequireRole(model.RoleAdmin), orders.UpdateOrderStatus)
	authed.GET("/addresses", addresses.GetAddresses)
	authed.POST("/addresses", addresses.CreateAddress)
	authed.DELETE("/addresses/:id", addresses.DeleteAddress)
	authed.PUT("/addresses/:id/default", addresses.SetDefaultAddress)
	v1.GET("/orders/track/:order_number", orders.TrackOrder)

	return &apiTest{t: t, db: testDB, router: r}
}

func (a *apiTest) token(userID string, role model.UserRole) string {
	a.t.Helper()
	tok, err := util.GenerateToken(userID, userID+"@example.com", string(role), jwtSecret, jwtIssuer, time.Hour)
	require.NoError(a.t, err)
	return tok
}

// do sends a request as userID (anonymous when empty) and returns the recorder.
func (a *apiTest) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	return a.doAs(method, path, userID, model.RoleUser, body)
}

func (a *apiTest) doAs(method, path, userID string, role model.UserRole, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(userID, role))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *apiTest) product(slug string, base int64, sale *int64, variants ...model.ProductVariant) *model.Product {
	a.t.Helper()
	p := &model.Product{
		Title:          "Linen " + slug,
		BasePriceCents: base,
		SalePriceCents: sale,
		Category:       "shirts",
		Slug:           slug,
		Images:         []string{slug + ".jpg"},
		IsActive:       true,
		Variants:       variants,
	}
	require.NoError(a.t, a.db.Create(p).Error)
	return p
}

func sized(color, size string, inventory int) model.ProductVariant {
	return model.ProductVariant{
		Option1Name:  "Color",
		Option1Value: color,
		Option2Name:  "Size",
		Option2Value: size,
		ImageURL:     color + ".jpg",
		Inventory:    inventory,
		IsAvailable:  true,
	}
}

func (a *apiTest) coupon(code string, discountType pricing.DiscountType, value int64) *model.Coupon {
	a.t.Helper()
	c := &model.Coupon{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.NewFromInt(value),
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
	}
	require.NoError(a.t, a.db.Create(c).Error)
	return c
}

func (a *apiTest) combo(minQty int, sizes []string, colors ...string) *model.ComboProduct {
	a.t.Helper()
	c := &model.ComboProduct{
		Name:               "Everyday Tee Pack",
		OriginalPriceCents: 150000,
		ComboPriceCents:    99900,
		MinQuantity:        minQty,
		AvailableSizes:     sizes,
		IsActive:           true,
	}
	for i, color := range colors {
		c.Items = append(c.Items, model.ComboProductItem{Color: color, ImageURL: color + ".jpg", SortOrder: i})
	}
	require.NoError(a.t, a.db.Create(c).Error)
	return c
}

func (a *apiTest) address(userID string) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/addresses", userID, map[string]interface{}{
		"full_name":   "Asha Rao",
		"phone":       "9800000000",
		"line1":       "12 MG Road",
		"city":        "Bengaluru",
		"state":       "KA",
		"postal_code": "560001",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	addr := decode(a.t, w)["address"].(map[string]interface{})
	return uint(addr["id"].(float64))
}

func (a *apiTest) addToCart(userID string, productID uint, color, size string, qty int) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/v1/cart/items", userID, map[string]interface{}{
		"product_id": productID,
		"color":      color,
		"size":       size,
		"quantity":   qty,
	})
}

func pathf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
