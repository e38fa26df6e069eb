package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/db"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/payment/razorpay"
	"github.com/threadline/storefront-backend/pkg/redis"
	"github.com/threadline/storefront-backend/pkg/redis/redistest"
	"gorm.io/gorm"
)

const (
	testUser      = "user-1"
	gatewaySecret = "test_secret"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

type fakeGateway struct {
	calls    int
	err      error
	fetchErr error
	orders   map[string]razorpay.Order
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*razorpay.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.calls++
	order := razorpay.Order{
		ID:       fmt.Sprintf("order_test%d", g.calls),
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

// FetchOrder reports the order as paid. Tests may rewrite g.orders to make
// the gateway disagree with the staged order.
func (g *fakeGateway) FetchOrder(_ context.Context, orderID string) (*razorpay.Order, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	order, ok := g.orders[orderID]
	if !ok {
		return nil, razorpay.ErrOrderNotFound
	}
	order.Status = razorpay.OrderStatusPaid
	order.AmountPaid = order.Amount
	return &order, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) error {
	return razorpay.VerifySignature(gatewaySecret, orderID, paymentID, signature)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type recordingNotifier struct {
	orders []model.Order
}

func (n *recordingNotifier) NotifyOrderStatus(order *model.Order) {
	n.orders = append(n.orders, *order)
}

type testEnv struct {
	db        *gorm.DB
	redis     *redistest.Memory
	gateway   *fakeGateway
	notifier  *recordingNotifier
	carts     CartService
	combos    ComboService
	coupons   CouponService
	checkout  CheckoutService
	orders    OrderService
	addresses AddressService
	products  ProductService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		db:       testDB,
		redis:    redistest.NewMemory(),
		gateway:  &fakeGateway{},
		notifier: &recordingNotifier{},
	}

	productRepo := repository.NewProductRepository(testDB)
	comboRepo := repository.NewComboRepository(testDB)
	couponRepo := repository.NewCouponRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	pendingRepo := repository.NewPendingOrderRepository(redis.NewFromCmdable(env.redis))

	shipping := pricing.ShippingPolicy{FlatFeeCents: 0}
	env.carts = NewCartService(repository.NewCartRepository(testDB), productRepo, comboRepo, shipping, 99900)
	env.combos = NewComboService(comboRepo)
	env.coupons = NewCouponService(couponRepo, nil)
	env.orders = NewOrderService(orderRepo, env.notifier)
	env.addresses = NewAddressService(addressRepo)
	env.products = NewProductService(productRepo)
	env.checkout = NewCheckoutService(
		env.carts, couponRepo, addressRepo, orderRepo, pendingRepo,
		env.gateway, env.notifier, nil,
		CheckoutConfig{Currency: "INR", Shipping: shipping, ThresholdCents: 99900, PendingOrderTTL: time.Hour, ClosedPaymentTTL: 15 * time.Minute},
	)
	return env
}

func (e *testEnv) pendingState(t *testing.T, gatewayOrderID string) model.PaymentState {
	t.Helper()
	pending, err := repository.NewPendingOrderRepository(redis.NewFromCmdable(e.redis)).
		Get(context.Background(), gatewayOrderID)
	require.NoError(t, err)
	return pending.State
}

func (e *testEnv) product(t *testing.T, slug string, base int64, sale *int64, variants ...model.ProductVariant) *model.Product {
	t.Helper()
	p := &model.Product{
		Title:          "Product " + slug,
		BasePriceCents: base,
		SalePriceCents: sale,
		Category:       "shirts",
		Slug:           slug,
		Images:         []string{slug + ".jpg"},
		IsActive:       true,
		Variants:       variants,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func variant(color, size string, price *int64, inventory int) model.ProductVariant {
	return model.ProductVariant{
		Option1Name:  "Color",
		Option1Value: color,
		Option2Name:  "Size",
		Option2Value: size,
		PriceCents:   price,
		ImageURL:     color + ".jpg",
		Inventory:    inventory,
		IsAvailable:  true,
	}
}

func (e *testEnv) combo(t *testing.T, minQty int, sizes []string, colors ...string) *model.ComboProduct {
	t.Helper()
	c := &model.ComboProduct{
		Name:               "Tee Pack",
		OriginalPriceCents: 150000,
		ComboPriceCents:    99900,
		MinQuantity:        minQty,
		AvailableSizes:     sizes,
		Images:             []string{"pack.jpg"},
		IsActive:           true,
	}
	for i, color := range colors {
		c.Items = append(c.Items, model.ComboProductItem{Color: color, ImageURL: color + ".jpg", SortOrder: i})
	}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *testEnv) coupon(t *testing.T, code string, discountType pricing.DiscountType, value int64, limit *int) *model.Coupon {
	t.Helper()
	c := &model.Coupon{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.NewFromInt(value),
		UsageLimit:    limit,
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
	}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *testEnv) address(t *testing.T, userID string) *model.Address {
	t.Helper()
	a := &model.Address{
		FullName:   "Asha Rao",
		Phone:      "9800000000",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
	}
	require.NoError(t, e.addresses.CreateAddress(userID, a))
	return a
}
