package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/metrics"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/logger"
	"github.com/threadline/storefront-backend/pkg/payment/razorpay"
	"gorm.io/gorm"
)

// PaymentGateway is the subset of the hosted gateway client checkout needs.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*razorpay.Order, error)
	FetchOrder(ctx context.Context, orderID string) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) error
	KeyID() string
}

// OrderNotifier is told about new orders and status changes.
type OrderNotifier interface {
	NotifyOrderStatus(order *model.Order)
}

// CouponView is the shopper-facing coupon verdict.
type CouponView struct {
	Code          string `json:"code"`
	Valid         bool   `json:"valid"`
	Reason        string `json:"reason"`
	Message       string `json:"message"`
	DiscountCents int64  `json:"discount_cents"`
}

func NewCouponView(r pricing.CouponResult) *CouponView {
	return &CouponView{
		Code:          r.Code,
		Valid:         r.OK(),
		Reason:        r.Reason.String(),
		Message:       r.Message,
		DiscountCents: r.DiscountCents,
	}
}

type CheckoutQuote struct {
	Items            []model.CartItem             `json:"items"`
	CartVersion      int64                        `json:"cart_version"`
	HasUnavailable   bool                         `json:"has_unavailable"`
	Totals           pricing.Totals               `json:"totals"`
	ShippingProgress pricing.ShippingProgressInfo `json:"shipping_progress"`
	Coupon           *CouponView                  `json:"coupon,omitempty"`
}

type PlaceOrderInput struct {
	AddressID  uint
	CouponCode string
}

type VerifyPaymentInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// PaymentIntent is what the client needs to open the gateway checkout.
type PaymentIntent struct {
	GatewayOrderID string         `json:"gateway_order_id"`
	KeyID          string         `json:"key_id"`
	AmountCents    int64          `json:"amount_cents"`
	Currency       string         `json:"currency"`
	Receipt        string         `json:"receipt"`
	Totals         pricing.Totals `json:"totals"`
	ExpiresAt      time.Time      `json:"expires_at"`
}

type CheckoutConfig struct {
	Currency        string
	Shipping        pricing.ShippingPolicy
	ThresholdCents  int64
	PendingOrderTTL time.Duration
	// ClosedPaymentTTL is how long a dismissed, failed or verified attempt
	// is kept. Zero removes it immediately.
	ClosedPaymentTTL time.Duration
}

type CheckoutService interface {
	Quote(userID, couponCode string) (*CheckoutQuote, error)
	PlaceCODOrder(userID string, input PlaceOrderInput) (*model.Order, error)
	PreparePayment(ctx context.Context, userID string, input PlaceOrderInput) (*PaymentIntent, error)
	VerifyPayment(ctx context.Context, userID string, input VerifyPaymentInput) (*model.Order, error)
	DismissPayment(ctx context.Context, userID, gatewayOrderID string) error
}

type checkoutService struct {
	carts       CartService
	couponRepo  repository.CouponRepository
	addressRepo repository.AddressRepository
	orderRepo   repository.OrderRepository
	pendingRepo repository.PendingOrderRepository
	gateway     PaymentGateway
	notifier    OrderNotifier
	metrics     *metrics.StorefrontMetrics
	cfg         CheckoutConfig
	now         func() time.Time
}

func NewCheckoutService(
	carts CartService,
	couponRepo repository.CouponRepository,
	addressRepo repository.AddressRepository,
	orderRepo repository.OrderRepository,
	pendingRepo repository.PendingOrderRepository,
	gateway PaymentGateway,
	notifier OrderNotifier,
	m *metrics.StorefrontMetrics,
	cfg CheckoutConfig,
) CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.PendingOrderTTL <= 0 {
		cfg.PendingOrderTTL = 24 * time.Hour
	}
	return &checkoutService{
		carts:       carts,
		couponRepo:  couponRepo,
		addressRepo: addressRepo,
		orderRepo:   orderRepo,
		pendingRepo: pendingRepo,
		gateway:     gateway,
		notifier:    notifier,
		metrics:     m,
		cfg:         cfg,
		now:         time.Now,
	}
}

// priced is a cart with totals computed against an optional coupon.
type priced struct {
	cart           *model.Cart
	totals         pricing.Totals
	coupon         *pricing.CouponResult
	hasUnavailable bool
}

func (s *checkoutService) price(userID, couponCode string) (*priced, error) {
	cart, err := s.carts.LoadPricedCart(userID)
	if err != nil {
		return nil, err
	}

	p := &priced{cart: cart}
	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, pricing.Line{
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			Available:      it.Available,
		})
		if !it.Available {
			p.hasUnavailable = true
		}
	}

	var coupon *pricing.Coupon
	code := pricing.NormalizeCouponCode(couponCode)
	if code != "" {
		stored, err := s.couponRepo.FindByCode(code)
		switch {
		case err == nil:
			c := stored.PricingCoupon()
			coupon = &c
		case errors.Is(err, gorm.ErrRecordNotFound):
			rejected := pricing.RejectUnknownCoupon(code)
			p.coupon = &rejected
		default:
			return nil, err
		}
	}

	p.totals = pricing.ComputeTotals(lines, coupon, s.now(), s.cfg.Shipping)
	if p.totals.Coupon != nil {
		p.coupon = p.totals.Coupon
	}
	if p.coupon != nil {
		s.metrics.ObserveCoupon(p.coupon.Reason.String())
	}
	return p, nil
}

func (s *checkoutService) Quote(userID, couponCode string) (*CheckoutQuote, error) {
	p, err := s.price(userID, couponCode)
	if err != nil {
		logger.Error("Failed to price cart for quote", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	quote := &CheckoutQuote{
		Items:            p.cart.Items,
		CartVersion:      p.cart.Version,
		HasUnavailable:   p.hasUnavailable,
		Totals:           p.totals,
		ShippingProgress: pricing.ShippingProgress(p.totals.SubtotalCents, s.cfg.ThresholdCents),
	}
	if p.coupon != nil {
		quote.Coupon = NewCouponView(*p.coupon)
	}
	return quote, nil
}

// prepare prices the cart and checks everything that blocks checkout.
func (s *checkoutService) prepare(userID string, input PlaceOrderInput) (*priced, *model.Address, error) {
	p, err := s.price(userID, input.CouponCode)
	if err != nil {
		return nil, nil, err
	}
	if len(p.cart.Items) == 0 {
		return nil, nil, ErrCartEmpty
	}
	if p.hasUnavailable {
		return nil, nil, ErrCartUnavailable
	}
	if p.coupon != nil && !p.coupon.OK() {
		return nil, nil, &CouponError{Result: *p.coupon}
	}

	address, err := s.addressRepo.FindByID(userID, input.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAddressNotFound
		}
		return nil, nil, err
	}
	return p, address, nil
}

func (s *checkoutService) couponCode(p *priced) string {
	if p.coupon == nil || !p.coupon.OK() {
		return ""
	}
	return p.coupon.Code
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "TL" + now.Format("060102") + suffix
}

func orderItems(items []model.CartItem) []model.OrderItem {
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, model.OrderItemFromCart(it))
	}
	return out
}

func (s *checkoutService) PlaceCODOrder(userID string, input PlaceOrderInput) (*model.Order, error) {
	logger.Info("Placing cash-on-delivery order", map[string]interface{}{
		"user_id":    userID,
		"address_id": input.AddressID,
		"coupon":     input.CouponCode,
	})

	p, address, err := s.prepare(userID, input)
	if err != nil {
		s.observeRejection(model.PaymentMethodCOD, err)
		return nil, err
	}

	now := s.now()
	code := s.couponCode(p)
	order := &model.Order{
		OrderNumber:     newOrderNumber(now),
		UserID:          userID,
		ShippingAddress: address.Snapshot(),
		SubtotalCents:   p.totals.SubtotalCents,
		ShippingCents:   p.totals.ShippingCents,
		DiscountCents:   p.totals.DiscountCents,
		TotalCents:      p.totals.TotalCents,
		CouponCode:      code,
		PaymentMethod:   model.PaymentMethodCOD,
		Status:          model.OrderStatusPending,
		Items:           orderItems(p.cart.Items),
	}

	err = s.orderRepo.Place(repository.OrderPlacement{
		Order:       order,
		CouponCode:  code,
		CartUserID:  userID,
		CartVersion: p.cart.Version,
		Strict:      true,
	})
	if err != nil {
		err = s.mapPlacementError(code, err)
		s.observeRejection(model.PaymentMethodCOD, err)
		logger.Warn("Cash-on-delivery order not placed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	s.metrics.ObserveCheckout(string(model.PaymentMethodCOD), metrics.OutcomePlaced)
	s.notify(order)
	logger.Info("Cash-on-delivery order placed", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_cents":  order.TotalCents,
	})
	return order, nil
}

func (s *checkoutService) mapPlacementError(code string, err error) error {
	switch {
	case errors.Is(err, repository.ErrCouponExhausted):
		return &CouponError{Result: pricing.CouponResult{
			Code:    code,
			Reason:  pricing.CouponUsageLimitReached,
			Message: "This coupon has reached its usage limit",
		}}
	case errors.Is(err, repository.ErrInsufficientStock):
		return fmt.Errorf("%w: %v", ErrOutOfStock, err)
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrCartConflict
	}
	return err
}

func (s *checkoutService) observeRejection(method model.PaymentMethod, err error) {
	outcome := metrics.OutcomeFailed
	switch {
	case errors.Is(err, ErrCouponRejected), errors.Is(err, ErrCartEmpty),
		errors.Is(err, ErrCartUnavailable), errors.Is(err, ErrAddressNotFound),
		errors.Is(err, ErrOutOfStock), errors.Is(err, ErrCartConflict),
		errors.Is(err, ErrPaymentNotRequired):
		outcome = metrics.OutcomeRejected
	}
	s.metrics.ObserveCheckout(string(method), outcome)
}

func (s *checkoutService) notify(order *model.Order) {
	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(order)
	}
}

func (s *checkoutService) PreparePayment(ctx context.Context, userID string, input PlaceOrderInput) (*PaymentIntent, error) {
	logger.Info("Preparing online payment", map[string]interface{}{
		"user_id":    userID,
		"address_id": input.AddressID,
		"coupon":     input.CouponCode,
	})

	p, address, err := s.prepare(userID, input)
	if err != nil {
		s.observeRejection(model.PaymentMethodOnline, err)
		return nil, err
	}
	if p.totals.TotalCents <= 0 {
		s.observeRejection(model.PaymentMethodOnline, ErrPaymentNotRequired)
		return nil, ErrPaymentNotRequired
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	gwOrder, err := s.gateway.CreateOrder(ctx, p.totals.TotalCents, s.cfg.Currency, receipt)
	if err != nil {
		logger.Error("Failed to create gateway order", err, map[string]interface{}{
			"user_id":     userID,
			"total_cents": p.totals.TotalCents,
		})
		s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	now := s.now()
	pending := &model.PendingOrder{
		GatewayOrderID:  gwOrder.ID,
		Receipt:         receipt,
		UserID:          userID,
		CartVersion:     p.cart.Version,
		Currency:        s.cfg.Currency,
		Items:           p.cart.Items,
		ShippingAddress: address.Snapshot(),
		SubtotalCents:   p.totals.SubtotalCents,
		ShippingCents:   p.totals.ShippingCents,
		DiscountCents:   p.totals.DiscountCents,
		TotalCents:      p.totals.TotalCents,
		CouponCode:      s.couponCode(p),
		State:           model.PaymentStatePrepared,
		CreatedAt:       now,
	}
	if err := s.pendingRepo.Save(ctx, pending, s.cfg.PendingOrderTTL); err != nil {
		s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomeFailed)
		return nil, err
	}

	s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomePrepared)
	logger.Info("Online payment prepared", map[string]interface{}{
		"user_id":          userID,
		"gateway_order_id": gwOrder.ID,
		"total_cents":      pending.TotalCents,
	})

	return &PaymentIntent{
		GatewayOrderID: gwOrder.ID,
		KeyID:          s.gateway.KeyID(),
		AmountCents:    pending.TotalCents,
		Currency:       pending.Currency,
		Receipt:        receipt,
		Totals:         p.totals,
		ExpiresAt:      now.Add(s.cfg.PendingOrderTTL),
	}, nil
}

// VerifyPayment turns a staged payment into an order once the gateway
// signature checks out. Repeating a successful verify returns the same order.
func (s *checkoutService) VerifyPayment(ctx context.Context, userID string, input VerifyPaymentInput) (*model.Order, error) {
	logger.Info("Verifying online payment", map[string]interface{}{
		"user_id":            userID,
		"gateway_order_id":   input.GatewayOrderID,
		"gateway_payment_id": input.GatewayPaymentID,
	})

	if existing, err := s.orderRepo.FindByGatewayOrderID(input.GatewayOrderID); err == nil {
		if existing.UserID != userID {
			return nil, ErrPaymentNotFound
		}
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pending, err := s.pendingRepo.Get(ctx, input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrPendingOrderNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if pending.UserID != userID {
		logger.Warn("Payment verification for another user's order", map[string]interface{}{
			"user_id":          userID,
			"gateway_order_id": input.GatewayOrderID,
		})
		return nil, ErrPaymentNotFound
	}

	if !pending.State.CanTransitionTo(model.PaymentStateVerified) {
		return nil, closedPaymentError(pending.State)
	}

	if err := s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature); err != nil {
		logger.Warn("Payment signature rejected", map[string]interface{}{
			"user_id":          userID,
			"gateway_order_id": input.GatewayOrderID,
		})
		s.closePending(ctx, pending, model.PaymentStateFailed)
		s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomeFailed)
		return nil, ErrPaymentVerificationFailed
	}

	gwOrder, err := s.gateway.FetchOrder(ctx, input.GatewayOrderID)
	if err != nil {
		logger.Error("Failed to fetch gateway order", err, map[string]interface{}{
			"gateway_order_id": input.GatewayOrderID,
		})
		s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if gwOrder.Amount != pending.TotalCents || !strings.EqualFold(gwOrder.Currency, pending.Currency) {
		logger.Warn("Gateway order amount differs from staged total", map[string]interface{}{
			"gateway_order_id": input.GatewayOrderID,
			"gateway_amount":   gwOrder.Amount,
			"gateway_currency": gwOrder.Currency,
			"total_cents":      pending.TotalCents,
			"currency":         pending.Currency,
		})
		s.closePending(ctx, pending, model.PaymentStateFailed)
		s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomeFailed)
		return nil, ErrPaymentAmountMismatch
	}

	now := s.now()
	gatewayOrderID := pending.GatewayOrderID
	order := &model.Order{
		OrderNumber:      newOrderNumber(now),
		UserID:           userID,
		ShippingAddress:  pending.ShippingAddress,
		SubtotalCents:    pending.SubtotalCents,
		ShippingCents:    pending.ShippingCents,
		DiscountCents:    pending.DiscountCents,
		TotalCents:       pending.TotalCents,
		CouponCode:       pending.CouponCode,
		PaymentMethod:    model.PaymentMethodOnline,
		GatewayOrderID:   &gatewayOrderID,
		GatewayPaymentID: input.GatewayPaymentID,
		Status:           model.OrderStatusPaid,
		PaidAt:           &now,
		Items:            orderItems(pending.Items),
	}

	err = s.orderRepo.Place(repository.OrderPlacement{
		Order:       order,
		CouponCode:  pending.CouponCode,
		CartUserID:  userID,
		CartVersion: pending.CartVersion,
		Strict:      false,
	})
	if err != nil {
		// A concurrent verify may have won the unique gateway_order_id.
		existing, findErr := s.orderRepo.FindByGatewayOrderID(input.GatewayOrderID)
		if findErr != nil {
			logger.Error("Failed to create order for verified payment", err, map[string]interface{}{
				"user_id":          userID,
				"gateway_order_id": input.GatewayOrderID,
			})
			s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomeFailed)
			return nil, err
		}
		order = existing
	} else {
		s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomeVerified)
		s.notify(order)
	}

	s.closePending(ctx, pending, model.PaymentStateVerified)

	logger.Info("Online payment verified", map[string]interface{}{
		"order_id":         order.ID,
		"order_number":     order.OrderNumber,
		"gateway_order_id": input.GatewayOrderID,
	})
	return order, nil
}

func (s *checkoutService) DismissPayment(ctx context.Context, userID, gatewayOrderID string) error {
	logger.Info("Dismissing online payment", map[string]interface{}{
		"user_id":          userID,
		"gateway_order_id": gatewayOrderID,
	})

	pending, err := s.pendingRepo.Get(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrPendingOrderNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	if pending.UserID != userID {
		return ErrPaymentNotFound
	}

	if !pending.State.CanTransitionTo(model.PaymentStateDismissed) {
		return closedPaymentError(pending.State)
	}
	if err := s.pendingRepo.Close(ctx, pending, model.PaymentStateDismissed, s.cfg.ClosedPaymentTTL); err != nil {
		if errors.Is(err, repository.ErrPendingOrderClosed) {
			return ErrPaymentClosed
		}
		return err
	}
	s.metrics.ObserveCheckout(string(model.PaymentMethodOnline), metrics.OutcomeDismissed)
	return nil
}

// closedPaymentError reports a dismissed attempt as gone and any other closed
// attempt as a conflict.
func closedPaymentError(state model.PaymentState) error {
	if state == model.PaymentStateDismissed {
		return ErrPaymentNotFound
	}
	return ErrPaymentClosed
}

// closePending records the outcome of an attempt. Failures are logged only;
// the outcome itself has already been decided.
func (s *checkoutService) closePending(ctx context.Context, pending *model.PendingOrder, next model.PaymentState) {
	if err := s.pendingRepo.Close(ctx, pending, next, s.cfg.ClosedPaymentTTL); err != nil {
		logger.Error("Failed to record payment outcome", err, map[string]interface{}{
			"gateway_order_id": pending.GatewayOrderID,
			"state":            string(next),
		})
	}
}
