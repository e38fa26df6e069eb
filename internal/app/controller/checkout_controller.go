package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threadline/storefront-backend/internal/app/service"
	"github.com/threadline/storefront-backend/internal/middleware"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

type QuoteRequest struct {
	CouponCode string `json:"coupon_code" binding:"omitempty,coupon_code"`
}

type PlaceOrderRequest struct {
	AddressID  uint   `json:"address_id" binding:"required"`
	CouponCode string `json:"coupon_code" binding:"omitempty,coupon_code"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`
}

// Quote prices the cart with an optional coupon
// POST /api/v1/checkout/quote
func (ctrl *CheckoutController) Quote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req QuoteRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	quote, err := ctrl.checkoutService.Quote(userID, req.CouponCode)
	if err != nil {
		respondError(c, err, "quote checkout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quote": quote,
	})
}

// PlaceCODOrder creates a cash-on-delivery order
// POST /api/v1/checkout/cod
func (ctrl *CheckoutController) PlaceCODOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.checkoutService.PlaceCODOrder(userID, service.PlaceOrderInput{
		AddressID:  req.AddressID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		respondError(c, err, "create order")
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"user_id":      userID,
		"order_number": order.OrderNumber,
		"method":       order.PaymentMethod,
	})

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
	})
}

// PreparePayment creates a gateway order and stages the checkout
// POST /api/v1/checkout/payments
func (ctrl *CheckoutController) PreparePayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	intent, err := ctrl.checkoutService.PreparePayment(c.Request.Context(), userID, service.PlaceOrderInput{
		AddressID:  req.AddressID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		respondError(c, err, "prepare payment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment": intent,
	})
}

// VerifyPayment checks the gateway signature and creates the order
// POST /api/v1/checkout/payments/verify
func (ctrl *CheckoutController) VerifyPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.checkoutService.VerifyPayment(c.Request.Context(), userID, service.VerifyPaymentInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		respondError(c, err, "verify payment")
		return
	}

	log.Info("Payment verified", map[string]interface{}{
		"user_id":      userID,
		"order_number": order.OrderNumber,
	})

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// DismissPayment discards a staged payment the shopper closed
// POST /api/v1/checkout/payments/:gateway_order_id/dismiss
func (ctrl *CheckoutController) DismissPayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := ctrl.checkoutService.DismissPayment(c.Request.Context(), userID, c.Param("gateway_order_id")); err != nil {
		respondError(c, err, "dismiss payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment dismissed",
	})
}
