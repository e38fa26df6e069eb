package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/threadline/storefront-backend/config"
	"github.com/threadline/storefront-backend/internal/app/controller"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/metrics"
	"github.com/threadline/storefront-backend/internal/middleware"
)

// HealthCheck checks one dependency for /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Controllers struct {
	Product  *controller.ProductController
	Combo    *controller.ComboController
	Coupon   *controller.CouponController
	Cart     *controller.CartController
	Checkout *controller.CheckoutController
	Order    *controller.OrderController
	Address  *controller.AddressController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	httpMetrics    *metrics.HTTPMetrics
	gatherer       prometheus.Gatherer
	healthChecks   []HealthCheck
	config         *config.Config
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
	healthChecks ...HealthCheck,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		httpMetrics:    httpMetrics,
		gatherer:       gatherer,
		healthChecks:   healthChecks,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	controller.RegisterValidators()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(r.httpMetrics))
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)
	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	ctrl := r.controllers
	auth := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", ctrl.Product.ListProducts)
			products.GET("/slug/:slug", ctrl.Product.GetProductBySlug)
			products.GET("/:id", ctrl.Product.GetProductByID)
			products.GET("/:id/price", ctrl.Product.QuotePrice)
		}

		combos := v1.Group("/combos")
		{
			combos.GET("", ctrl.Combo.ListCombos)
			combos.GET("/:id", ctrl.Combo.GetCombo)
			combos.POST("/:id/selection", ctrl.Combo.EvaluateSelection)
		}

		v1.POST("/coupons/validate", ctrl.Coupon.ValidateCoupon)

		cart := v1.Group("/cart", auth)
		{
			cart.GET("", ctrl.Cart.GetCart)
			cart.DELETE("", ctrl.Cart.ClearCart)
			cart.POST("/items", ctrl.Cart.AddToCart)
			cart.PUT("/items/:id", ctrl.Cart.UpdateCartItem)
			cart.DELETE("/items/:id", ctrl.Cart.RemoveFromCart)
			cart.POST("/combos", ctrl.Cart.AddComboToCart)
		}

		checkout := v1.Group("/checkout", auth)
		{
			checkout.POST("/quote", ctrl.Checkout.Quote)
			checkout.POST("/cod", ctrl.Checkout.PlaceCODOrder)
			checkout.POST("/payments", ctrl.Checkout.PreparePayment)
			checkout.POST("/payments/verify", ctrl.Checkout.VerifyPayment)
			checkout.POST("/payments/:gateway_order_id/dismiss", ctrl.Checkout.DismissPayment)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("/track/:order_number", ctrl.Order.TrackOrder)
			orders.GET("/ws", auth, ctrl.Order.OrderUpdates)
			orders.GET("", auth, ctrl.Order.GetOrders)
			orders.GET("/:id", auth, ctrl.Order.GetOrderByID)
			orders.PUT("/:id/status",
				auth,
				r.authMiddleware.RequireRole(model.RoleAdmin),
				ctrl.Order.UpdateOrderStatus,
			)
		}

		addresses := v1.Group("/addresses", auth)
		{
			addresses.GET("", ctrl.Address.GetAddresses)
			addresses.POST("", ctrl.Address.CreateAddress)
			addresses.DELETE("/:id", ctrl.Address.DeleteAddress)
			addresses.PUT("/:id/default", ctrl.Address.SetDefaultAddress)
		}
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(r.healthChecks))
	for _, hc := range r.healthChecks {
		if err := hc.Check(ctx); err != nil {
			middleware.GetLoggerFromContext(c).Warn("Health check failed", map[string]interface{}{
				"check": hc.Name,
				"error": err.Error(),
			})
			checks[hc.Name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
