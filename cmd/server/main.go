package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/threadline/storefront-backend/config"
	"github.com/threadline/storefront-backend/internal/app/controller"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/app/service"
	"github.com/threadline/storefront-backend/internal/db"
	"github.com/threadline/storefront-backend/internal/metrics"
	"github.com/threadline/storefront-backend/internal/middleware"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/internal/router"
	"github.com/threadline/storefront-backend/internal/scheduler"
	ws "github.com/threadline/storefront-backend/internal/websocket"
	"github.com/threadline/storefront-backend/pkg/logger"
	"github.com/threadline/storefront-backend/pkg/payment/razorpay"
	"github.com/threadline/storefront-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.IsDevelopment() {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: cfg.Server.IsDevelopment(),
	})

	logger.Info("Starting storefront backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis holds staged online payments
	redisClient, err := redis.Init(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	gateway, err := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.Payment.Razorpay.KeyID,
		KeySecret: cfg.Payment.Razorpay.KeySecret,
		BaseURL:   cfg.Payment.Razorpay.BaseURL,
	})
	if err != nil {
		logger.Fatal("Failed to configure payment gateway", err)
	}

	// Metrics
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	storefrontMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)
	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	// Order status push
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	conn := db.GetDB()
	productRepo := repository.NewProductRepository(conn)
	comboRepo := repository.NewComboRepository(conn)
	couponRepo := repository.NewCouponRepository(conn)
	cartRepo := repository.NewCartRepository(conn)
	addressRepo := repository.NewAddressRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	pendingRepo := repository.NewPendingOrderRepository(redisClient)

	// Initialize services
	shipping := pricing.ShippingPolicy{FlatFeeCents: cfg.Pricing.ShippingFeeCents}
	threshold := cfg.Pricing.FreeShippingThresholdCents

	productService := service.NewProductService(productRepo)
	comboService := service.NewComboService(comboRepo)
	couponService := service.NewCouponService(couponRepo, storefrontMetrics)
	cartService := service.NewCartService(cartRepo, productRepo, comboRepo, shipping, threshold)
	addressService := service.NewAddressService(addressRepo)
	orderService := service.NewOrderService(orderRepo, hub)
	checkoutService := service.NewCheckoutService(
		cartService,
		couponRepo,
		addressRepo,
		orderRepo,
		pendingRepo,
		gateway,
		hub,
		storefrontMetrics,
		service.CheckoutConfig{
			Currency:        cfg.Pricing.Currency,
			Shipping:        shipping,
			ThresholdCents:  threshold,
			PendingOrderTTL:  cfg.Checkout.PendingOrderTTL,
			ClosedPaymentTTL: cfg.Checkout.ClosedPaymentTTL,
		},
	)

	// Initialize controllers
	controllers := router.Controllers{
		Product:  controller.NewProductController(productService),
		Combo:    controller.NewComboController(comboService),
		Coupon:   controller.NewCouponController(couponService),
		Cart:     controller.NewCartController(cartService),
		Checkout: controller.NewCheckoutController(checkoutService),
		Order:    controller.NewOrderController(orderService, hub, cfg.CORS.AllowedOrigins),
		Address:  controller.NewAddressController(addressService),
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	r := router.NewRouter(
		controllers,
		authMiddleware,
		httpMetrics,
		prometheus.DefaultGatherer,
		cfg,
		router.HealthCheck{Name: "database", Check: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		router.HealthCheck{Name: "redis", Check: redisClient.Ping},
	)
	engine := r.Setup()

	// Coupon expiry job
	couponScheduler := scheduler.NewCouponExpiryScheduler(couponService, cfg.Scheduler.CouponExpirySpec, cronMetrics)
	if err := couponScheduler.Start(); err != nil {
		logger.Fatal("Failed to start coupon expiry scheduler", err)
	}
	defer couponScheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown did not complete", err)
	}
	logger.Info("Server stopped successfully")
}
