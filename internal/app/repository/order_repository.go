package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrInsufficientStock = errors.New("insufficient variant inventory")
	ErrStatusChanged     = errors.New("order status changed concurrently")
)

// OrderPlacement describes everything that must happen atomically when an
// order is created.
type OrderPlacement struct {
	Order *model.Order
	// CouponCode, when set, has its used_count incremented.
	CouponCode string
	// CartUserID/CartVersion identify the cart the order was priced from; it
	// is emptied in the same transaction.
	CartUserID  string
	CartVersion int64
	// Strict fails the placement on an exhausted coupon, short inventory or a
	// moved cart. Non-strict placements (payment already captured) log those
	// conditions and carry on.
	Strict bool
}

type OrderRepository interface {
	Place(p OrderPlacement) error
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID string) ([]model.Order, error)
	FindByOrderNumber(orderNumber string) (*model.Order, error)
	FindByGatewayOrderID(gatewayOrderID string) (*model.Order, error)
	UpdateStatus(id uint, from, to model.OrderStatus, at time.Time) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Place(p OrderPlacement) (err error) {
	order := p.Order
	logger.Debug("Placing order in database", map[string]interface{}{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"items":        len(order.Items),
		"coupon":       p.CouponCode,
		"strict":       p.Strict,
	})

	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			err = fmt.Errorf("order placement panicked: %v", rec)
		}
	}()

	if p.CouponCode != "" {
		if err := r.consumeCoupon(tx, p.CouponCode, p.Strict); err != nil {
			tx.Rollback()
			return err
		}
	}

	for _, item := range order.Items {
		if item.VariantID == nil {
			continue
		}
		if err := r.reserveInventory(tx, *item.VariantID, item.Quantity, p.Strict); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return err
	}

	if p.CartUserID != "" {
		if err := r.clearCart(tx, p.CartUserID, p.CartVersion, p.Strict); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order placement", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return err
	}

	logger.Debug("Order placed in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return nil
}

func (r *orderRepository) consumeCoupon(tx *gorm.DB, code string, strict bool) error {
	res := tx.Model(&model.Coupon{}).
		Where("code = ? AND (usage_limit IS NULL OR used_count < usage_limit)", code).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		logger.Error("Failed to increment coupon usage", res.Error, map[string]interface{}{
			"code": code,
		})
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if strict {
		return ErrCouponExhausted
	}

	logger.Warn("Coupon limit reached after payment capture, recording usage anyway", map[string]interface{}{
		"code": code,
	})
	return tx.Model(&model.Coupon{}).
		Where("code = ?", code).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1)).Error
}

func (r *orderRepository) reserveInventory(tx *gorm.DB, variantID uint, qty int, strict bool) error {
	res := tx.Model(&model.ProductVariant{}).
		Where("id = ? AND inventory >= ?", variantID, qty).
		UpdateColumn("inventory", gorm.Expr("inventory - ?", qty))
	if res.Error != nil {
		logger.Error("Failed to decrement variant inventory", res.Error, map[string]interface{}{
			"variant_id": variantID,
		})
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if strict {
		return ErrInsufficientStock
	}

	logger.Warn("Variant oversold after payment capture", map[string]interface{}{
		"variant_id": variantID,
		"quantity":   qty,
	})
	return tx.Model(&model.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("inventory", 0).Error
}

func (r *orderRepository) clearCart(tx *gorm.DB, userID string, version int64, strict bool) error {
	res := tx.Model(&model.Cart{}).
		Where("user_id = ? AND version = ?", userID, version).
		Select("items", "version", "updated_at").
		Updates(&model.Cart{Items: []model.CartItem{}, Version: version + 1, UpdatedAt: time.Now()})
	if res.Error != nil {
		logger.Error("Failed to clear cart", res.Error, map[string]interface{}{
			"user_id": userID,
		})
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if strict {
		return ErrVersionConflict
	}

	logger.Warn("Cart changed after payment was prepared, leaving it in place", map[string]interface{}{
		"user_id": userID,
		"version": version,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID string) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	err := r.db.Where("user_id = ?", userID).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindByOrderNumber(orderNumber string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Preload("Items").Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		logger.Error("Failed to find order by number in database", err, map[string]interface{}{
			"order_number": orderNumber,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByGatewayOrderID(gatewayOrderID string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Preload("Items").Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find order by gateway order ID in database", err, map[string]interface{}{
				"gateway_order_id": gatewayOrderID,
			})
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves the order from one status to another, failing with
// ErrStatusChanged when the stored status is no longer from.
func (r *orderRepository) UpdateStatus(id uint, from, to model.OrderStatus, at time.Time) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"from":     from,
		"to":       to,
	})

	updates := map[string]interface{}{"status": to, "updated_at": at}
	if to == model.OrderStatusPaid {
		updates["paid_at"] = at
	}

	res := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		logger.Error("Failed to update order status in database", res.Error, map[string]interface{}{
			"order_id": id,
			"status":   to,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}
