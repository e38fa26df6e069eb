package service

import (
	"errors"
	"time"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// OrderTracking is the public view of an order looked up by its number.
type OrderTracking struct {
	OrderNumber   string              `json:"order_number"`
	Status        model.OrderStatus   `json:"status"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	ItemCount     int                 `json:"item_count"`
	TotalCents    int64               `json:"total_cents"`
	City          string              `json:"city"`
	PlacedAt      time.Time           `json:"placed_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type OrderService interface {
	GetUserOrders(userID string) ([]model.Order, error)
	GetOrderByID(userID string, orderID uint) (*model.Order, error)
	TrackOrder(orderNumber string) (*OrderTracking, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	notifier  OrderNotifier
	now       func() time.Time
}

func NewOrderService(orderRepo repository.OrderRepository, notifier OrderNotifier) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *orderService) GetUserOrders(userID string) ([]model.Order, error) {
	logger.Debug("Fetching user orders", map[string]interface{}{
		"user_id": userID,
	})

	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrderByID(userID string, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order requested by non-owner", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) TrackOrder(orderNumber string) (*OrderTracking, error) {
	order, err := s.orderRepo.FindByOrderNumber(orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	count := 0
	for _, it := range order.Items {
		count += it.Quantity
	}
	return &OrderTracking{
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		ItemCount:     count,
		TotalCents:    order.TotalCents,
		City:          order.ShippingAddress.City,
		PlacedAt:      order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}, nil
}

// UpdateOrderStatus applies an admin status change allowed by the transition
// table and pushes it to the owner.
func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		logger.Warn("Order status transition rejected", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       status,
		})
		return nil, ErrInvalidStatusTransition
	}

	now := s.now()
	if err := s.orderRepo.UpdateStatus(orderID, order.Status, status, now); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, err
	}

	order.Status = status
	order.UpdatedAt = now
	if status == model.OrderStatusPaid {
		order.PaidAt = &now
	}
	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(order)
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return order, nil
}
