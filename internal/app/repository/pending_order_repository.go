package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/logger"
	"github.com/threadline/storefront-backend/pkg/redis"
)

var (
	ErrPendingOrderNotFound = errors.New("pending order not found")
	ErrPendingOrderClosed   = errors.New("pending order is no longer open")
)

// PendingOrderRepository stages online orders between gateway order creation
// and signature verification.
type PendingOrderRepository interface {
	Save(ctx context.Context, pending *model.PendingOrder, ttl time.Duration) error
	Get(ctx context.Context, gatewayOrderID string) (*model.PendingOrder, error)
	// Close moves a prepared order to a terminal state. The record is kept
	// for at most keep so repeated calls see the outcome; keep <= 0 removes
	// it at once.
	Close(ctx context.Context, pending *model.PendingOrder, next model.PaymentState, keep time.Duration) error
}

type pendingOrderRepository struct {
	client *redis.Client
}

func NewPendingOrderRepository(client *redis.Client) PendingOrderRepository {
	return &pendingOrderRepository{client: client}
}

func pendingOrderKey(gatewayOrderID string) string {
	return redis.Key("pending_order", gatewayOrderID)
}

func (r *pendingOrderRepository) Save(ctx context.Context, pending *model.PendingOrder, ttl time.Duration) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encode pending order: %w", err)
	}

	if err := r.client.Set(ctx, pendingOrderKey(pending.GatewayOrderID), string(payload), ttl); err != nil {
		logger.Error("Failed to stage pending order", err, map[string]interface{}{
			"gateway_order_id": pending.GatewayOrderID,
			"user_id":          pending.UserID,
		})
		return err
	}

	logger.Debug("Pending order staged", map[string]interface{}{
		"gateway_order_id": pending.GatewayOrderID,
		"ttl":              ttl.String(),
	})
	return nil
}

func (r *pendingOrderRepository) Get(ctx context.Context, gatewayOrderID string) (*model.PendingOrder, error) {
	raw, err := r.client.Get(ctx, pendingOrderKey(gatewayOrderID))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, ErrPendingOrderNotFound
	}
	if err != nil {
		logger.Error("Failed to load pending order", err, map[string]interface{}{
			"gateway_order_id": gatewayOrderID,
		})
		return nil, err
	}

	var pending model.PendingOrder
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, fmt.Errorf("decode pending order: %w", err)
	}
	return &pending, nil
}

func (r *pendingOrderRepository) Close(ctx context.Context, pending *model.PendingOrder, next model.PaymentState, keep time.Duration) error {
	if !pending.State.CanTransitionTo(next) {
		logger.Warn("Rejected pending order transition", map[string]interface{}{
			"gateway_order_id": pending.GatewayOrderID,
			"from":             string(pending.State),
			"to":               string(next),
		})
		return ErrPendingOrderClosed
	}

	key := pendingOrderKey(pending.GatewayOrderID)
	if keep <= 0 {
		if _, err := r.client.Del(ctx, key); err != nil {
			logger.Error("Failed to delete pending order", err, map[string]interface{}{
				"gateway_order_id": pending.GatewayOrderID,
			})
			return err
		}
		pending.State = next
		return nil
	}

	// Never outlive the original staging window.
	remaining, err := r.client.TTL(ctx, key)
	if err != nil {
		return err
	}
	if remaining > 0 && remaining < keep {
		keep = remaining
	}

	closedAt := time.Now()
	pending.State = next
	pending.ClosedAt = &closedAt
	return r.Save(ctx, pending, keep)
}
