package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/redis"
	"github.com/threadline/storefront-backend/pkg/redis/redistest"
)

func TestPendingOrderRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mem := redistest.NewMemory()
	repo := NewPendingOrderRepository(redis.NewFromCmdable(mem))

	pending := &model.PendingOrder{
		GatewayOrderID: "order_abc",
		UserID:         "user-1",
		Items:          []model.CartItem{{ID: "l1", Name: "Tee", UnitPriceCents: 49900, Quantity: 2}},
		TotalCents:     99800,
		State:          model.PaymentStatePrepared,
	}
	require.NoError(t, repo.Save(ctx, pending, time.Hour))

	got, err := repo.Get(ctx, "order_abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, int64(99800), got.TotalCents)
	require.Len(t, got.Items, 1)

	require.NoError(t, repo.Close(ctx, got, model.PaymentStateDismissed, 0))
	assert.Equal(t, model.PaymentStateDismissed, got.State)

	_, err = repo.Get(ctx, "order_abc")
	assert.ErrorIs(t, err, ErrPendingOrderNotFound)
}

func TestPendingOrderRepository_CloseKeepsOutcome(t *testing.T) {
	ctx := context.Background()
	mem := redistest.NewMemory()
	now := time.Now()
	mem.Now = func() time.Time { return now }
	repo := NewPendingOrderRepository(redis.NewFromCmdable(mem))

	pending := &model.PendingOrder{GatewayOrderID: "order_v", UserID: "user-1", State: model.PaymentStatePrepared}
	require.NoError(t, repo.Save(ctx, pending, time.Hour))

	require.NoError(t, repo.Close(ctx, pending, model.PaymentStateVerified, 15*time.Minute))

	got, err := repo.Get(ctx, "order_v")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateVerified, got.State)
	assert.NotNil(t, got.ClosedAt)

	assert.ErrorIs(t, repo.Close(ctx, got, model.PaymentStateDismissed, 15*time.Minute), ErrPendingOrderClosed)
	assert.ErrorIs(t, repo.Close(ctx, got, model.PaymentStateFailed, 0), ErrPendingOrderClosed)

	now = now.Add(16 * time.Minute)
	_, err = repo.Get(ctx, "order_v")
	assert.ErrorIs(t, err, ErrPendingOrderNotFound)
}

func TestPendingOrderRepository_CloseNeverExtendsStaging(t *testing.T) {
	ctx := context.Background()
	mem := redistest.NewMemory()
	now := time.Now()
	mem.Now = func() time.Time { return now }
	repo := NewPendingOrderRepository(redis.NewFromCmdable(mem))

	pending := &model.PendingOrder{GatewayOrderID: "order_s", State: model.PaymentStatePrepared}
	require.NoError(t, repo.Save(ctx, pending, 5*time.Minute))

	require.NoError(t, repo.Close(ctx, pending, model.PaymentStateFailed, time.Hour))

	now = now.Add(6 * time.Minute)
	_, err := repo.Get(ctx, "order_s")
	assert.ErrorIs(t, err, ErrPendingOrderNotFound)
}

func TestPendingOrderRepository_Expires(t *testing.T) {
	ctx := context.Background()
	mem := redistest.NewMemory()
	now := time.Now()
	mem.Now = func() time.Time { return now }
	repo := NewPendingOrderRepository(redis.NewFromCmdable(mem))

	require.NoError(t, repo.Save(ctx, &model.PendingOrder{GatewayOrderID: "order_x"}, 24*time.Hour))

	now = now.Add(25 * time.Hour)
	_, err := repo.Get(ctx, "order_x")
	assert.ErrorIs(t, err, ErrPendingOrderNotFound)
}
