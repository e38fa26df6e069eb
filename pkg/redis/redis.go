package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/threadline/storefront-backend/config"
	"github.com/threadline/storefront-backend/pkg/logger"
)

const keyNamespace = "sf"

var (
	ErrNotFound       = errors.New("redis key not found")
	errNotInitialized = errors.New("redis client not initialized")
)

// Cmdable is the subset of go-redis commands the service uses. Tests supply
// an in-memory implementation.
type Cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
	TTL(context.Context, string) *redis.DurationCmd
}

type Client struct {
	store Cmdable
	raw   *redis.Client
}

var client *Client

// Init connects to Redis and stores the process-wide client.
func Init(cfg *config.RedisConfig) (*Client, error) {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	raw := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := raw.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = &Client{store: raw, raw: raw}
	logger.Info("Redis connection established successfully")
	return client, nil
}

// NewFromCmdable wraps an existing command set.
func NewFromCmdable(store Cmdable) *Client {
	return &Client{store: store}
}

func Close() error {
	if client != nil && client.raw != nil {
		logger.Info("Closing Redis connection")
		return client.raw.Close()
	}
	return nil
}

func (c *Client) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if c == nil || c.store == nil {
		return errNotInitialized
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns ErrNotFound when the key is absent or expired.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.store == nil {
		return "", errNotInitialized
	}
	v, err := c.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

// Del removes keys and reports how many existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if c == nil || c.store == nil {
		return 0, errNotInitialized
	}
	return c.store.Del(ctx, keys...).Result()
}

func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	if c == nil || c.store == nil {
		return 0, errNotInitialized
	}
	return c.store.TTL(ctx, key).Result()
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

// Key builds a namespaced key, skipping empty parts.
func Key(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
