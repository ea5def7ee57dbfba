package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/valueband/vr-service/internal/config"
)

// Client wraps the Redis client with quote- and rate-caching operations.
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis client
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Quote caching

// SetQuote caches the last fetched price for a ticker with TTL.
func (c *Client) SetQuote(ctx context.Context, ticker string, price decimal.Decimal, ttl time.Duration) error {
	key := fmt.Sprintf("quote:%s:price", ticker)
	return c.rdb.Set(ctx, key, price.String(), ttl).Err()
}

// GetQuote retrieves the cached price for a ticker.
func (c *Client) GetQuote(ctx context.Context, ticker string) (decimal.Decimal, error) {
	key := fmt.Sprintf("quote:%s:price", ticker)
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return decimal.Zero, err
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse cached quote: %w", err)
	}
	return price, nil
}

// Exchange-rate caching

// SetRate caches an exchange rate with TTL.
func (c *Client) SetRate(ctx context.Context, from, to string, rate decimal.Decimal, ttl time.Duration) error {
	key := fmt.Sprintf("fx:%s:%s", from, to)
	return c.rdb.Set(ctx, key, rate.String(), ttl).Err()
}

// GetRate retrieves a cached exchange rate.
func (c *Client) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	key := fmt.Sprintf("fx:%s:%s", from, to)
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return decimal.Zero, err
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse cached rate: %w", err)
	}
	return rate, nil
}

// Delete removes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}
