package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config holds Redis connection settings. An empty Addr disables caching.
type Config struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client or a Client without an address behaves as an always-empty cache.
type Client struct {
	client *redis.Client
	logger *zerolog.Logger
}

// New creates a new Redis-backed client. It returns a disabled client when no
// address is configured.
func New(cfg Config, logger *zerolog.Logger) *Client {
	if cfg.Addr == "" {
		return &Client{logger: logger}
	}

	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		logger: logger,
	}
}

// Enabled reports whether the client is backed by Redis.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Ping checks connectivity. A disabled client always succeeds.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.warn(err, "get", key)
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.warn(err, "set", key)
	}
	return nil
}

// Delete removes keys, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.warn(err, "del", keys[0])
	}
	return nil
}

// Incr increments a counter and returns its new value. On failure it returns 0.
func (c *Client) Incr(ctx context.Context, key string) int64 {
	if !c.Enabled() {
		return 0
	}
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		c.warn(err, "incr", key)
		return 0
	}
	return n
}

// GetInt64 reads a counter written by Incr. Missing keys and failures read as 0.
func (c *Client) GetInt64(ctx context.Context, key string) int64 {
	if !c.Enabled() {
		return 0
	}
	n, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(err, "get", key)
		}
		return 0
	}
	return n
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

func (c *Client) warn(err error, op, key string) {
	if c.logger == nil {
		return
	}
	c.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("redis unavailable, treating as cache miss")
}
