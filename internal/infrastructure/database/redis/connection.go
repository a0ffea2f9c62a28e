// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-api/internal/config"
)

const (
	connectTimeout = 5 * time.Second
	pingTimeout    = 3 * time.Second
)

// Client owns the go-redis client shared by sessions and rate limiting
type Client struct {
	rdb *redis.Client
}

// NewConnection dials redis and fails fast if it does not answer a ping
func NewConnection(cfg *config.Config) (*Client, error) {
	rdb := redis.NewClient(options(cfg.Redis, cfg.GetRedisAddr()))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.GetRedisAddr(), err)
	}

	log.Printf("Redis connected (%s, db %d)", cfg.GetRedisAddr(), cfg.Redis.DB)
	return &Client{rdb: rdb}, nil
}

func options(cfg config.RedisConfig, addr string) *redis.Options {
	return &redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  connectTimeout,
		ReadTimeout:  pingTimeout,
		WriteTimeout: pingTimeout,
	}
}

// GetClient returns the underlying client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Health pings redis; used by /health
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}
