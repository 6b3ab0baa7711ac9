package redis

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/bankrank/backend/pkg/config"
)

// KeyPrefix namespaces every key this service writes
const KeyPrefix = "bankrank"

// Timeouts for a request path that must stay fast: Redis is an optimisation
// (cache, shared rate limit), never a dependency of a ranking.
const (
	dialTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
	pingTimeout = 3 * time.Second
)

// Client is an optional Redis connection. A disabled Client is valid and
// turns every cache and rate-limit call into a no-op.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb *redis.Client
}

// Options maps the service configuration onto go-redis options
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		MaxRetries:   1,
	}
}

// New connects when REDIS_ENABLED is set and verifies the server answers.
// With Redis disabled it returns a no-op client.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	client := Wrap(redis.NewClient(Options(cfg.Redis)))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection to %s failed: %w", net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port), err)
	}

	return client, nil
}

// Wrap adopts an existing go-redis client without checking it
func Wrap(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Ping checks the server; a disabled client is always healthy
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// Redis returns the underlying go-redis client (nil when disabled)
func (c *Client) Redis() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Key joins parts under KeyPrefix: Key("cache", "periods") = "bankrank:cache:periods"
func Key(parts ...string) string {
	return KeyPrefix + ":" + strings.Join(parts, ":")
}
