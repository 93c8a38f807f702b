package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client used as a read-through cache for
// connector HTTP responses. A nil *Client is valid and means caching is
// disabled.
type Client struct {
	*redis.Client
	ttl time.Duration
}

// New creates a Redis client from a URL, or returns nil when the URL is
// empty (Redis not configured).
func New(url string, ttl time.Duration) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client, ttl: ttl}, nil
}

// GetBody returns a cached response body, or ok=false on miss. Safe on a
// nil receiver.
func (c *Client) GetBody(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	body, err := c.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return body, true
}

// PutBody stores a response body under the configured TTL. Cache write
// failures are deliberately swallowed: the cache is an optimisation, not
// a source of truth. Safe on a nil receiver.
func (c *Client) PutBody(ctx context.Context, key string, body []byte) {
	if c == nil {
		return
	}
	_ = c.Set(ctx, key, body, c.ttl).Err()
}

// Health checks the Redis connection. Safe on a nil receiver.
func (c *Client) Health(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.Ping(ctx).Err()
}

// Close closes the underlying connection. Safe on a nil receiver.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.Client.Close()
}
