// Package cache provides a redis-backed cache for issue scans. Scans are
// full-table joins and the dashboard polls them; a short TTL keeps the load
// off the relational store without letting results go meaningfully stale.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rosterd/internal/sanity"
)

const keyPrefix = "sanity:issues:"

// IssueCache implements sanity.IssueCache on redis.
type IssueCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *IssueCache {
	return &IssueCache{client: client, ttl: ttl}
}

func (c *IssueCache) Get(ctx context.Context, check string) ([]sanity.Issue, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+check).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", check, err)
	}
	var issues []sanity.Issue
	if err := json.Unmarshal(raw, &issues); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, false, fmt.Errorf("cache decode %q: %w", check, err)
	}
	return issues, true, nil
}

func (c *IssueCache) Set(ctx context.Context, check string, issues []sanity.Issue) error {
	raw, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", check, err)
	}
	if err := c.client.Set(ctx, keyPrefix+check, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", check, err)
	}
	return nil
}

func (c *IssueCache) Invalidate(ctx context.Context, check string) error {
	if err := c.client.Del(ctx, keyPrefix+check).Err(); err != nil {
		return fmt.Errorf("cache invalidate %q: %w", check, err)
	}
	return nil
}
