// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	previewKeyPrefix = "preview:"

	// DefaultPreviewTTL bounds how long a rendered preview survives
	// without an explicit invalidation.
	DefaultPreviewTTL = 10 * time.Minute
)

// PreviewCache stores rendered preview HTML in Valkey. Every method is
// best effort: failures are logged and reported as a miss.
type PreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPreviewCache(client *redis.Client, ttl time.Duration) *PreviewCache {
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	return &PreviewCache{client: client, ttl: ttl}
}

// PreviewKey identifies one rendering of a project. The updatedAt
// component makes any committed change produce a fresh key.
func PreviewKey(projectID uuid.UUID, locale string, updatedAt time.Time) string {
	return fmt.Sprintf("%s:%s:%d", projectID, locale, updatedAt.UnixMicro())
}

func (c *PreviewCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, previewKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("preview cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("preview cache hit", "key", key)
	return val, true
}

func (c *PreviewCache) Set(ctx context.Context, key string, html []byte) {
	if err := c.client.Set(ctx, previewKeyPrefix+key, html, c.ttl).Err(); err != nil {
		slog.Warn("preview cache set error", "key", key, "error", err)
	}
}

// InvalidateProject drops every cached locale and revision of a project.
func (c *PreviewCache) InvalidateProject(ctx context.Context, projectID uuid.UUID) {
	n := c.deleteMatching(ctx, previewKeyPrefix+projectID.String()+":*")
	slog.Debug("preview cache invalidated", "project_id", projectID, "deleted", n)
}

// InvalidateAll clears the whole preview namespace. Called at startup
// when seeding added templates.
func (c *PreviewCache) InvalidateAll(ctx context.Context) {
	if n := c.deleteMatching(ctx, previewKeyPrefix+"*"); n > 0 {
		slog.Info("preview cache cleared", "deleted", n)
	}
}

const deleteBatch = 100

// deleteMatching collects every key matching pattern before deleting any,
// since deleting mid-SCAN can move the cursor past live keys.
func (c *PreviewCache) deleteMatching(ctx context.Context, pattern string) int {
	var (
		cursor uint64
		keys   []string
	)
	for {
		page, next, err := c.client.Scan(ctx, cursor, pattern, deleteBatch).Result()
		if err != nil {
			slog.Warn("preview cache scan error", "pattern", pattern, "error", err)
			return 0
		}
		keys = append(keys, page...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	deleted := 0
	for start := 0; start < len(keys); start += deleteBatch {
		end := min(start+deleteBatch, len(keys))
		n, err := c.client.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			slog.Warn("preview cache delete error", "error", err)
			continue
		}
		deleted += int(n)
	}
	return deleted
}
