// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	client, err := ConnectValkey(envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379"), os.Getenv("VALKEY_PASSWORD"), 15)
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)
}

func TestConnectValkeyUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err := ConnectValkey(host, port, "", 0)
	assert.Error(t, err)
}

func TestPreviewKeyChangesWithRevision(t *testing.T) {
	id := uuid.MustParse("3f0f6c1e-6b55-4a8e-9b1c-0d9c2a4e5f61")
	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Microsecond)

	assert.Equal(t, "3f0f6c1e-6b55-4a8e-9b1c-0d9c2a4e5f61:en:"+itoa(t1.UnixMicro()), PreviewKey(id, "en", t1))
	assert.NotEqual(t, PreviewKey(id, "en", t1), PreviewKey(id, "en", t2))
	assert.NotEqual(t, PreviewKey(id, "en", t1), PreviewKey(id, "ko", t1))
}

func TestPreviewCacheSetGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	pc := NewPreviewCache(client, time.Minute)
	ctx := context.Background()

	_, ok := pc.Get(ctx, "missing")
	assert.False(t, ok)

	pc.Set(ctx, "k", []byte("<html>hi</html>"))
	got, ok := pc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "<html>hi</html>", string(got))
	assert.True(t, mr.Exists("preview:k"))

	mr.FastForward(2 * time.Minute)
	_, ok = pc.Get(ctx, "k")
	assert.False(t, ok, "entry should expire after ttl")
}

func TestPreviewCacheDefaultTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	pc := NewPreviewCache(client, 0)
	pc.Set(context.Background(), "k", []byte("x"))
	assert.Equal(t, DefaultPreviewTTL, mr.TTL("preview:k"))
}

func TestPreviewCacheInvalidateProject(t *testing.T) {
	client, mr := setupTestRedis(t)
	pc := NewPreviewCache(client, time.Minute)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	now := time.Now()
	pc.Set(ctx, PreviewKey(a, "en", now), []byte("a-en"))
	pc.Set(ctx, PreviewKey(a, "ko", now), []byte("a-ko"))
	pc.Set(ctx, PreviewKey(b, "en", now), []byte("b-en"))

	pc.InvalidateProject(ctx, a)

	_, ok := pc.Get(ctx, PreviewKey(a, "en", now))
	assert.False(t, ok)
	_, ok = pc.Get(ctx, PreviewKey(a, "ko", now))
	assert.False(t, ok)
	_, ok = pc.Get(ctx, PreviewKey(b, "en", now))
	assert.True(t, ok)
	assert.Len(t, mr.Keys(), 1)
}

func TestPreviewCacheInvalidateAll(t *testing.T) {
	client, mr := setupTestRedis(t)
	pc := NewPreviewCache(client, time.Minute)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		pc.Set(ctx, PreviewKey(uuid.New(), "en", time.Now()), []byte("x"))
	}
	require.NoError(t, mr.Set("session:keep", "1"))

	pc.InvalidateAll(ctx)
	assert.Equal(t, []string{"session:keep"}, mr.Keys())
}

func TestDeleteMatchingCountsEveryBatch(t *testing.T) {
	client, mr := setupTestRedis(t)
	pc := NewPreviewCache(client, time.Minute)
	ctx := context.Background()

	id := uuid.New()
	start := time.Now()
	for i := 0; i < 3*deleteBatch+7; i++ {
		pc.Set(ctx, PreviewKey(id, "en", start.Add(time.Duration(i)*time.Microsecond)), []byte("x"))
	}
	pc.Set(ctx, PreviewKey(uuid.New(), "en", start), []byte("other"))

	n := pc.deleteMatching(ctx, previewKeyPrefix+id.String()+":*")
	assert.Equal(t, 3*deleteBatch+7, n)
	assert.Len(t, mr.Keys(), 1)
}

func TestPreviewCacheBackendDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	pc := NewPreviewCache(client, time.Minute)
	mr.Close()

	ctx := context.Background()
	pc.Set(ctx, "k", []byte("x"))
	_, ok := pc.Get(ctx, "k")
	assert.False(t, ok)
	pc.InvalidateProject(ctx, uuid.New())
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
