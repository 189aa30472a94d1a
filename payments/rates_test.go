package payments

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeCache struct {
	values map[string]string
	sets   int
}

func (c *fakeCache) CacheGet(ctx context.Context, key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *fakeCache) CacheSet(ctx context.Context, key, value string, ttl time.Duration) {
	c.values[key] = value
	c.sets++
}

func newRates(cache RatesCache) *Rates {
	return NewRates(
		decimal.NewFromInt(1000),
		decimal.NewFromInt(500),
		decimal.RequireFromString("1.00"),
		decimal.RequireFromString("1.0"),
		100, 5000,
		cache, "boost_rates", time.Minute,
	)
}

func TestSnapshot(t *testing.T) {
	snap := newRates(nil).Snapshot(context.Background())

	if !snap.USDRate.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected usd rate %s", snap.USDRate)
	}
	if !snap.TokensRate.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected token rate %s", snap.TokensRate)
	}
	if snap.Min != 100 || snap.Max != 5000 {
		t.Fatalf("unexpected bounds %d/%d", snap.Min, snap.Max)
	}
}

func TestSnapshotWarmsCache(t *testing.T) {
	cache := &fakeCache{values: make(map[string]string)}
	rates := newRates(cache)

	rates.Snapshot(context.Background())
	if cache.sets != 1 {
		t.Fatalf("expected 1 cache write, got %d", cache.sets)
	}

	// second call is served from the cache, no rewrite
	rates.Snapshot(context.Background())
	if cache.sets != 1 {
		t.Fatalf("cache hit must not rewrite, got %d writes", cache.sets)
	}
}

func TestSnapshotIgnoresCorruptCache(t *testing.T) {
	cache := &fakeCache{values: map[string]string{"boost_rates": "{not json"}}

	snap := newRates(cache).Snapshot(context.Background())
	if !snap.USDRate.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("corrupt cache entry must fall back to config, got %s", snap.USDRate)
	}
}
