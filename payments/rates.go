package payments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

var centsPerDollar = decimal.NewFromInt(100)

// RatesCache is the generic get/set cache collaborator.
type RatesCache interface {
	CacheGet(ctx context.Context, key string) (string, bool)
	CacheSet(ctx context.Context, key, value string, ttl time.Duration)
}

// RatesSnapshot is the client facing rates payload.
type RatesSnapshot struct {
	USDRate    decimal.Decimal `json:"usdRate"`
	TokensRate decimal.Decimal `json:"tokensRate"`
	Min        int64           `json:"min"`
	Max        int64           `json:"max"`
	Priority   decimal.Decimal `json:"priority"`
}

// Rates exposes the USD-per-impression and token conversion rates.
type Rates struct {
	usdRate        decimal.Decimal
	tokenRate      decimal.Decimal
	minUSDCharge   decimal.Decimal
	priorityRate   decimal.Decimal
	minImpressions int64
	maxImpressions int64

	cache    RatesCache
	cacheKey string
	cacheTTL time.Duration
}

func NewRates(usdRate, tokenRate, minUSDCharge, priorityRate decimal.Decimal, minImpressions, maxImpressions int64, cache RatesCache, cacheKey string, cacheTTL time.Duration) *Rates {
	return &Rates{
		usdRate:        usdRate,
		tokenRate:      tokenRate,
		minUSDCharge:   minUSDCharge,
		priorityRate:   priorityRate,
		minImpressions: minImpressions,
		maxImpressions: maxImpressions,
		cache:          cache,
		cacheKey:       cacheKey,
		cacheTTL:       cacheTTL,
	}
}

// USDRate is impressions per dollar.
func (r *Rates) USDRate() decimal.Decimal { return r.usdRate }

// TokenRate is impressions per token.
func (r *Rates) TokenRate() decimal.Decimal { return r.tokenRate }

func (r *Rates) MinUSDCharge() decimal.Decimal { return r.minUSDCharge }

func (r *Rates) PriorityRate() decimal.Decimal { return r.priorityRate }

func (r *Rates) MinImpressions() int64 { return r.minImpressions }

func (r *Rates) MaxImpressions() int64 { return r.maxImpressions }

func (r *Rates) Snapshot(ctx context.Context) RatesSnapshot {
	if r.cache != nil {
		if cached, ok := r.cache.CacheGet(ctx, r.cacheKey); ok {
			var snap RatesSnapshot
			if err := json.Unmarshal([]byte(cached), &snap); err == nil {
				return snap
			}
		}
	}

	snap := RatesSnapshot{
		USDRate:    r.usdRate,
		TokensRate: r.tokenRate,
		Min:        r.minImpressions,
		Max:        r.maxImpressions,
		Priority:   r.priorityRate,
	}

	if r.cache != nil {
		if body, err := json.Marshal(snap); err == nil {
			r.cache.CacheSet(ctx, r.cacheKey, string(body), r.cacheTTL)
		}
	}

	return snap
}
