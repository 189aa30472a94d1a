package dao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const notifyChannel = "boost:events"

var ratesKey = "boost_rates"

func BuildRatesKey() string {
	return ratesKey
}

func (d *Dao) CacheGet(ctx context.Context, key string) (string, bool) {
	val, err := d.rds.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Warnf("cache get %s failed: %v", key, err)
		return "", false
	}
	return val, true
}

func (d *Dao) CacheSet(ctx context.Context, key, value string, ttl time.Duration) {
	if err := d.rds.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Warnf("cache set %s failed: %v", key, err)
	}
}

// Notify publishes a fire and forget event for downstream consumers
// (notification fan out, websockets). Failures are logged, never returned.
func (d *Dao) Notify(ctx context.Context, event string, payload interface{}) {
	body, err := json.Marshal(map[string]interface{}{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		log.Warnf("notify marshal failed: %v", err)
		return
	}

	if err := d.rds.Publish(ctx, notifyChannel, body).Err(); err != nil {
		log.Warnf("notify publish failed: %v", err)
	}
}
