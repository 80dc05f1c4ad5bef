package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestRecordFailureCounts(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()
	key := attemptsKey(42)

	for want := int64(1); want <= maxAttempts; want++ {
		got, err := RecordFailure(ctx, rdb, key)
		if err != nil {
			t.Fatalf("RecordFailure returned error: %v", err)
		}
		if got != want {
			t.Errorf("attempt %d: count = %d", want, got)
		}
	}

	// 计数带过期时间，不会永久残留
	ttl := mr.TTL(key)
	if ttl <= 0 || ttl > 24*time.Hour {
		t.Errorf("ttl = %v, want within 24h", ttl)
	}
}

func TestAttemptsKeyIsPerSession(t *testing.T) {
	if attemptsKey(1) == attemptsKey(2) {
		t.Error("different sessions must not share a failure counter")
	}
	if attemptsKey(7) != "kafka:attempts:session:7" {
		t.Errorf("key layout changed: %s", attemptsKey(7))
	}
}
