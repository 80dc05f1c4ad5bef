package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestPublishAndSubscribeRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	pubsub := Subscribe(ctx, rdb)
	defer pubsub.Close()
	// 等待订阅真正建立
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	NewPublisher(rdb).PublishSessionEvent(ctx, SessionEvent{
		SessionID:     7,
		LiveDate:      "2025-06-01",
		LiveStartTime: "18:30",
		Status:        "completed",
	})

	select {
	case msg := <-pubsub.Channel():
		var event SessionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			t.Fatalf("payload not JSON: %v", err)
		}
		if event.SessionID != 7 || event.Status != "completed" || event.LiveStartTime != "18:30" {
			t.Errorf("event = %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	// Redis 不可达时发布只记日志，不 panic 也不返回错误
	NewPublisher(rdb).PublishSessionEvent(context.Background(), SessionEvent{SessionID: 1, Status: "failed"})
}
