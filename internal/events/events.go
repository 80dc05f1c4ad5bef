// Package events 通过 Redis 发布/订阅把场次状态变更从 worker 推到 API 进程。
package events

import (
	"context"
	"encoding/json"

	"live-reporter-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// Channel 是场次状态事件使用的 Redis 频道。
const Channel = "live_session_events"

// StatusDiscarded 只出现在状态事件里，不落库：
// 重复提交的占位记录被删除，订阅方据此结束等待。
const StatusDiscarded = "discarded"

// SessionEvent 描述一次状态变更，worker 在每次状态迁移后发布。
type SessionEvent struct {
	SessionID     uint   `json:"sessionId"`
	LiveDate      string `json:"liveDate"`
	LiveStartTime string `json:"liveStartTime,omitempty"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// Publisher 把状态事件广播出去。管道持有该接口，测试中可替换为空实现。
type Publisher interface {
	PublishSessionEvent(ctx context.Context, event SessionEvent)
}

// redisPublisher 是 Publisher 的 Redis 实现。
type redisPublisher struct {
	rdb *redis.Client
}

// NewPublisher 创建一个基于 Redis 的事件发布器。
func NewPublisher(rdb *redis.Client) Publisher {
	return &redisPublisher{rdb: rdb}
}

// PublishSessionEvent 发布一条状态事件。发布失败只记日志，
// 不影响管道本身的处理结果。
func (p *redisPublisher) PublishSessionEvent(ctx context.Context, event SessionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("[Events] 序列化状态事件失败: %v", err)
		return
	}
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		log.Errorf("[Events] 发布状态事件失败: %v", err)
	}
}

// Subscribe 订阅状态事件频道，返回底层 PubSub，由调用方负责关闭。
func Subscribe(ctx context.Context, rdb *redis.Client) *redis.PubSub {
	return rdb.Subscribe(ctx, Channel)
}
