// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"live-reporter-go/internal/config"
	"live-reporter-go/pkg/log"
	"live-reporter-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// TaskProcessor defines the interface for any service that can process a
// submission task. This decouples the consumer from the concrete pipeline.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.SessionProcessingTask) error
}

// maxAttempts 是单个任务因基础设施错误被重投的上限。
const maxAttempts = 3

// Producer 封装 Kafka 生产者，作为可注入的能力对象传给上传服务。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// PublishSessionTask 发送一个场次处理任务到 Kafka。
func (p *Producer) PublishSessionTask(ctx context.Context, task tasks.SessionProcessingTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{Value: taskBytes})
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer 启动一个 Kafka 消费者来处理场次任务。
// 记录级失败（开播时间缺失、OCR 失败等）由管道落库为 failed 并返回 nil，
// 这里只会看到基础设施错误；用 Redis 计数失败次数，达到上限后提交
// offset 终止重投。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, rdb *redis.Client, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(cfg.Brokers, ","),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 50e6, // 50MB，任务里带原始截图字节
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.SessionProcessingTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v", err)
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infof("开始处理场次任务: SessionID=%d, LiveDate=%s, Images=%d", task.SessionID, task.LiveDate, len(task.Images))
		if err := processor.Process(ctx, task); err != nil {
			log.Errorf("处理场次任务失败: SessionID=%d, Error: %v", task.SessionID, err)
			attempts, incErr := RecordFailure(ctx, rdb, attemptsKey(task.SessionID))
			if incErr != nil {
				// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
				continue
			}
			if attempts >= maxAttempts {
				log.Errorf("场次任务多次失败(>=%d)，提交 offset 终止重试: SessionID=%d", maxAttempts, task.SessionID)
				if err := r.CommitMessages(ctx, m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
		} else {
			log.Infof("场次任务处理完成: SessionID=%d", task.SessionID)
			_ = rdb.Del(ctx, attemptsKey(task.SessionID)).Err()
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

// RecordFailure 自增任务的失败计数并续期，返回当前次数。
func RecordFailure(ctx context.Context, rdb *redis.Client, key string) (int64, error) {
	attempts, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = rdb.Expire(ctx, key, 24*time.Hour).Err()
	return attempts, nil
}

func attemptsKey(sessionID uint) string {
	return fmt.Sprintf("kafka:attempts:session:%d", sessionID)
}
