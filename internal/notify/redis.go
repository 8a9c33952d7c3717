package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/biokb/biokb-obo/internal/config"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStreamPublisher 将导入事件写入 Redis Stream
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewRedisStreamPublisher 创建 Redis Stream 发布器
func NewRedisStreamPublisher(cfg *config.RedisConfig, stream string, logger *zap.Logger) *RedisStreamPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStreamPublisherWithClient(client, stream, logger)
}

// NewRedisStreamPublisherWithClient 使用已有客户端创建发布器
func NewRedisStreamPublisherWithClient(client *redis.Client, stream string, logger *zap.Logger) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Publish XADD 一条消息，字段：ontology, status, run_id, data(JSON), timestamp
func (p *RedisStreamPublisher) Publish(ctx context.Context, event ImportEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal import event: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"ontology":  event.Ontology,
			"status":    event.Status,
			"run_id":    event.RunID,
			"data":      string(data),
			"timestamp": strconv.FormatInt(event.Timestamp, 10),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	p.logger.Debug("Published import event",
		zap.String("stream", p.stream),
		zap.String("message_id", id),
		zap.String("ontology", event.Ontology),
	)
	return nil
}

// Close 关闭 Redis 连接
func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}
