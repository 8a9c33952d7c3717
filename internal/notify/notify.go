package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/biokb/biokb-obo/internal/config"
	"github.com/biokb/biokb-obo/internal/models"
	"go.uber.org/zap"
)

// 导入事件状态
const (
	StatusImported = "imported"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// ImportEvent 单个本体导入完成后发布的事件
type ImportEvent struct {
	RunID     string        `json:"run_id"`
	Ontology  string        `json:"ontology"`
	Status    string        `json:"status"`
	Version   string        `json:"version,omitempty"`
	Counts    models.Counts `json:"counts"`
	Error     string        `json:"error,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// NewImportEvent 创建事件，时间戳为当前时间
func NewImportEvent(runID, ontology, status string, counts models.Counts) ImportEvent {
	return ImportEvent{
		RunID:     runID,
		Ontology:  ontology,
		Status:    status,
		Counts:    counts,
		Timestamp: time.Now().Unix(),
	}
}

// Publisher 导入事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event ImportEvent) error
	Close() error
}

// Nop 不发布任何事件
type Nop struct{}

func (Nop) Publish(context.Context, ImportEvent) error { return nil }
func (Nop) Close() error                               { return nil }

// New 根据配置创建发布器
func New(cfg *config.Config, logger *zap.Logger) (Publisher, error) {
	switch cfg.Notify.Backend {
	case "", "none":
		return Nop{}, nil
	case "redis":
		return NewRedisStreamPublisher(&cfg.Notify.Redis, cfg.Notify.Stream, logger), nil
	case "mqtt":
		return NewMQTTPublisher(&cfg.Notify.MQTT, cfg.Notify.Topic, logger)
	default:
		return nil, fmt.Errorf("unknown notify backend: %s", cfg.Notify.Backend)
	}
}
