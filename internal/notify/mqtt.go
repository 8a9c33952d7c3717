package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/biokb/biokb-obo/internal/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTPublisher 将导入事件发布到 MQTT 主题 <topic>/<ontology>
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger *zap.Logger
}

// NewMQTTPublisher 连接 MQTT Broker 并创建发布器
func NewMQTTPublisher(cfg *config.MQTTConfig, topic string, logger *zap.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
	return newMQTTPublisher(client, topic, cfg.QoS, logger), nil
}

func newMQTTPublisher(client mqtt.Client, topic string, qos byte, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		topic:  strings.TrimSuffix(topic, "/"),
		qos:    qos,
		logger: logger,
	}
}

// Topic 返回某个本体的事件主题
func (p *MQTTPublisher) Topic(ontology string) string {
	return p.topic + "/" + ontology
}

// Publish 发布 JSON 事件
func (p *MQTTPublisher) Publish(ctx context.Context, event ImportEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal import event: %w", err)
	}

	topic := p.Topic(event.Ontology)
	token := p.client.Publish(topic, p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	p.logger.Debug("Published import event", zap.String("topic", topic))
	return nil
}

// Close 断开连接
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
