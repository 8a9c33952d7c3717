package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/biokb/biokb-obo/internal/config"
	"github.com/biokb/biokb-obo/internal/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisStreamPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := NewRedisStreamPublisherWithClient(client, "obo:import:stream", zap.NewNop())
	defer p.Close()

	ctx := context.Background()
	event := NewImportEvent("run-1", "doid", StatusImported, models.Counts{Terms: 2, Synonyms: 1})
	require.NoError(t, p.Publish(ctx, event))

	msgs, err := client.XRange(ctx, "obo:import:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "doid", values["ontology"])
	assert.Equal(t, StatusImported, values["status"])
	assert.Equal(t, "run-1", values["run_id"])

	var decoded ImportEvent
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &decoded))
	assert.Equal(t, 2, decoded.Counts.Terms)
	assert.Equal(t, 1, decoded.Counts.Synonyms)
}

func TestRedisStreamPublisher_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	p := NewRedisStreamPublisherWithClient(client, "s", zap.NewNop())
	mr.Close()

	err := p.Publish(context.Background(), NewImportEvent("r", "doid", StatusImported, models.Counts{}))
	assert.Error(t, err)
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMQTTClient struct {
	mqtt.Client
	topics   []string
	payloads [][]byte
	qos      []byte
}

func (c *fakeMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	c.qos = append(c.qos, qos)
	return newFakeToken(nil)
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeMQTTClient{}
	p := newMQTTPublisher(client, "biokb/obo/import/", 1, zap.NewNop())

	event := NewImportEvent("run-1", "hp", StatusSkipped, models.Counts{})
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, client.topics, 1)
	assert.Equal(t, "biokb/obo/import/hp", client.topics[0])
	assert.Equal(t, byte(1), client.qos[0])

	var decoded ImportEvent
	require.NoError(t, json.Unmarshal(client.payloads[0], &decoded))
	assert.Equal(t, "hp", decoded.Ontology)
	assert.Equal(t, StatusSkipped, decoded.Status)
}

func TestNew_Backends(t *testing.T) {
	cfg := &config.Config{}

	cfg.Notify.Backend = "none"
	p, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)

	mr := miniredis.RunT(t)
	cfg.Notify.Backend = "redis"
	cfg.Notify.Redis.Addr = mr.Addr()
	cfg.Notify.Stream = "s"
	p, err = New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &RedisStreamPublisher{}, p)
	p.Close()

	cfg.Notify.Backend = "kafka"
	_, err = New(cfg, zap.NewNop())
	assert.Error(t, err)
}
