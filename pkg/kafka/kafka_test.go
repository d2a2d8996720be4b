package kafka

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loupe-search/loupe/pkg/reindex"
)

func TestConfig_EnvOverridesFileOverridesDefault(t *testing.T) {
	cfg := &Config{
		Brokers:       []string{"filehost:9092"},
		Topic:         "file.topic",
		ConsumerGroup: "file-group",
	}

	assert.Equal(t, []string{"filehost:9092"}, cfg.GetBrokers())
	assert.Equal(t, "file.topic", cfg.GetTopic())
	assert.Equal(t, "file-group", cfg.GetConsumerGroup())

	t.Setenv("LOUPE_KAFKA_BROKERS", "envhost1:9092,envhost2:9092")
	t.Setenv("LOUPE_REINDEX_TOPIC", "env.topic")
	t.Setenv("LOUPE_CONSUMER_GROUP", "env-group")

	assert.Equal(t, []string{"envhost1:9092", "envhost2:9092"}, cfg.GetBrokers())
	assert.Equal(t, "env.topic", cfg.GetTopic())
	assert.Equal(t, "env-group", cfg.GetConsumerGroup())
}

func TestConfig_Defaults(t *testing.T) {
	var cfg *Config
	assert.Equal(t, []string{DefaultBroker}, cfg.GetBrokers())
	assert.Equal(t, DefaultTopic, cfg.GetTopic())
	assert.Equal(t, DefaultConsumerGroup, cfg.GetConsumerGroup())
}

type recordingHandler struct {
	mu     sync.Mutex
	events []reindex.Event
}

func (h *recordingHandler) Enqueue(event reindex.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

// TestPublishConsume_Broker exercises the full produce/consume round trip
// against a real broker.
func TestPublishConsume_Broker(t *testing.T) {
	brokers := os.Getenv("LOUPE_TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("LOUPE_TEST_KAFKA_BROKERS not set, skipping broker test")
	}
	t.Setenv("LOUPE_KAFKA_BROKERS", brokers)

	cfg := &Config{Topic: "loupe.reindex-events.test"}
	publisher, err := NewPublisher(cfg, nil)
	require.NoError(t, err)
	defer publisher.Close()

	handler := &recordingHandler{}
	consumer, err := NewConsumer(ConsumerConfig{
		Kafka:            cfg,
		Handler:          handler,
		ConsumeFromStart: true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go func() {
		_ = consumer.Start(ctx)
	}()
	defer consumer.Stop()

	event := reindex.Event{
		Kind:       reindex.EventUpdated,
		ArtifactID: "11111111-1111-1111-1111-111111111111",
		TenantID:   "tenant-kafka-test",
	}
	require.NoError(t, publisher.Publish(ctx, event))

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		for _, e := range handler.events {
			if e.ArtifactID == event.ArtifactID && e.Kind == event.Kind {
				return true
			}
		}
		return false
	}, 20*time.Second, 500*time.Millisecond)
}
