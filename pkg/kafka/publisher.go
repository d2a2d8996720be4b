package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/loupe-search/loupe/pkg/reindex"
)

// Publisher produces reindex events to the event topic. It implements
// reindex.Publisher.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger hclog.Logger
}

// NewPublisher creates a Kafka-backed event publisher.
func NewPublisher(cfg *Config, logger hclog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.GetBrokers()...),
		kgo.DefaultProduceTopic(cfg.GetTopic()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &Publisher{
		client: client,
		topic:  cfg.GetTopic(),
		logger: logger.Named("reindex-publisher"),
	}, nil
}

// Publish produces one event, keyed by artifact ID so events for the same
// artifact land on the same partition in order.
func (p *Publisher) Publish(ctx context.Context, event reindex.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.ArtifactID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing event for artifact %s: %w", event.ArtifactID, err)
	}
	p.logger.Debug("published reindex event",
		"kind", event.Kind, "artifact", event.ArtifactID, "tenant", event.TenantID)
	return nil
}

// Close flushes and closes the producer.
func (p *Publisher) Close() {
	p.client.Close()
}
