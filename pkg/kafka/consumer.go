package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/loupe-search/loupe/pkg/reindex"
)

// Handler receives decoded events from the consumer. The reindex
// orchestrator satisfies this.
type Handler interface {
	Enqueue(event reindex.Event) error
}

// Consumer reads reindex events from the topic in a consumer group and
// hands them to the handler, committing offsets after successful enqueue.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  hclog.Logger
	stopCh  chan struct{}
}

// ConsumerConfig holds consumer settings.
type ConsumerConfig struct {
	Kafka   *Config
	Handler Handler

	// ConsumeFromStart reads the topic from the beginning instead of the
	// latest offset. Useful in tests.
	ConsumeFromStart bool

	Logger hclog.Logger
}

// NewConsumer creates the reindex event consumer.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	offset := kgo.NewOffset().AtEnd()
	if cfg.ConsumeFromStart {
		offset = kgo.NewOffset().AtStart()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Kafka.GetBrokers()...),
		kgo.ConsumerGroup(cfg.Kafka.GetConsumerGroup()),
		kgo.ConsumeTopics(cfg.Kafka.GetTopic()),

		kgo.ConsumeResetOffset(offset),
		kgo.SessionTimeout(10*time.Second),
		kgo.RebalanceTimeout(30*time.Second),

		// Offsets are committed manually after a successful enqueue.
		kgo.DisableAutoCommit(),

		kgo.FetchMaxWait(500*time.Millisecond),
		kgo.FetchMinBytes(1),
		kgo.FetchMaxBytes(5<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}

	return &Consumer{
		client:  client,
		handler: cfg.Handler,
		logger:  logger.Named("reindex-consumer"),
		stopCh:  make(chan struct{}),
	}, nil
}

// Start runs the polling loop until the context is cancelled or Stop is
// called.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting reindex consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("reindex consumer stopped by context")
			return ctx.Err()

		case <-c.stopCh:
			c.logger.Info("reindex consumer stopped")
			return nil

		default:
			fetches := c.client.PollFetches(ctx)

			if errs := fetches.Errors(); len(errs) > 0 {
				for _, err := range errs {
					c.logger.Error("kafka fetch error", "error", err.Err)
				}
				continue
			}

			fetches.EachPartition(func(p kgo.FetchTopicPartition) {
				for _, record := range p.Records {
					if err := c.processRecord(record); err != nil {
						c.logger.Error("failed to process record",
							"partition", record.Partition,
							"offset", record.Offset,
							"error", err)
						continue
					}

					if err := c.client.CommitRecords(ctx, record); err != nil {
						c.logger.Warn("failed to commit offset",
							"partition", record.Partition,
							"offset", record.Offset,
							"error", err)
					}
				}
			})
		}
	}
}

// Stop gracefully stops the consumer.
func (c *Consumer) Stop() {
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
		c.client.Close()
	}
}

func (c *Consumer) processRecord(record *kgo.Record) error {
	var event reindex.Event
	if err := json.Unmarshal(record.Value, &event); err != nil {
		return fmt.Errorf("unmarshaling event: %w", err)
	}
	c.logger.Debug("consuming reindex event",
		"kind", event.Kind, "artifact", event.ArtifactID, "tenant", event.TenantID)
	return c.handler.Enqueue(event)
}
