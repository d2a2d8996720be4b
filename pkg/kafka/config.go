// Package kafka carries reindex events between processes through a
// Kafka/Redpanda topic. Records are keyed by artifact ID so one artifact's
// events stay ordered within a partition.
package kafka

import (
	"os"
	"strings"
)

// Config holds broker and topic settings for the reindex event stream.
type Config struct {
	// Enabled routes reindex events through Kafka instead of the
	// in-process orchestrator.
	Enabled bool `yaml:"enabled"`

	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// Defaults used when neither environment nor config file provide a value.
const (
	DefaultBroker        = "localhost:19092"
	DefaultTopic         = "loupe.reindex-events"
	DefaultConsumerGroup = "loupe-reindex-workers"
)

// GetBrokers returns the broker addresses: environment first, then config,
// then default.
func (c *Config) GetBrokers() []string {
	if brokers := os.Getenv("LOUPE_KAFKA_BROKERS"); brokers != "" {
		return strings.Split(brokers, ",")
	}
	if c != nil && len(c.Brokers) > 0 {
		return c.Brokers
	}
	return []string{DefaultBroker}
}

// GetTopic returns the reindex event topic name.
func (c *Config) GetTopic() string {
	if topic := os.Getenv("LOUPE_REINDEX_TOPIC"); topic != "" {
		return topic
	}
	if c != nil && c.Topic != "" {
		return c.Topic
	}
	return DefaultTopic
}

// GetConsumerGroup returns the consumer group for reindex workers.
func (c *Config) GetConsumerGroup() string {
	if group := os.Getenv("LOUPE_CONSUMER_GROUP"); group != "" {
		return group
	}
	if c != nil && c.ConsumerGroup != "" {
		return c.ConsumerGroup
	}
	return DefaultConsumerGroup
}
