package outbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer owns one writer per sync topic. The topic set is fixed by
// the event catalog, so writers are built up front rather than lazily.
type KafkaProducer struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates writers for every catalog topic. Messages are
// keyed by user id; hash balancing keeps one user's events on one partition.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	writers := make(map[string]*kafka.Writer, len(topicCatalog))
	for _, topic := range topicCatalog {
		writers[topic] = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		}
	}
	return &KafkaProducer{writers: writers}
}

// WriteMessages writes messages to the given topic. Topics outside the event
// catalog are a wiring error, not a delivery failure to retry.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	writer, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no writer for topic %s", topic)
	}
	return writer.WriteMessages(ctx, msgs...)
}

// Close releases all writers.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
