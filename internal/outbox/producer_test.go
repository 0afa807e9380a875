package outbox

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestProducerBuildsWriterPerCatalogTopic(t *testing.T) {
	producer := NewKafkaProducer([]string{"localhost:9092"})
	defer producer.Close()

	require.Len(t, producer.writers, len(topicCatalog))
	for _, topic := range topicCatalog {
		require.Contains(t, producer.writers, topic)
		require.Equal(t, topic, producer.writers[topic].Topic)
	}
}

func TestProducerRejectsUnknownTopic(t *testing.T) {
	producer := NewKafkaProducer([]string{"localhost:9092"})
	defer producer.Close()

	err := producer.WriteMessages(context.Background(), "not_in_catalog", kafka.Message{Value: []byte(`{}`)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not_in_catalog")
}

func TestProducerCloseReleasesWriters(t *testing.T) {
	producer := NewKafkaProducer([]string{"localhost:9092"})

	require.NoError(t, producer.Close())
	require.Empty(t, producer.writers)

	// Closing twice is safe.
	require.NoError(t, producer.Close())
}
