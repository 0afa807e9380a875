package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestDeliverGroupsByTopic(t *testing.T) {
	writer := &stubWriter{}
	d := &Dispatcher{producer: writer}

	messages := []Message{
		{EventID: 1, EventType: EventActivitySynced, Topic: "strava_sync_events", PartitionKey: "user-1", Payload: []byte(`{"activity_id":101}`)},
		{EventID: 2, EventType: EventActivitySynced, Topic: "strava_sync_events", PartitionKey: "user-1", Payload: []byte(`{"activity_id":102}`)},
		{EventID: 3, EventType: EventAthleteLinked, Topic: "strava_link_events", PartitionKey: "user-2", Payload: []byte(`{"athlete_id":42}`)},
	}

	require.NoError(t, d.deliver(context.Background(), messages))

	require.Len(t, writer.byTopic["strava_sync_events"], 2)
	require.Len(t, writer.byTopic["strava_link_events"], 1)

	record := writer.byTopic["strava_sync_events"][0]
	require.Equal(t, "user-1", string(record.Key))
	require.JSONEq(t, `{"activity_id":101}`, string(record.Value))
	require.Len(t, record.Headers, 1)
	require.Equal(t, "event_type", record.Headers[0].Key)
	require.Equal(t, EventActivitySynced, string(record.Headers[0].Value))
}

func TestDeliverStopsOnWriterError(t *testing.T) {
	writer := &stubWriter{err: errors.New("broker unreachable")}
	d := &Dispatcher{producer: writer}

	err := d.deliver(context.Background(), []Message{
		{EventID: 1, EventType: EventActivitySynced, Topic: "strava_sync_events", Payload: []byte(`{}`)},
	})
	require.Error(t, err)
}

func TestTopicFor(t *testing.T) {
	topic, ok := TopicFor(EventActivitySynced)
	require.True(t, ok)
	require.Equal(t, "strava_sync_events", topic)

	_, ok = TopicFor("unknown.event")
	require.False(t, ok)
}

type stubWriter struct {
	byTopic map[string][]kafka.Message
	err     error
}

func (s *stubWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	if s.byTopic == nil {
		s.byTopic = make(map[string][]kafka.Message)
	}
	s.byTopic[topic] = append(s.byTopic[topic], msgs...)
	return nil
}
