package outbox

import "time"

// Event types recorded by the persistence layer.
const (
	EventAthleteLinked  = "athlete.linked"
	EventActivitySynced = "activity.synced"
)

// AthleteLinked is emitted when a credential is created or rotated.
type AthleteLinked struct {
	UserID    string    `json:"user_id"`
	AthleteID int64     `json:"athlete_id"`
	ExpiresAt time.Time `json:"expires_at"`
	LinkedAt  time.Time `json:"linked_at"`
}

// ActivitySynced is emitted the first time an activity is reconciled.
type ActivitySynced struct {
	ActivityID int64     `json:"activity_id"`
	UserID     string    `json:"user_id"`
	SportType  string    `json:"sport_type"`
	StartDate  time.Time `json:"start_date"`
	Source     string    `json:"source"`
}

var topicCatalog = map[string]string{
	EventAthleteLinked:  "strava_link_events",
	EventActivitySynced: "strava_sync_events",
}

// TopicFor resolves the Kafka topic for an event type.
func TopicFor(eventType string) (string, bool) {
	topic, ok := topicCatalog[eventType]
	return topic, ok
}
