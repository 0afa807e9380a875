package domain

import "time"

// SourceStrava tags rows reconciled from the Strava API.
const SourceStrava = "strava"

// Credential is the stored access/refresh token pair for a user's Strava link.
// At most one live credential exists per user; every successful exchange or
// refresh replaces it wholesale.
type Credential struct {
	UserID       string
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token is stale at the given instant,
// compared at seconds resolution.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt.Unix() <= now.Unix()
}

// Activity is the canonical synced workout record. The provider-assigned id
// is the natural key; re-syncing the same id overwrites all fields.
type Activity struct {
	ID               int64
	UserID           string
	Name             string
	SportType        string
	DistanceM        float64
	MovingTimeS      int
	ElapsedTimeS     int
	ElevationGainM   float64
	AverageHeartrate *float64
	StartDate        time.Time
	AvgPaceSPerKM    *float64
	Source           string
}

// TokenGrant is the provider's response to a code exchange or refresh grant.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AthleteID    int64
}

// ProviderActivity is one remote activity record as returned by the provider.
type ProviderActivity struct {
	ID                 int64
	Name               string
	SportType          string
	Distance           float64
	MovingTime         int
	ElapsedTime        int
	TotalElevationGain float64
	AverageHeartrate   *float64
	StartDate          time.Time
}

// averagePace derives seconds-per-kilometre pace, nil when distance is zero.
func averagePace(distanceM float64, movingTimeS int) *float64 {
	if distanceM <= 0 {
		return nil
	}
	pace := float64(movingTimeS) / (distanceM / 1000)
	return &pace
}
