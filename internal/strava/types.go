package strava

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"example.com/stravasync/internal/domain"
)

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    int64        `json:"expires_at"`
	Athlete      tokenAthlete `json:"athlete"`
}

type tokenAthlete struct {
	ID int64 `json:"id"`
}

type activityResponse struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SportType          string    `json:"sport_type"`
	Distance           float64   `json:"distance"`
	MovingTime         int       `json:"moving_time"`
	ElapsedTime        int       `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	AverageHeartrate   *float64  `json:"average_heartrate"`
	StartDate          time.Time `json:"start_date"`
}

func (a activityResponse) toDomain() domain.ProviderActivity {
	return domain.ProviderActivity{
		ID:                 a.ID,
		Name:               a.Name,
		SportType:          a.SportType,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		AverageHeartrate:   a.AverageHeartrate,
		StartDate:          a.StartDate,
	}
}

type errorBody struct {
	Message string       `json:"message"`
	Errors  []errorField `json:"errors"`
}

type errorField struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Code     string `json:"code"`
}

// normalizeErrorBody collapses the provider's structured and unstructured
// error shapes into one detail string: field/code pairs when present, then
// the top-level message, then the raw body, then a fixed fallback.
func normalizeErrorBody(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.Errors) > 0 {
			parts := make([]string, 0, len(parsed.Errors))
			for _, field := range parsed.Errors {
				parts = append(parts, fmt.Sprintf("%s (%s)", field.Field, field.Code))
			}
			return strings.Join(parts, ", ")
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return "unknown error"
}
