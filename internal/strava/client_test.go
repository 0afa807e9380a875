package strava

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/stravasync/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     server.URL + "/oauth/token",
		APIBaseURL:   server.URL + "/api/v3",
	}, server.Client())
	return client, server
}

func TestExchangeCodeSuccess(t *testing.T) {
	var form map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_at":1730000000,"athlete":{"id":42}}`))
	})

	grant, err := client.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, "at", grant.AccessToken)
	require.Equal(t, "rt", grant.RefreshToken)
	require.EqualValues(t, 42, grant.AthleteID)
	require.Equal(t, time.Unix(1730000000, 0).UTC(), grant.ExpiresAt)

	require.Equal(t, []string{"the-code"}, form["code"])
	require.Equal(t, []string{"authorization_code"}, form["grant_type"])
	require.Equal(t, []string{"client-id"}, form["client_id"])
}

func TestRefreshTokenSendsRefreshGrant(t *testing.T) {
	var form map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at2","refresh_token":"rt2","expires_at":1730003600}`))
	})

	grant, err := client.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	require.Equal(t, "at2", grant.AccessToken)
	require.Equal(t, []string{"old-refresh"}, form["refresh_token"])
	require.Equal(t, []string{"refresh_token"}, form["grant_type"])
}

func TestExchangeCodeStructuredRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Bad Request","errors":[{"resource":"AuthorizationCode","field":"code","code":"invalid"},{"resource":"Application","field":"client_id","code":"missing"}]}`))
	})

	_, err := client.ExchangeCode(context.Background(), "bad")
	require.ErrorIs(t, err, domain.ErrProviderRejected)
	require.Contains(t, err.Error(), "code (invalid)")
	require.Contains(t, err.Error(), "client_id (missing)")
}

func TestExchangeCodeMessageFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authorization Error"}`))
	})

	_, err := client.ExchangeCode(context.Background(), "bad")
	require.ErrorIs(t, err, domain.ErrProviderRejected)
	require.Contains(t, err.Error(), "Authorization Error")
}

func TestExchangeCodeRawBodyFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream proxy error"))
	})

	_, err := client.ExchangeCode(context.Background(), "bad")
	require.ErrorIs(t, err, domain.ErrProviderRejected)
	require.Contains(t, err.Error(), "upstream proxy error")
}

func TestExchangeCodeEmptyBodyFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.ExchangeCode(context.Background(), "bad")
	require.ErrorIs(t, err, domain.ErrProviderRejected)
	require.Contains(t, err.Error(), "unknown error")
}

func TestFetchActivitiesSuccess(t *testing.T) {
	var gotAuth, gotAfter, gotPerPage string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAfter = r.URL.Query().Get("after")
		gotPerPage = r.URL.Query().Get("per_page")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":101,"name":"Morning Run","sport_type":"Run","distance":5000,"moving_time":1500,"elapsed_time":1600,"total_elevation_gain":42.5,"average_heartrate":151.2,"start_date":"2025-10-27T06:00:00Z"}]`))
	})

	after := time.Unix(1722000000, 0)
	activities, err := client.FetchActivities(context.Background(), "access-token", after, 100)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.EqualValues(t, 101, activities[0].ID)
	require.Equal(t, "Run", activities[0].SportType)
	require.NotNil(t, activities[0].AverageHeartrate)
	require.InDelta(t, 151.2, *activities[0].AverageHeartrate, 0.001)

	require.Equal(t, "Bearer access-token", gotAuth)
	require.Equal(t, "1722000000", gotAfter)
	require.Equal(t, "100", gotPerPage)
}

func TestFetchActivitiesUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"Service Unavailable"}`))
	})

	_, err := client.FetchActivities(context.Background(), "t", time.Now(), 100)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	require.Contains(t, err.Error(), "Service Unavailable")
	require.Contains(t, err.Error(), "status 503")
}

func TestFetchActivitiesContractViolation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fault":"object instead of list"}`))
	})

	_, err := client.FetchActivities(context.Background(), "t", time.Now(), 100)
	require.ErrorIs(t, err, domain.ErrProviderContract)
}

func TestNormalizeErrorBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"structured", `{"errors":[{"field":"refresh_token","code":"invalid"}]}`, "refresh_token (invalid)"},
		{"message", `{"message":"Rate Limit Exceeded"}`, "Rate Limit Exceeded"},
		{"raw", "plain text error", "plain text error"},
		{"empty", "", "unknown error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, normalizeErrorBody([]byte(tc.body)))
		})
	}
}
