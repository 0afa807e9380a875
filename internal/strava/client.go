// Package strava implements the HTTP client for the provider's token and
// activities endpoints.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"example.com/stravasync/internal/domain"
	"example.com/stravasync/internal/observability"
)

// Config carries the server-held application credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBaseURL   string
}

// Client talks to the Strava API. It implements domain.ProviderClient.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient constructs a Client. A nil httpClient falls back to a default
// with a conservative timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// ExchangeCode converts an authorization code into a token grant.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*domain.TokenGrant, error) {
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	return c.requestGrant(ctx, form)
}

// RefreshToken rotates an expired credential through the refresh grant.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	grant, err := c.requestGrant(ctx, form)
	if err != nil {
		return nil, err
	}
	observability.RecordCredentialRefresh()
	return grant, nil
}

func (c *Client) requestGrant(ctx context.Context, form url.Values) (*domain.TokenGrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderRejected, normalizeErrorBody(body))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderContract, err)
	}
	if parsed.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", domain.ErrProviderContract)
	}

	return &domain.TokenGrant{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresAt:    time.Unix(parsed.ExpiresAt, 0).UTC(),
		AthleteID:    parsed.Athlete.ID,
	}, nil
}

// FetchActivities requests a single page of activities started after the
// given instant. Records beyond perPage inside the window are not retrieved;
// there is no pagination loop.
func (c *Client) FetchActivities(ctx context.Context, accessToken string, after time.Time, perPage int) ([]domain.ProviderActivity, error) {
	endpoint := fmt.Sprintf("%s/athlete/activities", strings.TrimRight(c.cfg.APIBaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	query := req.URL.Query()
	query.Set("after", strconv.FormatInt(after.Unix(), 10))
	query.Set("per_page", strconv.Itoa(perPage))
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s (status %d)", domain.ErrProviderUnavailable, normalizeErrorBody(body), resp.StatusCode)
	}

	var records []activityResponse
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: expected activity list, got: %v", domain.ErrProviderContract, err)
	}

	out := make([]domain.ProviderActivity, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
