// Package domain implements the token-lifecycle and sync workflows.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"example.com/stravasync/internal/observability"
)

// Store captures persistence operations for credentials and activities.
type Store interface {
	// GetCredential returns nil, nil when no credential exists for the user.
	GetCredential(ctx context.Context, userID string) (*Credential, error)
	UpsertCredential(ctx context.Context, cred Credential) error
	UpsertActivity(ctx context.Context, activity Activity) error
}

// ProviderClient is the swappable surface over the provider's token and
// activities endpoints.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, code string) (*TokenGrant, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error)
	FetchActivities(ctx context.Context, accessToken string, after time.Time, perPage int) ([]ProviderActivity, error)
}

// Service orchestrates link and sync workflows.
type Service struct {
	store    Store
	provider ProviderClient
	lookback time.Duration
	pageSize int
	now      func() time.Time
}

// NewService constructs a Service. Lookback bounds the fetch window; pageSize
// caps the single activities page requested per sync.
func NewService(store Store, provider ProviderClient, lookback time.Duration, pageSize int) *Service {
	return &Service{
		store:    store,
		provider: provider,
		lookback: lookback,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// LinkResult is returned on a successful code exchange.
type LinkResult struct {
	AthleteID int64
}

// SyncResult reports reconciliation counts for one sync request.
type SyncResult struct {
	Synced int
	Total  int
}

// Link exchanges an authorization code and stores the resulting credential.
func (s *Service) Link(ctx context.Context, userID, code string) (*LinkResult, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrInvalidInput)
	}

	grant, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpsertCredential(ctx, s.credentialFromGrant(userID, grant)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return &LinkResult{AthleteID: grant.AthleteID}, nil
}

// Sync refreshes the credential if stale, fetches the recent activity window
// and reconciles it into the store.
func (s *Service) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	cred, err := s.store.GetCredential(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if cred == nil {
		return nil, ErrNotConnected
	}

	accessToken, err := s.ensureFresh(ctx, cred)
	if err != nil {
		return nil, err
	}

	after := s.now().Add(-s.lookback)
	remote, err := s.provider.FetchActivities(ctx, accessToken, after, s.pageSize)
	if err != nil {
		return nil, err
	}

	report := s.reconcile(ctx, userID, remote)
	if report.total > 0 && report.synced == 0 {
		return nil, fmt.Errorf("%w: %s (synced %d of %d)", ErrPersistence, report.firstFailure, report.synced, report.total)
	}

	observability.RecordSyncCompleted(s.now(), report.synced, report.total-report.synced)
	return &SyncResult{Synced: report.synced, Total: report.total}, nil
}

// ensureFresh rotates the credential through the refresh grant when the
// stored expiry has passed, persisting the replacement before any fetch. A
// freshly rotated token is used immediately without a second expiry check.
func (s *Service) ensureFresh(ctx context.Context, cred *Credential) (string, error) {
	if !cred.Expired(s.now()) {
		return cred.AccessToken, nil
	}

	grant, err := s.provider.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		// A rejected refresh token will not recover on retry.
		if errors.Is(err, ErrProviderRejected) {
			return "", fmt.Errorf("%w; please re-link your strava account", err)
		}
		return "", err
	}

	rotated := s.credentialFromGrant(cred.UserID, grant)
	rotated.AthleteID = cred.AthleteID
	if grant.AthleteID != 0 {
		rotated.AthleteID = grant.AthleteID
	}
	if err := s.store.UpsertCredential(ctx, rotated); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return rotated.AccessToken, nil
}

func (s *Service) credentialFromGrant(userID string, grant *TokenGrant) Credential {
	return Credential{
		UserID:       userID,
		AthleteID:    grant.AthleteID,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    grant.ExpiresAt,
		UpdatedAt:    s.now().UTC(),
	}
}

// failureSampleCap bounds how many per-record failure messages are kept for
// logging; the counts remain exact.
const failureSampleCap = 5

// reconcileReport tallies one reconciliation pass. Partial failure is
// absorbed; only the all-records-failed case is escalated by the caller.
type reconcileReport struct {
	synced       int
	total        int
	firstFailure string
	sampled      []string
}

func (r *reconcileReport) recordFailure(msg string) {
	if r.firstFailure == "" {
		r.firstFailure = msg
	}
	if len(r.sampled) < failureSampleCap {
		r.sampled = append(r.sampled, msg)
	}
}

// reconcile upserts remote records one at a time, keyed by the provider's
// activity id. Sequential writes keep error aggregation deterministic.
func (s *Service) reconcile(ctx context.Context, userID string, remote []ProviderActivity) reconcileReport {
	report := reconcileReport{total: len(remote)}

	for _, record := range remote {
		activity := mapActivity(userID, record)
		if err := s.store.UpsertActivity(ctx, activity); err != nil {
			report.recordFailure(err.Error())
			continue
		}
		report.synced++
	}

	if len(report.sampled) > 0 {
		log.Printf("sync: %d of %d activity upserts failed for user %s: %v",
			report.total-report.synced, report.total, userID, report.sampled)
	}
	return report
}

func mapActivity(userID string, record ProviderActivity) Activity {
	return Activity{
		ID:               record.ID,
		UserID:           userID,
		Name:             record.Name,
		SportType:        record.SportType,
		DistanceM:        record.Distance,
		MovingTimeS:      record.MovingTime,
		ElapsedTimeS:     record.ElapsedTime,
		ElevationGainM:   record.TotalElevationGain,
		AverageHeartrate: record.AverageHeartrate,
		StartDate:        record.StartDate.UTC(),
		AvgPaceSPerKM:    averagePace(record.Distance, record.MovingTime),
		Source:           SourceStrava,
	}
}
