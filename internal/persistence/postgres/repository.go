// Package postgres provides pgx-backed persistence for credentials,
// activities and outbox events.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/stravasync/internal/domain"
	"example.com/stravasync/internal/outbox"
)

// Repository implements domain.Store on top of Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetCredential returns the stored credential for a user, or nil when the
// user has never linked.
func (r *Repository) GetCredential(ctx context.Context, userID string) (*domain.Credential, error) {
	const query = `SELECT user_id, athlete_id, access_token, refresh_token, expires_at, updated_at
        FROM strava_credentials WHERE user_id=$1`

	row := r.pool.QueryRow(ctx, query, userID)
	var cred domain.Credential
	if err := row.Scan(&cred.UserID, &cred.AthleteID, &cred.AccessToken, &cred.RefreshToken, &cred.ExpiresAt, &cred.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// UpsertCredential replaces the user's credential wholesale and records an
// athlete.linked outbox event in the same transaction.
func (r *Repository) UpsertCredential(ctx context.Context, cred domain.Credential) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO strava_credentials (user_id, athlete_id, access_token, refresh_token, expires_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_id) DO UPDATE SET
            athlete_id=EXCLUDED.athlete_id,
            access_token=EXCLUDED.access_token,
            refresh_token=EXCLUDED.refresh_token,
            expires_at=EXCLUDED.expires_at,
            updated_at=EXCLUDED.updated_at`

	_, err = tx.Exec(ctx, stmt,
		cred.UserID,
		cred.AthleteID,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
		cred.UpdatedAt,
	)
	if err != nil {
		return err
	}

	err = r.insertOutbox(ctx, tx, outbox.EventAthleteLinked, cred.UserID,
		fmt.Sprintf("%s:%s:%d", cred.UserID, outbox.EventAthleteLinked, cred.UpdatedAt.Unix()),
		outbox.AthleteLinked{
			UserID:    cred.UserID,
			AthleteID: cred.AthleteID,
			ExpiresAt: cred.ExpiresAt,
			LinkedAt:  cred.UpdatedAt,
		})
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// UpsertActivity applies an idempotent upsert keyed by the provider activity
// id and records an activity.synced outbox event in the same transaction. An
// activity is announced once; re-syncs refresh the row without re-announcing.
func (r *Repository) UpsertActivity(ctx context.Context, activity domain.Activity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO strava_activities (activity_id, user_id, name, sport_type, distance_m, moving_time_s, elapsed_time_s, elevation_gain_m, average_heartrate, start_date, avg_pace_s_per_km, source)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (activity_id) DO UPDATE SET
            user_id=EXCLUDED.user_id,
            name=EXCLUDED.name,
            sport_type=EXCLUDED.sport_type,
            distance_m=EXCLUDED.distance_m,
            moving_time_s=EXCLUDED.moving_time_s,
            elapsed_time_s=EXCLUDED.elapsed_time_s,
            elevation_gain_m=EXCLUDED.elevation_gain_m,
            average_heartrate=EXCLUDED.average_heartrate,
            start_date=EXCLUDED.start_date,
            avg_pace_s_per_km=EXCLUDED.avg_pace_s_per_km,
            source=EXCLUDED.source`

	_, err = tx.Exec(ctx, stmt,
		activity.ID,
		activity.UserID,
		activity.Name,
		activity.SportType,
		activity.DistanceM,
		activity.MovingTimeS,
		activity.ElapsedTimeS,
		activity.ElevationGainM,
		activity.AverageHeartrate,
		activity.StartDate,
		activity.AvgPaceSPerKM,
		activity.Source,
	)
	if err != nil {
		return err
	}

	err = r.insertOutbox(ctx, tx, outbox.EventActivitySynced, activity.UserID,
		fmt.Sprintf("%d:%s", activity.ID, outbox.EventActivitySynced),
		outbox.ActivitySynced{
			ActivityID: activity.ID,
			UserID:     activity.UserID,
			SportType:  activity.SportType,
			StartDate:  activity.StartDate,
			Source:     activity.Source,
		})
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, eventType, partitionKey, dedupeKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	topic, ok := outbox.TopicFor(eventType)
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt, eventType, topic, partitionKey, body, dedupeKey)
	return err
}
