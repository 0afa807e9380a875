package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "strava_sync",
		Subsystem: "reconcile",
		Name:      "last_sync_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed sync request.",
	})
	activitiesSyncedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "strava_sync",
		Subsystem: "reconcile",
		Name:      "activities_synced_total",
		Help:      "Number of activity upserts applied across all sync requests.",
	})
	activitiesFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "strava_sync",
		Subsystem: "reconcile",
		Name:      "activities_failed_total",
		Help:      "Number of activity upserts that failed and were absorbed.",
	})
	credentialRefreshCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "strava_sync",
		Subsystem: "tokens",
		Name:      "credential_refreshes_total",
		Help:      "Number of refresh grants performed against the provider.",
	})
)

func init() {
	prometheus.MustRegister(lastSyncGauge, activitiesSyncedCounter, activitiesFailedCounter, credentialRefreshCounter)
}

// RecordSyncCompleted updates the sync watermark and per-record counters.
func RecordSyncCompleted(ts time.Time, synced, failed int) {
	if !ts.IsZero() {
		lastSyncGauge.Set(float64(ts.Unix()))
	}
	activitiesSyncedCounter.Add(float64(synced))
	activitiesFailedCounter.Add(float64(failed))
}

// RecordCredentialRefresh counts one refresh grant.
func RecordCredentialRefresh() {
	credentialRefreshCounter.Inc()
}
