package observability

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	if metric.GetCounter() != nil {
		return metric.GetCounter().GetValue()
	}
	return metric.GetGauge().GetValue()
}

func TestRecordSyncCompleted(t *testing.T) {
	syncedBefore := counterValue(t, activitiesSyncedCounter)
	failedBefore := counterValue(t, activitiesFailedCounter)

	ts := time.Unix(1730000000, 0).UTC()
	RecordSyncCompleted(ts, 3, 1)

	require.Equal(t, float64(1730000000), counterValue(t, lastSyncGauge))
	require.Equal(t, syncedBefore+3, counterValue(t, activitiesSyncedCounter))
	require.Equal(t, failedBefore+1, counterValue(t, activitiesFailedCounter))
}

func TestRecordSyncCompletedZeroTimestamp(t *testing.T) {
	before := counterValue(t, lastSyncGauge)
	RecordSyncCompleted(time.Time{}, 0, 0)
	require.Equal(t, before, counterValue(t, lastSyncGauge), "zero timestamp leaves the watermark unchanged")
}

func TestRecordCredentialRefresh(t *testing.T) {
	before := counterValue(t, credentialRefreshCounter)
	RecordCredentialRefresh()
	require.Equal(t, before+1, counterValue(t, credentialRefreshCounter))
}
