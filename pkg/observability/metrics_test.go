package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/reqpin/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.RunMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rm, err := observability.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return rm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestRunMetrics_RecordScan(t *testing.T) {
	t.Parallel()

	rm, reader := setupTestMeter(t)
	ctx := context.Background()

	rm.RecordScan(ctx, observability.ScanStats{
		FilesScanned: 3,
		Imports:      5,
		Skipped:      map[string]int{"excluded_name": 1, "binary": 2},
	})

	data := collectMetrics(t, reader)
	assert.Equal(t, int64(3), sumValue(t, findMetric(data, "reqpin.files.scanned.total")))
	assert.Equal(t, int64(5), sumValue(t, findMetric(data, "reqpin.imports.found.total")))
	assert.Equal(t, int64(3), sumValue(t, findMetric(data, "reqpin.files.skipped.total")))
}

func TestRunMetrics_RecordMatchAndUnavailable(t *testing.T) {
	t.Parallel()

	rm, reader := setupTestMeter(t)
	ctx := context.Background()

	rm.RecordMatch(ctx, observability.MatchStats{Strategy: "exact", Matched: 4, Unmatched: 1})
	rm.RecordUnavailable(ctx, 1)

	data := collectMetrics(t, reader)
	assert.Equal(t, int64(4), sumValue(t, findMetric(data, "reqpin.packages.matched.total")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(data, "reqpin.packages.unmatched.total")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(data, "reqpin.managers.unavailable.total")))
}

func TestRunMetrics_RecordStage(t *testing.T) {
	t.Parallel()

	rm, reader := setupTestMeter(t)

	rm.RecordStage(context.Background(), "scan", 120*time.Millisecond)

	m := findMetric(collectMetrics(t, reader), "reqpin.stage.duration.seconds")
	require.NotNil(t, m)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestRunMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var rm *observability.RunMetrics

	assert.NotPanics(t, func() {
		rm.RecordStage(context.Background(), "scan", time.Second)
		rm.RecordScan(context.Background(), observability.ScanStats{FilesScanned: 1})
		rm.RecordMatch(context.Background(), observability.MatchStats{Matched: 1})
		rm.RecordUnavailable(context.Background(), 1)
	})
}
