package observability_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/reqpin/pkg/observability"
)

func TestDefaultConfig_HasSensibleDefaults(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "reqpin", cfg.ServiceName)
	assert.Equal(t, 5, cfg.ShutdownTimeoutSec)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.False(t, cfg.LogJSON)
}

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogWriter = &logs

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)

	ctx, span := providers.Tracer.Start(context.Background(), "test-op")
	span.End()
	assert.NotNil(t, ctx)

	providers.Logger.Info("hello")
	assert.Contains(t, logs.String(), "service=reqpin")

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_WritesMetricsTextfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reqpin.prom")

	cfg := observability.DefaultConfig()
	cfg.LogWriter = &bytes.Buffer{}
	cfg.MetricsTextfile = path

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	rm, err := observability.NewRunMetrics(providers.Meter)
	require.NoError(t, err)

	rm.RecordScan(context.Background(), observability.ScanStats{FilesScanned: 2, Imports: 3})

	require.NoError(t, providers.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reqpin_files_scanned")
	assert.Contains(t, string(data), "reqpin_imports_found")
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Nil(t, observability.ParseOTLPHeaders("=orphan"))
	assert.Equal(t,
		map[string]string{"authorization": "Bearer x", "team": "py"},
		observability.ParseOTLPHeaders("authorization=Bearer x, team = py"),
	)
}
