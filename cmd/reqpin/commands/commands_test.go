package commands

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/reqpin/pkg/config"
	"github.com/Sumatoshi-tech/reqpin/pkg/observability"
)

const testPipListing = `Package    Version
---------- -------
numpy      1.26.4
pandas     2.2.1
`

type stubRunner map[string]string

func (r stubRunner) Run(_ context.Context, name string, _ ...string) ([]byte, error) {
	out, ok := r[name]
	if !ok {
		return nil, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}

	return []byte(out), nil
}

func noopObservabilityInit(_ observability.Config) (observability.Providers, error) {
	return observability.Providers{
		Tracer:   nooptrace.NewTracerProvider().Tracer("test"),
		Meter:    noopmetric.NewMeterProvider().Meter("test"),
		Logger:   observability.DiscardLogger(),
		Shutdown: func(context.Context) error { return nil },
	}, nil
}

// testDeps loads the given YAML as the run configuration.
func testDeps(t *testing.T, yamlConfig string, runner stubRunner) deps {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".reqpin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	return deps{
		loadConfig: func(string) (*config.Config, error) { return cfg, nil },
		initObs:    noopObservabilityInit,
		runner:     runner,
	}
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return dir
}

// execute runs cmd under a root carrying the global flags.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	root := &cobra.Command{Use: "reqpin", SilenceUsage: true, SilenceErrors: true}
	RegisterGlobalFlags(root)
	root.AddCommand(cmd)

	var stdout, stderr bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{cmd.Name()}, args...))

	err := root.Execute()

	return stdout.String(), stderr.String(), err
}
