package pkgenv

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResult struct {
	err error
	out string
}

type fakeRunner struct {
	results map[string]fakeResult
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, strings.Join(append([]string{name}, args...), " "))

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res, ok := f.results[name]
	if !ok {
		return nil, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}

	return []byte(res.out), res.err
}

const (
	pipOutput   = "Package    Version\n---------- -------\nrequests   2.31.0\n"
	condaOutput = "# packages in environment at /opt/conda:\nnumpy                     1.26.4\n"
)

func TestLister_BothManagers(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{results: map[string]fakeResult{
		"pip":   {out: pipOutput},
		"conda": {out: condaOutput},
	}}

	listing, err := NewLister(runner, DefaultManagers(), nil).List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"pip list", "conda list"}, runner.calls)
	require.Len(t, listing.Outputs, 2)
	assert.Equal(t, "pip", listing.Outputs[0].Manager)
	assert.Equal(t, pipOutput, listing.Outputs[0].Text)
	assert.Empty(t, listing.Unavailable)
	assert.Equal(t, pipOutput+"\n"+condaOutput, listing.Combined())
}

func TestLister_MissingManagerIsWarning(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{results: map[string]fakeResult{"pip": {out: pipOutput}}}

	listing, err := NewLister(runner, DefaultManagers(), nil).List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pipOutput, listing.Combined())
	require.Len(t, listing.Unavailable, 1)
	assert.Equal(t, []string{"conda"}, listing.UnavailableManagers())
	require.ErrorIs(t, listing.Unavailable[0], ErrManagerUnavailable)
	require.ErrorIs(t, listing.Unavailable[0], exec.ErrNotFound)
	assert.Contains(t, listing.Unavailable[0].Error(), "conda list")
}

func TestLister_AllUnavailable(t *testing.T) {
	t.Parallel()

	listing, err := NewLister(&fakeRunner{}, DefaultManagers(), nil).List(context.Background())
	require.ErrorIs(t, err, ErrNoListing)
	require.ErrorIs(t, err, ErrManagerUnavailable)
	assert.Nil(t, listing)
}

func TestLister_NonZeroExitKeepsOutput(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{results: map[string]fakeResult{
		"pip": {out: pipOutput, err: &ExitError{Code: 1, Stderr: "warning"}},
	}}

	listing, err := NewLister(runner, DefaultManagers()[:1], nil).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pipOutput, listing.Combined())
}

func TestLister_EmptyOutputStillCounts(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{results: map[string]fakeResult{"pip": {out: ""}}}

	listing, err := NewLister(runner, DefaultManagers(), nil).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listing.Combined())
}

func TestLister_EmptyCommand(t *testing.T) {
	t.Parallel()

	_, err := NewLister(&fakeRunner{}, []Manager{{Name: "broken"}}, nil).List(context.Background())
	require.ErrorIs(t, err, ErrEmptyCommand)
}

func TestLister_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{results: map[string]fakeResult{"pip": {out: pipOutput}}}

	_, err := NewLister(runner, DefaultManagers(), nil).List(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrManagerUnavailable)
}

type slowRunner struct{}

func (slowRunner) Run(ctx context.Context, _ string, _ ...string) ([]byte, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

func TestLister_TimeoutMarksUnavailable(t *testing.T) {
	t.Parallel()

	lister := NewLister(slowRunner{}, DefaultManagers(), nil).WithTimeout(10 * time.Millisecond)

	_, err := lister.List(context.Background())
	require.ErrorIs(t, err, ErrNoListing)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	t.Parallel()

	_, err := ExecRunner{}.Run(context.Background(), "reqpin-no-such-binary-xyz")
	require.ErrorIs(t, err, exec.ErrNotFound)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestExecRunner_CapturesStdoutOnExit(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "printf 'six 1.16.0\\n'; echo oops >&2; exit 3")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "oops", exitErr.Stderr)
	assert.Equal(t, "six 1.16.0\n", string(out))
}
