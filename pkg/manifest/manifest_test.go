package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/reqpin/pkg/importmodel"
)

func TestWriteRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")
	entries := []Entry{
		{Name: "numpy", Version: "1.26.4"},
		{Name: "requests", Version: "2.31.0"},
	}

	require.NoError(t, Write(path, entries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "numpy==1.26.4\nrequests==2.31.0\n", string(data))

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, entries, back)
}

func TestWrite_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, Write(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestRead_SkipsCommentsAndRejectsGarbage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("# pinned\n\nsix == 1.16.0\n"), 0o600))

	entries, err := Read(good)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "six", Version: "1.16.0"}}, entries)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("six>=1.0\n"), 0o600))

	_, err = Read(bad)
	require.ErrorIs(t, err, ErrMalformedEntry)
	assert.Contains(t, err.Error(), "bad.txt:1")
}

func TestNamesRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "libraries_used.txt")
	names := importmodel.NewNameSet("pandas", "numpy", "a.b.c", "__future__")

	require.NoError(t, WriteNames(path, names))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "__future__\na.b.c\nnumpy\npandas\n", string(data))

	back, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, names, back)
}

func TestReadNames_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadNames(filepath.Join(t.TempDir(), "nope.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiff(t *testing.T) {
	t.Parallel()

	previous := []Entry{
		{Name: "numpy", Version: "1.25.0"},
		{Name: "requests", Version: "2.31.0"},
		{Name: "six", Version: "1.16.0"},
	}
	current := []Entry{
		{Name: "numpy", Version: "1.26.4"},
		{Name: "requests", Version: "2.31.0"},
	}

	diff := Diff(previous, current)
	assert.Contains(t, diff, "-numpy==1.25.0\n")
	assert.Contains(t, diff, "+numpy==1.26.4\n")
	assert.Contains(t, diff, "-six==1.16.0\n")
	assert.NotContains(t, diff, "requests")
	assert.Empty(t, Diff(current, current))
}
