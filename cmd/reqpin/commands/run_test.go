package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/reqpin/pkg/manifest"
	"github.com/Sumatoshi-tech/reqpin/pkg/pkgenv"
	"github.com/Sumatoshi-tech/reqpin/pkg/report"
	"github.com/Sumatoshi-tech/reqpin/pkg/uast"
)

func sampleProject(t *testing.T) string {
	t.Helper()

	return writeProject(t, map[string]string{
		"a.py":      "import numpy\n",
		"b.py":      "from pandas import DataFrame\nimport requests\n",
		"ignore.py": "import flask\n",
	})
}

const excludeIgnore = "scan:\n  excluded_files: [ignore.py]\n"

func TestRunCommand_WritesAllOutputs(t *testing.T) {
	t.Parallel()

	dir := sampleProject(t)
	cmd := newRunCommandWithDeps(testDeps(t, excludeIgnore, stubRunner{"pip": testPipListing}))

	stdout, stderr, err := execute(t, cmd, dir, "--no-color")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "requirements.txt"))
	require.NoError(t, err)
	assert.Equal(t, "numpy==1.26.4\npandas==2.2.1\n", string(data))

	names, err := os.ReadFile(filepath.Join(dir, "libraries_used.txt"))
	require.NoError(t, err)
	assert.Equal(t, "numpy\npandas\nrequests\n", string(names))

	listing, err := os.ReadFile(filepath.Join(dir, "temp", pkgenv.CombinedFileName))
	require.NoError(t, err)
	assert.Equal(t, testPipListing, string(listing))
	assert.FileExists(t, filepath.Join(dir, "temp", "pip_list.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "temp", "conda_list.txt"))

	assert.Contains(t, stderr, "library requests not found in pip or conda\n")
	assert.NotContains(t, stderr, "flask")
	assert.Contains(t, stderr, "progress: starting run")
	assert.Contains(t, stderr, "progress: manifest written")
	assert.Contains(t, stderr, "progress: run completed")
	assert.Contains(t, stdout, "Pinned 2 of 3 packages")
	assert.Contains(t, stdout, "Package manager conda unavailable")
}

func TestRunCommand_Quiet(t *testing.T) {
	t.Parallel()

	dir := sampleProject(t)
	cmd := newRunCommandWithDeps(testDeps(t, excludeIgnore, stubRunner{"pip": testPipListing}))

	_, stderr, err := execute(t, cmd, dir, "--quiet")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "progress:")
	assert.Contains(t, stderr, "library requests not found")
}

func TestRunCommand_JSONSummary(t *testing.T) {
	t.Parallel()

	dir := sampleProject(t)
	cmd := newRunCommandWithDeps(testDeps(t, excludeIgnore, stubRunner{"pip": testPipListing, "conda": ""}))

	stdout, _, err := execute(t, cmd, dir, "--format", "json", "-q")
	require.NoError(t, err)

	var summary report.Summary

	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, []string{"numpy", "pandas", "requests"}, summary.Names)
	assert.Equal(t, []manifest.Entry{{Name: "numpy", Version: "1.26.4"}, {Name: "pandas", Version: "2.2.1"}}, summary.Entries)
	require.Len(t, summary.Unmatched, 1)
	assert.Equal(t, "requests", summary.Unmatched[0].Name)
	assert.Empty(t, summary.UnavailableManagers)
	assert.Equal(t, 2, summary.FilesScanned)
}

func TestRunCommand_OutputFlagAndDiff(t *testing.T) {
	t.Parallel()

	dir := sampleProject(t)
	out := filepath.Join(t.TempDir(), "pinned.txt")
	require.NoError(t, os.WriteFile(out, []byte("numpy==1.25.0\n"), 0o600))

	cmd := newRunCommandWithDeps(testDeps(t, excludeIgnore, stubRunner{"pip": testPipListing}))

	stdout, _, err := execute(t, cmd, dir, "-o", out, "--diff", "--no-color", "-q")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "numpy==1.26.4\npandas==2.2.1\n", string(data))
	assert.Contains(t, stdout, "-numpy==1.25.0")
	assert.Contains(t, stdout, "+numpy==1.26.4")
	assert.Contains(t, stdout, "+pandas==2.2.1")
	assert.NoFileExists(t, filepath.Join(dir, "requirements.txt"))
}

func TestRunCommand_ExcludeFlags(t *testing.T) {
	t.Parallel()

	dir := sampleProject(t)
	cmd := newRunCommandWithDeps(testDeps(t, "", stubRunner{"pip": testPipListing}))

	_, stderr, err := execute(t, cmd, dir, "--exclude-file", "ignore.py,b.py", "-q")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(filepath.Join(dir, "requirements.txt"))
	require.NoError(t, err)
	assert.Equal(t, "numpy==1.26.4\n", string(data))
}

func TestRunCommand_SubstringStrategy(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{"app.py": "import yaml\n"})
	cmd := newRunCommandWithDeps(testDeps(t, "", stubRunner{"pip": "pyyaml 6.0.1\n"}))

	_, _, err := execute(t, cmd, dir, "--strategy", "substring", "-q", "--format", "yaml")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "requirements.txt"))
	require.NoError(t, err)
	assert.Equal(t, "yaml==6.0.1\n", string(data))
}

func TestRunCommand_AllManagersUnavailable(t *testing.T) {
	t.Parallel()

	dir := sampleProject(t)
	cmd := newRunCommandWithDeps(testDeps(t, excludeIgnore, stubRunner{}))

	_, _, err := execute(t, cmd, dir, "-q")
	require.ErrorIs(t, err, pkgenv.ErrNoListing)
	assert.NoFileExists(t, filepath.Join(dir, "requirements.txt"))
}

func TestRunCommand_ParseErrorAborts(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{
		"good.py":   "import numpy\n",
		"broken.py": "def broken(:\n    pass\n",
	})
	cmd := newRunCommandWithDeps(testDeps(t, "", stubRunner{"pip": testPipListing}))

	_, _, err := execute(t, cmd, dir, "-q")
	require.ErrorIs(t, err, uast.ErrSyntax)
	assert.NoFileExists(t, filepath.Join(dir, "requirements.txt"))
}

func TestRunCommand_InvalidFormat(t *testing.T) {
	t.Parallel()

	cmd := newRunCommandWithDeps(testDeps(t, "", stubRunner{}))

	_, _, err := execute(t, cmd, t.TempDir(), "--format", "xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestRunCommand_MissingDirectory(t *testing.T) {
	t.Parallel()

	cmd := newRunCommandWithDeps(testDeps(t, "", stubRunner{"pip": testPipListing}))

	_, _, err := execute(t, cmd, filepath.Join(t.TempDir(), "absent"), "-q")
	require.ErrorIs(t, err, os.ErrNotExist)
}
