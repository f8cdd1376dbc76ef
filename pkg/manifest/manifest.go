package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/reqpin/pkg/importmodel"
)

const (
	pinSeparator = "=="
	manifestPerm = 0o644
)

// ErrMalformedEntry is returned by Read for a line that is not name==version.
var ErrMalformedEntry = errors.New("malformed manifest entry")

// Entry is one pinned requirement.
type Entry struct {
	Name    string `json:"name"    yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// String renders the entry as name==version.
func (e Entry) String() string {
	return e.Name + pinSeparator + e.Version
}

// ParseEntry parses a name==version line.
func ParseEntry(line string) (Entry, error) {
	name, version, ok := strings.Cut(strings.TrimSpace(line), pinSeparator)
	name, version = strings.TrimSpace(name), strings.TrimSpace(version)

	if !ok || name == "" || version == "" {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}

	return Entry{Name: name, Version: version}, nil
}

// Write replaces the manifest at path with one name==version line per entry.
func Write(path string, entries []Entry) error {
	var sb strings.Builder

	for _, entry := range entries {
		sb.WriteString(entry.String())
		sb.WriteByte('\n')
	}

	err := os.WriteFile(path, []byte(sb.String()), manifestPerm)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Read loads a manifest, skipping blank lines and # comments.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	defer f.Close()

	var entries []Entry

	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, parseErr := ParseEntry(line)
		if parseErr != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, parseErr)
		}

		entries = append(entries, entry)
	}

	err = sc.Err()
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return entries, nil
}

// WriteNames writes the names sorted ascending, one per line.
func WriteNames(path string, names importmodel.NameSet) error {
	sorted := names.Sorted()

	var sb strings.Builder

	for _, name := range sorted {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}

	err := os.WriteFile(path, []byte(sb.String()), manifestPerm)
	if err != nil {
		return fmt.Errorf("write names: %w", err)
	}

	return nil
}

// ReadNames loads a names file written by WriteNames.
func ReadNames(path string) (importmodel.NameSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}

	names := importmodel.NewNameSet()

	for line := range strings.SplitSeq(string(data), "\n") {
		names.Add(strings.TrimSpace(line))
	}

	return names, nil
}

// Diff returns a line diff between two manifests. Removed lines start with
// "-", added lines with "+"; unchanged lines are omitted. Empty means equal.
func Diff(previous, current []Entry) string {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToChars(renderLines(previous), renderLines(current))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		var prefix string

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
			continue
		}

		for line := range strings.SplitSeq(strings.TrimSuffix(d.Text, "\n"), "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

func renderLines(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String()+"\n")
	}

	return strings.Join(lines, "")
}
