// Package report renders the summary of a reqpin run for the console or
// for machine consumption.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/reqpin/pkg/manifest"
)

// Format selects the summary encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported values.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name. Empty means FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Outputs are the files written by a run.
type Outputs struct {
	NamesFile string `json:"names_file,omitempty" yaml:"names_file,omitempty"`
	Listing   string `json:"listing,omitempty"    yaml:"listing,omitempty"`
	Manifest  string `json:"manifest,omitempty"   yaml:"manifest,omitempty"`
}

// Summary describes one run.
type Summary struct {
	Root                string               `json:"root"                           yaml:"root"`
	Strategy            string               `json:"strategy"                       yaml:"strategy"`
	Diff                string               `json:"diff,omitempty"                 yaml:"diff,omitempty"`
	Outputs             Outputs              `json:"outputs"                        yaml:"outputs"`
	Names               []string             `json:"names"                          yaml:"names"`
	Entries             []manifest.Entry     `json:"entries"                        yaml:"entries"`
	Unmatched           []manifest.Unmatched `json:"unmatched"                      yaml:"unmatched"`
	UnavailableManagers []string             `json:"unavailable_managers,omitempty" yaml:"unavailable_managers,omitempty"`
	Skipped             map[string]int       `json:"skipped,omitempty"              yaml:"skipped,omitempty"`
	FilesScanned        int                  `json:"files_scanned"                  yaml:"files_scanned"`
	Lines               int                  `json:"lines"                          yaml:"lines"`
	Bytes               int64                `json:"bytes"                          yaml:"bytes"`
	Duration            time.Duration        `json:"duration_ns"                    yaml:"duration"`
}

// SkippedTotal returns the number of files skipped for any reason.
func (s *Summary) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}

	return total
}

// Render writes the summary in the given format.
func Render(w io.Writer, format Format, s *Summary, noColor bool) error {
	switch format {
	case FormatJSON:
		return RenderJSON(w, s)
	case FormatYAML:
		return RenderYAML(w, s)
	case FormatText:
		return RenderText(w, s, noColor)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// RenderJSON writes the summary as indented JSON.
func RenderJSON(w io.Writer, s *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(s)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// RenderYAML writes the summary as YAML.
func RenderYAML(w io.Writer, s *Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(s)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}
