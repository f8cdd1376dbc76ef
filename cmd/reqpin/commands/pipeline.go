package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/reqpin/pkg/imports"
	"github.com/Sumatoshi-tech/reqpin/pkg/manifest"
	"github.com/Sumatoshi-tech/reqpin/pkg/observability"
	"github.com/Sumatoshi-tech/reqpin/pkg/pkgenv"
	"github.com/Sumatoshi-tech/reqpin/pkg/scanner"
	"github.com/Sumatoshi-tech/reqpin/pkg/uast"
)

// Pipeline stage names used for metrics.
const (
	stageScan  = "scan"
	stageList  = "list"
	stageMatch = "match"
)

// scanOverrides are command-line additions to the scan section.
type scanOverrides struct {
	excludedFiles       []string
	excludedExtensions  []string
	excludedDirectories []string
}

func (s *session) scan(ctx context.Context, root string, extra scanOverrides) (*scanner.Result, error) {
	opts, err := s.cfg.ScanOptions()
	if err != nil {
		return nil, err
	}

	opts.ExcludedFiles = append(opts.ExcludedFiles, extra.excludedFiles...)
	opts.ExcludedExtensions = append(opts.ExcludedExtensions, extra.excludedExtensions...)
	opts.ExcludedDirectories = append(opts.ExcludedDirectories, extra.excludedDirectories...)

	parser, err := uast.NewParser()
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}

	start := time.Now()

	result, err := scanner.New(imports.NewExtractor(parser), opts, s.logger).Scan(ctx, root)

	s.metrics.RecordStage(ctx, stageScan, time.Since(start))

	if err != nil {
		return nil, err
	}

	s.metrics.RecordScan(ctx, observability.ScanStats{
		FilesScanned: result.Stats.FilesParsed,
		Imports:      result.Names.Len(),
		Skipped:      skippedByReason(result.Stats),
	})

	return result, nil
}

func skippedByReason(stats scanner.Stats) map[string]int {
	skipped := make(map[string]int, len(stats.Skipped))
	for reason, n := range stats.Skipped {
		skipped[string(reason)] = n
	}

	return skipped
}

func (s *session) listEnvironment(ctx context.Context, runner pkgenv.Runner) (*pkgenv.Listing, error) {
	start := time.Now()

	listing, err := pkgenv.NewLister(runner, s.cfg.Env.Managers, s.logger).
		WithTimeout(s.cfg.Env.Timeout).
		List(ctx)

	s.metrics.RecordStage(ctx, stageList, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("list installed packages: %w", err)
	}

	s.metrics.RecordUnavailable(ctx, len(listing.Unavailable))

	return listing, nil
}

func (s *session) match(ctx context.Context, strategyFlag string, names []string, listing string) (manifest.Result, manifest.Strategy, error) {
	raw := s.cfg.Match.Strategy
	if strategyFlag != "" {
		raw = strategyFlag
	}

	strategy, err := manifest.ParseStrategy(raw)
	if err != nil {
		return manifest.Result{}, "", err
	}

	start := time.Now()

	result := manifest.NewMatcher(
		manifest.NewIndex(listing),
		manifest.WithStrategy(strategy),
		manifest.WithSuggestions(s.cfg.Match.Suggestions),
	).Match(names)

	s.metrics.RecordStage(ctx, stageMatch, time.Since(start))
	s.metrics.RecordMatch(ctx, observability.MatchStats{
		Strategy:  string(strategy),
		Matched:   len(result.Entries),
		Unmatched: len(result.Unmatched),
	})

	return result, strategy, nil
}

// managerNames renders the configured managers as "pip or conda".
func (s *session) managerNames() string {
	names := make([]string, 0, len(s.cfg.Env.Managers))
	for _, m := range s.cfg.Env.Managers {
		names = append(names, m.Name)
	}

	return strings.Join(names, " or ")
}

// reportUnmatched writes one diagnostic line per unmatched name.
func (s *session) reportUnmatched(w io.Writer, unmatched []manifest.Unmatched) {
	sources := s.managerNames()

	for _, u := range unmatched {
		_, _ = fmt.Fprintf(w, "library %s not found in %s\n", u.Name, sources)
	}
}

// readPrevious loads the manifest being replaced; a missing file is empty.
func readPrevious(path string) ([]manifest.Entry, error) {
	entries, err := manifest.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	return entries, nil
}
