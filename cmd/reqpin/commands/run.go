package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/reqpin/pkg/manifest"
	"github.com/Sumatoshi-tech/reqpin/pkg/pkgenv"
	"github.com/Sumatoshi-tech/reqpin/pkg/report"
)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	format   string
	strategy string
	manifest string
	diff     bool
	extra    scanOverrides

	deps deps
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(defaultDeps())
}

func newRunCommandWithDeps(d deps) *cobra.Command {
	rc := &RunCommand{
		format: string(report.FormatText),
		deps:   d,
	}

	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Scan a project and write its pinned requirements",
		Long: `Scan the project at path (default: current directory) for imports, list the
packages installed in the environment, and write one name==version line per
import name that matches an installed package. Unmatched names are reported
but do not fail the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.format, "format", string(report.FormatText), "Summary format: text, json, yaml")
	cmd.Flags().StringVar(&rc.strategy, "strategy", "", "Match strategy: "+strings.Join(manifest.Strategies(), ", ")+" (default from config)")
	cmd.Flags().StringVarP(&rc.manifest, "output", "o", "", "Manifest path (default from config)")
	cmd.Flags().BoolVar(&rc.diff, "diff", false, "Show changes against the existing manifest")
	cmd.Flags().StringSliceVar(&rc.extra.excludedFiles, "exclude-file", nil, "Additional file names to skip")
	cmd.Flags().StringSliceVar(&rc.extra.excludedExtensions, "exclude-ext", nil, "Additional file suffixes to skip")
	cmd.Flags().StringSliceVar(&rc.extra.excludedDirectories, "exclude-dir", nil, "Additional directory substrings to skip")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(rc.format)
	if err != nil {
		return err
	}

	root, err := projectRoot(args)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, rc.deps, "run")
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ctx, span := s.providers.Tracer.Start(cmd.Context(), "reqpin.run",
		trace.WithAttributes(attribute.String("project.root", root)))
	defer span.End()

	started := time.Now()

	s.progressf("starting run path=%s", root)

	scanned, err := s.scan(ctx, root, rc.extra)
	if err != nil {
		return err
	}

	s.progressf("scan completed: files=%d names=%d skipped=%d",
		scanned.Stats.FilesParsed, scanned.Names.Len(), scanned.Stats.SkippedTotal())

	namesPath := resolvePath(root, s.cfg.Output.NamesFile)

	err = manifest.WriteNames(namesPath, scanned.Names)
	if err != nil {
		return err
	}

	s.progressf("names written: %s", namesPath)

	listing, err := s.listEnvironment(ctx, rc.deps.runner)
	if err != nil {
		return err
	}

	listingPath, err := pkgenv.WriteListing(resolvePath(root, s.cfg.Output.ListingDir), listing)
	if err != nil {
		return err
	}

	s.progressf("environment listed: managers=%d unavailable=%d listing=%s",
		len(listing.Outputs), len(listing.Unavailable), listingPath)

	result, strategy, err := s.match(ctx, rc.strategy, scanned.Names.Sorted(), listing.Combined())
	if err != nil {
		return err
	}

	s.reportUnmatched(cmd.ErrOrStderr(), result.Unmatched)

	manifestPath := s.cfg.Output.Manifest
	if rc.manifest != "" {
		manifestPath = rc.manifest
	}

	manifestPath = resolvePath(root, manifestPath)

	var diff string

	if rc.diff {
		diff = diffAgainst(cmd, s, manifestPath, result.Entries)
	}

	err = manifest.Write(manifestPath, result.Entries)
	if err != nil {
		return err
	}

	s.progressf("manifest written: %s entries=%d unmatched=%d",
		manifestPath, len(result.Entries), len(result.Unmatched))

	span.SetAttributes(
		attribute.Int("run.names", scanned.Names.Len()),
		attribute.Int("run.entries", len(result.Entries)),
		attribute.Int("run.unmatched", len(result.Unmatched)),
	)

	summary := &report.Summary{
		Root:                root,
		Strategy:            string(strategy),
		Diff:                diff,
		Names:               scanned.Names.Sorted(),
		Entries:             result.Entries,
		Unmatched:           result.Unmatched,
		UnavailableManagers: listing.UnavailableManagers(),
		Skipped:             skippedByReason(scanned.Stats),
		FilesScanned:        scanned.Stats.FilesParsed,
		Lines:               scanned.Stats.Lines,
		Bytes:               scanned.Stats.Bytes,
		Duration:            time.Since(started),
		Outputs: report.Outputs{
			NamesFile: namesPath,
			Listing:   listingPath,
			Manifest:  manifestPath,
		},
	}

	err = report.Render(cmd.OutOrStdout(), format, summary, s.globals.noColor)
	if err != nil {
		return err
	}

	s.progressf("run completed")

	return nil
}

// diffAgainst compares the new entries with the manifest about to be
// replaced. An unreadable previous manifest only disables the diff.
func diffAgainst(cmd *cobra.Command, s *session, path string, entries []manifest.Entry) string {
	previous, err := readPrevious(path)
	if err != nil {
		s.logger.WarnContext(cmd.Context(), "previous manifest not comparable", "path", path, "error", err)

		return ""
	}

	return manifest.Diff(previous, entries)
}
