package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesScanned        = "reqpin.files.scanned.total"
	metricFilesSkipped        = "reqpin.files.skipped.total"
	metricImportsFound        = "reqpin.imports.found.total"
	metricPackagesMatched     = "reqpin.packages.matched.total"
	metricPackagesUnmatched   = "reqpin.packages.unmatched.total"
	metricManagersUnavailable = "reqpin.managers.unavailable.total"
	metricStageDuration       = "reqpin.stage.duration.seconds"

	attrStage    = "stage"
	attrReason   = "reason"
	attrStrategy = "strategy"
)

// durationBucketBoundaries covers 1ms to 300s: a scan of a few files up to
// a slow package manager listing a large environment.
var durationBucketBoundaries = []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// RunMetrics holds the OTel instruments recorded by a reqpin run.
type RunMetrics struct {
	filesScanned        metric.Int64Counter
	filesSkipped        metric.Int64Counter
	importsFound        metric.Int64Counter
	packagesMatched     metric.Int64Counter
	packagesUnmatched   metric.Int64Counter
	managersUnavailable metric.Int64Counter
	stageDuration       metric.Float64Histogram
}

// ScanStats is the scanner outcome, decoupled from scanner types.
type ScanStats struct {
	Skipped      map[string]int
	FilesScanned int
	Imports      int
}

// MatchStats is the matcher outcome.
type MatchStats struct {
	Strategy  string
	Matched   int
	Unmatched int
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	counters := []struct {
		name string
		desc string
		unit string
	}{
		{name: metricFilesScanned, desc: "Source files parsed for imports", unit: "{file}"},
		{name: metricFilesSkipped, desc: "Files skipped by reason", unit: "{file}"},
		{name: metricImportsFound, desc: "Distinct import names found", unit: "{import}"},
		{name: metricPackagesMatched, desc: "Import names pinned to an installed version", unit: "{package}"},
		{name: metricPackagesUnmatched, desc: "Import names without an installed package", unit: "{package}"},
		{name: metricManagersUnavailable, desc: "Package managers that could not be run", unit: "{manager}"},
	}

	rm := &RunMetrics{}
	targets := []*metric.Int64Counter{
		&rm.filesScanned, &rm.filesSkipped, &rm.importsFound,
		&rm.packagesMatched, &rm.packagesUnmatched, &rm.managersUnavailable,
	}

	for i, c := range counters {
		counter, err := mt.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}

		*targets[i] = counter
	}

	stageDur, err := mt.Float64Histogram(metricStageDuration,
		metric.WithDescription("Duration of each pipeline stage in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricStageDuration, err)
	}

	rm.stageDuration = stageDur

	return rm, nil
}

// RecordStage records the duration of one pipeline stage.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration) {
	if rm == nil {
		return
	}

	rm.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrStage, stage)))
}

// RecordScan records the scanner outcome.
func (rm *RunMetrics) RecordScan(ctx context.Context, stats ScanStats) {
	if rm == nil {
		return
	}

	rm.filesScanned.Add(ctx, int64(stats.FilesScanned))
	rm.importsFound.Add(ctx, int64(stats.Imports))

	for reason, n := range stats.Skipped {
		rm.filesSkipped.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrReason, reason)))
	}
}

// RecordMatch records the matcher outcome.
func (rm *RunMetrics) RecordMatch(ctx context.Context, stats MatchStats) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStrategy, stats.Strategy))
	rm.packagesMatched.Add(ctx, int64(stats.Matched), attrs)
	rm.packagesUnmatched.Add(ctx, int64(stats.Unmatched), attrs)
}

// RecordUnavailable records package managers that could not be run.
func (rm *RunMetrics) RecordUnavailable(ctx context.Context, managers int) {
	if rm == nil {
		return
	}

	rm.managersUnavailable.Add(ctx, int64(managers))
}
