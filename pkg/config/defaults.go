// Package config provides YAML-based project configuration for reqpin.
package config

import "github.com/Sumatoshi-tech/reqpin/pkg/manifest"

// Scan defaults.
const (
	DefaultScanSkipVendor       = false
	DefaultScanDetectShebang    = false
	DefaultScanRespectGitignore = false
	DefaultScanSkipUnparsable   = false
	DefaultScanMaxFileSize      = ""
)

// Environment defaults.
const (
	DefaultEnvTimeout = "0s"
)

// Match defaults.
const (
	DefaultMatchStrategy    = string(manifest.StrategyExact)
	DefaultMatchSuggestions = manifest.DefaultSuggestions
)

// Output defaults.
const (
	DefaultOutputNamesFile  = "libraries_used.txt"
	DefaultOutputListingDir = "temp"
	DefaultOutputManifest   = "requirements.txt"
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)

// Telemetry defaults.
const (
	DefaultTelemetryOTLPEndpoint    = ""
	DefaultTelemetryOTLPHeaders     = ""
	DefaultTelemetryOTLPInsecure    = false
	DefaultTelemetryMetricsTextfile = ""
)

// DefaultScanExtensions returns the source file extensions scanned by default.
func DefaultScanExtensions() []string {
	return []string{".py"}
}

// DefaultScanExcludedExtensions returns the suffixes skipped by default.
func DefaultScanExcludedExtensions() []string {
	return []string{".exe", ".txt"}
}

// DefaultManagers returns the package managers listed by default.
func DefaultManagers() []map[string]any {
	return []map[string]any{
		{"name": "pip", "command": []string{"pip", "list"}},
		{"name": "conda", "command": []string{"conda", "list"}},
	}
}
