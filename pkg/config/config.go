package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/reqpin/pkg/manifest"
	"github.com/Sumatoshi-tech/reqpin/pkg/pkgenv"
	"github.com/Sumatoshi-tech/reqpin/pkg/scanner"
)

// Sentinel validation errors.
var (
	ErrNoExtensions        = errors.New("scan.extensions must not be empty")
	ErrInvalidMaxFileSize  = errors.New("invalid scan.max_file_size")
	ErrNoManagers          = errors.New("env.managers must not be empty")
	ErrInvalidManager      = errors.New("invalid package manager")
	ErrNegativeTimeout     = errors.New("env.timeout must not be negative")
	ErrNegativeSuggestions = errors.New("match.suggestions must not be negative")
	ErrEmptyOutputPath     = errors.New("output path must not be empty")
	ErrInvalidLogLevel     = errors.New("invalid logging.level")
)

// Config is the top-level configuration for reqpin.
type Config struct {
	Scan      ScanConfig      `mapstructure:"scan"`
	Env       EnvConfig       `mapstructure:"env"`
	Match     MatchConfig     `mapstructure:"match"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ScanConfig selects the files whose imports are extracted.
type ScanConfig struct {
	MaxFileSize         string   `mapstructure:"max_file_size"`
	Extensions          []string `mapstructure:"extensions"`
	ExcludedFiles       []string `mapstructure:"excluded_files"`
	ExcludedExtensions  []string `mapstructure:"excluded_extensions"`
	ExcludedDirectories []string `mapstructure:"excluded_directories"`
	SkipVendor          bool     `mapstructure:"skip_vendor"`
	DetectShebang       bool     `mapstructure:"detect_shebang"`
	RespectGitignore    bool     `mapstructure:"respect_gitignore"`
	SkipUnparsable      bool     `mapstructure:"skip_unparsable"`
}

// EnvConfig lists the package managers queried for installed packages.
type EnvConfig struct {
	Managers []pkgenv.Manager `mapstructure:"managers"`
	Timeout  time.Duration    `mapstructure:"timeout"`
}

// MatchConfig configures how names are matched to installed packages.
type MatchConfig struct {
	Strategy    string `mapstructure:"strategy"`
	Suggestions int    `mapstructure:"suggestions"`
}

// OutputConfig names the files written by a run.
type OutputConfig struct {
	NamesFile  string `mapstructure:"names_file"`
	ListingDir string `mapstructure:"listing_dir"`
	Manifest   string `mapstructure:"manifest"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig configures tracing and metrics export.
type TelemetryConfig struct {
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string `mapstructure:"otlp_headers"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
	OTLPInsecure    bool   `mapstructure:"otlp_insecure"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if len(c.Scan.Extensions) == 0 {
		return ErrNoExtensions
	}

	_, err := c.maxFileSize()
	if err != nil {
		return err
	}

	err = validateManagers(c.Env.Managers)
	if err != nil {
		return err
	}

	if c.Env.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeTimeout, c.Env.Timeout)
	}

	_, err = manifest.ParseStrategy(c.Match.Strategy)
	if err != nil {
		return fmt.Errorf("match.strategy: %w", err)
	}

	if c.Match.Suggestions < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeSuggestions, c.Match.Suggestions)
	}

	for key, value := range map[string]string{
		"output.names_file":  c.Output.NamesFile,
		"output.listing_dir": c.Output.ListingDir,
		"output.manifest":    c.Output.Manifest,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s", ErrEmptyOutputPath, key)
		}
	}

	_, err = c.LogLevel()

	return err
}

func validateManagers(managers []pkgenv.Manager) error {
	if len(managers) == 0 {
		return ErrNoManagers
	}

	for i, m := range managers {
		if m.Name == "" {
			return fmt.Errorf("%w: env.managers[%d] has no name", ErrInvalidManager, i)
		}

		if len(m.Command) == 0 || m.Command[0] == "" {
			return fmt.Errorf("%w: %s has no command", ErrInvalidManager, m.Name)
		}
	}

	return nil
}

func (c *Config) maxFileSize() (int64, error) {
	raw := strings.TrimSpace(c.Scan.MaxFileSize)
	if raw == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxFileSize, raw, err)
	}

	return int64(size), nil //nolint:gosec // sizes above 8 EiB are not realistic.
}

// ScanOptions builds scanner options from the scan section.
func (c *Config) ScanOptions() (scanner.Options, error) {
	size, err := c.maxFileSize()
	if err != nil {
		return scanner.Options{}, err
	}

	return scanner.Options{
		Extensions:          c.Scan.Extensions,
		ExcludedFiles:       c.Scan.ExcludedFiles,
		ExcludedExtensions:  c.Scan.ExcludedExtensions,
		ExcludedDirectories: c.Scan.ExcludedDirectories,
		MaxFileSize:         size,
		SkipVendor:          c.Scan.SkipVendor,
		DetectShebang:       c.Scan.DetectShebang,
		RespectGitignore:    c.Scan.RespectGitignore,
		SkipUnparsable:      c.Scan.SkipUnparsable,
	}, nil
}

// MatchStrategy returns the parsed match strategy.
func (c *Config) MatchStrategy() (manifest.Strategy, error) {
	strategy, err := manifest.ParseStrategy(c.Match.Strategy)
	if err != nil {
		return "", fmt.Errorf("match.strategy: %w", err)
	}

	return strategy, nil
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}
