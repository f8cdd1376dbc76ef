// Package commands implements CLI command handlers for reqpin.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/reqpin/pkg/config"
	"github.com/Sumatoshi-tech/reqpin/pkg/observability"
	"github.com/Sumatoshi-tech/reqpin/pkg/pkgenv"
	"github.com/Sumatoshi-tech/reqpin/pkg/version"
)

// Global flag names shared by every subcommand.
const (
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
	flagConfig  = "config"
	flagNoColor = "no-color"
)

type configLoader func(path string) (*config.Config, error)

type observabilityInit func(cfg observability.Config) (observability.Providers, error)

// deps are the collaborators a command talks to outside the process.
type deps struct {
	loadConfig configLoader
	initObs    observabilityInit
	runner     pkgenv.Runner
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.LoadConfig,
		initObs:    observability.Init,
		runner:     pkgenv.ExecRunner{},
	}
}

// RegisterGlobalFlags adds the persistent flags shared by all subcommands.
func RegisterGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().BoolP(flagVerbose, "v", false, "verbose output (debug logs)")
	root.PersistentFlags().BoolP(flagQuiet, "q", false, "suppress progress output")
	root.PersistentFlags().String(flagConfig, "", "config file (default: .reqpin.yaml in . or $HOME)")
	root.PersistentFlags().Bool(flagNoColor, false, "disable colored output")
}

type globals struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool
}

// readGlobals tolerates commands executed without the root command.
func readGlobals(cmd *cobra.Command) globals {
	var g globals

	g.configPath, _ = cmd.Flags().GetString(flagConfig)
	g.verbose, _ = cmd.Flags().GetBool(flagVerbose)
	g.quiet, _ = cmd.Flags().GetBool(flagQuiet)
	g.noColor, _ = cmd.Flags().GetBool(flagNoColor)

	return g
}

// session is the per-invocation state: configuration, logger and telemetry.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.RunMetrics
	logger    *slog.Logger
	progress  io.Writer
	globals   globals
}

func openSession(cmd *cobra.Command, d deps, name string) (*session, error) {
	g := readGlobals(cmd)

	cfg, err := d.loadConfig(g.configPath)
	if err != nil {
		return nil, err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}

	if g.verbose {
		level = slog.LevelDebug
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Command = name
	obsCfg.LogWriter = cmd.ErrOrStderr()
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.MetricsTextfile = cfg.Telemetry.MetricsTextfile

	providers, err := d.initObs(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &session{
		cfg:       cfg,
		providers: providers,
		metrics:   metrics,
		logger:    providers.Logger,
		progress:  cmd.ErrOrStderr(),
		globals:   g,
	}, nil
}

func (s *session) close(ctx context.Context) {
	err := s.providers.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.WarnContext(ctx, "telemetry shutdown failed", "error", err)
	}
}

func (s *session) progressf(format string, args ...any) {
	if s.globals.quiet {
		return
	}

	_, _ = fmt.Fprintf(s.progress, "progress: "+format+"\n", args...)
}

// resolvePath anchors a relative output path at the project root.
func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(root, path)
}

func projectRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}

	return abs, nil
}
