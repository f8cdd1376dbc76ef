// Package pkgenv captures the installed-package listings of the package
// managers available in the current environment.
package pkgenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "reqpin"

// Sentinel errors for listing operations.
var (
	// ErrManagerUnavailable marks a package manager that could not be run.
	ErrManagerUnavailable = errors.New("package manager unavailable")
	// ErrNoListing is returned when no configured manager produced output.
	ErrNoListing = errors.New("no package manager could be run")
	// ErrEmptyCommand is returned for a manager configured without a command.
	ErrEmptyCommand = errors.New("package manager command is empty")
)

// Manager is a package manager and the command that lists its packages.
type Manager struct {
	Name    string   `json:"name"    mapstructure:"name"    yaml:"name"`
	Command []string `json:"command" mapstructure:"command" yaml:"command"`
}

// DefaultManagers returns pip and conda, in that order.
func DefaultManagers() []Manager {
	return []Manager{
		{Name: "pip", Command: []string{"pip", "list"}},
		{Name: "conda", Command: []string{"conda", "list"}},
	}
}

// UnavailableError reports a package manager whose command could not be
// started (missing executable, permission denied, timeout).
type UnavailableError struct {
	Err     error
	Manager string
	Command []string
}

// Error implements error.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Manager, strings.Join(e.Command, " "), e.Err)
}

// Is matches ErrManagerUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrManagerUnavailable
}

// Unwrap returns the underlying cause.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Lister runs every configured manager once, in order.
type Lister struct {
	runner   Runner
	logger   *slog.Logger
	managers []Manager
	timeout  time.Duration
}

// NewLister creates a Lister. A nil logger discards log output.
func NewLister(runner Runner, managers []Manager, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Lister{
		runner:   runner,
		logger:   logger,
		managers: managers,
	}
}

// WithTimeout bounds every manager invocation. Zero means no bound.
func (l *Lister) WithTimeout(timeout time.Duration) *Lister {
	l.timeout = timeout

	return l
}

// List captures the standard output of every manager. A manager that
// cannot be started is recorded in Listing.Unavailable and the others still
// run; List fails only when none produced a listing. Exit codes are not
// inspected and nothing is retried.
func (l *Lister) List(ctx context.Context) (*Listing, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "reqpin.list_environment",
		trace.WithAttributes(attribute.Int("env.managers", len(l.managers))))
	defer span.End()

	listing := &Listing{}

	for _, manager := range l.managers {
		out, err := l.run(ctx, manager)
		if err != nil {
			var unavailable *UnavailableError
			if !errors.As(err, &unavailable) {
				return nil, err
			}

			l.logger.WarnContext(ctx, "package manager unavailable",
				"manager", manager.Name, "error", unavailable.Err)
			listing.Unavailable = append(listing.Unavailable, unavailable)

			continue
		}

		listing.Outputs = append(listing.Outputs, Output{Manager: manager.Name, Text: string(out)})
	}

	span.SetAttributes(
		attribute.Int("env.outputs", len(listing.Outputs)),
		attribute.Int("env.unavailable", len(listing.Unavailable)),
	)

	if len(listing.Outputs) == 0 {
		causes := make([]error, 0, len(listing.Unavailable)+1)
		causes = append(causes, ErrNoListing)

		for _, u := range listing.Unavailable {
			causes = append(causes, u)
		}

		return nil, errors.Join(causes...)
	}

	return listing, nil
}

func (l *Lister) run(ctx context.Context, manager Manager) ([]byte, error) {
	if len(manager.Command) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCommand, manager.Name)
	}

	runCtx := ctx

	if l.timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	out, err := l.runner.Run(runCtx, manager.Command[0], manager.Command[1:]...)
	if err == nil {
		return out, nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		l.logger.DebugContext(ctx, "package manager exited with non-zero status",
			"manager", manager.Name, "code", exitErr.Code, "stderr", exitErr.Stderr)

		return out, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("list %s: %w", manager.Name, ctx.Err())
	}

	return nil, &UnavailableError{Manager: manager.Name, Command: manager.Command, Err: err}
}
