package engine

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Default session configuration values.
const (
	defaultPollInterval   = 10 * time.Millisecond
	defaultStartupTimeout = 30 * time.Second
	defaultGracePeriod    = 5 * time.Second
)

// Options holds resolved construction-time configuration for a session.
type Options struct {
	// Logger receives structured session logs. Defaults to a nop logger.
	Logger *zap.Logger

	// Output and ErrorOutput receive streamed interpreter output, one line
	// per write. Defaults: os.Stdout and os.Stderr.
	Output      io.Writer
	ErrorOutput io.Writer

	// PollInterval bounds how long a sync wait sleeps between re-checks.
	PollInterval time.Duration

	// StartupTimeout is the deadline for an owned engine to print its
	// endpoint line after launch.
	StartupTimeout time.Duration

	// GracePeriod is how long Close waits after SIGTERM before SIGKILL.
	GracePeriod time.Duration

	// Binary overrides engine binary discovery for Spawn.
	Binary string

	// Args are extra arguments passed to the engine binary.
	Args []string
}

// Option configures session construction.
type Option func(*Options)

func resolveOptions(opts ...Option) Options {
	o := Options{
		Logger:         zap.NewNop(),
		Output:         os.Stdout,
		ErrorOutput:    os.Stderr,
		PollInterval:   defaultPollInterval,
		StartupTimeout: defaultStartupTimeout,
		GracePeriod:    defaultGracePeriod,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger sets the session logger. Nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithOutput sets the sink for primary interpreter output.
func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		if w != nil {
			o.Output = w
		}
	}
}

// WithErrorOutput sets the sink for interpreter error output.
func WithErrorOutput(w io.Writer) Option {
	return func(o *Options) {
		if w != nil {
			o.ErrorOutput = w
		}
	}
}

// WithPollInterval bounds the sleep between sync-wait re-checks.
// Values <= 0 are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

// WithStartupTimeout sets the deadline for an owned engine to print its
// endpoint line. Values <= 0 are ignored.
func WithStartupTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.StartupTimeout = d
		}
	}
}

// WithGracePeriod sets how long Close waits after SIGTERM before SIGKILL.
// Values <= 0 are ignored.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.GracePeriod = d
		}
	}
}

// WithEngineBinary sets the engine executable name or path for Spawn,
// bypassing PATH discovery.
func WithEngineBinary(path string) Option {
	return func(o *Options) {
		if path != "" {
			o.Binary = path
		}
	}
}

// WithEngineArgs sets extra arguments passed to the engine binary.
func WithEngineArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = args
	}
}
