// Package app wires configuration, logging and the configurator client into
// the CLI commands.
package app

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/configurator"
	"github.com/agentstation/configurator/pkg/errors"
)

// ClientFactory builds the configurator client for a loaded config.
type ClientFactory func(*Config, zerolog.Logger) (configurator.Client, error)

// App holds the dependencies shared by every command.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	stdout io.Writer

	factory ClientFactory
	mu      sync.Mutex
	client  configurator.Client
}

// New creates an App with configuration loaded from the environment and the
// default config file locations.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	a := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		stdout:  os.Stdout,
		factory: DefaultClient,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, errors.WrapResource("load", "config", "", err)
		}
		a.config = config
	}
	if a.logger == nil {
		logger := NewLogger(a.config)
		a.logger = &logger
	}
	return a, nil
}

// Version returns the version string.
func (a *App) Version() string { return a.version }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Client returns the configurator client, creating it on first use.
func (a *App) Client() (configurator.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}
	c, err := a.factory(a.config, *a.logger)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = c
	return c, nil
}

// DefaultClient builds a client that talks to the configured platform over
// GraphQL. Missing credentials surface when a command needs the platform.
func DefaultClient(config *Config, logger zerolog.Logger) (configurator.Client, error) {
	opts := []configurator.Option{
		configurator.WithDocumentPath(config.DocumentPath),
		configurator.WithLogger(logger),
	}
	if config.URL != "" {
		opts = append(opts,
			configurator.WithEndpoint(config.URL),
			configurator.WithToken(config.Token),
		)
	}
	if config.Timeout > 0 {
		opts = append(opts, configurator.WithHTTPTimeout(config.Timeout))
	}
	return configurator.New(opts...)
}

// Option configures an App.
type Option func(*App) error

// WithConfig sets the configuration instead of loading it.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.stdout = w
		return nil
	}
}

// WithClientFactory replaces how the configurator client is built.
func WithClientFactory(f ClientFactory) Option {
	return func(a *App) error {
		a.factory = f
		return nil
	}
}
