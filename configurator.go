// Package configurator reconciles a declarative commerce configuration
// document with a live platform reached over GraphQL.
//
// A Client loads the document from its store, validates it and creates or
// updates whatever the platform is missing. It can also retrieve the live
// configuration back into a document and diff the two.
//
//	c, err := configurator.New(
//		configurator.WithEndpoint("https://shop.example.com/graphql/"),
//		configurator.WithToken(os.Getenv("CONFIGURATOR_TOKEN")),
//	)
//	if err != nil {
//		return err
//	}
//	r, err := c.Bootstrap(ctx)
package configurator

import (
	"context"
	"fmt"

	"github.com/agentstation/utc"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentstation/configurator/internal/bootstrap"
	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/retrieve"
	"github.com/agentstation/configurator/internal/transport"
	"github.com/agentstation/configurator/pkg/constants"
	"github.com/agentstation/configurator/pkg/diff"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
	"github.com/agentstation/configurator/pkg/store"
)

// Client reconciles one document against one platform.
type Client interface {
	// Bootstrap applies the document to the platform.
	Bootstrap(ctx context.Context) (*report.Report, error)

	// Retrieve reads the platform configuration and saves it as the document.
	Retrieve(ctx context.Context) (*schema.Configuration, error)

	// Diff compares the document with the platform configuration.
	Diff(ctx context.Context) (*diff.Result, error)

	// Validate loads and validates the document without contacting the platform.
	Validate() error

	// Metrics returns the registry holding transport metrics.
	Metrics() *prometheus.Registry
}

type client struct {
	config   *config
	store    store.Store
	repos    *repository.Repositories
	registry *prometheus.Registry
}

// New creates a Client with the given options. Operations that reach the
// platform fail with a ConfigError when neither an endpoint nor a requester
// was configured. Without WithLogger, the default logger is rebuilt from the
// LOG_* environment variables when any is set.
func New(opts ...Option) (Client, error) {
	cfg := &config{
		httpTimeout: constants.DefaultHTTPTimeout,
		maxRetries:  constants.MaxRetries,
		backoff:     constants.RetryBackoff,
		clock:       utc.Now,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	if cfg.logger == nil && logging.HasEnvConfig() {
		logging.ConfigureFromEnv()
	}

	c := &client{config: cfg, store: cfg.store, repos: cfg.repos}
	if c.store == nil {
		c.store = store.NewFileStore(constants.DefaultDocumentPath)
	}

	metrics := transport.NewMetrics(cfg.registry)
	c.registry = metrics.Registry()

	if c.repos == nil {
		requester := cfg.requester
		if requester == nil && cfg.endpoint != "" {
			requester = transport.New(cfg.endpoint,
				transport.WithToken(cfg.token),
				transport.WithTimeout(cfg.httpTimeout),
				transport.WithRetry(cfg.maxRetries, cfg.backoff),
				transport.WithMetrics(metrics),
			)
		}
		if requester != nil {
			c.repos = repository.NewGraphQL(requester)
		}
	}
	return c, nil
}

func (c *client) context(ctx context.Context) context.Context {
	if c.config.logger != nil && logging.FromContext(ctx) == logging.Default() {
		ctx = logging.WithLogger(ctx, c.config.logger)
	}
	return ctx
}

func (c *client) remote() (*repository.Repositories, error) {
	if c.repos == nil {
		return nil, errors.NewConfigError("endpoint", "no platform endpoint configured", errors.ErrAPIKeyRequired)
	}
	return c.repos, nil
}

// Bootstrap implements Client.
func (c *client) Bootstrap(ctx context.Context) (*report.Report, error) {
	repos, err := c.remote()
	if err != nil {
		return nil, err
	}
	doc, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	o := bootstrap.New(repos, bootstrap.WithClock(c.config.clock))
	return o.Run(c.context(ctx), doc)
}

// Retrieve implements Client.
func (c *client) Retrieve(ctx context.Context) (*schema.Configuration, error) {
	repos, err := c.remote()
	if err != nil {
		return nil, err
	}
	return retrieve.New(repos).Retrieve(c.context(ctx), c.store)
}

// Diff implements Client.
func (c *client) Diff(ctx context.Context) (*diff.Result, error) {
	repos, err := c.remote()
	if err != nil {
		return nil, err
	}
	local, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(local); err != nil {
		return nil, err
	}
	remote, err := retrieve.New(repos).Fetch(c.context(ctx))
	if err != nil {
		return nil, err
	}
	return diff.Compare(local, remote), nil
}

// Validate implements Client.
func (c *client) Validate() error {
	doc, err := c.store.Load()
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}

// Metrics implements Client.
func (c *client) Metrics() *prometheus.Registry {
	return c.registry
}
