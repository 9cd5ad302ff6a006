package configurator

import (
	"context"
	"time"

	"github.com/agentstation/utc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/store"
)

// Requester sends one GraphQL document and decodes its data into out.
type Requester interface {
	Do(ctx context.Context, document string, variables map[string]any, out any) error
}

// Option is a function that configures a Client.
type Option func(*config) error

type config struct {
	endpoint    string
	token       string
	httpTimeout time.Duration
	maxRetries  int
	backoff     time.Duration
	store       store.Store
	requester   Requester
	repos       *repository.Repositories
	clock       func() utc.Time
	logger      *zerolog.Logger
	registry    *prometheus.Registry
}

// WithEndpoint sets the GraphQL endpoint of the platform.
func WithEndpoint(url string) Option {
	return func(c *config) error {
		if url == "" {
			return errors.NewConfigError("endpoint", "url must not be empty", nil)
		}
		c.endpoint = url
		return nil
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *config) error {
		c.token = token
		return nil
	}
}

// WithHTTPTimeout bounds each request to the platform.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return errors.NewConfigError("timeout", "must be positive", nil)
		}
		c.httpTimeout = d
		return nil
	}
}

// WithRetry sets how query operations are retried. Mutations are never retried.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *config) error {
		if maxRetries < 0 {
			return errors.NewConfigError("retry", "max retries must not be negative", nil)
		}
		c.maxRetries = maxRetries
		c.backoff = backoff
		return nil
	}
}

// WithStore sets where the desired-state document is loaded from and saved to.
func WithStore(s store.Store) Option {
	return func(c *config) error {
		c.store = s
		return nil
	}
}

// WithDocumentPath reads and writes the document at path.
func WithDocumentPath(path string) Option {
	return func(c *config) error {
		c.store = store.NewFileStore(path)
		return nil
	}
}

// WithRequester replaces the HTTP transport, e.g. with a recording fake.
func WithRequester(r Requester) Option {
	return func(c *config) error {
		c.requester = r
		return nil
	}
}

// WithClock sets the clock used for run timestamps.
func WithClock(clock func() utc.Time) Option {
	return func(c *config) error {
		c.clock = clock
		return nil
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = &logger
		return nil
	}
}

// WithMetricsRegistry registers transport metrics on registry.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(c *config) error {
		c.registry = registry
		return nil
	}
}

// withRepositories bypasses GraphQL entirely.
func withRepositories(repos *repository.Repositories) Option {
	return func(c *config) error {
		c.repos = repos
		return nil
	}
}
