// Package transport sends GraphQL operations to the commerce platform.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/configurator/pkg/constants"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
)

// Requester executes one GraphQL operation and decodes its data into out.
type Requester interface {
	Do(ctx context.Context, document string, variables map[string]any, out any) error
}

// Client is the HTTP Requester.
type Client struct {
	endpoint   string
	http       *http.Client
	auth       Authenticator
	metrics    *Metrics
	maxRetries int
	backoff    time.Duration
}

var _ Requester = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithAuthenticator sets how requests are authenticated.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) { c.auth = a }
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.auth = BearerAuth{Token: token} }
}

// WithMetrics records request metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRetry sets how often and how patiently query operations are retried.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// New creates a Client for the GraphQL endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		http:       &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:       NoAuth{},
		maxRetries: constants.MaxRetries,
		backoff:    constants.RetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	return c
}

// Metrics returns the client's instrumentation.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// Do sends document with variables. Query operations are retried on rate
// limiting, server errors and network failures; mutations are sent once.
func (c *Client) Do(ctx context.Context, document string, variables map[string]any, out any) error {
	op, err := ParseOperation(document)
	if err != nil {
		return err
	}

	body, err := json.Marshal(request{Query: document, Variables: variables, OperationName: op.Name})
	if err != nil {
		return errors.WrapParse("json", op.Name, err)
	}

	logger := logging.Ctx(logging.WithOperation(ctx, op.Name))

	attempts := 1
	if op.IsQuery() {
		attempts += c.maxRetries
	}

	for attempt := 0; ; attempt++ {
		err = c.send(ctx, logger, op.Name, body, out)
		if err == nil {
			return nil
		}

		var apiErr *errors.APIError
		if attempt+1 >= attempts || !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return err
		}

		wait := c.retryDelay(attempt)
		logger.Warn().Err(err).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Bool("rate_limited", errors.IsRateLimited(err)).
			Bool("unavailable", errors.IsProviderUnavailable(err)).
			Msg("Retrying GraphQL query")
		c.metrics.retried(op.Name)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// send performs a single HTTP round trip.
func (c *Client) send(ctx context.Context, logger *zerolog.Logger, operation string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WrapResource("create", "request", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	c.auth.Apply(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(operation, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &errors.APIError{Operation: operation, Message: err.Error(), Endpoint: c.endpoint, Err: err}
	}

	elapsed := time.Since(start)
	c.metrics.observe(operation, resp.StatusCode, elapsed)
	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("GraphQL request")

	if err := decodeResponse(resp, operation, out); err != nil {
		var apiErr *errors.APIError
		if errors.As(err, &apiErr) {
			apiErr.Endpoint = c.endpoint
			if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
				return &errors.AuthenticationError{Endpoint: c.endpoint, Method: "bearer", Message: apiErr.Message, Err: apiErr}
			}
		}
		return err
	}
	return nil
}

// retryDelay doubles the backoff per attempt up to MaxRetryBackoff.
func (c *Client) retryDelay(attempt int) time.Duration {
	if c.backoff <= 0 {
		return 0
	}
	d := c.backoff << attempt
	if d <= 0 || d > constants.MaxRetryBackoff {
		return constants.MaxRetryBackoff
	}
	return d
}
