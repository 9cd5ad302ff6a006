package configurator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/configurator/internal/repository/memory"
	"github.com/agentstation/configurator/pkg/diff"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/schema"
	"github.com/agentstation/configurator/pkg/store"
)

const document = `
channels:
  - name: Default
    slug: default-channel
    currencyCode: USD
    defaultCountry: US
productTypes:
  - name: T-Shirt
    attributes:
      - name: Color
        inputType: DROPDOWN
        values:
          - name: Red
categories:
  - name: Apparel
`

func newTestClient(t *testing.T, doc string) (Client, *memory.Platform, *store.MemoryStore) {
	t.Helper()
	logging.DisableLoggingForTest(t)
	cfg, err := store.Decode([]byte(doc), "test.yml")
	require.NoError(t, err)
	s := store.NewMemoryStore(cfg)
	p := memory.New()
	c, err := New(
		WithStore(s),
		withRepositories(p.Repositories()),
		WithClock(func() utc.Time { return utc.New(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) }),
	)
	require.NoError(t, err)
	return c, p, s
}

func TestBootstrapThenDiff(t *testing.T) {
	c, p, _ := newTestClient(t, document)

	before, err := c.Diff(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, before.Count(diff.Added))

	r, err := c.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.False(t, r.HasFailures())
	assert.Equal(t, []string{"Color"}, p.ProductTypeAttributes("T-Shirt"))

	after, err := c.Diff(context.Background())
	require.NoError(t, err)
	assert.False(t, after.HasChanges(), after.Entries)
}

func TestRetrieveSavesDocument(t *testing.T) {
	c, p, s := newTestClient(t, document)
	p.AddCategory("Footwear", "")

	cfg, err := c.Retrieve(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, "Footwear", cfg.Categories[0].Name)

	saved, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, saved)
}

func TestValidateNeedsNoPlatform(t *testing.T) {
	logging.DisableLoggingForTest(t)
	s := store.NewMemoryStore(&schema.Configuration{PageTypes: []schema.PageTypeDefinition{{
		Name:       "Blog Post",
		Attributes: []schema.AttributeDefinition{{Name: "Related", InputType: schema.InputTypeReference}},
	}}})
	c, err := New(WithStore(s))
	require.NoError(t, err)

	assert.True(t, errors.IsValidationError(c.Validate()))

	_, err = c.Bootstrap(context.Background())
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBootstrapMissingDocument(t *testing.T) {
	logging.DisableLoggingForTest(t)
	p := memory.New()
	c, err := New(WithStore(store.NewMemoryStore(nil)), withRepositories(p.Repositories()))
	require.NoError(t, err)

	_, err = c.Bootstrap(context.Background())
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 0, p.TotalCalls())
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty endpoint", WithEndpoint("")},
		{"zero timeout", WithHTTPTimeout(0)},
		{"negative retries", WithRetry(-1, time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			var cfgErr *errors.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}

	registry := prometheus.NewRegistry()
	c, err := New(WithEndpoint("http://localhost:8000/graphql/"), WithToken("t"), WithMetricsRegistry(registry))
	require.NoError(t, err)
	assert.Same(t, registry, c.Metrics())
}

func TestNewConfiguresLoggingFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		written bool
	}{
		{"environment rebuilds the default logger", nil, true},
		{"explicit logger wins", []Option{WithLogger(zerolog.Nop())}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logging.DisableLoggingForTest(t)
			level := zerolog.GlobalLevel()
			t.Cleanup(func() { zerolog.SetGlobalLevel(level) })

			path := filepath.Join(t.TempDir(), "run.log")
			t.Setenv("LOG_OUTPUT", path)
			t.Setenv("LOG_FORMAT", "json")
			t.Setenv("LOG_FIELDS", "service=configurator")

			_, err := New(append(tt.opts, WithStore(store.NewMemoryStore(nil)))...)
			require.NoError(t, err)
			logging.Default().Info().Msg("configured")

			raw, err := os.ReadFile(path)
			if !tt.written {
				assert.True(t, os.IsNotExist(err))
				return
			}
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"service":"configurator"`)
			assert.Contains(t, string(raw), "configured")
		})
	}
}
