package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentstation/utc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/configurator"
	"github.com/agentstation/configurator/pkg/diff"
	cfgerrors "github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

type fakeClient struct {
	report       *report.Report
	bootstrapErr error
	diff         *diff.Result
	validateErr  error
	retrieved    *schema.Configuration
	registry     *prometheus.Registry
	calls        []string
}

func (f *fakeClient) Bootstrap(context.Context) (*report.Report, error) {
	f.calls = append(f.calls, "bootstrap")
	return f.report, f.bootstrapErr
}

func (f *fakeClient) Retrieve(context.Context) (*schema.Configuration, error) {
	f.calls = append(f.calls, "retrieve")
	return f.retrieved, nil
}

func (f *fakeClient) Diff(context.Context) (*diff.Result, error) {
	f.calls = append(f.calls, "diff")
	return f.diff, nil
}

func (f *fakeClient) Validate() error {
	f.calls = append(f.calls, "validate")
	return f.validateErr
}

func (f *fakeClient) Metrics() *prometheus.Registry {
	if f.registry == nil {
		f.registry = prometheus.NewRegistry()
	}
	return f.registry
}

func newTestApp(t *testing.T, fake *fakeClient, config *Config) (*App, *bytes.Buffer) {
	t.Helper()
	if config == nil {
		config = &Config{URL: "https://shop.example.com/graphql/", Token: "secret", DocumentPath: "config.yml"}
	}
	logger := zerolog.Nop()
	var out bytes.Buffer
	a, err := New("1.2.3", "abc123", "2025-01-01", "test",
		WithConfig(config),
		WithLogger(&logger),
		WithOutput(&out),
		WithClientFactory(func(*Config, zerolog.Logger) (configurator.Client, error) { return fake, nil }),
	)
	require.NoError(t, err)
	return a, &out
}

func finished(record func(*report.Recorder)) *report.Report {
	r := report.NewRecorder("run-1", utc.Now())
	record(r)
	return r.Finish(utc.Now())
}

func TestBootstrapCommand(t *testing.T) {
	fake := &fakeClient{report: finished(func(r *report.Recorder) {
		r.Created(report.KindProductType, "T-Shirt")
	})}
	a, out := newTestApp(t, fake, nil)

	require.NoError(t, a.Execute(context.Background(), []string{"deploy", "-o", "table"}))
	assert.Equal(t, []string{"bootstrap"}, fake.calls)
	assert.Contains(t, out.String(), "T-Shirt")
	assert.Contains(t, out.String(), "1 created")
}

func TestBootstrapCommandFailsOnFailedEntities(t *testing.T) {
	fake := &fakeClient{report: finished(func(r *report.Recorder) {
		r.Created(report.KindChannel, "default-channel")
		r.Failed(report.KindProduct, "Tee", errors.New("boom"))
	})}
	a, out := newTestApp(t, fake, nil)

	err := a.Execute(context.Background(), []string{"bootstrap", "--format", "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 failed entities")
	assert.Contains(t, out.String(), `"status": "failed"`)
}

func TestBootstrapCommandRendersPartialReport(t *testing.T) {
	fake := &fakeClient{
		report: finished(func(r *report.Recorder) {
			r.Failed(report.KindAttribute, "Color", errors.New("boom"))
		}),
		bootstrapErr: errors.New("stage one failed"),
	}
	a, out := newTestApp(t, fake, nil)

	err := a.Execute(context.Background(), []string{"bootstrap", "-o", "yaml"})
	assert.EqualError(t, err, "stage one failed")
	assert.Contains(t, out.String(), "name: Color")
}

func TestPlatformCommandsRequireCredentials(t *testing.T) {
	fake := &fakeClient{}
	a, _ := newTestApp(t, fake, &Config{DocumentPath: "config.yml"})

	for _, args := range [][]string{{"bootstrap"}, {"retrieve"}, {"diff"}} {
		t.Run(args[0], func(t *testing.T) {
			err := a.Execute(context.Background(), args)
			var cfgErr *cfgerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "url", cfgErr.Component)
		})
	}
	assert.Empty(t, fake.calls)
}

func TestURLAndTokenFlags(t *testing.T) {
	fake := &fakeClient{diff: &diff.Result{}}
	a, out := newTestApp(t, fake, &Config{DocumentPath: "config.yml"})

	require.NoError(t, a.Execute(context.Background(), []string{
		"diff", "--url", "https://shop.example.com/graphql/", "--token", "secret", "-o", "table",
	}))
	assert.Equal(t, "https://shop.example.com/graphql/", a.Config().URL)
	assert.Contains(t, out.String(), "No differences")
}

func TestDiffExitCode(t *testing.T) {
	fake := &fakeClient{diff: &diff.Result{Entries: []diff.Entry{
		{Section: diff.SectionCategories, Name: "Apparel", Change: diff.Added},
	}}}
	a, _ := newTestApp(t, fake, nil)

	require.NoError(t, a.Execute(context.Background(), []string{"diff", "-o", "markdown"}))
	err := a.Execute(context.Background(), []string{"diff", "-o", "markdown", "--exit-code"})
	assert.ErrorIs(t, err, ErrChanges)
}

func TestRetrieveCommand(t *testing.T) {
	fake := &fakeClient{retrieved: &schema.Configuration{
		Channels: []schema.Channel{{Name: "Default", Slug: "default-channel"}},
	}}
	a, out := newTestApp(t, fake, nil)

	require.NoError(t, a.Execute(context.Background(), []string{"introspect", "-o", "table"}))
	assert.Equal(t, []string{"retrieve"}, fake.calls)
	assert.Contains(t, out.String(), "channels")
}

func TestValidateCommandNeedsNoPlatform(t *testing.T) {
	fake := &fakeClient{}
	a, out := newTestApp(t, fake, &Config{DocumentPath: "config.yml"})

	require.NoError(t, a.Execute(context.Background(), []string{"validate"}))
	assert.Equal(t, "config.yml is valid\n", out.String())

	fake.validateErr = cfgerrors.NewValidationError("channels[0].slug", "", "required")
	err := a.Execute(context.Background(), []string{"validate"})
	assert.True(t, cfgerrors.IsValidationError(err))
}

func TestInvalidFormat(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{}, nil)
	err := a.Execute(context.Background(), []string{"bootstrap", "-o", "wide"})
	assert.ErrorContains(t, err, "invalid format")
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	fake := &fakeClient{report: finished(func(*report.Recorder) {})}
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "configurator_test_total", Help: "test"})
	fake.Metrics().MustRegister(counter)
	counter.Inc()

	a, _ := newTestApp(t, fake, &Config{URL: "u", Token: "t", MetricsFile: path})
	require.NoError(t, a.Execute(context.Background(), []string{"bootstrap", "-o", "json"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "configurator_test_total 1")
}

func TestVersionCommand(t *testing.T) {
	a, out := newTestApp(t, &fakeClient{}, nil)
	require.NoError(t, a.Execute(context.Background(), []string{"version"}))
	assert.Contains(t, out.String(), "configurator version 1.2.3")
	assert.Contains(t, out.String(), "commit: abc123")
}

func TestClientIsCreatedOnce(t *testing.T) {
	created := 0
	logger := zerolog.Nop()
	a, err := New("dev", "", "", "",
		WithConfig(&Config{}),
		WithLogger(&logger),
		WithClientFactory(func(*Config, zerolog.Logger) (configurator.Client, error) {
			created++
			return &fakeClient{}, nil
		}),
	)
	require.NoError(t, err)

	first, err := a.Client()
	require.NoError(t, err)
	second, err := a.Client()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, created)
}
