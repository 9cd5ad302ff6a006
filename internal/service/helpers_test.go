package service

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/configurator/internal/repository/memory"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

var testNow = utc.New(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))

func fixedClock() utc.Time { return testNow }

func newTestServices(t *testing.T) (*memory.Platform, *Services, context.Context, *report.Recorder) {
	t.Helper()
	logging.DisableLoggingForTest(t)
	p := memory.New()
	rec := report.NewRecorder("test-run", testNow)
	ctx := report.WithRecorder(context.Background(), rec)
	return p, New(p.Repositories(), fixedClock), ctx, rec
}

func dropdown(name string, values ...string) schema.AttributeDefinition {
	def := schema.AttributeDefinition{Name: name, InputType: schema.InputTypeDropdown}
	for _, v := range values {
		def.Values = append(def.Values, schema.AttributeValue{Name: v})
	}
	return def
}

func plain(name string) schema.AttributeDefinition {
	return schema.AttributeDefinition{Name: name, InputType: schema.InputTypePlainText}
}
