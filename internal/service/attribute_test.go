package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/repository/memory"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

func TestAttributeBootstrapCreatesOnlyMissing(t *testing.T) {
	p, svc, ctx, rec := newTestServices(t)
	p.AddAttribute(repository.Attribute{Name: "Color", InputType: schema.InputTypeDropdown, Type: schema.AttributeTypeProductType})

	defs := []schema.AttributeDefinition{dropdown("Color", "Red"), plain("Material")}
	got, err := svc.Attributes.Bootstrap(ctx, defs, schema.AttributeTypeProductType)
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Equal(t, 1, p.Calls(memory.OpFindAttributes))
	assert.Equal(t, 1, p.Calls(memory.OpCreateAttribute))
	assert.Equal(t, "material", got["Material"].Slug)

	p.ResetCalls()
	_, err = svc.Attributes.Bootstrap(ctx, defs, schema.AttributeTypeProductType)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Calls(memory.OpCreateAttribute))

	r := rec.Finish(testNow)
	assert.Equal(t, 1, r.Count(report.StatusCreated))
}

func TestAttributeBootstrapScopesLookup(t *testing.T) {
	p, svc, ctx, rec := newTestServices(t)
	p.AddAttribute(repository.Attribute{Name: "Author", InputType: schema.InputTypePlainText, Type: schema.AttributeTypePageType})

	got, err := svc.Attributes.Bootstrap(ctx, []schema.AttributeDefinition{plain("Author")}, schema.AttributeTypeProductType)
	require.NoError(t, err)

	// The page attribute is invisible to a product lookup and its slug is taken.
	assert.Empty(t, got)
	assert.Equal(t, 1, p.Calls(memory.OpCreateAttribute))
	outcome, ok := rec.Finish(testNow).Find(report.KindAttribute, "Author")
	require.True(t, ok)
	assert.Equal(t, report.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "UNIQUE")
}

func TestAttributeBootstrapSkipsFailedCreates(t *testing.T) {
	p, svc, ctx, rec := newTestServices(t)
	p.FailOn(memory.OpCreateAttribute, "Size", errors.New("boom"))

	got, err := svc.Attributes.Bootstrap(ctx,
		[]schema.AttributeDefinition{dropdown("Size", "S", "M"), plain("Care")},
		schema.AttributeTypeProductType)
	require.NoError(t, err)

	assert.NotContains(t, got, "Size")
	assert.Contains(t, got, "Care")

	r := rec.Finish(testNow)
	failed, ok := r.Find(report.KindAttribute, "Size")
	require.True(t, ok)
	assert.Equal(t, report.StatusFailed, failed.Status)
	assert.Equal(t, "boom", failed.Reason)
}

// racingAttributes lets another writer create the attribute between the
// lookup and the create.
type racingAttributes struct {
	repository.AttributeRepository
	p *memory.Platform
}

func (r racingAttributes) CreateAttribute(ctx context.Context, in repository.AttributeCreateInput) (*repository.Attribute, error) {
	r.p.AddAttribute(repository.Attribute{Name: in.Name, InputType: in.InputType, Type: in.Type})
	return r.AttributeRepository.CreateAttribute(ctx, in)
}

func TestAttributeBootstrapAdoptsConcurrentCreate(t *testing.T) {
	p, _, ctx, rec := newTestServices(t)
	svc := NewAttributeService(racingAttributes{AttributeRepository: p.Repositories().Attributes, p: p})

	got, err := svc.Bootstrap(ctx, []schema.AttributeDefinition{plain("Care")}, schema.AttributeTypeProductType)
	require.NoError(t, err)

	require.Contains(t, got, "Care")
	assert.Equal(t, "care", got["Care"].Slug)
	assert.Equal(t, 2, p.Calls(memory.OpFindAttributes))
	outcome, ok := rec.Finish(testNow).Find(report.KindAttribute, "Care")
	require.True(t, ok)
	assert.Equal(t, report.StatusUnchanged, outcome.Status)
}

func TestAttributeBootstrapLookupFailure(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	p.FailOn(memory.OpFindAttributes, "", errors.New("unavailable"))

	_, err := svc.Attributes.Bootstrap(ctx, []schema.AttributeDefinition{plain("Care")}, schema.AttributeTypeProductType)
	assert.EqualError(t, err, "unavailable")
	assert.Equal(t, 0, p.Calls(memory.OpCreateAttribute))
}

func TestCreateInput(t *testing.T) {
	tests := []struct {
		name    string
		variant schema.AttributeVariant
		want    repository.AttributeCreateInput
	}{
		{
			name:    "choice carries values",
			variant: schema.ChoiceAttribute{Name: "Shoe Size", InputType: schema.InputTypeSwatch, Values: []string{"42"}},
			want: repository.AttributeCreateInput{Name: "Shoe Size", Slug: "shoe-size", InputType: schema.InputTypeSwatch,
				Type: schema.AttributeTypeProductType, Values: []string{"42"}},
		},
		{
			name:    "reference carries entity type",
			variant: schema.ReferenceAttribute{Name: "Related", EntityType: schema.EntityTypeProduct},
			want: repository.AttributeCreateInput{Name: "Related", Slug: "related", InputType: schema.InputTypeReference,
				Type: schema.AttributeTypeProductType, EntityType: schema.EntityTypeProduct},
		},
		{
			name:    "simple carries nothing else",
			variant: schema.SimpleAttribute{Name: "Weight", InputType: schema.InputTypeNumeric},
			want: repository.AttributeCreateInput{Name: "Weight", Slug: "weight", InputType: schema.InputTypeNumeric,
				Type: schema.AttributeTypeProductType},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CreateInput(tt.variant, schema.AttributeTypeProductType))
		})
	}
}
