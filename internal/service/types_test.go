package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/repository/memory"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

func TestProductTypeBootstrapTShirt(t *testing.T) {
	p, svc, ctx, rec := newTestServices(t)
	color := dropdown("Color", "Red", "Blue")
	color.Type = schema.AttributeTypeProductType
	def := schema.ProductTypeDefinition{Name: "T-Shirt", Attributes: []schema.AttributeDefinition{color}}

	pt, err := svc.ProductTypes.Bootstrap(ctx, def)
	require.NoError(t, err)
	assert.Equal(t, "T-Shirt", pt.Name)

	assert.Equal(t, 1, p.Calls(memory.OpCreateAttribute))
	assert.Equal(t, 1, p.Calls(memory.OpCreateProductType))
	assert.Equal(t, 1, p.Calls(memory.OpAssignProductAttributes))
	assert.Equal(t, []string{"Color"}, p.ProductTypeAttributes("T-Shirt"))

	p.ResetCalls()
	_, err = svc.ProductTypes.Bootstrap(ctx, def)
	require.NoError(t, err)
	assert.Equal(t, 0, p.MutationCalls())
	assert.Equal(t, 0, p.Calls(memory.OpFindAttributes), "nothing left to resolve")

	r := rec.Finish(testNow)
	assert.Equal(t, []report.Outcome{
		{Kind: report.KindProductType, Name: "T-Shirt", Status: report.StatusCreated},
		{Kind: report.KindAttribute, Name: "Color", Status: report.StatusCreated},
		{Kind: report.KindProductType, Name: "T-Shirt", Status: report.StatusUnchanged},
	}, r.Outcomes)
}

func TestProductTypeBootstrapAssignsDeltaOnly(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	var assigned []string
	for _, name := range []string{"Color", "Size", "Fit"} {
		assigned = append(assigned, p.AddAttribute(repository.Attribute{
			Name: name, InputType: schema.InputTypePlainText, Type: schema.AttributeTypeProductType,
		}))
	}
	p.AddProductType("Hoodie", assigned...)

	def := schema.ProductTypeDefinition{Name: "Hoodie", Attributes: []schema.AttributeDefinition{
		plain("Color"), plain("Size"), plain("Fit"), plain("Fabric"), plain("Care"),
	}}
	_, err := svc.ProductTypes.Bootstrap(ctx, def)
	require.NoError(t, err)

	assert.Equal(t, 2, p.Calls(memory.OpCreateAttribute))
	assert.Equal(t, 1, p.Calls(memory.OpAssignProductAttributes))
	assert.Equal(t, 0, p.Calls(memory.OpCreateProductType))
	assert.Equal(t, []string{"Color", "Size", "Fit", "Fabric", "Care"}, p.ProductTypeAttributes("Hoodie"))
}

func TestProductTypeBootstrapAssignsExistingUnattachedAttribute(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	p.AddAttribute(repository.Attribute{Name: "Fabric", InputType: schema.InputTypePlainText, Type: schema.AttributeTypeProductType})
	p.AddProductType("Scarf")

	_, err := svc.ProductTypes.Bootstrap(ctx, schema.ProductTypeDefinition{
		Name: "Scarf", Attributes: []schema.AttributeDefinition{plain("Fabric")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Calls(memory.OpCreateAttribute))
	assert.Equal(t, 1, p.Calls(memory.OpAssignProductAttributes))
}

func TestProductTypeBootstrapEmptyDelta(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	p.FailOn(memory.OpCreateAttribute, "", errors.New("rejected"))

	_, err := svc.ProductTypes.Bootstrap(ctx, schema.ProductTypeDefinition{
		Name: "Mug", Attributes: []schema.AttributeDefinition{plain("Volume")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Calls(memory.OpAssignProductAttributes), "no resolved attribute means no assignment")
}

func TestProductTypeBootstrapAssignFailurePropagates(t *testing.T) {
	p, svc, ctx, rec := newTestServices(t)
	p.FailOn(memory.OpAssignProductAttributes, "", errors.New("denied"))

	_, err := svc.ProductTypes.Bootstrap(ctx, schema.ProductTypeDefinition{
		Name: "Cap", Attributes: []schema.AttributeDefinition{plain("Brim")},
	})
	var rerr *errors.ReconcileError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Cap", rerr.Name)
	assert.True(t, rec.Finish(testNow).HasFailures())
}

func TestProductTypeBootstrapShippingFlag(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	yes := true
	pt, err := svc.ProductTypes.Bootstrap(ctx, schema.ProductTypeDefinition{Name: "Book", IsShippingRequired: &yes})
	require.NoError(t, err)
	assert.True(t, pt.IsShippingRequired)
	assert.Equal(t, 0, p.Calls(memory.OpFindAttributes))
}

func TestPageTypeBootstrap(t *testing.T) {
	p, svc, ctx, rec := newTestServices(t)
	def := schema.PageTypeDefinition{Name: "Blog Post", Attributes: []schema.AttributeDefinition{
		plain("Author"),
		{Name: "Related Products", InputType: schema.InputTypeReference, EntityType: schema.EntityTypeProduct},
	}}

	_, err := svc.PageTypes.Bootstrap(ctx, def)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Calls(memory.OpCreatePageType))
	assert.Equal(t, 2, p.Calls(memory.OpCreateAttribute))
	assert.Equal(t, 1, p.Calls(memory.OpAssignPageAttributes))

	p.ResetCalls()
	_, err = svc.PageTypes.Bootstrap(ctx, def)
	require.NoError(t, err)
	assert.Equal(t, 0, p.MutationCalls())

	r := rec.Finish(testNow)
	assert.Len(t, r.Filter(func(o report.Outcome) bool {
		return o.Kind == report.KindPageType && o.Status == report.StatusCreated
	}), 1)
	latest, ok := r.Find(report.KindPageType, "Blog Post")
	require.True(t, ok)
	assert.Equal(t, report.StatusUnchanged, latest.Status)
}
