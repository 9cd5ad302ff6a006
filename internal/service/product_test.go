package service

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/repository/memory"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

func seedCatalog(t *testing.T, p *memory.Platform) {
	t.Helper()
	color := p.AddAttribute(repository.Attribute{Name: "Color", InputType: schema.InputTypeDropdown,
		Type: schema.AttributeTypeProductType, Values: []string{"Red", "Blue"}})
	p.AddProductType("T-Shirt", color)
	p.AddCategory("Apparel", "")
	p.AddChannel(repository.Channel{Slug: "default-channel", IsActive: true})
}

func classicTee() schema.Product {
	return schema.Product{
		Name:        "Classic Tee",
		Description: "Soft cotton.",
		ProductType: "T-Shirt",
		Category:    "Apparel",
		ChannelListings: []schema.ProductChannelListing{{
			Channel: "default-channel", IsPublished: true, VisibleInListings: true, IsAvailableForPurchase: true,
		}},
		Variants: []schema.ProductVariant{{
			SKU:        "TEE-RED",
			Attributes: []schema.AttributeAssignment{{Attribute: "Color", Values: []string{"Red"}}},
			ChannelListings: []schema.VariantChannelListing{{
				Channel: "default-channel", Price: decimal.RequireFromString("19.99"),
			}},
		}},
	}
}

func TestProductBootstrapCreates(t *testing.T) {
	p, svc, ctx, rec := newTestServices(t)
	seedCatalog(t, p)

	require.NoError(t, svc.Products.Bootstrap(ctx, classicTee()))

	assert.Equal(t, 1, p.Calls(memory.OpCreateProduct))
	assert.Equal(t, 1, p.Calls(memory.OpUpdateProductChannelListing))
	assert.Equal(t, 1, p.Calls(memory.OpCreateVariant))
	assert.Equal(t, 1, p.Calls(memory.OpUpdateVariantChannelListings))
	assert.Equal(t, []string{"TEE-RED"}, p.ProductVariants("Classic Tee"))

	listing, ok := p.ProductListing("Classic Tee", "default-channel")
	require.True(t, ok)
	require.NotNil(t, listing.PublishedAt)
	assert.True(t, listing.PublishedAt.Equal(testNow.Time))

	price, ok := p.VariantListing("TEE-RED", "default-channel")
	require.True(t, ok)
	assert.True(t, price.Price.Equal(decimal.RequireFromString("19.99")))
	assert.Contains(t, p.ProductDescription("Classic Tee"), `"text":"Soft cotton."`)

	r := rec.Finish(testNow)
	outcome, _ := r.Find(report.KindProduct, "Classic Tee")
	assert.Equal(t, report.StatusCreated, outcome.Status)
	variant, _ := r.Find(report.KindVariant, "TEE-RED")
	assert.Equal(t, report.StatusCreated, variant.Status)
}

func TestProductBootstrapUpdateCreatesOnlyNewVariants(t *testing.T) {
	p, svc, ctx, rec := newTestServices(t)
	seedCatalog(t, p)
	require.NoError(t, svc.Products.Bootstrap(ctx, classicTee()))
	p.ResetCalls()

	tee := classicTee()
	tee.Variants = append(tee.Variants, schema.ProductVariant{
		SKU: "TEE-BLUE",
		ChannelListings: []schema.VariantChannelListing{{
			Channel: "default-channel", Price: decimal.RequireFromString("21.00"),
		}},
	})
	tee.Variants[0].ChannelListings[0].Price = decimal.RequireFromString("17.50")
	require.NoError(t, svc.Products.Bootstrap(ctx, tee))

	assert.Equal(t, 0, p.Calls(memory.OpCreateProduct))
	assert.Equal(t, 1, p.Calls(memory.OpUpdateProduct))
	assert.Equal(t, 1, p.Calls(memory.OpCreateVariant), "existing SKU is not resubmitted")
	assert.Equal(t, 2, p.Calls(memory.OpUpdateVariantChannelListings))
	assert.Equal(t, []string{"TEE-RED", "TEE-BLUE"}, p.ProductVariants("Classic Tee"))

	price, _ := p.VariantListing("TEE-RED", "default-channel")
	assert.Equal(t, "17.5", price.Price.String())

	variant, _ := rec.Finish(testNow).Find(report.KindVariant, "TEE-RED")
	assert.Equal(t, report.StatusUpdated, variant.Status)
}

func TestProductBootstrapKeepsPublicationTimestamps(t *testing.T) {
	p := memory.New()
	seedCatalog(t, p)
	now := testNow
	clock := func() utc.Time { return now }
	svc := New(p.Repositories(), clock)
	logging.DisableLoggingForTest(t)
	ctx := context.Background()

	require.NoError(t, svc.Products.Bootstrap(ctx, classicTee()))
	now = utc.New(testNow.Time.Add(48 * time.Hour))
	require.NoError(t, svc.Products.Bootstrap(ctx, classicTee()))

	listing, _ := p.ProductListing("Classic Tee", "default-channel")
	require.NotNil(t, listing.PublishedAt)
	require.NotNil(t, listing.AvailableForPurchaseAt)
	assert.True(t, listing.PublishedAt.Equal(testNow.Time), "re-runs do not move the publish time")
	assert.True(t, listing.AvailableForPurchaseAt.Equal(testNow.Time))
}

func TestProductBootstrapKeepsUnchangedDescription(t *testing.T) {
	p := memory.New()
	seedCatalog(t, p)
	now := testNow
	clock := func() utc.Time { return now }
	svc := New(p.Repositories(), clock)
	logging.DisableLoggingForTest(t)
	ctx := context.Background()

	require.NoError(t, svc.Products.Bootstrap(ctx, classicTee()))
	first := p.ProductDescription("Classic Tee")

	now = utc.New(testNow.Time.Add(time.Hour))
	require.NoError(t, svc.Products.Bootstrap(ctx, classicTee()))
	assert.Equal(t, first, p.ProductDescription("Classic Tee"), "same text keeps the stored document")

	changed := classicTee()
	changed.Description = "Heavy cotton."
	require.NoError(t, svc.Products.Bootstrap(ctx, changed))
	assert.Contains(t, p.ProductDescription("Classic Tee"), `"text":"Heavy cotton."`)
	assert.NotEqual(t, first, p.ProductDescription("Classic Tee"))
}

func TestSameText(t *testing.T) {
	doc, err := RichText("Classic Tee", "Soft cotton.", testNow)
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  string
		text string
		want bool
	}{
		{"same text", doc, "Soft cotton.", true},
		{"different text", doc, "Heavy cotton.", false},
		{"empty document and text", "", "", true},
		{"empty document", "", "Soft cotton.", false},
		{"unreadable document", "not json", "Soft cotton.", false},
		{"multiple blocks", `{"blocks":[{"data":{"text":"a"}},{"data":{"text":"b"}}]}`, "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameText(tt.doc, tt.text))
		})
	}
}

func TestProductBootstrapCreatesMissingProductType(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	p.AddChannel(repository.Channel{Slug: "default-channel", IsActive: true})

	err := svc.Products.Bootstrap(ctx, schema.Product{Name: "Gift Card", ProductType: "Gift"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Calls(memory.OpCreateProductType))
	assert.Empty(t, p.ProductTypeAttributes("Gift"))
}

func TestProductBootstrapResolutionFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*schema.Product)
		want   string
	}{
		{"unknown category", func(p *schema.Product) { p.Category = "Shoes" }, "category Shoes not found"},
		{"unknown channel", func(p *schema.Product) { p.ChannelListings[0].Channel = "eu" }, "channel eu not found"},
		{"unknown attribute", func(p *schema.Product) {
			p.Attributes = []schema.AttributeAssignment{{Attribute: "Fit", Values: []string{"Slim"}}}
		}, "attribute Fit not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, svc, ctx, rec := newTestServices(t)
			seedCatalog(t, p)
			product := classicTee()
			tt.mutate(&product)

			err := svc.Products.Bootstrap(ctx, product)
			require.Error(t, err)
			assert.True(t, errors.IsNotFound(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, 0, p.Calls(memory.OpCreateProduct))

			outcome, ok := rec.Finish(testNow).Find(report.KindProduct, "Classic Tee")
			require.True(t, ok)
			assert.Equal(t, report.StatusFailed, outcome.Status)
		})
	}
}

func TestProductBootstrapCachesLookups(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	seedCatalog(t, p)

	first := classicTee()
	second := classicTee()
	second.Name = "Vintage Tee"
	second.Variants[0].SKU = "VTEE-RED"
	require.NoError(t, svc.Products.Bootstrap(ctx, first))
	require.NoError(t, svc.Products.Bootstrap(ctx, second))

	assert.Equal(t, 1, p.Calls(memory.OpFindChannel))
	assert.Equal(t, 1, p.Calls(memory.OpFindProductType))
	assert.Equal(t, 1, p.Calls(memory.OpFindCategory))
}

func TestProductBootstrapVariantFailure(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	seedCatalog(t, p)
	p.FailOn(memory.OpCreateVariant, "TEE-RED", errors.New("rejected"))

	err := svc.Products.Bootstrap(ctx, classicTee())
	assert.ErrorContains(t, err, "variant TEE-RED: rejected")
}
