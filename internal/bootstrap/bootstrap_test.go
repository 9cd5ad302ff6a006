package bootstrap

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/configurator/internal/repository/memory"
	"github.com/agentstation/configurator/internal/utils/ptr"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
	"github.com/agentstation/configurator/pkg/store"
)

var now = utc.New(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))

func newOrchestrator(t *testing.T) (*memory.Platform, *Orchestrator) {
	t.Helper()
	logging.DisableLoggingForTest(t)
	p := memory.New()
	return p, New(p.Repositories(),
		WithClock(func() utc.Time { return now }),
		WithRunID(func() string { return "run-1" }))
}

// createOrAssign counts the calls that would add something to the platform.
func createOrAssign(p *memory.Platform) int {
	n := 0
	for _, op := range []string{
		memory.OpCreateAttribute, memory.OpCreateProductType, memory.OpAssignProductAttributes,
		memory.OpCreatePageType, memory.OpAssignPageAttributes, memory.OpCreateChannel,
		memory.OpCreateCategory, memory.OpCreateProduct, memory.OpCreateVariant,
	} {
		n += p.Calls(op)
	}
	return n
}

const fullDocument = `
shop:
  headerText: Welcome
  defaultMailSenderAddress: shop@example.com
channels:
  - name: Default
    slug: default-channel
    currencyCode: USD
    defaultCountry: US
    settings:
      allocationStrategy: PRIORITIZE_SORTING_ORDER
productTypes:
  - name: T-Shirt
    attributes:
      - name: Color
        inputType: DROPDOWN
        values:
          - name: Red
          - name: Blue
      - name: Material
        inputType: PLAIN_TEXT
pageTypes:
  - name: Blog Post
    attributes:
      - name: Author
        inputType: PLAIN_TEXT
categories:
  - name: Apparel
    subcategories:
      - name: Shirts
      - name: Pants
products:
  - name: Classic Tee
    description: Soft cotton.
    productType: T-Shirt
    category: Apparel
    channelListings:
      - channel: default-channel
        isPublished: true
        visibleInListings: true
        isAvailableForPurchase: true
    variants:
      - sku: TEE-RED
        attributes:
          - attribute: Color
            values: [Red]
        channelListings:
          - channel: default-channel
            price: 19.99
`

func decode(t *testing.T, doc string) *schema.Configuration {
	t.Helper()
	cfg, err := store.Decode([]byte(doc), "test.yml")
	require.NoError(t, err)
	return cfg
}

func TestRunTShirtScenario(t *testing.T) {
	p, o := newOrchestrator(t)
	cfg := &schema.Configuration{ProductTypes: []schema.ProductTypeDefinition{{
		Name: "T-Shirt",
		Attributes: []schema.AttributeDefinition{{
			Name: "Color", InputType: schema.InputTypeDropdown, Type: schema.AttributeTypeProductType,
			Values: []schema.AttributeValue{{Name: "Red"}, {Name: "Blue"}},
		}},
	}}}

	r, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, 1, p.Calls(memory.OpCreateAttribute))
	assert.Equal(t, 1, p.Calls(memory.OpCreateProductType))
	assert.Equal(t, 1, p.Calls(memory.OpAssignProductAttributes))
	assert.Equal(t, []string{"Color"}, p.ProductTypeAttributes("T-Shirt"))

	p.ResetCalls()
	r, err = o.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, p.MutationCalls())
	assert.Equal(t, "1 unchanged", r.Summary())
}

func TestRunValidatesBeforeAnyCall(t *testing.T) {
	p, o := newOrchestrator(t)
	cfg := &schema.Configuration{PageTypes: []schema.PageTypeDefinition{{
		Name:       "Blog Post",
		Attributes: []schema.AttributeDefinition{{Name: "Related", InputType: schema.InputTypeReference}},
	}}}

	r, err := o.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Nil(t, r)
	assert.Equal(t, 0, p.TotalCalls())
}

func TestRunIsIdempotent(t *testing.T) {
	p, o := newOrchestrator(t)
	cfg := decode(t, fullDocument)

	first, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, first.HasFailures(), first.Failures())
	assert.Positive(t, createOrAssign(p))
	listing, ok := p.ProductListing("Classic Tee", "default-channel")
	require.True(t, ok)
	require.NotNil(t, listing.PublishedAt)

	p.ResetCalls()
	second, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, createOrAssign(p))
	assert.Zero(t, second.Count(report.StatusCreated))
	assert.False(t, second.HasFailures())
}

func TestRunStageOneFailureAborts(t *testing.T) {
	p, o := newOrchestrator(t)
	p.FailOn(memory.OpCreateChannel, "default-channel", errors.New("denied"))

	r, err := o.Run(context.Background(), decode(t, fullDocument))
	require.Error(t, err)
	assert.ErrorContains(t, err, "denied")
	require.NotNil(t, r)
	assert.True(t, r.HasFailures())
	assert.Equal(t, 0, p.Calls(memory.OpFindProduct), "products never start")
}

func TestRunStageTwoContinuesPastFailures(t *testing.T) {
	p, o := newOrchestrator(t)
	cfg := decode(t, fullDocument)
	broken := cfg.Products[0]
	broken.Name = "Broken Tee"
	broken.Category = "Shoes"
	broken.Variants = nil
	cfg.Products = append([]schema.Product{broken}, cfg.Products...)

	r, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)

	failed, ok := r.Find(report.KindProduct, "Broken Tee")
	require.True(t, ok)
	assert.Equal(t, report.StatusFailed, failed.Status)
	assert.True(t, strings.Contains(failed.Reason, "Shoes"))

	created, ok := r.Find(report.KindProduct, "Classic Tee")
	require.True(t, ok)
	assert.Equal(t, report.StatusCreated, created.Status)
	assert.Equal(t, []string{"TEE-RED"}, p.ProductVariants("Classic Tee"))
}

func TestRunAppliesEverySection(t *testing.T) {
	p, o := newOrchestrator(t)

	_, err := o.Run(context.Background(), decode(t, fullDocument))
	require.NoError(t, err)

	assert.Equal(t, "Welcome", ptr.Deref(p.ShopSettings().HeaderText))
	ch, ok := p.ChannelBySlug("default-channel")
	require.True(t, ok)
	assert.True(t, ch.IsActive)
	assert.Equal(t, "PRIORITIZE_SORTING_ORDER", ptr.Deref(ch.Settings.AllocationStrategy))
	assert.Equal(t, []string{"Color", "Material"}, p.ProductTypeAttributes("T-Shirt"))
	assert.Equal(t, []string{"Shirts", "Pants"}, p.CategoryChildren("Apparel"))

	price, ok := p.VariantListing("TEE-RED", "default-channel")
	require.True(t, ok)
	assert.True(t, price.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestRunCancelledContext(t *testing.T) {
	p, o := newOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, decode(t, fullDocument))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.Calls(memory.OpFindProduct))
}
