package retrieve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/configurator/internal/bootstrap"
	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/repository/memory"
	"github.com/agentstation/configurator/internal/utils/ptr"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/schema"
	"github.com/agentstation/configurator/pkg/store"
)

func seeded(t *testing.T) *memory.Platform {
	t.Helper()
	logging.DisableLoggingForTest(t)
	p := memory.New()
	color := p.AddAttribute(repository.Attribute{Name: "Color", InputType: schema.InputTypeDropdown,
		Type: schema.AttributeTypeProductType, Values: []string{"Red", "Blue"}})
	related := p.AddAttribute(repository.Attribute{Name: "Related", InputType: schema.InputTypeReference,
		Type: schema.AttributeTypePageType, EntityType: schema.EntityTypeProduct})
	p.AddProductType("T-Shirt", color)
	p.AddPageType("Blog Post", related)
	p.AddChannel(repository.Channel{Name: "Default", Slug: "default-channel", CurrencyCode: "USD",
		DefaultCountry: "US", IsActive: true, Settings: schema.ChannelSettings{AllocationStrategy: ptr.String("PRIORITIZE_HIGH_STOCK")}})
	root := p.AddCategory("Apparel", "")
	shirts := p.AddCategory("Shirts", root)
	p.AddCategory("Polos", shirts)
	p.SetShop(schema.ShopSettings{HeaderText: ptr.String("Welcome")})
	return p
}

func TestFetchMapsEverySection(t *testing.T) {
	p := seeded(t)

	cfg, err := New(p.Repositories()).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Welcome", ptr.Deref(cfg.Shop.HeaderText))
	require.Len(t, cfg.Channels, 1)
	assert.Equal(t, "PRIORITIZE_HIGH_STOCK", ptr.Deref(cfg.Channels[0].Settings.AllocationStrategy))
	assert.Equal(t, []schema.ProductTypeDefinition{{
		Name: "T-Shirt",
		Attributes: []schema.AttributeDefinition{{
			Name: "Color", InputType: schema.InputTypeDropdown, Type: schema.AttributeTypeProductType,
			Values: []schema.AttributeValue{{Name: "Red"}, {Name: "Blue"}},
		}},
	}}, cfg.ProductTypes)
	assert.Equal(t, schema.EntityTypeProduct, cfg.PageTypes[0].Attributes[0].EntityType)
	assert.Equal(t, []schema.Category{{
		Name: "Apparel", Slug: "apparel",
		Subcategories: []schema.Category{{
			Name: "Shirts", Slug: "shirts",
			Subcategories: []schema.Category{{Name: "Polos", Slug: "polos"}},
		}},
	}}, cfg.Categories)
	assert.Equal(t, 0, p.MutationCalls())
}

func TestFetchRejectsUnknownInputType(t *testing.T) {
	p := memory.New()
	logging.DisableLoggingForTest(t)
	id := p.AddAttribute(repository.Attribute{Name: "Legacy", InputType: "HOLOGRAM", Type: schema.AttributeTypeProductType})
	p.AddProductType("Old", id)

	_, err := New(p.Repositories()).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.ErrorContains(t, err, "HOLOGRAM")
}

func TestRetrieveRoundTrip(t *testing.T) {
	p := seeded(t)
	s := store.NewMemoryStore(nil)

	cfg, err := New(p.Repositories()).Retrieve(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Saves())

	loaded, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, schema.Validate(loaded), "retrieved documents validate unchanged")
	assert.Equal(t, cfg, loaded)

	p.ResetCalls()
	r, err := bootstrap.New(p.Repositories()).Run(context.Background(), loaded)
	require.NoError(t, err)
	assert.False(t, r.HasFailures())
	for _, op := range []string{memory.OpCreateAttribute, memory.OpCreateProductType, memory.OpAssignProductAttributes,
		memory.OpCreatePageType, memory.OpAssignPageAttributes, memory.OpCreateChannel, memory.OpCreateCategory} {
		assert.Zero(t, p.Calls(op), op)
	}
}

func TestMapAttribute(t *testing.T) {
	tests := []struct {
		name    string
		attr    repository.Attribute
		want    schema.AttributeDefinition
		wantErr bool
	}{
		{
			name: "simple drops stray values",
			attr: repository.Attribute{Name: "Weight", InputType: schema.InputTypeNumeric, Values: []string{"1"}},
			want: schema.AttributeDefinition{Name: "Weight", InputType: schema.InputTypeNumeric, Type: schema.AttributeTypeProductType},
		},
		{
			name: "remote scope wins",
			attr: repository.Attribute{Name: "Body", InputType: schema.InputTypeRichText, Type: schema.AttributeTypePageType},
			want: schema.AttributeDefinition{Name: "Body", InputType: schema.InputTypeRichText, Type: schema.AttributeTypePageType},
		},
		{
			name:    "reference without entity type",
			attr:    repository.Attribute{Name: "Link", InputType: schema.InputTypeReference},
			wantErr: true,
		},
		{
			name:    "unknown input type",
			attr:    repository.Attribute{Name: "X", InputType: "MATRIX"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapAttribute(tt.attr, schema.AttributeTypeProductType)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapChannelWithoutSettings(t *testing.T) {
	ch := MapChannel(repository.Channel{Name: "EU", Slug: "eu", CurrencyCode: "EUR", DefaultCountry: "DE"})
	assert.Nil(t, ch.Settings)
	assert.False(t, ch.Active())
}
