// Package retrieve reads the live platform configuration and maps it back
// into the canonical document. It never mutates the platform.
package retrieve

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/utils/ptr"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/schema"
	"github.com/agentstation/configurator/pkg/store"
)

// Retriever maps remote state into a Configuration.
type Retriever struct {
	repos     *repository.Repositories
	validator *schema.Validator
}

// New returns a Retriever reading through repos.
func New(repos *repository.Repositories) *Retriever {
	return &Retriever{repos: repos, validator: schema.NewValidator()}
}

// Fetch reads the shop, channels, product types, page types and category
// trees, maps them and validates the result.
func (r *Retriever) Fetch(ctx context.Context) (*schema.Configuration, error) {
	cfg := &schema.Configuration{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		shop, err := r.repos.Shop.GetShop(gctx)
		if err != nil {
			return fmt.Errorf("fetch shop: %w", err)
		}
		if !shop.IsEmpty() {
			cfg.Shop = shop
		}
		return nil
	})
	g.Go(func() error {
		channels, err := r.repos.Channels.ListChannels(gctx)
		if err != nil {
			return fmt.Errorf("fetch channels: %w", err)
		}
		for _, ch := range channels {
			cfg.Channels = append(cfg.Channels, MapChannel(ch))
		}
		return nil
	})
	g.Go(func() error {
		types, err := r.repos.ProductTypes.ListProductTypes(gctx)
		if err != nil {
			return fmt.Errorf("fetch product types: %w", err)
		}
		for _, pt := range types {
			def := schema.ProductTypeDefinition{Name: pt.Name}
			if pt.IsShippingRequired {
				def.IsShippingRequired = ptr.Bool(true)
			}
			if def.Attributes, err = MapAttributes(pt.Attributes, schema.AttributeTypeProductType); err != nil {
				return fmt.Errorf("product type %q: %w", pt.Name, err)
			}
			cfg.ProductTypes = append(cfg.ProductTypes, def)
		}
		return nil
	})
	g.Go(func() error {
		types, err := r.repos.PageTypes.ListPageTypes(gctx)
		if err != nil {
			return fmt.Errorf("fetch page types: %w", err)
		}
		for _, pt := range types {
			def := schema.PageTypeDefinition{Name: pt.Name}
			if def.Attributes, err = MapAttributes(pt.Attributes, schema.AttributeTypePageType); err != nil {
				return fmt.Errorf("page type %q: %w", pt.Name, err)
			}
			cfg.PageTypes = append(cfg.PageTypes, def)
		}
		return nil
	})
	g.Go(func() error {
		roots, err := r.repos.Categories.ListRootCategories(gctx)
		if err != nil {
			return fmt.Errorf("fetch categories: %w", err)
		}
		for _, root := range roots {
			cat, err := r.tree(gctx, root)
			if err != nil {
				return err
			}
			cfg.Categories = append(cfg.Categories, cat)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := r.validator.Validate(cfg); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Int("channels", len(cfg.Channels)).
		Int("product_types", len(cfg.ProductTypes)).
		Int("page_types", len(cfg.PageTypes)).
		Int("categories", len(cfg.Categories)).
		Msg("remote configuration retrieved")
	return cfg, nil
}

// Retrieve fetches the remote configuration and saves it to s.
func (r *Retriever) Retrieve(ctx context.Context, s store.Store) (*schema.Configuration, error) {
	cfg, err := r.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// tree maps a category and, fetching one node at a time, its descendants.
func (r *Retriever) tree(ctx context.Context, c repository.Category) (schema.Category, error) {
	out := schema.Category{Name: c.Name, Slug: c.Slug}
	for _, child := range c.Children {
		full, err := r.repos.Categories.GetCategory(ctx, child.ID)
		if err != nil {
			return out, fmt.Errorf("fetch category %q: %w", child.Name, err)
		}
		sub, err := r.tree(ctx, *full)
		if err != nil {
			return out, err
		}
		out.Subcategories = append(out.Subcategories, sub)
	}
	return out, nil
}

// MapChannel converts a remote channel.
func MapChannel(ch repository.Channel) schema.Channel {
	out := schema.Channel{
		Name:           ch.Name,
		Slug:           ch.Slug,
		CurrencyCode:   ch.CurrencyCode,
		DefaultCountry: ch.DefaultCountry,
		IsActive:       ptr.Bool(ch.IsActive),
	}
	s := ch.Settings
	if s.OrderSettings() != nil || s.CheckoutSettings() != nil || s.PaymentSettings() != nil || s.StockSettings() != nil {
		out.Settings = &s
	}
	return out
}

// MapAttributes converts remote attributes through the attribute taxonomy.
// An input type outside the taxonomy is a validation error.
func MapAttributes(attrs []repository.Attribute, scope schema.AttributeType) ([]schema.AttributeDefinition, error) {
	var defs []schema.AttributeDefinition
	for _, a := range attrs {
		def, err := MapAttribute(a, scope)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// MapAttribute converts one remote attribute.
func MapAttribute(a repository.Attribute, scope schema.AttributeType) (schema.AttributeDefinition, error) {
	raw := schema.AttributeDefinition{Name: a.Name, InputType: a.InputType, EntityType: a.EntityType}
	for _, v := range a.Values {
		raw.Values = append(raw.Values, schema.AttributeValue{Name: v})
	}

	var variant schema.AttributeVariant
	switch a.InputType.Kind() {
	case schema.KindChoice, schema.KindReference, schema.KindSimple:
		v, err := raw.Variant()
		if err != nil {
			return schema.AttributeDefinition{}, err
		}
		variant = v
	default:
		return schema.AttributeDefinition{}, errors.NewValidationError("inputType", a.InputType,
			fmt.Sprintf("attribute %q has unsupported input type %q", a.Name, a.InputType))
	}

	if a.Type != "" {
		scope = a.Type
	}
	return schema.DefinitionOf(variant, scope), nil
}
