package service

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

// ProductService upserts products by name together with their channel
// listings and variants.
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	channels   repository.ChannelRepository
	attributes repository.AttributeRepository
	types      *ProductTypeService
	clock      Clock

	// ids caches name to id lookups for the lifetime of the service.
	ids *cache.Cache
}

// NewProductService returns a ProductService.
func NewProductService(repos *repository.Repositories, types *ProductTypeService, clock Clock) *ProductService {
	return &ProductService{
		products:   repos.Products,
		categories: repos.Categories,
		channels:   repos.Channels,
		attributes: repos.Attributes,
		types:      types,
		clock:      clock,
		ids:        cache.New(cache.NoExpiration, 0),
	}
}

// resolved holds the ids a product refers to.
type resolved struct {
	productType string
	category    string
	attributes  map[string]string
	channels    map[string]string
}

// Bootstrap creates or updates the product. On update the product type is
// never changed, the description is only sent when its text differs and only
// variants with a SKU absent from the platform are created; existing variants
// get their channel prices re-applied.
func (s *ProductService) Bootstrap(ctx context.Context, p schema.Product) error {
	ctx = entityContext(ctx, report.KindProduct, p.Name)
	rec := report.FromContext(ctx)

	ids, err := s.resolve(ctx, p)
	if err != nil {
		return fail(ctx, report.KindProduct, p.Name, err)
	}
	now := s.clock()
	description, err := RichText(p.Name, p.Description, now)
	if err != nil {
		return fail(ctx, report.KindProduct, p.Name, err)
	}
	input := repository.ProductInput{
		Name:          p.Name,
		Description:   description,
		ProductTypeID: ids.productType,
		CategoryID:    ids.category,
		Attributes:    attributeValues(p.Attributes, ids.attributes),
	}

	existing, err := s.products.FindProduct(ctx, p.Name)
	created := false
	switch {
	case errors.IsNotFound(err):
		existing, err = s.products.CreateProduct(ctx, input)
		if err != nil {
			return fail(ctx, report.KindProduct, p.Name, err)
		}
		created = true
		logging.Ctx(ctx).Info().Str("id", existing.ID).Msg("product created")
	case err != nil:
		return fail(ctx, report.KindProduct, p.Name, err)
	default:
		input.ProductTypeID = ""
		if SameText(existing.Description, p.Description) {
			input.Description = ""
		}
		if _, err := s.products.UpdateProduct(ctx, existing.ID, input); err != nil {
			return fail(ctx, report.KindProduct, p.Name, err)
		}
		logging.Ctx(ctx).Debug().Str("id", existing.ID).Msg("product updated")
	}

	if listings := s.listings(p.ChannelListings, ids.channels, existing, now.Time); len(listings) > 0 {
		if err := s.products.UpdateProductChannelListings(ctx, existing.ID, listings); err != nil {
			return fail(ctx, report.KindProduct, p.Name, err)
		}
	}

	if err := s.variants(ctx, p, ids, existing); err != nil {
		return fail(ctx, report.KindProduct, p.Name, err)
	}

	if created {
		rec.Created(report.KindProduct, p.Name)
	} else {
		rec.Updated(report.KindProduct, p.Name)
	}
	return nil
}

func (s *ProductService) variants(ctx context.Context, p schema.Product, ids *resolved, existing *repository.Product) error {
	skus := make(map[string]string, len(existing.Variants))
	for _, v := range existing.Variants {
		skus[v.SKU] = v.ID
	}

	rec := report.FromContext(ctx)
	for _, v := range p.Variants {
		vctx := entityContext(ctx, report.KindVariant, v.SKU)
		id, ok := skus[v.SKU]
		if !ok {
			created, err := s.products.CreateVariant(vctx, repository.VariantInput{
				ProductID:  existing.ID,
				SKU:        v.SKU,
				Name:       v.Name,
				Attributes: attributeValues(v.Attributes, ids.attributes),
			})
			if err != nil {
				return fmt.Errorf("variant %s: %w", v.SKU, err)
			}
			id = created.ID
		}

		if len(v.ChannelListings) > 0 {
			prices := make([]repository.VariantChannelListingInput, 0, len(v.ChannelListings))
			for _, l := range v.ChannelListings {
				prices = append(prices, repository.VariantChannelListingInput{
					ChannelID: ids.channels[l.Channel],
					Price:     l.Price,
					CostPrice: l.CostPrice,
				})
			}
			if err := s.products.UpdateVariantChannelListings(vctx, id, prices); err != nil {
				return fmt.Errorf("variant %s prices: %w", v.SKU, err)
			}
		}

		if ok {
			rec.Updated(report.KindVariant, v.SKU)
		} else {
			logging.Ctx(vctx).Info().Str("id", id).Msg("variant created")
			rec.Created(report.KindVariant, v.SKU)
		}
	}
	return nil
}

// listings builds the channel listing input. Publication timestamps are
// stamped only when a channel is first published or first made available.
func (s *ProductService) listings(desired []schema.ProductChannelListing, channels map[string]string, existing *repository.Product, now time.Time) []repository.ProductChannelListingInput {
	out := make([]repository.ProductChannelListingInput, 0, len(desired))
	for _, l := range desired {
		id := channels[l.Channel]
		in := repository.ProductChannelListingInput{
			ChannelID:              id,
			IsPublished:            l.IsPublished,
			VisibleInListings:      l.VisibleInListings,
			IsAvailableForPurchase: l.IsAvailableForPurchase,
		}
		remote, ok := existing.Listing(id)
		if l.IsPublished && (!ok || !remote.IsPublished) {
			in.PublishedAt = &now
		}
		if l.IsAvailableForPurchase && (!ok || !remote.IsAvailableForPurchase) {
			in.AvailableForPurchaseAt = &now
		}
		out = append(out, in)
	}
	return out
}

func (s *ProductService) resolve(ctx context.Context, p schema.Product) (*resolved, error) {
	ids := &resolved{attributes: map[string]string{}, channels: map[string]string{}}

	var err error
	if ids.productType, err = s.productTypeID(ctx, p.ProductType); err != nil {
		return nil, fmt.Errorf("product type %q: %w", p.ProductType, err)
	}
	if p.Category != "" {
		if ids.category, err = s.categoryID(ctx, p.Category); err != nil {
			return nil, fmt.Errorf("category %q: %w", p.Category, err)
		}
	}

	if names := p.AttributeNames(); len(names) > 0 {
		found, err := s.attributes.FindAttributes(ctx, names, schema.AttributeTypeProductType)
		if err != nil {
			return nil, err
		}
		for _, a := range found {
			ids.attributes[a.Name] = a.ID
		}
		for _, name := range names {
			if _, ok := ids.attributes[name]; !ok {
				return nil, errors.NewNotFoundError("attribute", name)
			}
		}
	}

	for _, slug := range p.ChannelSlugs() {
		id, err := s.channelID(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", slug, err)
		}
		ids.channels[slug] = id
	}
	return ids, nil
}

func (s *ProductService) cached(key string, lookup func() (string, error)) (string, error) {
	if id, ok := s.ids.Get(key); ok {
		return id.(string), nil
	}
	id, err := lookup()
	if err != nil {
		return "", err
	}
	s.ids.SetDefault(key, id)
	return id, nil
}

func (s *ProductService) productTypeID(ctx context.Context, name string) (string, error) {
	return s.cached("productType:"+name, func() (string, error) {
		pt, _, err := s.types.Ensure(ctx, name, false)
		if err != nil {
			return "", err
		}
		return pt.ID, nil
	})
}

func (s *ProductService) categoryID(ctx context.Context, name string) (string, error) {
	return s.cached("category:"+name, func() (string, error) {
		c, err := s.categories.FindCategory(ctx, name)
		if err != nil {
			return "", err
		}
		return c.ID, nil
	})
}

func (s *ProductService) channelID(ctx context.Context, slug string) (string, error) {
	return s.cached("channel:"+slug, func() (string, error) {
		ch, err := s.channels.FindChannel(ctx, slug)
		if err != nil {
			return "", err
		}
		return ch.ID, nil
	})
}

func attributeValues(assignments []schema.AttributeAssignment, ids map[string]string) []repository.AttributeValueInput {
	if len(assignments) == 0 {
		return nil
	}
	out := make([]repository.AttributeValueInput, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, repository.AttributeValueInput{ID: ids[a.Attribute], Values: a.Values})
	}
	return out
}
