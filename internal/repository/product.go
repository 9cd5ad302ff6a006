package repository

import (
	"context"
	"time"

	"github.com/agentstation/configurator/pkg/errors"
)

const productFields = `
fragment ProductFields on Product {
  id
  name
  description
  productType { id name }
  category { id name }
  channelListings {
    channel { id slug }
    isPublished
    publishedAt
    visibleInListings
    isAvailableForPurchase
    availableForPurchaseAt
  }
  variants { id sku name }
}`

const findProductQuery = `query FindProduct($first: Int!, $after: String, $search: String!) {
  products(first: $first, after: $after, filter: {search: $search}) {
    edges { node { ...ProductFields } }
    pageInfo { hasNextPage endCursor }
  }
}` + productFields

const createProductMutation = `mutation CreateProduct($input: ProductCreateInput!) {
  productCreate(input: $input) {
    product { ...ProductFields }
    errors { field message code }
  }
}` + productFields

const updateProductMutation = `mutation UpdateProduct($id: ID!, $input: ProductInput!) {
  productUpdate(id: $id, input: $input) {
    product { ...ProductFields }
    errors { field message code }
  }
}` + productFields

const updateProductChannelListingMutation = `mutation UpdateProductChannelListing($id: ID!, $input: ProductChannelListingUpdateInput!) {
  productChannelListingUpdate(id: $id, input: $input) {
    product { id }
    errors { field message code }
  }
}`

const createVariantMutation = `mutation CreateVariant($input: ProductVariantCreateInput!) {
  productVariantCreate(input: $input) {
    productVariant { id sku name }
    errors { field message code }
  }
}`

const updateVariantChannelListingMutation = `mutation UpdateVariantChannelListing($id: ID!, $input: [ProductVariantChannelListingAddInput!]!) {
  productVariantChannelListingUpdate(id: $id, input: $input) {
    variant { id }
    errors { field message code }
  }
}`

type productNode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductType struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"productType"`
	Category *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"category"`
	ChannelListings []struct {
		Channel struct {
			ID   string `json:"id"`
			Slug string `json:"slug"`
		} `json:"channel"`
		IsPublished            bool       `json:"isPublished"`
		PublishedAt            *time.Time `json:"publishedAt"`
		VisibleInListings      bool       `json:"visibleInListings"`
		IsAvailableForPurchase bool       `json:"isAvailableForPurchase"`
		AvailableForPurchaseAt *time.Time `json:"availableForPurchaseAt"`
	} `json:"channelListings"`
	Variants []struct {
		ID   string `json:"id"`
		SKU  string `json:"sku"`
		Name string `json:"name"`
	} `json:"variants"`
}

func (n productNode) toProduct() Product {
	p := Product{
		ID:              n.ID,
		Name:            n.Name,
		ProductTypeID:   n.ProductType.ID,
		ProductTypeName: n.ProductType.Name,
		Description:     n.Description,
	}
	if n.Category != nil {
		p.CategoryID = n.Category.ID
		p.CategoryName = n.Category.Name
	}
	for _, l := range n.ChannelListings {
		p.ChannelListings = append(p.ChannelListings, ProductChannelListing{
			ChannelID:              l.Channel.ID,
			ChannelSlug:            l.Channel.Slug,
			IsPublished:            l.IsPublished,
			PublishedAt:            l.PublishedAt,
			VisibleInListings:      l.VisibleInListings,
			IsAvailableForPurchase: l.IsAvailableForPurchase,
			AvailableForPurchaseAt: l.AvailableForPurchaseAt,
		})
	}
	for _, v := range n.Variants {
		p.Variants = append(p.Variants, Variant{ID: v.ID, SKU: v.SKU, Name: v.Name})
	}
	return p
}

func attributeValues(in []AttributeValueInput) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, a := range in {
		out = append(out, map[string]any{"id": a.ID, "values": a.Values})
	}
	return out
}

func productVariables(in ProductInput, create bool) map[string]any {
	input := map[string]any{"name": in.Name}
	if create {
		input["productType"] = in.ProductTypeID
	}
	if in.Description != "" {
		input["description"] = in.Description
	}
	if in.CategoryID != "" {
		input["category"] = in.CategoryID
	}
	if len(in.Attributes) > 0 {
		input["attributes"] = attributeValues(in.Attributes)
	}
	return input
}

func finishProduct(operation, name string, p payload, n *productNode) (*Product, error) {
	if err := p.err(operation); err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errors.NewResourceError(operation, "product", name, errors.New("empty payload"))
	}
	product := n.toProduct()
	return &product, nil
}

// FindProduct returns the product named name.
func (g *GraphQL) FindProduct(ctx context.Context, name string) (*Product, error) {
	match := func(n productNode) bool { return n.Name == name }
	nodes, err := paginate(ctx, g.req, findProductQuery, map[string]any{"search": name}, []string{"products"}, match)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if match(n) {
			p := n.toProduct()
			return &p, nil
		}
	}
	return nil, errors.NewNotFoundError("product", name)
}

// CreateProduct creates a product.
func (g *GraphQL) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var out struct {
		ProductCreate struct {
			payload
			Product *productNode `json:"product"`
		} `json:"productCreate"`
	}
	vars := map[string]any{"input": productVariables(in, true)}
	if err := g.req.Do(ctx, createProductMutation, vars, &out); err != nil {
		return nil, err
	}
	return finishProduct("productCreate", in.Name, out.ProductCreate.payload, out.ProductCreate.Product)
}

// UpdateProduct updates the mutable fields of a product. The product type is never sent.
func (g *GraphQL) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	var out struct {
		ProductUpdate struct {
			payload
			Product *productNode `json:"product"`
		} `json:"productUpdate"`
	}
	vars := map[string]any{"id": id, "input": productVariables(in, false)}
	if err := g.req.Do(ctx, updateProductMutation, vars, &out); err != nil {
		return nil, err
	}
	return finishProduct("productUpdate", in.Name, out.ProductUpdate.payload, out.ProductUpdate.Product)
}

// UpdateProductChannelListings adds or updates the listings of a product.
func (g *GraphQL) UpdateProductChannelListings(ctx context.Context, productID string, listings []ProductChannelListingInput) error {
	channels := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		c := map[string]any{
			"channelId":              l.ChannelID,
			"isPublished":            l.IsPublished,
			"visibleInListings":      l.VisibleInListings,
			"isAvailableForPurchase": l.IsAvailableForPurchase,
		}
		if l.PublishedAt != nil {
			c["publishedAt"] = l.PublishedAt.UTC().Format(time.RFC3339)
		}
		if l.AvailableForPurchaseAt != nil {
			c["availableForPurchaseAt"] = l.AvailableForPurchaseAt.UTC().Format(time.RFC3339)
		}
		channels = append(channels, c)
	}

	var out struct {
		ProductChannelListingUpdate payload `json:"productChannelListingUpdate"`
	}
	vars := map[string]any{"id": productID, "input": map[string]any{"updateChannels": channels}}
	if err := g.req.Do(ctx, updateProductChannelListingMutation, vars, &out); err != nil {
		return err
	}
	return out.ProductChannelListingUpdate.err("productChannelListingUpdate")
}

// CreateVariant creates a product variant.
func (g *GraphQL) CreateVariant(ctx context.Context, in VariantInput) (*Variant, error) {
	input := map[string]any{
		"product":    in.ProductID,
		"sku":        in.SKU,
		"attributes": attributeValues(in.Attributes),
	}
	if in.Name != "" {
		input["name"] = in.Name
	}

	var out struct {
		ProductVariantCreate struct {
			payload
			ProductVariant *struct {
				ID   string `json:"id"`
				SKU  string `json:"sku"`
				Name string `json:"name"`
			} `json:"productVariant"`
		} `json:"productVariantCreate"`
	}
	if err := g.req.Do(ctx, createVariantMutation, map[string]any{"input": input}, &out); err != nil {
		return nil, err
	}
	if err := out.ProductVariantCreate.err("productVariantCreate"); err != nil {
		return nil, err
	}
	v := out.ProductVariantCreate.ProductVariant
	if v == nil {
		return nil, errors.NewResourceError("create", "variant", in.SKU, errors.New("empty payload"))
	}
	return &Variant{ID: v.ID, SKU: v.SKU, Name: v.Name}, nil
}

// UpdateVariantChannelListings sets the per-channel prices of a variant.
func (g *GraphQL) UpdateVariantChannelListings(ctx context.Context, variantID string, listings []VariantChannelListingInput) error {
	input := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		c := map[string]any{"channelId": l.ChannelID, "price": l.Price.String()}
		if l.CostPrice != nil {
			c["costPrice"] = l.CostPrice.String()
		}
		input = append(input, c)
	}

	var out struct {
		ProductVariantChannelListingUpdate payload `json:"productVariantChannelListingUpdate"`
	}
	if err := g.req.Do(ctx, updateVariantChannelListingMutation, map[string]any{"id": variantID, "input": input}, &out); err != nil {
		return err
	}
	return out.ProductVariantChannelListingUpdate.err("productVariantChannelListingUpdate")
}
