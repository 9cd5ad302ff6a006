package repository

import (
	"context"

	"github.com/agentstation/configurator/pkg/errors"
)

const findProductTypeQuery = `query FindProductType($first: Int!, $after: String, $search: String!) {
  productTypes(first: $first, after: $after, filter: {search: $search}) {
    edges { node { id name isShippingRequired productAttributes { ...AttributeFields } } }
    pageInfo { hasNextPage endCursor }
  }
}` + attributeFields

const listProductTypesQuery = `query ListProductTypes($first: Int!, $after: String) {
  productTypes(first: $first, after: $after) {
    edges { node { id name isShippingRequired productAttributes { ...AttributeFields } } }
    pageInfo { hasNextPage endCursor }
  }
}` + attributeFields

const createProductTypeMutation = `mutation CreateProductType($input: ProductTypeInput!) {
  productTypeCreate(input: $input) {
    productType { id name isShippingRequired productAttributes { ...AttributeFields } }
    errors { field message code }
  }
}` + attributeFields

const assignProductAttributesMutation = `mutation AssignProductAttributes($productTypeId: ID!, $operations: [ProductAttributeAssignInput!]!) {
  productAttributeAssign(productTypeId: $productTypeId, operations: $operations) {
    productType { id }
    errors { field message code }
  }
}`

const findPageTypeQuery = `query FindPageType($first: Int!, $after: String, $search: String!) {
  pageTypes(first: $first, after: $after, filter: {search: $search}) {
    edges { node { id name attributes { ...AttributeFields } } }
    pageInfo { hasNextPage endCursor }
  }
}` + attributeFields

const listPageTypesQuery = `query ListPageTypes($first: Int!, $after: String) {
  pageTypes(first: $first, after: $after) {
    edges { node { id name attributes { ...AttributeFields } } }
    pageInfo { hasNextPage endCursor }
  }
}` + attributeFields

const createPageTypeMutation = `mutation CreatePageType($input: PageTypeCreateInput!) {
  pageTypeCreate(input: $input) {
    pageType { id name attributes { ...AttributeFields } }
    errors { field message code }
  }
}` + attributeFields

const assignPageAttributesMutation = `mutation AssignPageAttributes($pageTypeId: ID!, $attributeIds: [ID!]!) {
  pageAttributeAssign(pageTypeId: $pageTypeId, attributeIds: $attributeIds) {
    pageType { id }
    errors { field message code }
  }
}`

type productTypeNode struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	IsShippingRequired bool            `json:"isShippingRequired"`
	ProductAttributes  []attributeNode `json:"productAttributes"`
}

func (n productTypeNode) toProductType() ProductType {
	return ProductType{
		ID:                 n.ID,
		Name:               n.Name,
		IsShippingRequired: n.IsShippingRequired,
		Attributes:         toAttributes(n.ProductAttributes),
	}
}

type pageTypeNode struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Attributes []attributeNode `json:"attributes"`
}

func (n pageTypeNode) toPageType() PageType {
	return PageType{ID: n.ID, Name: n.Name, Attributes: toAttributes(n.Attributes)}
}

// FindProductType returns the product type named name. Search is fuzzy on
// the platform, so the result is matched exactly here.
func (g *GraphQL) FindProductType(ctx context.Context, name string) (*ProductType, error) {
	match := func(n productTypeNode) bool { return n.Name == name }
	nodes, err := paginate(ctx, g.req, findProductTypeQuery, map[string]any{"search": name}, []string{"productTypes"}, match)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if match(n) {
			if err := g.completeChoices(ctx, n.ProductAttributes); err != nil {
				return nil, err
			}
			pt := n.toProductType()
			return &pt, nil
		}
	}
	return nil, errors.NewNotFoundError("productType", name)
}

// ListProductTypes returns every product type.
func (g *GraphQL) ListProductTypes(ctx context.Context) ([]ProductType, error) {
	nodes, err := paginate[productTypeNode](ctx, g.req, listProductTypesQuery, nil, []string{"productTypes"}, nil)
	if err != nil {
		return nil, err
	}
	types := make([]ProductType, 0, len(nodes))
	for _, n := range nodes {
		if err := g.completeChoices(ctx, n.ProductAttributes); err != nil {
			return nil, err
		}
		types = append(types, n.toProductType())
	}
	return types, nil
}

// CreateProductType creates a product type with no attributes.
func (g *GraphQL) CreateProductType(ctx context.Context, name string, isShippingRequired bool) (*ProductType, error) {
	input := map[string]any{"name": name, "kind": "NORMAL", "isShippingRequired": isShippingRequired}
	var out struct {
		ProductTypeCreate struct {
			payload
			ProductType *productTypeNode `json:"productType"`
		} `json:"productTypeCreate"`
	}
	if err := g.req.Do(ctx, createProductTypeMutation, map[string]any{"input": input}, &out); err != nil {
		return nil, err
	}
	if err := out.ProductTypeCreate.err("productTypeCreate"); err != nil {
		return nil, err
	}
	if out.ProductTypeCreate.ProductType == nil {
		return nil, errors.NewResourceError("create", "productType", name, errors.New("empty payload"))
	}
	pt := out.ProductTypeCreate.ProductType.toProductType()
	return &pt, nil
}

// AssignProductAttributes attaches attributes to a product type as product-level attributes.
func (g *GraphQL) AssignProductAttributes(ctx context.Context, productTypeID string, attributeIDs []string) error {
	ops := make([]map[string]any, 0, len(attributeIDs))
	for _, id := range attributeIDs {
		ops = append(ops, map[string]any{"id": id, "type": "PRODUCT"})
	}
	var out struct {
		ProductAttributeAssign payload `json:"productAttributeAssign"`
	}
	vars := map[string]any{"productTypeId": productTypeID, "operations": ops}
	if err := g.req.Do(ctx, assignProductAttributesMutation, vars, &out); err != nil {
		return err
	}
	return out.ProductAttributeAssign.err("productAttributeAssign")
}

// FindPageType returns the page type named name.
func (g *GraphQL) FindPageType(ctx context.Context, name string) (*PageType, error) {
	match := func(n pageTypeNode) bool { return n.Name == name }
	nodes, err := paginate(ctx, g.req, findPageTypeQuery, map[string]any{"search": name}, []string{"pageTypes"}, match)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if match(n) {
			if err := g.completeChoices(ctx, n.Attributes); err != nil {
				return nil, err
			}
			pt := n.toPageType()
			return &pt, nil
		}
	}
	return nil, errors.NewNotFoundError("pageType", name)
}

// ListPageTypes returns every page type.
func (g *GraphQL) ListPageTypes(ctx context.Context) ([]PageType, error) {
	nodes, err := paginate[pageTypeNode](ctx, g.req, listPageTypesQuery, nil, []string{"pageTypes"}, nil)
	if err != nil {
		return nil, err
	}
	types := make([]PageType, 0, len(nodes))
	for _, n := range nodes {
		if err := g.completeChoices(ctx, n.Attributes); err != nil {
			return nil, err
		}
		types = append(types, n.toPageType())
	}
	return types, nil
}

// CreatePageType creates a page type with no attributes.
func (g *GraphQL) CreatePageType(ctx context.Context, name string) (*PageType, error) {
	var out struct {
		PageTypeCreate struct {
			payload
			PageType *pageTypeNode `json:"pageType"`
		} `json:"pageTypeCreate"`
	}
	if err := g.req.Do(ctx, createPageTypeMutation, map[string]any{"input": map[string]any{"name": name}}, &out); err != nil {
		return nil, err
	}
	if err := out.PageTypeCreate.err("pageTypeCreate"); err != nil {
		return nil, err
	}
	if out.PageTypeCreate.PageType == nil {
		return nil, errors.NewResourceError("create", "pageType", name, errors.New("empty payload"))
	}
	pt := out.PageTypeCreate.PageType.toPageType()
	return &pt, nil
}

// AssignPageAttributes attaches attributes to a page type.
func (g *GraphQL) AssignPageAttributes(ctx context.Context, pageTypeID string, attributeIDs []string) error {
	var out struct {
		PageAttributeAssign payload `json:"pageAttributeAssign"`
	}
	vars := map[string]any{"pageTypeId": pageTypeID, "attributeIds": attributeIDs}
	if err := g.req.Do(ctx, assignPageAttributesMutation, vars, &out); err != nil {
		return err
	}
	return out.PageAttributeAssign.err("pageAttributeAssign")
}
