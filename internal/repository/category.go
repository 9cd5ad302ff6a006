package repository

import (
	"context"

	"github.com/agentstation/configurator/pkg/errors"
)

const categoryFields = `
fragment CategoryFields on Category {
  id
  name
  slug
  level
  children(first: 100) {
    edges { node { id name slug level } }
    pageInfo { hasNextPage endCursor }
  }
}`

const findRootCategoryQuery = `query FindRootCategory($first: Int!, $after: String, $search: String!) {
  categories(first: $first, after: $after, level: 0, filter: {search: $search}) {
    edges { node { ...CategoryFields } }
    pageInfo { hasNextPage endCursor }
  }
}` + categoryFields

const findCategoryQuery = `query FindCategory($first: Int!, $after: String, $search: String!) {
  categories(first: $first, after: $after, filter: {search: $search}) {
    edges { node { ...CategoryFields } }
    pageInfo { hasNextPage endCursor }
  }
}` + categoryFields

const getCategoryQuery = `query GetCategory($id: ID!) {
  category(id: $id) { ...CategoryFields }
}` + categoryFields

const listRootCategoriesQuery = `query ListRootCategories($first: Int!, $after: String) {
  categories(first: $first, after: $after, level: 0) {
    edges { node { ...CategoryFields } }
    pageInfo { hasNextPage endCursor }
  }
}` + categoryFields

const categoryChildrenQuery = `query CategoryChildren($id: ID!, $first: Int!, $after: String) {
  category(id: $id) {
    children(first: $first, after: $after) {
      edges { node { id name slug level } }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

const createCategoryMutation = `mutation CreateCategory($input: CategoryInput!, $parent: ID) {
  categoryCreate(input: $input, parent: $parent) {
    category { ...CategoryFields }
    errors { field message code }
  }
}` + categoryFields

type categoryNode struct {
	ID       string                    `json:"id"`
	Name     string                    `json:"name"`
	Slug     string                    `json:"slug"`
	Level    int                       `json:"level"`
	Children *connection[categoryNode] `json:"children"`
}

func (n categoryNode) toCategory() Category {
	c := Category{ID: n.ID, Name: n.Name, Slug: n.Slug, Level: n.Level}
	if n.Children != nil {
		for _, child := range n.Children.Nodes() {
			c.Children = append(c.Children, child.toCategory())
		}
	}
	return c
}

// completeChildren fetches the remaining children of n when its first page
// of children was truncated.
func (g *GraphQL) completeChildren(ctx context.Context, n *categoryNode) error {
	if n.Children == nil || !n.Children.PageInfo.HasNextPage {
		return nil
	}
	vars := map[string]any{"id": n.ID, "after": n.Children.PageInfo.EndCursor}
	rest, err := paginate[categoryNode](ctx, g.req, categoryChildrenQuery, vars, []string{"category", "children"}, nil)
	if err != nil {
		return err
	}
	n.Children.add(rest)
	n.Children.PageInfo = pageInfo{}
	return nil
}

func (g *GraphQL) searchCategory(ctx context.Context, document, name string) (*Category, error) {
	match := func(n categoryNode) bool { return n.Name == name }
	nodes, err := paginate(ctx, g.req, document, map[string]any{"search": name}, []string{"categories"}, match)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		if match(nodes[i]) {
			if err := g.completeChildren(ctx, &nodes[i]); err != nil {
				return nil, err
			}
			c := nodes[i].toCategory()
			return &c, nil
		}
	}
	return nil, errors.NewNotFoundError("category", name)
}

// FindRootCategory returns the top-level category named name.
func (g *GraphQL) FindRootCategory(ctx context.Context, name string) (*Category, error) {
	return g.searchCategory(ctx, findRootCategoryQuery, name)
}

// FindCategory returns the first category named name at any level.
func (g *GraphQL) FindCategory(ctx context.Context, name string) (*Category, error) {
	return g.searchCategory(ctx, findCategoryQuery, name)
}

// GetCategory returns the category with id.
func (g *GraphQL) GetCategory(ctx context.Context, id string) (*Category, error) {
	var out struct {
		Category *categoryNode `json:"category"`
	}
	if err := g.req.Do(ctx, getCategoryQuery, map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	if out.Category == nil {
		return nil, errors.NewNotFoundError("category", id)
	}
	if err := g.completeChildren(ctx, out.Category); err != nil {
		return nil, err
	}
	c := out.Category.toCategory()
	return &c, nil
}

// ListRootCategories returns every top-level category with its direct children.
func (g *GraphQL) ListRootCategories(ctx context.Context) ([]Category, error) {
	nodes, err := paginate[categoryNode](ctx, g.req, listRootCategoriesQuery, nil, []string{"categories"}, nil)
	if err != nil {
		return nil, err
	}
	cats := make([]Category, 0, len(nodes))
	for i := range nodes {
		if err := g.completeChildren(ctx, &nodes[i]); err != nil {
			return nil, err
		}
		cats = append(cats, nodes[i].toCategory())
	}
	return cats, nil
}

// CreateCategory creates a category under parentID, or at the top level when
// parentID is empty.
func (g *GraphQL) CreateCategory(ctx context.Context, in CategoryInput, parentID string) (*Category, error) {
	input := map[string]any{"name": in.Name}
	if in.Slug != "" {
		input["slug"] = in.Slug
	}
	if in.Description != "" {
		input["description"] = in.Description
	}
	vars := map[string]any{"input": input}
	if parentID != "" {
		vars["parent"] = parentID
	}

	var out struct {
		CategoryCreate struct {
			payload
			Category *categoryNode `json:"category"`
		} `json:"categoryCreate"`
	}
	if err := g.req.Do(ctx, createCategoryMutation, vars, &out); err != nil {
		return nil, err
	}
	if err := out.CategoryCreate.err("categoryCreate"); err != nil {
		return nil, err
	}
	if out.CategoryCreate.Category == nil {
		return nil, errors.NewResourceError("create", "category", in.Name, errors.New("empty payload"))
	}
	c := out.CategoryCreate.Category.toCategory()
	return &c, nil
}
