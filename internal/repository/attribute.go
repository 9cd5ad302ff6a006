package repository

import (
	"context"

	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/schema"
)

const attributeFields = `
fragment AttributeFields on Attribute {
  id
  name
  slug
  inputType
  type
  entityType
  choices(first: 100) {
    edges { node { name } }
    pageInfo { hasNextPage endCursor }
  }
}`

const findAttributesQuery = `query FindAttributes($first: Int!, $after: String, $names: [String!]!, $type: AttributeTypeEnum!) {
  attributes(first: $first, after: $after, where: {name: {oneOf: $names}, type: {eq: $type}}) {
    edges { node { ...AttributeFields } }
    pageInfo { hasNextPage endCursor }
  }
}` + attributeFields

const attributeChoicesQuery = `query AttributeChoices($id: ID!, $first: Int!, $after: String) {
  attribute(id: $id) {
    choices(first: $first, after: $after) {
      edges { node { name } }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

const createAttributeMutation = `mutation CreateAttribute($input: AttributeCreateInput!) {
  attributeCreate(input: $input) {
    attribute { ...AttributeFields }
    errors { field message code }
  }
}` + attributeFields

// attributeNode is the wire shape of AttributeFields.
type attributeNode struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	InputType  string `json:"inputType"`
	Type       string `json:"type"`
	EntityType string `json:"entityType"`
	Choices    *connection[choiceNode] `json:"choices"`
}

type choiceNode struct {
	Name string `json:"name"`
}

func (n attributeNode) toAttribute() Attribute {
	a := Attribute{
		ID:         n.ID,
		Name:       n.Name,
		Slug:       n.Slug,
		InputType:  schema.InputType(n.InputType),
		Type:       schema.AttributeType(n.Type),
		EntityType: schema.EntityType(n.EntityType),
	}
	if n.Choices != nil {
		for _, c := range n.Choices.Nodes() {
			a.Values = append(a.Values, c.Name)
		}
	}
	return a
}

func toAttributes(nodes []attributeNode) []Attribute {
	out := make([]Attribute, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.toAttribute())
	}
	return out
}

// FindAttributes returns the attributes of scope whose names are in names.
func (g *GraphQL) FindAttributes(ctx context.Context, names []string, scope schema.AttributeType) ([]Attribute, error) {
	if len(names) == 0 {
		return nil, nil
	}
	vars := map[string]any{"names": names, "type": scope}
	nodes, err := paginate[attributeNode](ctx, g.req, findAttributesQuery, vars, []string{"attributes"}, nil)
	if err != nil {
		return nil, err
	}
	if err := g.completeChoices(ctx, nodes); err != nil {
		return nil, err
	}
	return toAttributes(nodes), nil
}

// completeChoices fetches the remaining choices of attributes whose first
// page of choices was truncated.
func (g *GraphQL) completeChoices(ctx context.Context, nodes []attributeNode) error {
	for i := range nodes {
		n := &nodes[i]
		if n.Choices == nil || !n.Choices.PageInfo.HasNextPage {
			continue
		}
		vars := map[string]any{"id": n.ID, "after": n.Choices.PageInfo.EndCursor}
		rest, err := paginate[choiceNode](ctx, g.req, attributeChoicesQuery, vars, []string{"attribute", "choices"}, nil)
		if err != nil {
			return err
		}
		n.Choices.add(rest)
		n.Choices.PageInfo = pageInfo{}
	}
	return nil
}

// CreateAttribute creates one attribute.
func (g *GraphQL) CreateAttribute(ctx context.Context, in AttributeCreateInput) (*Attribute, error) {
	input := map[string]any{
		"name":      in.Name,
		"slug":      in.Slug,
		"inputType": in.InputType,
		"type":      in.Type,
	}
	if in.EntityType != "" {
		input["entityType"] = in.EntityType
	}
	if len(in.Values) > 0 {
		values := make([]map[string]any, 0, len(in.Values))
		for _, v := range in.Values {
			values = append(values, map[string]any{"name": v})
		}
		input["values"] = values
	}

	var out struct {
		AttributeCreate struct {
			payload
			Attribute *attributeNode `json:"attribute"`
		} `json:"attributeCreate"`
	}
	if err := g.req.Do(ctx, createAttributeMutation, map[string]any{"input": input}, &out); err != nil {
		return nil, err
	}
	if err := out.AttributeCreate.err("attributeCreate"); err != nil {
		return nil, err
	}
	if out.AttributeCreate.Attribute == nil {
		return nil, errors.NewResourceError("create", "attribute", in.Name, errors.New("empty payload"))
	}
	a := out.AttributeCreate.Attribute.toAttribute()
	return &a, nil
}
