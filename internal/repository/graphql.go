package repository

import (
	"context"
	"encoding/json"
	"maps"
	"strings"

	"github.com/agentstation/configurator/internal/transport"
	"github.com/agentstation/configurator/pkg/constants"
	"github.com/agentstation/configurator/pkg/errors"
)

// GraphQL implements every repository against the platform's GraphQL API.
type GraphQL struct {
	req transport.Requester
}

// NewGraphQL returns repositories backed by req.
func NewGraphQL(req transport.Requester) *Repositories {
	g := &GraphQL{req: req}
	return &Repositories{
		Attributes:   g,
		ProductTypes: g,
		PageTypes:    g,
		Channels:     g,
		Categories:   g,
		Shop:         g,
		Products:     g,
	}
}

var (
	_ AttributeRepository   = (*GraphQL)(nil)
	_ ProductTypeRepository = (*GraphQL)(nil)
	_ PageTypeRepository    = (*GraphQL)(nil)
	_ ChannelRepository     = (*GraphQL)(nil)
	_ CategoryRepository    = (*GraphQL)(nil)
	_ ShopRepository        = (*GraphQL)(nil)
	_ ProductRepository     = (*GraphQL)(nil)
)

// pageSize bounds list queries.
var pageSize = constants.DefaultPageSize

// connection is a relay-style list.
type connection[T any] struct {
	Edges    []edge[T] `json:"edges"`
	PageInfo pageInfo  `json:"pageInfo"`
}

type edge[T any] struct {
	Node T `json:"node"`
}

// pageInfo is the cursor state of a connection.
type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// Nodes returns the nodes of c in order.
func (c connection[T]) Nodes() []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

func (c *connection[T]) add(nodes []T) {
	for _, n := range nodes {
		c.Edges = append(c.Edges, edge[T]{Node: n})
	}
}

// paginate runs document page by page until the connection found at path in
// the response is exhausted or stop accepts a node, and returns every node
// seen. document must declare $first and $after and select pageInfo on the
// connection. A nil stop reads the whole connection.
func paginate[T any](ctx context.Context, req transport.Requester, document string, vars map[string]any, path []string, stop func(T) bool) ([]T, error) {
	vars = maps.Clone(vars)
	if vars == nil {
		vars = map[string]any{}
	}
	vars["first"] = pageSize

	var nodes []T
	for {
		var data json.RawMessage
		if err := req.Do(ctx, document, vars, &data); err != nil {
			return nil, err
		}
		conn, err := connectionAt[T](data, path)
		if err != nil {
			return nil, err
		}
		if conn == nil {
			return nodes, nil
		}
		for _, n := range conn.Nodes() {
			nodes = append(nodes, n)
			if stop != nil && stop(n) {
				return nodes, nil
			}
		}
		cursor := conn.PageInfo.EndCursor
		if !conn.PageInfo.HasNextPage || cursor == "" || cursor == vars["after"] {
			return nodes, nil
		}
		vars["after"] = cursor
	}
}

// connectionAt decodes the connection under the field names path of data. A
// null or missing field yields nil.
func connectionAt[T any](data json.RawMessage, path []string) (*connection[T], error) {
	if len(data) == 0 {
		return nil, nil
	}
	raw := data
	for _, field := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, errors.WrapParse("json", strings.Join(path, "."), err)
		}
		var ok bool
		if raw, ok = obj[field]; !ok || string(raw) == "null" {
			return nil, nil
		}
	}
	var conn connection[T]
	if err := json.Unmarshal(raw, &conn); err != nil {
		return nil, errors.WrapParse("json", strings.Join(path, "."), err)
	}
	return &conn, nil
}

// payload is embedded by every mutation result.
type payload struct {
	Errors []errors.FieldError `json:"errors"`
}

func (p payload) err(operation string) error {
	return errors.NewMutationError(operation, p.Errors)
}
