package transport

import (
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/agentstation/configurator/pkg/errors"
)

// Operation describes the single operation of a GraphQL document.
type Operation struct {
	Name string
	Type ast.Operation
}

// IsQuery reports whether the operation can be repeated without side effects.
func (o Operation) IsQuery() bool {
	return o.Type == ast.Query
}

var operations sync.Map // document -> Operation

// ParseOperation extracts the operation name and type from document. Results
// are cached since documents are package-level constants.
func ParseOperation(document string) (Operation, error) {
	if op, ok := operations.Load(document); ok {
		return op.(Operation), nil
	}

	doc, err := parser.ParseQuery(&ast.Source{Input: document})
	if err != nil {
		return Operation{}, errors.NewParseError("graphql", "", err.Error(), err)
	}
	if len(doc.Operations) != 1 {
		return Operation{}, errors.NewParseError("graphql", "",
			"document must contain exactly one operation", nil)
	}

	def := doc.Operations[0]
	op := Operation{Name: def.Name, Type: def.Operation}
	if op.Name == "" {
		op.Name = string(def.Operation)
	}
	operations.Store(document, op)
	return op, nil
}
