package graphql

import (
	"github.com/cockroachdb/errors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// IsMutation reports whether the operation a request would run is a
// mutation. With several operations in the document, operationName picks
// one; an unmatched name runs nothing.
func IsMutation(query, operationName string) (bool, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return false, errors.Wrap(err, "parse query")
	}

	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName != "" && (op.Name == nil || op.Name.Value != operationName) {
			continue
		}
		if op.Operation == ast.OperationTypeMutation {
			return true, nil
		}
		if operationName != "" {
			return false, nil
		}
	}
	return false, nil
}
