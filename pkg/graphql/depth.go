package graphql

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth bounds person.connections recursion.
const DefaultMaxDepth = 6

// ErrQueryTooDeep is returned for queries nested deeper than the limit.
var ErrQueryTooDeep = errors.New("query too deep")

// ValidateQueryDepth parses query and rejects it if any selection is nested
// more than maxDepth levels. Fragments are resolved by name.
func ValidateQueryDepth(query string, maxDepth int) error {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return errors.Wrap(err, "parse query")
	}

	fragments := make(map[string]*ast.FragmentDefinition)
	for _, def := range doc.Definitions {
		if f, ok := def.(*ast.FragmentDefinition); ok {
			fragments[f.Name.Value] = f
		}
	}

	depth := 0
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			depth = max(depth, selectionDepth(op.SelectionSet, fragments, map[string]bool{}))
		}
	}
	if depth > maxDepth {
		return errors.Mark(errors.Newf("query depth %d exceeds maximum %d", depth, maxDepth), ErrQueryTooDeep)
	}
	return nil
}

// selectionDepth counts nested selection sets. Leaf fields add nothing.
func selectionDepth(set *ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, visiting map[string]bool) int {
	if set == nil {
		return 0
	}
	deepest := 0
	for _, sel := range set.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			if strings.HasPrefix(s.Name.Value, "__") || s.SelectionSet == nil {
				continue
			}
			deepest = max(deepest, 1+selectionDepth(s.SelectionSet, fragments, visiting))
		case *ast.InlineFragment:
			deepest = max(deepest, selectionDepth(s.SelectionSet, fragments, visiting))
		case *ast.FragmentSpread:
			name := s.Name.Value
			f, ok := fragments[name]
			if !ok || visiting[name] {
				continue
			}
			visiting[name] = true
			deepest = max(deepest, selectionDepth(f.SelectionSet, fragments, visiting))
			delete(visiting, name)
		}
	}
	return deepest
}
