package query

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation labels used when a query cannot be described.
const (
	AnonymousOperation = "anonymous"
	UnknownOperation   = "unknown"
)

// Operation describes the first operation of a document.
type Operation struct {
	Name string
	Type string
}

// Describe returns the name and type of the first operation in text. It
// never fails: unparsable text yields UnknownOperation.
func Describe(text string) Operation {
	doc, err := parser.ParseQuery(&ast.Source{Name: sourceName, Input: text})
	if err != nil {
		return Operation{Name: UnknownOperation, Type: UnknownOperation}
	}
	return DescribeDocument(doc)
}

// DescribeDocument returns the name and type of the first operation in doc.
func DescribeDocument(doc *ast.QueryDocument) Operation {
	if doc == nil || len(doc.Operations) == 0 {
		return Operation{Name: UnknownOperation, Type: UnknownOperation}
	}

	op := doc.Operations[0]
	name := op.Name
	if name == "" {
		name = AnonymousOperation
	}
	kind := string(op.Operation)
	if kind == "" {
		kind = string(ast.Query)
	}
	return Operation{Name: name, Type: kind}
}
