// Package query parses and normalizes GraphQL query documents.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/vyrodovalexey/avagql/internal/util"
)

// sourceName labels parse errors.
const sourceName = "GraphQL request"

// InvalidTypeError is returned when a query is neither text nor a parsed
// document.
type InvalidTypeError struct {
	Got any
}

// Error implements the error interface.
func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("received incompatible query: expected string or *ast.QueryDocument, received %T", e.Got)
}

// Is checks if the error matches the target.
func (e *InvalidTypeError) Is(target error) bool {
	if target == util.ErrInvalidQuery {
		return true
	}
	_, ok := target.(*InvalidTypeError)
	return ok
}

// SyntaxError is returned when a query does not parse.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
	Cause   error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("graphql syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("graphql syntax error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *SyntaxError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *SyntaxError) Is(target error) bool {
	if target == util.ErrInvalidQuery {
		return true
	}
	_, ok := target.(*SyntaxError)
	return ok
}

// Parse parses q into a query document. Only string and []byte inputs are
// accepted. No schema validation is performed.
func Parse(q any) (*ast.QueryDocument, error) {
	var text string
	switch v := q.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return nil, &InvalidTypeError{Got: q}
	}

	doc, err := parser.ParseQuery(&ast.Source{Name: sourceName, Input: text})
	if err != nil {
		return nil, newSyntaxError(err)
	}
	return doc, nil
}

// MustParse is like Parse but panics on error. It is meant for
// package-level query declarations.
func MustParse(q string) *ast.QueryDocument {
	doc, err := Parse(q)
	if err != nil {
		panic(err)
	}
	return doc
}

// Normalize renders q as wire text: strings are returned unchanged and
// parsed documents are printed in canonical form.
func Normalize(q any) (string, error) {
	switch v := q.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case *ast.QueryDocument:
		if v == nil {
			return "", &InvalidTypeError{Got: q}
		}
		return Print(v), nil
	default:
		return "", &InvalidTypeError{Got: q}
	}
}

// Print renders doc as GraphQL text.
func Print(doc *ast.QueryDocument) string {
	var sb strings.Builder
	formatter.NewFormatter(&sb).FormatQueryDocument(doc)
	return sb.String()
}

func newSyntaxError(err error) *SyntaxError {
	se := &SyntaxError{Message: err.Error(), Cause: err}

	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		se.Message = gqlErr.Message
		if len(gqlErr.Locations) > 0 {
			se.Line = gqlErr.Locations[0].Line
			se.Column = gqlErr.Locations[0].Column
		}
	}
	return se
}
