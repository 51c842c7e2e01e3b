package auth

import (
	"context"
	"net/http"
)

// Authentication type constants.
const (
	TypeNone        = "none"
	TypeBearer      = "bearer"
	TypeHasuraAdmin = "hasura-admin"
	TypeJWT         = "jwt"
)

const (
	// DefaultTokenEnv is the environment variable consulted when no token is
	// configured explicitly.
	DefaultTokenEnv = "GRAPHQL_AUTH_TOKEN"

	// AuthorizationHeader carries bearer credentials.
	AuthorizationHeader = "Authorization"

	// HasuraAdminSecretHeader carries the Hasura admin secret.
	// HTTP header names are case-insensitive; net/http sends it canonicalized.
	HasuraAdminSecretHeader = "x-hasura-admin-Secret"

	// BearerPrefix prefixes bearer tokens.
	BearerPrefix = "bearer"
)

// Decorator mutates outgoing request headers to carry credentials.
type Decorator interface {
	Apply(ctx context.Context, h http.Header) error
}

// DecoratorFunc adapts a function to the Decorator interface.
type DecoratorFunc func(ctx context.Context, h http.Header) error

// Apply implements Decorator.
func (f DecoratorFunc) Apply(ctx context.Context, h http.Header) error {
	return f(ctx, h)
}

// Nop leaves requests unauthenticated.
type Nop struct{}

// Apply implements Decorator.
func (Nop) Apply(context.Context, http.Header) error {
	return nil
}

// Bearer sets "Authorization: bearer <token>".
type Bearer struct {
	token string
}

// NewBearer creates a bearer decorator for a resolved token.
func NewBearer(token string) *Bearer {
	return &Bearer{token: token}
}

// Apply implements Decorator.
func (b *Bearer) Apply(_ context.Context, h http.Header) error {
	h.Set(AuthorizationHeader, BearerPrefix+" "+b.token)
	return nil
}

// HasuraAdmin sets the Hasura admin secret header.
type HasuraAdmin struct {
	secret string
}

// NewHasuraAdmin creates a Hasura admin secret decorator.
func NewHasuraAdmin(secret string) *HasuraAdmin {
	return &HasuraAdmin{secret: secret}
}

// Apply implements Decorator.
func (a *HasuraAdmin) Apply(_ context.Context, h http.Header) error {
	h.Set(HasuraAdminSecretHeader, a.secret)
	return nil
}
