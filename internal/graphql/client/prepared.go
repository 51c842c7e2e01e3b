package client

import (
	"context"
	"sync"

	"github.com/vyrodovalexey/avagql/internal/graphql/query"
)

// Query is a prepared GraphQL operation. It is bound either to an existing
// Client or to a Config from which a client is built on first use.
type Query struct {
	text     string
	op       query.Operation
	defaults []ExecuteOption

	client     *Client
	cfg        Config
	clientOpts []Option

	once    sync.Once
	initErr error
}

// QueryOption configures a prepared query.
type QueryOption func(*Query)

// BoundTo runs the query on c.
func BoundTo(c *Client) QueryOption {
	return func(q *Query) {
		q.client = c
	}
}

// FromConfig builds the query's client from cfg on first use.
func FromConfig(cfg Config, opts ...Option) QueryOption {
	return func(q *Query) {
		q.cfg = cfg
		q.clientOpts = opts
	}
}

// WithDefaults sets execution options applied to every run, before the
// per-run options.
func WithDefaults(opts ...ExecuteOption) QueryOption {
	return func(q *Query) {
		q.defaults = append(q.defaults, opts...)
	}
}

// NewQuery prepares q, a GraphQL string or parsed document.
func NewQuery(q any, opts ...QueryOption) (*Query, error) {
	text, err := query.Normalize(q)
	if err != nil {
		return nil, err
	}

	pq := &Query{
		text: text,
		op:   describe(q, text),
	}
	for _, opt := range opts {
		opt(pq)
	}
	return pq, nil
}

// Text returns the wire text of the query.
func (q *Query) Text() string {
	return q.text
}

// Operation returns the described operation.
func (q *Query) Operation() query.Operation {
	return q.op
}

// Client returns the bound client, building it if needed.
func (q *Query) Client() (*Client, error) {
	q.once.Do(func() {
		if q.client != nil {
			return
		}
		q.client, q.initErr = New(q.cfg, q.clientOpts...)
	})
	return q.client, q.initErr
}

// Run executes the query with variables.
func (q *Query) Run(ctx context.Context, variables map[string]any, opts ...ExecuteOption) (*ExecutionResult, error) {
	c, err := q.Client()
	if err != nil {
		return nil, err
	}

	all := make([]ExecuteOption, 0, len(q.defaults)+len(opts))
	all = append(all, q.defaults...)
	all = append(all, opts...)
	return c.Execute(ctx, q.text, variables, all...)
}
