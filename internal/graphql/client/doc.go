// Package client executes GraphQL operations against a single HTTP endpoint
// and retries transient failures.
//
// Every attempt posts {"query": ..., "variables": ...} through a
// transport.Transport after the configured auth.Decorator has added its
// credentials. The outcome of an attempt is one of:
//
//   - a well-formed 2xx envelope: returned immediately as an
//     *ExecutionResult, even when it carries GraphQL errors
//   - a read or write timeout: retried at once with the per-attempt timeout
//     escalated by 1.5x
//   - any other failure (non-2xx status, malformed envelope, connection
//     error): retried after a full-jitter exponential backoff sleep
//
// When every attempt fails Execute returns a *RetryError wrapping the last
// failure. Cancelling the context stops the loop and returns the context
// error.
//
//	c, err := client.New(client.Config{Endpoint: "https://api.example.com/graphql"},
//	    client.WithAuth(auth.NewBearer(token)),
//	)
//	res, err := c.Execute(ctx, `query { viewer { login } }`, nil,
//	    client.WithMaxTries(3),
//	)
package client
