package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vyrodovalexey/avagql/internal/graphql/client"
	"github.com/vyrodovalexey/avagql/internal/graphql/query"
	"github.com/vyrodovalexey/avagql/internal/retry"
	"github.com/vyrodovalexey/avagql/internal/util"
)

// readQuery reads the query from path, or from stdin when path is "-".
// The query is parsed so syntax errors are reported before any request.
func readQuery(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	}
	if err != nil {
		return "", fmt.Errorf("failed to read query: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", util.NewConfigErrorWithCause("query", "query is empty", util.ErrInvalidQuery)
	}
	if _, err := query.Parse(text); err != nil {
		return "", err
	}
	return text, nil
}

// parseVariables decodes a JSON object of variables.
func parseVariables(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var vars map[string]any
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil, util.NewConfigErrorWithCause("variables", "must be a JSON object", err)
	}
	return vars, nil
}

// runQueries executes the query repeat times and writes each result as
// indented JSON.
func runQueries(
	ctx context.Context, app *application, text string, variables map[string]any,
	repeat int, interval time.Duration, out io.Writer,
) error {
	q, err := client.NewQuery(text, client.BoundTo(app.client))
	if err != nil {
		return err
	}
	app.metrics.InitVecMetrics(q.Operation().Name)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	for i := 0; i < repeat; i++ {
		if i > 0 && interval > 0 {
			if err := retry.Sleep(ctx, interval); err != nil {
				return err
			}
		}

		res, err := q.Run(ctx, variables)
		if err != nil {
			return err
		}
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}
