package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/sourcegraph/conc/pool"
)

var healthcheckPaths = []string{
	"/api/health",
	"/api/config",
	"/api/metrics",
	"/api/tasks",
}

// runHealthcheck probes the core endpoints concurrently and reports the
// first failure per endpoint.
func runHealthcheck(ctx context.Context, client *Client) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, path := range healthcheckPaths {
		p.Go(func(ctx context.Context) error {
			var body map[string]any
			if err := client.GetJSON(ctx, path, &body); err != nil {
				color.Red("FAIL %s: %v", path, err)
				return fmt.Errorf("%s: %w", path, err)
			}
			color.Green("OK   %s", path)
			return nil
		})
	}
	return p.Wait()
}
