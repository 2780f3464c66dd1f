package main

import (
	"context"
	"fmt"

	"x402-lab/internal/reporting"
	"x402-lab/internal/stream"
)

// WatchCmd streams a comparison from cmd/server's /stream endpoint.
type WatchCmd struct {
	Server string  `default:"http://localhost:8080" help:"Server base URL."`
	Preset string  `required:"" help:"Preset name."`
	Load   float64 `help:"Load multiplier override."`
}

// Run needs no local config or storage; the server owns both.
func (c *WatchCmd) Run(ctx context.Context) error {
	client, err := stream.NewClient(c.Server, nil)
	if err != nil {
		return err
	}

	done, err := client.Watch(ctx, c.Preset, c.Load, func(m *stream.Message) error {
		fmt.Fprintf(stdout, "[%s] %s cached=%v\n", m.Run.ShortID, m.Preset, m.Run.Cached)
		fmt.Fprintln(stdout, reporting.RenderResultSummary(m.Run.Result))
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Decision for %s: %s\n", done.Preset, done.Decision)
	return nil
}
