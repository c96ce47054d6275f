package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the proxy and prints matching tracks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if r.catalog == nil {
		return fmt.Errorf("%w: no proxy configured", shared.ErrServiceUnavailable)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("searching", "query", query, "filter", cmd.String("filter"))

	tracks, err := r.catalog.Search(ctx, query, cmd.String("filter"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	data, err := formatter.Tracks(format, fmt.Sprintf("Results for %q", query), tracks)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}
