package main

import (
	"context"

	"github.com/desertthunder/ytplay/internal/app"
	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/urfave/cli/v3"
)

// History prints the most recent plays, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	a, err := r.openApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.History.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	data, err := formatter.History(format, entries)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// HistoryClear deletes every recorded play.
func (r *Runner) HistoryClear(ctx context.Context, _ *cli.Command) error {
	a, err := r.openApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	count, err := a.History.Count()
	if err != nil {
		return err
	}
	if err := a.History.Clear(); err != nil {
		return err
	}

	r.logger.Info("history cleared", "entries", count)
	return r.writePlain("Removed %d entries\n", count)
}
