package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/ytplay/internal/app"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// withSettings runs fn against a session and prints the resulting settings.
func (r *Runner) withSettings(ctx context.Context, fn func(a *app.App) error) error {
	a, err := r.openApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	if fn != nil {
		if err := fn(a); err != nil {
			return err
		}
	}
	return r.writeJSON(a.Settings.State(), true)
}

// SettingsShow prints the persisted settings.
func (r *Runner) SettingsShow(ctx context.Context, _ *cli.Command) error {
	return r.withSettings(ctx, nil)
}

// SettingsReset restores defaults.
func (r *Runner) SettingsReset(ctx context.Context, _ *cli.Command) error {
	return r.withSettings(ctx, func(a *app.App) error {
		a.Settings.Reset()
		r.logger.Info("settings reset")
		return nil
	})
}

// SettingsRepeat sets the repeat mode, or advances it when no mode is given.
func (r *Runner) SettingsRepeat(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("mode")
	mode := models.RepeatMode(raw)
	if raw != "" && !mode.Valid() {
		return fmt.Errorf("%w: repeat mode %q (want none, one or all)", shared.ErrInvalidArgument, raw)
	}

	return r.withSettings(ctx, func(a *app.App) error {
		if raw == "" {
			mode = a.Settings.CycleRepeatMode()
		} else {
			a.Settings.SetRepeatMode(mode)
		}
		r.logger.Info("repeat mode set", "mode", mode)
		return nil
	})
}

// SettingsTab selects the side panel tab.
func (r *Runner) SettingsTab(ctx context.Context, cmd *cli.Command) error {
	tab := models.Tab(cmd.StringArg("tab"))
	if !tab.Valid() {
		return fmt.Errorf("%w: tab %q (want info or lyrics)", shared.ErrInvalidArgument, tab)
	}

	return r.withSettings(ctx, func(a *app.App) error {
		a.Settings.SetActiveTab(tab)
		return nil
	})
}

// SettingsWidth stores the side panel width.
func (r *Runner) SettingsWidth(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("width")
	width, err := strconv.Atoi(raw)
	if err != nil || width <= 0 {
		return fmt.Errorf("%w: width %q must be a positive integer", shared.ErrInvalidArgument, raw)
	}

	return r.withSettings(ctx, func(a *app.App) error {
		a.Settings.SetSidebarSplit(width)
		return nil
	})
}
