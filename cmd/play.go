package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/app"
	"github.com/desertthunder/ytplay/internal/notify"
	"github.com/desertthunder/ytplay/internal/settings"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/ui"
	"github.com/urfave/cli/v3"
)

const notificationBuffer = 16

// Play launches the terminal player, restoring the requested or persisted session.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	location, err := playLocation(cmd.String("url"), cmd.String("playlist"), cmd.String("song"))
	if err != nil {
		return err
	}

	logger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return err
	}
	if cmd.Bool("debug") {
		shared.SetLogLevel(logger, log.DebugLevel)
	}

	toasts := notify.NewChannelRenderer(notificationBuffer)
	a, err := r.openApp(ctx, app.Options{
		Logger:    logger,
		URL:       location,
		Renderers: []notify.Renderer{toasts},
	})
	if err != nil {
		return err
	}
	defer a.Close()

	return ui.Run(ctx, a, toasts.C, true)
}

// playLocation merges --url with --playlist/--song; the explicit flags win.
func playLocation(raw, playlist, song string) (string, error) {
	if song != "" && playlist == "" && raw == "" {
		return "", fmt.Errorf("%w: --song requires --playlist", shared.ErrMissingArgument)
	}
	if raw == "" {
		raw = "/"
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: --url: %v", shared.ErrInvalidFlag, err)
	}

	q := u.Query()
	if playlist != "" {
		q.Set(settings.ParamPlaylist, playlist)
	}
	if song != "" {
		q.Set(settings.ParamSong, song)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
