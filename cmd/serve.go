package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ytplay/internal/app"
	"github.com/desertthunder/ytplay/internal/server"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP controller until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := r.openApp(ctx, app.Options{URL: cmd.String("url")})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(r.config.Server, a.Handler(), shared.WithLogger(r.logger, "component", "http"))

	if cmd.Bool("open") {
		target := fmt.Sprintf("http://%s/api/session", srv.Addr())
		if err := shared.OpenBrowser(target); err != nil {
			r.logger.Warn("could not open browser", "url", target, "error", err)
		}
	}

	return srv.ListenAndServe(ctx)
}
