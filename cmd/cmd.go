// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the HTTP controller.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API and media-key control endpoint",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the session endpoint in the default browser",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Initial location, e.g. \"/?playlist=PL...&song=...\"",
			},
		},
		Action: r.Serve,
	}
}

// searchCommand searches the proxy.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search YouTube Music for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "filter",
				Usage: "Result type passed to the proxy (songs, videos)",
				Value: "songs",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or markdown",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// playCommand launches the terminal player.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the terminal player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Playlist ID to load",
			},
			&cli.StringFlag{
				Name:  "song",
				Usage: "Song ID to start from (requires a playlist)",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Location to restore, e.g. \"/?playlist=PL...&song=...\"",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file (the player owns the terminal)",
				Value: "ytplay.log",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log at debug level",
			},
		},
		Action: r.Play,
	}
}

// settingsCommand inspects and edits persisted settings.
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change persisted player settings",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print current settings as JSON",
				Action: r.SettingsShow,
			},
			{
				Name:   "reset",
				Usage:  "Restore default settings",
				Action: r.SettingsReset,
			},
			{
				Name:  "repeat",
				Usage: "Set repeat mode (none, one, all); cycles when omitted",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "mode"},
				},
				Action: r.SettingsRepeat,
			},
			{
				Name:  "tab",
				Usage: "Set the side panel tab (info, lyrics)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "tab"},
				},
				Action: r.SettingsTab,
			},
			{
				Name:  "width",
				Usage: "Set the side panel width in pixels",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "width"},
				},
				Action: r.SettingsWidth,
			},
		},
	}
}

// historyCommand lists recorded plays.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recently played tracks",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of entries",
				Value:   20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or markdown",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Delete all recorded plays",
				Action: r.HistoryClear,
			},
		},
	}
}

// apiCommand handles direct (proxy) API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to FastAPI proxy",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to FastAPI proxy, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
