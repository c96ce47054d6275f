package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring invalid config", "path", defaultConfigPath, "error", err)
		}
	}

	proxy := services.NewProxyClient(config.Proxy, nil, shared.WithLogger(logger, "component", "proxy"))
	apiService := services.NewAPIService(config.Proxy.BaseURL, nil).WithAuthFile(config.Proxy.HeadersPath)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: proxy,
		API:     apiService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "ytplay",
		Usage:    "Play YouTube Music from the terminal through a ytmusicapi proxy",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
