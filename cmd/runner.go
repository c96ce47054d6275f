package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/app"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// AppFactory builds the session a command runs against.
type AppFactory func(ctx context.Context, opts app.Options) (*app.App, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	catalog services.Catalog
	api     *services.APIService
	logger  *log.Logger
	output  io.Writer
	newApp  AppFactory
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog services.Catalog
	API     *services.APIService
	Logger  *log.Logger
	Output  io.Writer
	NewApp  AppFactory
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.Proxy.BaseURL, nil)
	}
	if opts.NewApp == nil {
		opts.NewApp = app.New
	}

	return &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		api:     opts.API,
		logger:  opts.Logger,
		output:  opts.Output,
		newApp:  opts.NewApp,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, searchCommand, playCommand, settingsCommand, historyCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openApp builds a session with the runner's config, catalog and logger.
func (r *Runner) openApp(ctx context.Context, opts app.Options) (*app.App, error) {
	opts.Config = r.config
	if opts.Logger == nil {
		opts.Logger = r.logger
	}
	if opts.Catalog == nil && r.catalog != nil {
		opts.Catalog = r.catalog
	}
	a, err := r.newApp(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return a, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
