package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pnavk/gMusic/internal/providers"
	"github.com/pnavk/gMusic/internal/repositories"
	"github.com/pnavk/gMusic/internal/services"
	"github.com/pnavk/gMusic/internal/shared"
	"github.com/pnavk/gMusic/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	logger   *log.Logger
	output   io.Writer
	prompter services.Prompter
	spinner  providers.Spinner
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Logger   *log.Logger
	Output   io.Writer
	Prompter services.Prompter
	Spinner  providers.Spinner
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
	if opts.Prompter == nil {
		opts.Prompter = NewTerminalPrompter(os.Stdin, os.Stderr)
	}
	if opts.Spinner == nil {
		opts.Spinner = ui.NewTerminalSpinner(os.Stderr)
	}

	return &Runner{
		config:   opts.Config,
		logger:   opts.Logger,
		output:   opts.Output,
		prompter: opts.Prompter,
		spinner:  opts.Spinner,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, accountsCommand, loginCommand, logoutCommand, syncCommand, resyncCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// withManager opens the database, builds the provider manager on top of it,
// restores saved accounts, and hands the manager to fn. The database is closed
// when fn returns.
func (r *Runner) withManager(ctx context.Context, fn func(*providers.Manager) error) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	records := repositories.NewApiRepository(db)
	library := repositories.NewTrackRepository(db)

	registry := providers.NewRegistry(providers.Deps{
		Config:    r.config,
		Records:   records,
		Library:   library,
		Logger:    r.logger,
		Prompter:  r.prompter,
		Transport: http.DefaultTransport,
		CacheDir:  r.config.Cache.Dir,
	})

	manager := providers.NewManager(providers.ManagerOpts{
		Registry:        registry,
		Records:         records,
		Library:         library,
		Logger:          r.logger,
		Spinner:         r.spinner,
		YouTubeClientID: r.config.Credentials.YouTube.ClientID,
	})

	if err := manager.Load(ctx); err != nil {
		r.logger.Warn("failed to restore some accounts", "error", err)
	}

	return fn(manager)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format+"\n", args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}
