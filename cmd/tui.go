package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pnavk/gMusic/internal/providers"
	"github.com/pnavk/gMusic/internal/shared"
	"github.com/pnavk/gMusic/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive account manager.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/gmusic-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	r.spinner = providers.NoSpinner{}

	return r.withManager(ctx, func(manager *providers.Manager) error {
		model := ui.NewModel(ctx, manager, supportedServices)
		p := tea.NewProgram(model)

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}

		return nil
	})
}

// tuiCommand launches the terminal UI.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive account manager",
		Action: r.TUI,
	}
}
