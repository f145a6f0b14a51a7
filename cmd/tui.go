package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/qbx/internal/services"
	"github.com/desertthunder/qbx/internal/shared"
	"github.com/desertthunder/qbx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing and dropping playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	kind := cmd.String("type")
	if kind != "owner" && kind != "subscriber" && kind != "all" {
		return fmt.Errorf("%w: --type must be owner, subscriber or all, got %q", shared.ErrInvalidFlag, kind)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/qbx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	catalog, err := r.ensureCatalog(ctx)
	if err != nil {
		return err
	}
	reconciler, err := r.reconciler(ctx, "tui")
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, catalog, reconciler, ui.Options{
		Filter:   services.PlaylistFilter(kind),
		PageSize: r.config.API.PageSize,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
