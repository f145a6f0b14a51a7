package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
	"github.com/desertthunder/qbx/internal/ui"
	"github.com/urfave/cli/v3"
)

const historyRow = "%-36s | %-9s | %-7s | %-19s | %8s | %s\n"

// History lists recorded runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	runs, err := r.openRuns()
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if kind := cmd.String("kind"); kind != "" {
		if kind != string(models.RunPlaylists) && kind != string(models.RunFavorites) {
			return fmt.Errorf("%w: --kind must be playlists or favorites, got %q", shared.ErrInvalidFlag, kind)
		}
		criteria["kind"] = kind
	}

	list, err := runs.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(historyJSON(list), true)
	}

	if len(list) == 0 {
		r.writePlain("No runs recorded.\n")
		return nil
	}

	styles := ui.Styles()
	r.writePlain(historyRow, "#idRun", "Kind", "Mode", "Started", "Elapsed", "Source")
	for _, run := range list {
		r.writePlain(historyRow, run.ID(), run.Kind, run.Mode, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Elapsed().Round(10*time.Millisecond).String(), run.Source)

		for _, res := range run.Results {
			line := fmt.Sprintf("    %-40s %-7s +%d -%d", res.Name, res.Mode, res.Added, res.Removed)
			if res.Created {
				line += " (created)"
			}
			if res.Error != "" {
				r.writePlain("%s\n", styles.Err(line+" FAILED: "+res.Error))
				continue
			}
			r.writePlain("%s\n", line)
		}
		if run.Error != "" {
			r.writePlain("    %s\n", styles.Err("FAILED: "+run.Error))
		}
	}
	return nil
}

type historyEntry struct {
	ID         string             `json:"id"`
	Sequence   int                `json:"sequence"`
	Kind       models.RunKind     `json:"kind"`
	Mode       string             `json:"mode"`
	Source     string             `json:"source"`
	Issues     int                `json:"issues"`
	Error      string             `json:"error,omitempty"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	Results    []models.RunResult `json:"results"`
}

func historyJSON(runs []*models.Run) []historyEntry {
	entries := make([]historyEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, historyEntry{
			ID:         run.ID(),
			Sequence:   run.Sequence(),
			Kind:       run.Kind,
			Mode:       run.Mode,
			Source:     run.Source,
			Issues:     run.Issues,
			Error:      run.Error,
			StartedAt:  run.StartedAt.Format(time.RFC3339),
			FinishedAt: run.FinishedAt.Format(time.RFC3339),
			Results:    run.Results,
		})
	}
	return entries
}
