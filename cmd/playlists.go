package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/qbx/internal/formatter"
	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/services"
	"github.com/desertthunder/qbx/internal/shared"
	"github.com/desertthunder/qbx/internal/tasks"
	"github.com/desertthunder/qbx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Playlists lists playlists in the document format accepted by the add and del commands.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	kind := cmd.String("type")
	if kind != "owner" && kind != "subscriber" && kind != "all" {
		return fmt.Errorf("%w: --type must be owner, subscriber or all, got %q", shared.ErrInvalidFlag, kind)
	}

	catalog, err := r.ensureCatalog(ctx)
	if err != nil {
		return err
	}
	filter := services.PlaylistFilter(kind)
	name := cmd.String("name")
	pageSize := r.config.API.PageSize

	r.logger.Info("get all playlists", "filter", filter)
	playlists, err := services.AllPlaylists(ctx, catalog, filter, pageSize)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRemoteFetch, err)
	}

	if cmd.Bool("raw") {
		containers, err := services.AllPlaylistsRaw(ctx, catalog, filter, pageSize)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrRemoteFetch, err)
		}
		if err := r.writeJSON(containers, true); err != nil {
			return err
		}
		r.writePlain("\n")
	}

	opts := formatter.PlaylistOptions{
		NoTracks:   cmd.Bool("no-tracks"),
		Sort:       cmd.Bool("sort"),
		Performers: cmd.Bool("performers"),
	}

	for _, p := range playlists {
		if name != "" && !strings.EqualFold(name, p.Name) {
			r.logger.Info("skip playlist", "playlist", p.Name)
			continue
		}

		if cmd.Bool("raw") {
			items, err := services.AllPlaylistTracksRaw(ctx, catalog, p.ID, pageSize)
			if err != nil {
				return fmt.Errorf("%w: tracks of %q: %w", shared.ErrRemoteFetch, p.Name, err)
			}
			if err := r.writeJSON(items, true); err != nil {
				return err
			}
			r.writePlain("\n")
			continue
		}

		var tracks []models.Track
		if !opts.NoTracks {
			r.logger.Info("get playlist tracks", "playlist", p.Name)
			if tracks, err = services.AllPlaylistTracks(ctx, catalog, p.ID, pageSize); err != nil {
				return fmt.Errorf("%w: tracks of %q: %w", shared.ErrRemoteFetch, p.Name, err)
			}
		}
		if err := formatter.WritePlaylist(r.output, p, tracks, opts); err != nil {
			return err
		}
	}
	return nil
}

// PlaylistsAdd adds the tracks of a playlist document, creating missing playlists.
func (r *Runner) PlaylistsAdd(ctx context.Context, cmd *cli.Command) error {
	return r.reconcilePlaylists(ctx, cmd, tasks.ModeAdd, cmd.Bool("replace"))
}

// PlaylistsDel removes the tracks of a playlist document.
func (r *Runner) PlaylistsDel(ctx context.Context, cmd *cli.Command) error {
	return r.reconcilePlaylists(ctx, cmd, tasks.ModeDelete, false)
}

// PlaylistsReplace makes every playlist of a document hold exactly its tracks.
func (r *Runner) PlaylistsReplace(ctx context.Context, cmd *cli.Command) error {
	return r.reconcilePlaylists(ctx, cmd, tasks.ModeReplace, false)
}

func (r *Runner) reconcilePlaylists(ctx context.Context, cmd *cli.Command, mode tasks.Mode, forceReplace bool) error {
	path := cmd.StringArg("file")
	src, err := formatter.OpenSource(path, r.input)
	if errors.Is(err, shared.ErrSourceNotFound) {
		r.writePlain("FAILED: file \"%s\" not found\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()
	if path == "" {
		r.writePlain("Read source playlist(s) from stdin.\n")
	}

	reconciler, err := r.reconciler(ctx, path)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	report, runErr := reconciler.ReconcilePlaylists(ctx, src, mode, forceReplace, progress)
	close(progress)
	<-done

	if report != nil {
		r.writePlaylistReport(report)
	}
	return runErr
}

func (r *Runner) writePlaylistReport(report *tasks.PlaylistReport) {
	styles := ui.Styles()

	for _, issue := range report.Issues {
		r.writePlain("ERROR : %v\n", issue)
	}

	for _, res := range report.Results {
		switch {
		case res.Created:
			r.writePlain("Create playlist \"%s\"\n", res.Name)
		case report.Mode == tasks.ModeAdd:
			r.writePlain("Add track(s) to existing playlist \"%s\"\n", res.Name)
		case report.Mode == tasks.ModeDelete:
			r.writePlain("Delete track(s) to existing playlist \"%s\"\n", res.Name)
		default:
			r.writePlain("Replace tracks of existing playlist \"%s\"\n", res.Name)
		}

		switch res.Mode {
		case tasks.ModeAdd:
			r.writePlain("  number of tracks to add : %d\n", len(res.Plan.Add))
		case tasks.ModeDelete:
			r.writePlain("  number of tracks to delete : %d\n", len(res.Plan.Remove))
		case tasks.ModeReplace:
			r.writePlain("  %d tracks to add, %d to delete\n", len(res.Plan.Add), len(res.Plan.Remove))
		}

		if res.Err != nil {
			r.writePlain("  %s\n", styles.Err(fmt.Sprintf("FAILED: %v", res.Err)))
		}
	}

	failed := 0
	for _, res := range report.Results {
		if res.Err != nil {
			failed++
		}
	}
	summary := fmt.Sprintf("%d playlist(s) processed", len(report.Results))
	if failed > 0 {
		r.writePlain("%s\n", styles.Warn(fmt.Sprintf("%s, %d failed", summary, failed)))
	} else {
		r.writePlain("%s\n", styles.OK(summary))
	}
}

// PlaylistsDrop deletes one owned playlist by name.
func (r *Runner) PlaylistsDrop(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	reconciler, err := r.reconciler(ctx, "")
	if err != nil {
		return err
	}

	deleted, err := reconciler.DeletePlaylist(ctx, name)
	if err != nil {
		return err
	}
	r.writePlain("Playlist \"%s\" deleted (id: %s)\n", deleted.Name, deleted.ID)
	return nil
}
