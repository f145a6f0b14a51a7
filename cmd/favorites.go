package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/qbx/internal/formatter"
	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/services"
	"github.com/desertthunder/qbx/internal/shared"
	"github.com/desertthunder/qbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// favoriteKinds resolves --type; "all" lists tracks, albums then artists.
func favoriteKinds(value string) ([]models.FavoriteKind, error) {
	if value == "" || value == "all" {
		return []models.FavoriteKind{models.FavoriteTracks, models.FavoriteAlbums, models.FavoriteArtists}, nil
	}
	kind, ok := models.ParseFavoriteKind(value)
	if !ok {
		return nil, fmt.Errorf("%w: --type must be tracks, albums, artists or all, got %q", shared.ErrInvalidFlag, value)
	}
	return []models.FavoriteKind{kind}, nil
}

// Favorites lists favorite tracks, albums and artists in the document format accepted by the add and del commands.
func (r *Runner) Favorites(ctx context.Context, cmd *cli.Command) error {
	kinds, err := favoriteKinds(cmd.String("type"))
	if err != nil {
		return err
	}

	catalog, err := r.ensureCatalog(ctx)
	if err != nil {
		return err
	}
	pageSize := r.config.API.PageSize

	if cmd.Bool("raw") {
		for _, kind := range kinds {
			r.logger.Info("get all raw favorites", "type", kind)
			items, err := services.AllFavoritesRaw(ctx, catalog, kind, pageSize)
			if err != nil {
				return fmt.Errorf("%w: favorite %s: %w", shared.ErrRemoteFetch, kind, err)
			}
			if err := r.writeJSON(items, true); err != nil {
				return err
			}
		}
		return nil
	}

	var covers []models.Album
	for _, kind := range kinds {
		r.logger.Info("get all favorites", "type", kind)

		switch kind {
		case models.FavoriteTracks:
			tracks, err := services.AllFavoriteTracks(ctx, catalog, pageSize)
			if err != nil {
				return fmt.Errorf("%w: favorite tracks: %w", shared.ErrRemoteFetch, err)
			}
			if err := formatter.WriteFavoriteTracks(r.output, tracks, cmd.Bool("performers")); err != nil {
				return err
			}
			for _, t := range tracks {
				covers = append(covers, t.Album)
			}
		case models.FavoriteAlbums:
			albums, err := services.AllFavoriteAlbums(ctx, catalog, pageSize)
			if err != nil {
				return fmt.Errorf("%w: favorite albums: %w", shared.ErrRemoteFetch, err)
			}
			if err := formatter.WriteFavoriteAlbums(r.output, albums); err != nil {
				return err
			}
			covers = append(covers, albums...)
		case models.FavoriteArtists:
			artists, err := services.AllFavoriteArtists(ctx, catalog, pageSize)
			if err != nil {
				return fmt.Errorf("%w: favorite artists: %w", shared.ErrRemoteFetch, err)
			}
			if err := formatter.WriteFavoriteArtists(r.output, artists); err != nil {
				return err
			}
		}
	}

	if cmd.Bool("cover") {
		r.downloadCovers(ctx, covers)
	}
	return nil
}

// downloadCovers saves album covers and logs the albums that failed.
func (r *Runner) downloadCovers(ctx context.Context, albums []models.Album) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "step", update.Step, "total", update.Total)
		}
	}()

	report := tasks.DownloadCovers(ctx, albums, tasks.CoverOpts{
		Dir:        r.config.Covers.Dir,
		Size:       r.config.Covers.Size,
		NumWorkers: r.config.Covers.Workers,
		Client:     r.httpClient,
	}, progress)
	close(progress)
	<-done

	// The output is a favorites document; cover outcomes go to the log.
	for _, res := range report.Results {
		if res.Err != nil {
			r.logger.Warn("cover not saved", "album", res.Album.Title, "id", res.Album.ID, "error", res.Err)
		}
	}
	r.logger.Info("covers processed", "downloaded", report.Downloaded, "skipped", report.Skipped, "failed", report.Failed)
}

// FavoritesAdd adds the identifiers of a favorites document.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	return r.reconcileFavorites(ctx, cmd, tasks.ModeAdd)
}

// FavoritesDel removes the identifiers of a favorites document.
func (r *Runner) FavoritesDel(ctx context.Context, cmd *cli.Command) error {
	return r.reconcileFavorites(ctx, cmd, tasks.ModeDelete)
}

func (r *Runner) reconcileFavorites(ctx context.Context, cmd *cli.Command, mode tasks.Mode) error {
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
		r.writePlain("Read source favorites(s) from stdin.\n")
	}

	reconciler, err := r.reconciler(ctx, path)
	if err != nil {
		return err
	}

	report, err := reconciler.ReconcileFavorites(ctx, src, mode, nil)
	if err != nil {
		if errors.Is(err, shared.ErrMalformedSection) {
			r.writePlain("ERROR : %v\n", err)
		}
		return err
	}

	for _, issue := range report.Issues {
		r.writePlain("ERROR : %v\n", issue)
	}
	if report.Err != nil {
		r.writePlain("FAILED\n")
		r.logger.Error("favorites not processed", "error", report.Err)
		return nil
	}

	applied := report.Applied
	r.writePlain("  Favorites processed : Artists:%d, Albums:%d, Tracks:%d\n",
		len(applied.Artists), len(applied.Albums), len(applied.Tracks))
	return nil
}
