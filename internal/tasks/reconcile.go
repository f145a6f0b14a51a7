package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qbx/internal/formatter"
	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/pager"
	"github.com/desertthunder/qbx/internal/services"
	"github.com/desertthunder/qbx/internal/shared"
)

// RunRecorder persists the summary of a finished run.
//
// Implemented by repositories.RunRepository.
type RunRecorder interface {
	Create(run *models.Run) error
}

// ReconcilerOpts configures a [Reconciler].
type ReconcilerOpts struct {
	PageSize int         // Listing page size (default: [pager.DefaultPageSize])
	Logger   *log.Logger // Defaults to a discarding logger
	Recorder RunRecorder // Optional run history
	Source   string      // Source label stored with recorded runs
	Now      func() time.Time
}

// Reconciler converges remote playlists and favorites to a declarative document.
type Reconciler struct {
	catalog  services.Catalog
	pageSize int
	logger   *log.Logger
	recorder RunRecorder
	source   string
	now      func() time.Time
}

// PlaylistResult is the outcome of reconciling one playlist.
//
// Plan holds the computed changes; Added and Removed count those the catalog accepted.
type PlaylistResult struct {
	Name       string
	PlaylistID string
	Created    bool
	Mode       Mode
	Plan       Plan
	Added      int
	Removed    int
	Err        error
}

// PlaylistReport summarizes a playlist run in document order.
type PlaylistReport struct {
	RunID        string
	Mode         Mode
	ForceReplace bool
	Results      []PlaylistResult
	Issues       []formatter.ParseIssue
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Failed reports whether any playlist failed.
func (r *PlaylistReport) Failed() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return true
		}
	}
	return false
}

// FavoritesReport summarizes a favorites run.
//
// Applied holds the identifiers sent to the catalog; it is empty when Err is set.
type FavoritesReport struct {
	RunID      string
	Mode       Mode
	Applied    models.Favorites
	Err        error
	Issues     []formatter.ParseIssue
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewReconciler creates a [Reconciler] over catalog.
func NewReconciler(catalog services.Catalog, opts ReconcilerOpts) *Reconciler {
	if opts.PageSize <= 0 {
		opts.PageSize = pager.DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		catalog:  catalog,
		pageSize: opts.PageSize,
		logger:   opts.Logger,
		recorder: opts.Recorder,
		source:   opts.Source,
		now:      opts.Now,
	}
}

// ReconcilePlaylists parses a playlist document from src and applies mode to every playlist in it.
//
// Owned playlists are listed once and matched by case-insensitive name; unmatched playlists are
// created and filled. A failed listing aborts the run with [shared.ErrRemoteFetch] and returns the
// results gathered so far. Mutation failures are recorded on the affected result only.
func (r *Reconciler) ReconcilePlaylists(
	ctx context.Context,
	src io.Reader,
	mode Mode,
	forceReplace bool,
	progress chan<- ProgressUpdate,
) (*PlaylistReport, error) {
	switch mode {
	case ModeAdd, ModeDelete, ModeReplace:
	default:
		return nil, fmt.Errorf("%w: unknown playlist mode %q", shared.ErrInvalidArgument, mode)
	}

	report := &PlaylistReport{Mode: mode, ForceReplace: forceReplace, StartedAt: r.now()}

	sendProgress(progress, parseSourceUpdate("playlists"))
	doc, err := formatter.ParsePlaylists(src)
	if err != nil {
		return nil, err
	}
	report.Issues = doc.Issues
	for _, issue := range doc.Issues {
		r.logger.Warn("source line skipped", "line", issue.Line, "error", issue.Err)
	}
	r.logger.Info("playlist document loaded", "playlists", len(doc.Playlists), "mode", mode)

	owned, err := services.AllPlaylists(ctx, r.catalog, services.PlaylistFilter("owner"), r.pageSize)
	if err != nil {
		err = fmt.Errorf("%w: listing playlists: %w", shared.ErrRemoteFetch, err)
		r.finishPlaylists(report, err)
		return report, err
	}
	sendProgress(progress, fetchPlaylistsUpdate(len(owned)))

	index := make(map[string]models.Playlist, len(owned))
	for _, p := range owned {
		index[strings.ToLower(p.Name)] = p
	}

	total := len(doc.Playlists)
	for i, desired := range doc.Playlists {
		res, err := r.reconcilePlaylist(ctx, desired, index, mode, forceReplace, progress, i+1, total)
		if err != nil {
			r.finishPlaylists(report, err)
			return report, err
		}
		report.Results = append(report.Results, res)
		sendProgress(progress, applyChangesUpdate(i+1, total, res))
	}

	r.finishPlaylists(report, nil)
	return report, nil
}

// reconcilePlaylist converges one playlist. The returned error is a fetch failure that aborts the run;
// mutation failures are carried by the result.
func (r *Reconciler) reconcilePlaylist(
	ctx context.Context,
	desired models.DesiredPlaylist,
	index map[string]models.Playlist,
	mode Mode,
	forceReplace bool,
	progress chan<- ProgressUpdate,
	step, total int,
) (PlaylistResult, error) {
	key := strings.ToLower(desired.Name)
	remote, exists := index[key]
	res := PlaylistResult{Name: desired.Name, Mode: EffectiveMode(mode, exists, forceReplace)}
	logger := r.logger.With("playlist", desired.Name)

	var plan Plan
	if exists {
		res.PlaylistID = remote.ID
		if res.Mode != mode {
			logger.Info("force replace", "requested", mode)
		}

		sendProgress(progress, fetchTracksUpdate(step, total, desired.Name))
		observed, err := services.AllPlaylistTracks(ctx, r.catalog, remote.ID, r.pageSize)
		if err != nil {
			return res, fmt.Errorf("%w: tracks of playlist %q: %w", shared.ErrRemoteFetch, desired.Name, err)
		}
		plan = Diff(res.Mode, desired.TrackIDs, observed)
	} else {
		created, err := r.catalog.CreatePlaylist(ctx, desired.Name, desired.Description, desired.Public, desired.Collaborative)
		if err != nil {
			res.Err = fmt.Errorf("%w: creating playlist %q: %w", shared.ErrRemoteMutation, desired.Name, err)
			logger.Error("create failed", "error", err)
			return res, nil
		}
		logger.Info("playlist created", "id", created.ID)
		sendProgress(progress, createPlaylistUpdate(step, total, created))

		// Later case variants of the name resolve to the new playlist.
		index[key] = *created
		res.PlaylistID = created.ID
		res.Created = true
		res.Mode = ModeAdd
		plan = Diff(ModeAdd, desired.TrackIDs, nil)
	}

	res.Plan = plan
	res.Added, res.Removed, res.Err = r.apply(ctx, res.PlaylistID, plan)
	if res.Err != nil {
		res.Err = fmt.Errorf("%w: playlist %q: %w", shared.ErrRemoteMutation, desired.Name, res.Err)
		logger.Error("apply failed", "mode", res.Mode, "error", res.Err)
	} else {
		logger.Info("playlist reconciled", "mode", res.Mode, "added", res.Added, "removed", res.Removed)
	}
	return res, nil
}

// apply adds then removes. A failed add does not prevent the removal.
func (r *Reconciler) apply(ctx context.Context, playlistID string, plan Plan) (added, removed int, err error) {
	var errs []error
	if len(plan.Add) > 0 {
		if addErr := r.catalog.AddTracks(ctx, playlistID, plan.Add); addErr != nil {
			errs = append(errs, addErr)
		} else {
			added = len(plan.Add)
		}
	}
	if len(plan.Remove) > 0 {
		if rmErr := r.catalog.RemoveTracks(ctx, playlistID, plan.Remove); rmErr != nil {
			errs = append(errs, rmErr)
		} else {
			removed = len(plan.Remove)
		}
	}
	return added, removed, errors.Join(errs...)
}

// ReconcileFavorites parses a favorites document from src and adds or removes every identifier in one batch.
//
// An unknown section rejects the whole document and nothing is applied. A failed mutation is carried by
// the report, not returned.
func (r *Reconciler) ReconcileFavorites(
	ctx context.Context,
	src io.Reader,
	mode Mode,
	progress chan<- ProgressUpdate,
) (*FavoritesReport, error) {
	if mode != ModeAdd && mode != ModeDelete {
		return nil, fmt.Errorf("%w: unknown favorites mode %q", shared.ErrInvalidArgument, mode)
	}

	sendProgress(progress, parseSourceUpdate("favorites"))
	doc, err := formatter.ParseFavorites(src)
	if err != nil {
		return nil, err
	}

	report := &FavoritesReport{Mode: mode, Issues: doc.Issues, StartedAt: r.now()}
	for _, issue := range doc.Issues {
		r.logger.Warn("source line skipped", "line", issue.Line, "error", issue.Err)
	}

	favorites := doc.Favorites
	logger := r.logger.With("mode", mode,
		"artists", len(favorites.Artists), "albums", len(favorites.Albums), "tracks", len(favorites.Tracks))

	if favorites.Len() > 0 {
		sendProgress(progress, applyFavoritesUpdate(mode, favorites))
		if mode == ModeAdd {
			err = r.catalog.AddFavorites(ctx, favorites)
		} else {
			err = r.catalog.RemoveFavorites(ctx, favorites)
		}
	}

	if err != nil {
		report.Err = fmt.Errorf("%w: favorites %s: %w", shared.ErrRemoteMutation, mode, err)
		logger.Error("favorites failed", "error", err)
	} else {
		report.Applied = favorites
		logger.Info("favorites processed")
	}

	r.finishFavorites(report)
	return report, nil
}

// DeletePlaylist deletes the owned playlist whose name matches name case-insensitively.
func (r *Reconciler) DeletePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	owned, err := services.AllPlaylists(ctx, r.catalog, services.PlaylistFilter("owner"), r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: listing playlists: %w", shared.ErrRemoteFetch, err)
	}

	var target *models.Playlist
	for i := range owned {
		if strings.EqualFold(owned[i].Name, name) {
			target = &owned[i]
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
	}

	if err := r.catalog.DeletePlaylist(ctx, target.ID); err != nil {
		return nil, fmt.Errorf("%w: deleting playlist %q: %w", shared.ErrRemoteMutation, name, err)
	}
	r.logger.Info("playlist deleted", "playlist", target.Name, "id", target.ID)
	return target, nil
}

func (r *Reconciler) finishPlaylists(report *PlaylistReport, err error) {
	report.FinishedAt = r.now()
	if r.recorder == nil {
		return
	}

	run := models.NewRun(models.RunPlaylists, report.Mode.String(), r.source, report.StartedAt)
	run.FinishedAt = report.FinishedAt
	run.Issues = len(report.Issues)
	if err != nil {
		run.Error = err.Error()
	}
	for _, res := range report.Results {
		rr := models.RunResult{
			Name:       res.Name,
			PlaylistID: res.PlaylistID,
			Created:    res.Created,
			Mode:       res.Mode.String(),
			Added:      res.Added,
			Removed:    res.Removed,
		}
		if res.Err != nil {
			rr.Error = res.Err.Error()
		}
		run.Results = append(run.Results, rr)
	}

	report.RunID = r.record(run)
}

func (r *Reconciler) finishFavorites(report *FavoritesReport) {
	report.FinishedAt = r.now()
	if r.recorder == nil {
		return
	}

	run := models.NewRun(models.RunFavorites, report.Mode.String(), r.source, report.StartedAt)
	run.FinishedAt = report.FinishedAt
	run.Issues = len(report.Issues)
	if report.Err != nil {
		run.Error = report.Err.Error()
	}
	for _, kind := range models.FavoriteKinds {
		rr := models.RunResult{Name: string(kind), Mode: report.Mode.String()}
		n := len(report.Applied.IDs(kind))
		if report.Mode == ModeAdd {
			rr.Added = n
		} else {
			rr.Removed = n
		}
		run.Results = append(run.Results, rr)
	}

	report.RunID = r.record(run)
}

// record stores run and returns its id. Failures are logged and never affect the run.
func (r *Reconciler) record(run *models.Run) string {
	if err := r.recorder.Create(run); err != nil {
		r.logger.Warn("run not recorded", "error", err)
		return ""
	}
	return run.ID()
}
