package tasks

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
	tu "github.com/desertthunder/qbx/internal/testing"
)

type recorder struct {
	runs []*models.Run
	err  error
}

func (r *recorder) Create(run *models.Run) error {
	if r.err != nil {
		return r.err
	}
	run.SetID("run-" + string(rune('0'+len(r.runs))))
	r.runs = append(r.runs, run)
	return nil
}

func header(name string) string {
	return `Playlist: "` + name + `", description: "", public: False, collaborative: False` + "\n"
}

func newReconciler(catalog *tu.FakeCatalog, rec RunRecorder) *Reconciler {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewReconciler(catalog, ReconcilerOpts{
		PageSize: 2,
		Recorder: rec,
		Source:   "test.txt",
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
}

func TestReconcilePlaylists(t *testing.T) {
	ctx := context.Background()
	jazz := models.Playlist{ID: "p1", Name: "Jazz"}
	rock := models.Playlist{ID: "p2", Name: "Rock"}

	t.Run("add to existing playlist", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: {111, 333}})
		doc := header("jazz") + "  111\n  222\n  444\n"

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeAdd, false, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}

		if len(report.Results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(report.Results))
		}
		res := report.Results[0]
		if res.PlaylistID != "p1" || res.Created || res.Added != 2 || res.Removed != 0 || res.Err != nil {
			t.Errorf("unexpected result %+v", res)
		}
		if got := catalog.TrackIDs("p1"); !slices.Equal(got, []int64{111, 333, 222, 444}) {
			t.Errorf("unexpected tracks %v", got)
		}
		if len(catalog.CallsTo("CreatePlaylist")) != 0 {
			t.Error("existing playlist must not be created")
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: {111}})
		doc := header("Jazz") + "  111\n  222\n"
		r := newReconciler(catalog, nil)

		for range 2 {
			if _, err := r.ReconcilePlaylists(ctx, strings.NewReader(doc), ModeAdd, false, nil); err != nil {
				t.Fatalf("ReconcilePlaylists failed: %v", err)
			}
		}

		if calls := catalog.CallsTo("AddTracks"); len(calls) != 1 {
			t.Errorf("expected a single AddTracks call, got %d", len(calls))
		}
	})

	t.Run("delete uses membership ids", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: {5, 6, 8}})
		doc := header("Jazz") + "5\n6\n7\n"

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeDelete, false, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}

		calls := catalog.CallsTo("RemoveTracks")
		if len(calls) != 1 || !slices.Equal(calls[0].PlaylistTrackIDs, []string{"p1-5", "p1-6"}) {
			t.Fatalf("unexpected RemoveTracks calls %+v", calls)
		}
		if report.Results[0].Removed != 2 {
			t.Errorf("expected 2 removed, got %d", report.Results[0].Removed)
		}
		if got := catalog.TrackIDs("p1"); !slices.Equal(got, []int64{8}) {
			t.Errorf("unexpected tracks %v", got)
		}
	})

	t.Run("force replace escalates add on existing playlist", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: {2, 3, 4}})
		doc := header("Jazz") + "1\n2\n3\n" + header("Fresh") + "9\n"

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeAdd, true, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}

		if res := report.Results[0]; res.Mode != ModeReplace || res.Added != 1 || res.Removed != 1 {
			t.Errorf("unexpected result %+v", res)
		}
		if got := catalog.TrackIDs("p1"); !slices.Equal(got, []int64{2, 3, 1}) {
			t.Errorf("unexpected tracks %v", got)
		}
		if res := report.Results[1]; res.Mode != ModeAdd || !res.Created {
			t.Errorf("new playlist should be created in add mode, got %+v", res)
		}
	})

	t.Run("replace adds before removing", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: {4}})
		doc := header("Jazz") + "1\n"

		if _, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeReplace, false, nil); err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}

		var ops []string
		for _, c := range catalog.Calls {
			ops = append(ops, c.Op)
		}
		if !slices.Equal(ops, []string{"AddTracks", "RemoveTracks"}) {
			t.Errorf("unexpected call order %v", ops)
		}
	})

	t.Run("missing playlist is created and filled", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: {1}})
		doc := `Playlist: "Chill", description: "late night", public: True, collaborative: False` + "\n10\n11\n"

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeDelete, false, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}

		res := report.Results[0]
		if !res.Created || res.PlaylistID != "new-1" || res.Mode != ModeAdd || res.Added != 2 {
			t.Errorf("unexpected result %+v", res)
		}
		if got := catalog.TrackIDs("new-1"); !slices.Equal(got, []int64{10, 11}) {
			t.Errorf("unexpected tracks %v", got)
		}
		if catalog.ReadCalls["PlaylistTracks"] != 0 {
			t.Error("a created playlist is diffed against empty state without fetching")
		}
	})

	t.Run("case variants resolve to one playlist", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(nil)
		doc := header("Chill") + "1\n" + header("CHILL") + "2\n"

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeAdd, false, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}

		if n := len(catalog.CallsTo("CreatePlaylist")); n != 1 {
			t.Errorf("expected one created playlist, got %d", n)
		}
		if len(report.Results) != 2 || report.Results[1].PlaylistID != report.Results[0].PlaylistID {
			t.Errorf("expected both entries on the same playlist, got %+v", report.Results)
		}
	})

	t.Run("mutation failure does not stop later playlists", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: nil, rock: nil})
		catalog.FailPlaylist = map[string]error{"p1": errors.New("boom")}
		doc := header("Jazz") + "1\n" + header("Rock") + "2\n"

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeAdd, false, nil)
		if err != nil {
			t.Fatalf("mutation failures must not abort the run: %v", err)
		}

		if !errors.Is(report.Results[0].Err, shared.ErrRemoteMutation) || report.Results[0].Added != 0 {
			t.Errorf("expected mutation failure on Jazz, got %+v", report.Results[0])
		}
		if report.Results[1].Err != nil || report.Results[1].Added != 1 {
			t.Errorf("expected Rock to succeed, got %+v", report.Results[1])
		}
		if !report.Failed() {
			t.Error("report should be marked failed")
		}
	})

	t.Run("create failure is reported", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(nil)
		catalog.Fail = map[string]error{"CreatePlaylist": errors.New("denied")}

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(header("New")+"1\n"), ModeAdd, false, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}
		if !errors.Is(report.Results[0].Err, shared.ErrRemoteMutation) {
			t.Errorf("expected ErrRemoteMutation, got %v", report.Results[0].Err)
		}
		if len(catalog.CallsTo("AddTracks")) != 0 {
			t.Error("tracks must not be added after a failed create")
		}
	})

	t.Run("listing failure aborts before any mutation", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: nil})
		catalog.Fail = map[string]error{"Playlists": errors.New("timeout")}

		_, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(header("Jazz")+"1\n"), ModeAdd, false, nil)
		if !errors.Is(err, shared.ErrRemoteFetch) {
			t.Fatalf("expected ErrRemoteFetch, got %v", err)
		}
		if len(catalog.Calls) != 0 {
			t.Errorf("expected no mutations, got %+v", catalog.Calls)
		}
	})

	t.Run("track fetch failure aborts the run", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: {1}, rock: {2}})
		catalog.Fail = map[string]error{"PlaylistTracks": errors.New("timeout")}
		doc := header("Jazz") + "3\n" + header("Rock") + "4\n"

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeAdd, false, nil)
		if !errors.Is(err, shared.ErrRemoteFetch) {
			t.Fatalf("expected ErrRemoteFetch, got %v", err)
		}
		if report == nil || len(report.Results) != 0 {
			t.Errorf("expected an empty partial report, got %+v", report)
		}
		if len(catalog.Calls) != 0 {
			t.Errorf("expected no mutations, got %+v", catalog.Calls)
		}
	})

	t.Run("orphan ids are reported", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(nil)

		report, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader("123\n456\n"), ModeAdd, false, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}
		if len(report.Results) != 0 || len(report.Issues) != 2 {
			t.Errorf("expected 0 results and 2 issues, got %d and %d", len(report.Results), len(report.Issues))
		}
		if !errors.Is(report.Issues[0], shared.ErrOrphanIdentifier) {
			t.Errorf("expected ErrOrphanIdentifier, got %v", report.Issues[0])
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := newReconciler(tu.NewFakeCatalog(nil), nil).ReconcilePlaylists(ctx, strings.NewReader(""), Mode("merge"), false, nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: nil})
		progress := make(chan ProgressUpdate, 16)

		if _, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(header("Jazz")+"1\n"), ModeAdd, false, progress); err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		want := []Phase{ParseSource, FetchPlaylists, FetchTracks, ApplyChanges}
		if !slices.Equal(phases, want) {
			t.Errorf("expected phases %v, got %v", want, phases)
		}
	})

	t.Run("full progress channel never blocks", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: nil})
		progress := make(chan ProgressUpdate)

		if _, err := newReconciler(catalog, nil).ReconcilePlaylists(ctx, strings.NewReader(header("Jazz")+"1\n"), ModeAdd, false, progress); err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}
	})
}

func TestReconcileFavorites(t *testing.T) {
	ctx := context.Background()
	doc := "Favorites Artists\n  38895\nFavorites Albums\n  0724384260552\n  p4vmqb1j1yvtb\nFavorites Tracks\n  2845179\n"

	t.Run("add in one batch", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(nil)

		report, err := newReconciler(catalog, nil).ReconcileFavorites(ctx, strings.NewReader(doc), ModeAdd, nil)
		if err != nil {
			t.Fatalf("ReconcileFavorites failed: %v", err)
		}

		calls := catalog.CallsTo("AddFavorites")
		if len(calls) != 1 {
			t.Fatalf("expected one AddFavorites call, got %d", len(calls))
		}
		fav := calls[0].Favorites
		if !slices.Equal(fav.Albums, []string{"0724384260552", "p4vmqb1j1yvtb"}) ||
			!slices.Equal(fav.Artists, []string{"38895"}) || !slices.Equal(fav.Tracks, []string{"2845179"}) {
			t.Errorf("unexpected favorites %+v", fav)
		}
		if report.Err != nil || report.Applied.Len() != 4 {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("delete", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(nil)

		if _, err := newReconciler(catalog, nil).ReconcileFavorites(ctx, strings.NewReader(doc), ModeDelete, nil); err != nil {
			t.Fatalf("ReconcileFavorites failed: %v", err)
		}
		if len(catalog.CallsTo("RemoveFavorites")) != 1 || len(catalog.CallsTo("AddFavorites")) != 0 {
			t.Errorf("unexpected calls %+v", catalog.Calls)
		}
	})

	t.Run("unknown section applies nothing", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(nil)
		bad := "Favorites Artists\n  1\nFavorites Unknown\n  2\n"

		report, err := newReconciler(catalog, nil).ReconcileFavorites(ctx, strings.NewReader(bad), ModeAdd, nil)
		if !errors.Is(err, shared.ErrMalformedSection) {
			t.Fatalf("expected ErrMalformedSection, got %v", err)
		}
		if report != nil || len(catalog.Calls) != 0 {
			t.Errorf("expected nothing applied, got %+v", catalog.Calls)
		}
	})

	t.Run("mutation failure is reported", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(nil)
		catalog.Fail = map[string]error{"AddFavorites": errors.New("denied")}

		report, err := newReconciler(catalog, nil).ReconcileFavorites(ctx, strings.NewReader(doc), ModeAdd, nil)
		if err != nil {
			t.Fatalf("ReconcileFavorites failed: %v", err)
		}
		if !errors.Is(report.Err, shared.ErrRemoteMutation) || report.Applied.Len() != 0 {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("empty document makes no call", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(nil)

		report, err := newReconciler(catalog, nil).ReconcileFavorites(ctx, strings.NewReader(""), ModeAdd, nil)
		if err != nil || report.Err != nil {
			t.Fatalf("unexpected failure: %v %v", err, report.Err)
		}
		if len(catalog.Calls) != 0 {
			t.Errorf("expected no calls, got %+v", catalog.Calls)
		}
	})

	t.Run("replace is rejected", func(t *testing.T) {
		_, err := newReconciler(tu.NewFakeCatalog(nil), nil).ReconcileFavorites(ctx, strings.NewReader(doc), ModeReplace, nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestDeletePlaylist(t *testing.T) {
	ctx := context.Background()
	catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{{ID: "p1", Name: "Jazz"}: {1}})
	r := newReconciler(catalog, nil)

	t.Run("not found", func(t *testing.T) {
		if _, err := r.DeletePlaylist(ctx, "Rock"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("matches case-insensitively", func(t *testing.T) {
		deleted, err := r.DeletePlaylist(ctx, "JAZZ")
		if err != nil {
			t.Fatalf("DeletePlaylist failed: %v", err)
		}
		if deleted.ID != "p1" {
			t.Errorf("expected p1, got %s", deleted.ID)
		}
		if len(catalog.Lists) != 0 {
			t.Errorf("expected playlist removed, got %+v", catalog.Lists)
		}
	})

	t.Run("delete failure", func(t *testing.T) {
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{{ID: "p9", Name: "Old"}: nil})
		catalog.Fail = map[string]error{"DeletePlaylist": errors.New("denied")}

		if _, err := newReconciler(catalog, nil).DeletePlaylist(ctx, "old"); !errors.Is(err, shared.ErrRemoteMutation) {
			t.Errorf("expected ErrRemoteMutation, got %v", err)
		}
	})
}

func TestRunRecording(t *testing.T) {
	ctx := context.Background()
	jazz := models.Playlist{ID: "p1", Name: "Jazz"}

	t.Run("playlist run", func(t *testing.T) {
		rec := &recorder{}
		catalog := tu.NewFakeCatalog(map[models.Playlist][]int64{jazz: {4}})
		catalog.FailPlaylist = map[string]error{"new-1": errors.New("boom")}
		doc := header("Jazz") + "1\n" + header("New") + "2\n"

		report, err := newReconciler(catalog, rec).ReconcilePlaylists(ctx, strings.NewReader(doc), ModeReplace, false, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}

		if len(rec.runs) != 1 {
			t.Fatalf("expected 1 recorded run, got %d", len(rec.runs))
		}
		run := rec.runs[0]
		if report.RunID != run.ID() || run.Kind != models.RunPlaylists || run.Mode != "replace" || run.Source != "test.txt" {
			t.Errorf("unexpected run %+v", run)
		}
		if len(run.Results) != 2 || run.Results[0].Added != 1 || run.Results[0].Removed != 1 {
			t.Errorf("unexpected results %+v", run.Results)
		}
		if !run.Results[1].Created || run.Results[1].Error == "" || !run.Failed() {
			t.Errorf("expected failed created result, got %+v", run.Results[1])
		}
		if !run.FinishedAt.After(run.StartedAt) {
			t.Errorf("expected finish after start, got %v and %v", run.StartedAt, run.FinishedAt)
		}
	})

	t.Run("aborted run records the error", func(t *testing.T) {
		rec := &recorder{}
		catalog := tu.NewFakeCatalog(nil)
		catalog.Fail = map[string]error{"Playlists": errors.New("timeout")}

		if _, err := newReconciler(catalog, rec).ReconcilePlaylists(ctx, strings.NewReader(""), ModeAdd, false, nil); err == nil {
			t.Fatal("expected error")
		}
		if len(rec.runs) != 1 || rec.runs[0].Error == "" {
			t.Errorf("expected recorded failure, got %+v", rec.runs)
		}
	})

	t.Run("favorites run", func(t *testing.T) {
		rec := &recorder{}
		doc := "Favorites Albums\n  a1\n  a2\nFavorites Tracks\n  7\n"

		if _, err := newReconciler(tu.NewFakeCatalog(nil), rec).ReconcileFavorites(ctx, strings.NewReader(doc), ModeDelete, nil); err != nil {
			t.Fatalf("ReconcileFavorites failed: %v", err)
		}

		run := rec.runs[0]
		if run.Kind != models.RunFavorites || len(run.Results) != 3 {
			t.Fatalf("unexpected run %+v", run)
		}
		removed := []int{run.Results[0].Removed, run.Results[1].Removed, run.Results[2].Removed}
		if !slices.Equal(removed, []int{0, 2, 1}) {
			t.Errorf("expected artists/albums/tracks removed [0 2 1], got %v", removed)
		}
	})

	t.Run("recorder failure does not fail the run", func(t *testing.T) {
		rec := &recorder{err: errors.New("disk full")}

		report, err := newReconciler(tu.NewFakeCatalog(nil), rec).ReconcilePlaylists(ctx, strings.NewReader(header("A")+"1\n"), ModeAdd, false, nil)
		if err != nil {
			t.Fatalf("ReconcilePlaylists failed: %v", err)
		}
		if report.RunID != "" || report.Failed() {
			t.Errorf("unexpected report %+v", report)
		}
	})
}
