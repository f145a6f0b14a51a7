package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/qbx/internal/formatter"
	"github.com/desertthunder/qbx/internal/models"
	tu "github.com/desertthunder/qbx/internal/testing"
)

func TestDownloadCovers(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if strings.HasPrefix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("cover:" + r.URL.Path))
	}))
	defer ts.Close()

	album := func(id, title string) models.Album {
		return models.Album{
			ID: id, Title: title, Artist: models.Artist{Name: "Artist"},
			Image: models.Image{Large: ts.URL + "/" + id + ".jpg"},
		}
	}

	t.Run("downloads distinct albums in order", func(t *testing.T) {
		requests.Store(0)
		dir := t.TempDir()
		albums := []models.Album{album("a1", "One"), album("a2", "Two"), album("a1", "One"), album("a3", "Three")}

		report := DownloadCovers(context.Background(), albums, CoverOpts{
			Dir: dir, Size: "large", NumWorkers: 2, RateLimit: 100, Client: ts.Client(),
		}, nil)

		if len(report.Results) != 3 || report.Downloaded != 3 || report.Failed != 0 {
			t.Fatalf("unexpected report %+v", report)
		}
		for i, id := range []string{"a1", "a2", "a3"} {
			if report.Results[i].Album.ID != id {
				t.Errorf("result %d: expected %s, got %s", i, id, report.Results[i].Album.ID)
			}
		}
		if got := tu.MustReadFile(t, report.Results[1].Path); got != "cover:/a2.jpg" {
			t.Errorf("unexpected content %q", got)
		}
		if requests.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", requests.Load())
		}
	})

	t.Run("existing files are skipped", func(t *testing.T) {
		requests.Store(0)
		dir := t.TempDir()
		existing := album("a1", "One")
		if err := os.WriteFile(filepath.Join(dir, formatter.CoverFilename(existing)), []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}

		report := DownloadCovers(context.Background(), []models.Album{existing, album("a2", "Two")}, CoverOpts{
			Dir: dir, RateLimit: 100, Client: ts.Client(),
		}, nil)

		if report.Skipped != 1 || report.Downloaded != 1 {
			t.Errorf("unexpected report %+v", report)
		}
		if report.Results[0].Downloaded {
			t.Error("existing cover should not be downloaded")
		}
		if requests.Load() != 1 {
			t.Errorf("expected 1 request, got %d", requests.Load())
		}
	})

	t.Run("failures are per album", func(t *testing.T) {
		dir := t.TempDir()
		progress := make(chan ProgressUpdate, 8)
		albums := []models.Album{album("missing1", "Gone"), album("b2", "Here")}

		report := DownloadCovers(context.Background(), albums, CoverOpts{
			Dir: dir, RateLimit: 100, Client: ts.Client(),
		}, progress)
		close(progress)

		if report.Failed != 1 || report.Downloaded != 1 {
			t.Errorf("unexpected report %+v", report)
		}
		if report.Results[0].Err == nil {
			t.Error("expected error for missing cover")
		}
		tu.AssertFileExists(t, report.Results[1].Path)

		n := 0
		for u := range progress {
			if u.Phase != PhaseDownloadCovers {
				t.Errorf("unexpected phase %s", u.Phase)
			}
			n++
		}
		if n != 2 {
			t.Errorf("expected 2 progress updates, got %d", n)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report := DownloadCovers(ctx, []models.Album{album("c1", "One"), album("c2", "Two")}, CoverOpts{
			Dir: t.TempDir(), Client: ts.Client(),
		}, nil)

		if report.Failed != 2 || report.Downloaded != 0 {
			t.Errorf("expected every album to fail, got %+v", report)
		}
		for _, res := range report.Results {
			if res.Err == nil {
				t.Errorf("expected error for %s", res.Album.ID)
			}
		}
	})

	t.Run("no albums", func(t *testing.T) {
		report := DownloadCovers(context.Background(), nil, CoverOpts{}, nil)
		if len(report.Results) != 0 || report.Failed != 0 {
			t.Errorf("unexpected report %+v", report)
		}
	})
}
