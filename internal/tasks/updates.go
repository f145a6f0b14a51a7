package tasks

import (
	"fmt"

	"github.com/desertthunder/qbx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ParseSource Phase = iota
	FetchPlaylists
	FetchTracks
	CreatePlaylist
	ApplyChanges
	ApplyFavorites
	PhaseDownloadCovers
)

func (p Phase) String() string {
	switch p {
	case ParseSource:
		return "parse_source"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case ApplyChanges:
		return "apply_changes"
	case ApplyFavorites:
		return "apply_favorites"
	case PhaseDownloadCovers:
		return "download_covers"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func parseSourceUpdate(kind string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reading source %s...", kind),
	}
}

func fetchPlaylistsUpdate(found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d owned playlists", found),
	}
}

func fetchTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching tracks of %q...", step, total, name),
	}
}

func createPlaylistUpdate(step, total int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func applyChangesUpdate(step, total int, res PlaylistResult) ProgressUpdate {
	mark := "✓"
	if res.Err != nil {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   ApplyChanges,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s: %d added, %d removed", step, total, mark, res.Name, res.Added, res.Removed),
		Data:    res,
	}
}

func applyFavoritesUpdate(mode Mode, favorites models.Favorites) ProgressUpdate {
	return ProgressUpdate{
		Phase: ApplyFavorites,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Applying %s: %d artists, %d albums, %d tracks",
			mode, len(favorites.Artists), len(favorites.Albums), len(favorites.Tracks)),
	}
}

func coverCompletedUpdate(step, total int, res CoverResult) ProgressUpdate {
	status := "downloaded"
	if !res.Downloaded {
		status = "exists"
	}
	return ProgressUpdate{
		Phase:   PhaseDownloadCovers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, res.Album.Title, status),
		Data:    res,
	}
}

func coverFailedUpdate(step, total int, res CoverResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDownloadCovers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Album.Title, res.Err),
		Data:    res,
	}
}
