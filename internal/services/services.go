// package services defines the Catalog interface for the remote music catalog
//
// Qobuz (JSON API over HTTP)
package services

import (
	"context"

	"github.com/desertthunder/qbx/internal/models"
)

// CatalogReader lists the account's playlists, playlist tracks and favorites one page at a time.
//
// Pages are addressed by offset and limit; an empty page marks the end of a listing.
type CatalogReader interface {
	// Name returns the name of the service (e.g., "Qobuz")
	Name() string

	// Playlists lists playlists matching filter ("owner", "subscriber" or "owner,subscriber").
	Playlists(ctx context.Context, filter string, offset, limit int) ([]models.Playlist, error)

	// PlaylistsRaw returns the undecoded playlist listing document.
	PlaylistsRaw(ctx context.Context, filter string, offset, limit int) (map[string]any, error)

	// PlaylistTracks lists the tracks of one playlist, each carrying its membership id.
	PlaylistTracks(ctx context.Context, playlistID string, offset, limit int) ([]models.Track, error)

	// PlaylistTracksRaw returns the undecoded playlist document with its nested track page.
	PlaylistTracksRaw(ctx context.Context, playlistID string, offset, limit int) (map[string]any, error)

	FavoriteTracks(ctx context.Context, offset, limit int) ([]models.Track, error)
	FavoriteAlbums(ctx context.Context, offset, limit int) ([]models.Album, error)
	FavoriteArtists(ctx context.Context, offset, limit int) ([]models.Artist, error)

	// FavoritesRaw returns the undecoded favorites document for kind.
	FavoritesRaw(ctx context.Context, kind models.FavoriteKind, offset, limit int) (map[string]any, error)
}

// CatalogWriter mutates playlists and favorites.
//
// Tracks are added by track id but removed by membership id ([models.Track.PlaylistTrackID]).
type CatalogWriter interface {
	CreatePlaylist(ctx context.Context, name, description string, public, collaborative bool) (*models.Playlist, error)
	DeletePlaylist(ctx context.Context, playlistID string) error
	AddTracks(ctx context.Context, playlistID string, trackIDs []int64) error
	RemoveTracks(ctx context.Context, playlistID string, playlistTrackIDs []string) error
	AddFavorites(ctx context.Context, favorites models.Favorites) error
	RemoveFavorites(ctx context.Context, favorites models.Favorites) error
}

// Catalog is the full remote capability consumed by the reconciler.
type Catalog interface {
	CatalogReader
	CatalogWriter
}
