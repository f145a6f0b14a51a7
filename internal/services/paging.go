package services

import (
	"context"

	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/pager"
)

// PlaylistFilter maps the user-facing playlist type to the listing filter; "all" selects owned and subscribed playlists.
func PlaylistFilter(kind string) string {
	switch kind {
	case "", "owner":
		return "owner"
	case "all":
		return "owner,subscriber"
	default:
		return kind
	}
}

// AllPlaylists lists every playlist matching filter.
func AllPlaylists(ctx context.Context, c CatalogReader, filter string, pageSize int) ([]models.Playlist, error) {
	return pager.All(ctx, pageSize, func(ctx context.Context, offset, limit int) ([]models.Playlist, error) {
		return c.Playlists(ctx, filter, offset, limit)
	})
}

// AllPlaylistsRaw returns one "playlists" container per page.
func AllPlaylistsRaw(ctx context.Context, c CatalogReader, filter string, pageSize int) ([]map[string]any, error) {
	return pager.Raw(ctx, pageSize, "playlists", func(ctx context.Context, offset, limit int) (map[string]any, error) {
		return c.PlaylistsRaw(ctx, filter, offset, limit)
	})
}

// AllPlaylistTracks lists every track of a playlist in playlist order.
func AllPlaylistTracks(ctx context.Context, c CatalogReader, playlistID string, pageSize int) ([]models.Track, error) {
	return pager.All(ctx, pageSize, func(ctx context.Context, offset, limit int) ([]models.Track, error) {
		return c.PlaylistTracks(ctx, playlistID, offset, limit)
	})
}

// AllPlaylistTracksRaw returns every raw track item of a playlist.
func AllPlaylistTracksRaw(ctx context.Context, c CatalogReader, playlistID string, pageSize int) ([]any, error) {
	containers, err := pager.Raw(ctx, pageSize, "tracks", func(ctx context.Context, offset, limit int) (map[string]any, error) {
		return c.PlaylistTracksRaw(ctx, playlistID, offset, limit)
	})
	if err != nil {
		return nil, err
	}
	return pager.Items(containers), nil
}

// AllFavoriteTracks lists every favorite track.
func AllFavoriteTracks(ctx context.Context, c CatalogReader, pageSize int) ([]models.Track, error) {
	return pager.All(ctx, pageSize, c.FavoriteTracks)
}

// AllFavoriteAlbums lists every favorite album.
func AllFavoriteAlbums(ctx context.Context, c CatalogReader, pageSize int) ([]models.Album, error) {
	return pager.All(ctx, pageSize, c.FavoriteAlbums)
}

// AllFavoriteArtists lists every favorite artist.
func AllFavoriteArtists(ctx context.Context, c CatalogReader, pageSize int) ([]models.Artist, error) {
	return pager.All(ctx, pageSize, c.FavoriteArtists)
}

// AllFavoritesRaw returns every raw favorite item of kind.
func AllFavoritesRaw(ctx context.Context, c CatalogReader, kind models.FavoriteKind, pageSize int) ([]any, error) {
	containers, err := pager.Raw(ctx, pageSize, string(kind), func(ctx context.Context, offset, limit int) (map[string]any, error) {
		return c.FavoritesRaw(ctx, kind, offset, limit)
	})
	if err != nil {
		return nil, err
	}
	return pager.Items(containers), nil
}
