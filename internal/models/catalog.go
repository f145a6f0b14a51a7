package models

import "strings"

// Playlist is a named, ordered collection owned by the account.
type Playlist struct {
	ID            string
	Name          string
	Description   string
	Public        bool
	Collaborative bool
	Duration      int // seconds
	TracksCount   int
	UpdatedAt     int64 // unix seconds
	Owner         string
}

// Artist is a catalog artist, either a favorite entry or the artist of a track or album.
type Artist struct {
	ID          string
	Name        string
	AlbumsCount int
}

// Image holds the cover URLs of an album.
type Image struct {
	Small     string
	Thumbnail string
	Large     string
}

// URL returns the cover URL for size ("small", "thumbnail" or "large"), defaulting to large.
func (i Image) URL(size string) string {
	switch size {
	case "small":
		return i.Small
	case "thumbnail":
		return i.Thumbnail
	default:
		return i.Large
	}
}

// Album is a catalog album. Album ids are alphanumeric.
type Album struct {
	ID          string
	Title       string
	Artist      Artist
	TracksCount int
	ReleasedAt  int64 // unix seconds, may be negative
	Image       Image
}

// Track is a catalog track. PlaylistTrackID is set only when the track was read from a playlist
// and identifies that particular membership.
type Track struct {
	ID              int64
	Title           string
	Duration        int // seconds
	TrackNumber     int
	Album           Album
	Artist          Artist
	Performers      []string
	PlaylistTrackID string
}

// FavoriteKind names one favorite category.
type FavoriteKind string

const (
	FavoriteArtists FavoriteKind = "artists"
	FavoriteAlbums  FavoriteKind = "albums"
	FavoriteTracks  FavoriteKind = "tracks"
)

// FavoriteKinds lists the categories in document order.
var FavoriteKinds = []FavoriteKind{FavoriteArtists, FavoriteAlbums, FavoriteTracks}

// ParseFavoriteKind maps a section or flag word to its kind, ignoring case.
func ParseFavoriteKind(s string) (FavoriteKind, bool) {
	switch FavoriteKind(strings.ToLower(s)) {
	case FavoriteArtists:
		return FavoriteArtists, true
	case FavoriteAlbums:
		return FavoriteAlbums, true
	case FavoriteTracks:
		return FavoriteTracks, true
	}
	return "", false
}

// Favorites is the three id sets of the favorites document. Ids are opaque strings.
type Favorites struct {
	Artists []string
	Albums  []string
	Tracks  []string
}

// Add appends id to the set for kind.
func (f *Favorites) Add(kind FavoriteKind, id string) {
	switch kind {
	case FavoriteArtists:
		f.Artists = append(f.Artists, id)
	case FavoriteAlbums:
		f.Albums = append(f.Albums, id)
	case FavoriteTracks:
		f.Tracks = append(f.Tracks, id)
	}
}

// IDs returns the set for kind.
func (f Favorites) IDs(kind FavoriteKind) []string {
	switch kind {
	case FavoriteArtists:
		return f.Artists
	case FavoriteAlbums:
		return f.Albums
	case FavoriteTracks:
		return f.Tracks
	}
	return nil
}

// Len reports the number of ids across all three sets.
func (f Favorites) Len() int {
	return len(f.Artists) + len(f.Albums) + len(f.Tracks)
}

// DesiredPlaylist is one playlist block of a declarative document.
type DesiredPlaylist struct {
	Name          string
	Description   string
	Public        bool
	Collaborative bool
	TrackIDs      []int64
}
