// package formatter reads and writes the playlist and favorites text documents.
//
// The writers produce the listing shown by the CLI; the parsers read the same text back, ignoring the
// decorative table lines, so a listing can be edited and applied as desired state.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
)

const (
	trackRow      = "    %8s | %-40s | %-50s | %-50s | %10s | %s"
	favTrackRow   = "    %8s | %-40s | %-50s | %-50s | %10s | %10s"
	favAlbumRow   = "    %13s | %-40s | %-50s | %10s | %10s"
	favArtistRow  = "    %9s | %-40s | %10s"
	performerLine = "        -> %s\n"
)

// PlaylistOptions controls [WritePlaylist].
type PlaylistOptions struct {
	NoTracks   bool // header line only
	Sort       bool // order tracks by artist then album
	Performers bool // list performer credits under each track
}

// PlaylistHeader renders the header line that opens a playlist block.
func PlaylistHeader(p models.Playlist) string {
	return fmt.Sprintf(`Playlist: "%s", description: "%s", public: %s, collaborative: %s, duration: %s, %d tracks, update date: %s, id: %s`,
		p.Name, p.Description, shared.FormatBool(p.Public), shared.FormatBool(p.Collaborative),
		shared.FormatDuration(p.Duration), p.TracksCount, shared.FormatTimestamp(p.UpdatedAt, "2006-01-02"), p.ID)
}

// DesiredHeader renders the minimal header line accepted by [ParsePlaylists].
func DesiredHeader(p models.DesiredPlaylist) string {
	return fmt.Sprintf(`Playlist: "%s", description: "%s", public: %s, collaborative: %s`,
		p.Name, p.Description, shared.FormatBool(p.Public), shared.FormatBool(p.Collaborative))
}

// WritePlaylist writes one playlist block: the header line, then the track table unless opts.NoTracks.
func WritePlaylist(w io.Writer, p models.Playlist, tracks []models.Track, opts PlaylistOptions) error {
	if _, err := fmt.Fprintln(w, PlaylistHeader(p)); err != nil {
		return err
	}
	if opts.NoTracks {
		return nil
	}

	if err := writeTableHeader(w, trackRow, "#idTrack", "Artist", "Album", "Title", "Track", "Duration"); err != nil {
		return err
	}

	if opts.Sort {
		tracks = sortedTracks(tracks)
	}
	if err := writeTracks(w, trackRow, tracks, opts.Performers); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteFavoriteTracks writes the "Favorites Tracks" section, ordered by artist then album.
func WriteFavoriteTracks(w io.Writer, tracks []models.Track, performers bool) error {
	if _, err := fmt.Fprintln(w, "Favorites Tracks"); err != nil {
		return err
	}
	if err := writeTableHeader(w, favTrackRow, "#idTrack", "Artist", "Album", "Title", "Track", "Duration"); err != nil {
		return err
	}
	if err := writeTracks(w, favTrackRow, sortedTracks(tracks), performers); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteFavoriteAlbums writes the "Favorites Albums" section, ordered by artist.
func WriteFavoriteAlbums(w io.Writer, albums []models.Album) error {
	if _, err := fmt.Fprintln(w, "Favorites Albums"); err != nil {
		return err
	}
	if err := writeTableHeader(w, favAlbumRow, "#idAlbum", "Artist", "Album", "Tracks", "Parution"); err != nil {
		return err
	}

	sorted := append([]models.Album(nil), albums...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Artist.Name < sorted[j].Artist.Name })

	for _, a := range sorted {
		tracks := fmt.Sprintf("%d tracks", a.TracksCount)
		if _, err := fmt.Fprintf(w, favAlbumRow+"\n", a.ID, a.Artist.Name, a.Title, tracks, shared.FormatTimestamp(a.ReleasedAt, "")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteFavoriteArtists writes the "Favorites Artists" section, ordered by name.
func WriteFavoriteArtists(w io.Writer, artists []models.Artist) error {
	if _, err := fmt.Fprintln(w, "Favorites Artists"); err != nil {
		return err
	}
	if err := writeTableHeader(w, favArtistRow, "#idArtist", "Artist", "Albums"); err != nil {
		return err
	}

	sorted := append([]models.Artist(nil), artists...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, a := range sorted {
		if _, err := fmt.Fprintf(w, favArtistRow+"\n", a.ID, a.Name, fmt.Sprint(a.AlbumsCount)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteDesiredPlaylists writes playlists in the minimal document form.
func WriteDesiredPlaylists(w io.Writer, playlists []models.DesiredPlaylist) error {
	for _, p := range playlists {
		if _, err := fmt.Fprintln(w, DesiredHeader(p)); err != nil {
			return err
		}
		for _, id := range p.TrackIDs {
			if _, err := fmt.Fprintf(w, "  %d\n", id); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeTableHeader writes the column titles framed by rules of the same width.
func writeTableHeader(w io.Writer, format string, titles ...string) error {
	args := make([]any, len(titles))
	for i, t := range titles {
		args[i] = t
	}

	header := fmt.Sprintf(format, args...)
	rule := strings.Repeat("=", len([]rune(header)))
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", rule, header, rule)
	return err
}

func writeTracks(w io.Writer, format string, tracks []models.Track, performers bool) error {
	for _, t := range tracks {
		position := fmt.Sprintf("%d/%d", t.TrackNumber, t.Album.TracksCount)
		_, err := fmt.Fprintf(w, format+"\n", fmt.Sprint(t.ID), t.Artist.Name, t.Album.Title, t.Title, position, shared.FormatDuration(t.Duration))
		if err != nil {
			return err
		}
		if !performers {
			continue
		}
		for _, p := range t.Performers {
			if _, err := fmt.Fprintf(w, performerLine, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// sortedTracks returns a copy of tracks ordered by artist name then album title.
func sortedTracks(tracks []models.Track) []models.Track {
	sorted := append([]models.Track(nil), tracks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Artist.Name+sorted[i].Album.Title < sorted[j].Artist.Name+sorted[j].Album.Title
	})
	return sorted
}
