package formatter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
)

var (
	playlistHeader = regexp.MustCompile(`^Playlist: "(.+)", description: "(.*)", public: (\w+), collaborative: (\w+)`)
	trackLine      = regexp.MustCompile(`^[ \t]*(\d+)`)
	favoriteHeader = regexp.MustCompile(`^Favorites (\w+)`)
	favoriteLine   = regexp.MustCompile(`^[ \t]*(\w+)`)
)

// maxLineSize bounds a single document line.
const maxLineSize = 1 << 20

// ParseIssue is a non-fatal problem found on one line of a document. The line is discarded.
type ParseIssue struct {
	Line int
	Text string
	Err  error
}

func (p ParseIssue) Error() string {
	return fmt.Sprintf("line %d: %v: %q", p.Line, p.Err, p.Text)
}

func (p ParseIssue) Unwrap() error { return p.Err }

// PlaylistDocument is the desired state read from a playlist document, in document order.
type PlaylistDocument struct {
	Playlists []models.DesiredPlaylist
	Issues    []ParseIssue
}

// FavoritesDocument is the desired state read from a favorites document.
type FavoritesDocument struct {
	Favorites models.Favorites
	Issues    []ParseIssue
}

// ParsePlaylists reads a playlist document.
//
// A header line opens a playlist; each following line starting with an integer appends a track id to it.
// Any other line is ignored, so the output of [WritePlaylist] parses back to the same playlists.
// A track id before the first header is recorded as an issue wrapping [shared.ErrOrphanIdentifier].
// Repeating a header with the exact same name starts that playlist over at its first position.
// Only read failures are returned as errors.
func ParsePlaylists(r io.Reader) (*PlaylistDocument, error) {
	doc := &PlaylistDocument{}
	index := map[string]int{}
	current := -1

	err := scanLines(r, func(n int, line string) error {
		if m := playlistHeader.FindStringSubmatch(line); m != nil {
			p := models.DesiredPlaylist{
				Name:          m[1],
				Description:   m[2],
				Public:        m[3] == "True",
				Collaborative: m[4] == "True",
			}
			if i, ok := index[p.Name]; ok {
				doc.Playlists[i] = p
				current = i
				return nil
			}
			index[p.Name] = len(doc.Playlists)
			current = len(doc.Playlists)
			doc.Playlists = append(doc.Playlists, p)
			return nil
		}

		m := trackLine.FindStringSubmatch(line)
		if m == nil {
			return nil
		}
		if current < 0 {
			doc.Issues = append(doc.Issues, ParseIssue{Line: n, Text: line, Err: shared.ErrOrphanIdentifier})
			return nil
		}

		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			doc.Issues = append(doc.Issues, ParseIssue{Line: n, Text: line, Err: fmt.Errorf("%w: %v", shared.ErrInvalidIdentifier, err)})
			return nil
		}
		doc.Playlists[current].TrackIDs = append(doc.Playlists[current].TrackIDs, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFavorites reads a favorites document.
//
// A "Favorites Artists", "Favorites Albums" or "Favorites Tracks" line opens a section; each following line
// starting with a word character appends that token, as an opaque id, to the section. Any other section name
// rejects the whole document with an error wrapping [shared.ErrMalformedSection]. An id before the first
// section is recorded as an issue wrapping [shared.ErrOrphanIdentifier].
func ParseFavorites(r io.Reader) (*FavoritesDocument, error) {
	doc := &FavoritesDocument{}
	var section models.FavoriteKind

	err := scanLines(r, func(n int, line string) error {
		if m := favoriteHeader.FindStringSubmatch(line); m != nil {
			kind, ok := favoriteSection(m[1])
			if !ok {
				return fmt.Errorf("%w: %q on line %d", shared.ErrMalformedSection, m[1], n)
			}
			section = kind
			return nil
		}

		m := favoriteLine.FindStringSubmatch(line)
		if m == nil {
			return nil
		}
		if section == "" {
			doc.Issues = append(doc.Issues, ParseIssue{Line: n, Text: line, Err: shared.ErrOrphanIdentifier})
			return nil
		}
		doc.Favorites.Add(section, m[1])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// favoriteSection accepts only the exact capitalized section names.
func favoriteSection(name string) (models.FavoriteKind, bool) {
	switch name {
	case "Artists":
		return models.FavoriteArtists, true
	case "Albums":
		return models.FavoriteAlbums, true
	case "Tracks":
		return models.FavoriteTracks, true
	}
	return "", false
}

// scanLines calls fn with every line of r and its 1-based number, stopping at the first error fn returns.
func scanLines(r io.Reader, fn func(n int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	n := 0
	for scanner.Scan() {
		n++
		if err := fn(n, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	return nil
}

// OpenSource opens the document at path, or returns stdin when path is empty.
//
// A missing file returns an error wrapping [shared.ErrSourceNotFound].
func OpenSource(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(stdin), nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSourceNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
