// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/qbx/internal/models"
)

// Call records one mutation received by [FakeCatalog].
type Call struct {
	Op               string
	PlaylistID       string
	Name             string
	TrackIDs         []int64
	PlaylistTrackIDs []string
	Favorites        models.Favorites
}

// FakeCatalog is an in-memory test double for [services.Catalog].
//
// Listings page over the stored state and mutations change it, so repeated runs observe earlier changes.
// Fail makes every call to the named method return the error; FailPlaylist does the same for mutations
// on one playlist id.
type FakeCatalog struct {
	mu sync.Mutex

	Lists      []models.Playlist
	Tracks     map[string][]models.Track
	FavTracks  []models.Track
	FavAlbums  []models.Album
	FavArtists []models.Artist

	Fail         map[string]error
	FailPlaylist map[string]error

	Calls      []Call
	ReadCalls  map[string]int
	nextID     int
	nextMember int
}

// NewFakeCatalog creates a [FakeCatalog] holding playlists, each with the given track ids.
// Membership ids are "<playlist id>-<track id>".
func NewFakeCatalog(playlists map[models.Playlist][]int64) *FakeCatalog {
	c := &FakeCatalog{Tracks: map[string][]models.Track{}, ReadCalls: map[string]int{}}
	for p, ids := range playlists {
		c.Lists = append(c.Lists, p)
		for _, id := range ids {
			c.Tracks[p.ID] = append(c.Tracks[p.ID], models.Track{ID: id, PlaylistTrackID: fmt.Sprintf("%s-%d", p.ID, id)})
		}
	}
	slices.SortFunc(c.Lists, func(a, b models.Playlist) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return c
}

func (c *FakeCatalog) Name() string { return "fake" }

func (c *FakeCatalog) read(op string) error {
	if c.ReadCalls == nil {
		c.ReadCalls = map[string]int{}
	}
	c.ReadCalls[op]++
	return c.Fail[op]
}

func (c *FakeCatalog) mutate(call Call) error {
	c.Calls = append(c.Calls, call)
	if err := c.Fail[call.Op]; err != nil {
		return err
	}
	if err := c.FailPlaylist[call.PlaylistID]; err != nil && call.PlaylistID != "" {
		return err
	}
	return nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := min(offset+limit, len(items))
	return append([]T(nil), items[offset:end]...)
}

func rawPage[T any](field string, items []T, offset, limit int) map[string]any {
	page := window(items, offset, limit)
	raw := make([]any, len(page))
	for i, item := range page {
		raw[i] = item
	}
	return map[string]any{field: map[string]any{"offset": offset, "limit": limit, "items": raw}}
}

func (c *FakeCatalog) Playlists(ctx context.Context, filter string, offset, limit int) ([]models.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("Playlists"); err != nil {
		return nil, err
	}
	return window(c.Lists, offset, limit), nil
}

func (c *FakeCatalog) PlaylistsRaw(ctx context.Context, filter string, offset, limit int) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("PlaylistsRaw"); err != nil {
		return nil, err
	}
	return rawPage("playlists", c.Lists, offset, limit), nil
}

func (c *FakeCatalog) PlaylistTracks(ctx context.Context, playlistID string, offset, limit int) ([]models.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("PlaylistTracks"); err != nil {
		return nil, err
	}
	return window(c.Tracks[playlistID], offset, limit), nil
}

func (c *FakeCatalog) PlaylistTracksRaw(ctx context.Context, playlistID string, offset, limit int) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("PlaylistTracksRaw"); err != nil {
		return nil, err
	}
	return rawPage("tracks", c.Tracks[playlistID], offset, limit), nil
}

func (c *FakeCatalog) FavoriteTracks(ctx context.Context, offset, limit int) ([]models.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("FavoriteTracks"); err != nil {
		return nil, err
	}
	return window(c.FavTracks, offset, limit), nil
}

func (c *FakeCatalog) FavoriteAlbums(ctx context.Context, offset, limit int) ([]models.Album, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("FavoriteAlbums"); err != nil {
		return nil, err
	}
	return window(c.FavAlbums, offset, limit), nil
}

func (c *FakeCatalog) FavoriteArtists(ctx context.Context, offset, limit int) ([]models.Artist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("FavoriteArtists"); err != nil {
		return nil, err
	}
	return window(c.FavArtists, offset, limit), nil
}

func (c *FakeCatalog) FavoritesRaw(ctx context.Context, kind models.FavoriteKind, offset, limit int) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("FavoritesRaw"); err != nil {
		return nil, err
	}
	switch kind {
	case models.FavoriteTracks:
		return rawPage(string(kind), c.FavTracks, offset, limit), nil
	case models.FavoriteAlbums:
		return rawPage(string(kind), c.FavAlbums, offset, limit), nil
	default:
		return rawPage(string(kind), c.FavArtists, offset, limit), nil
	}
}

func (c *FakeCatalog) CreatePlaylist(ctx context.Context, name, description string, public, collaborative bool) (*models.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutate(Call{Op: "CreatePlaylist", Name: name}); err != nil {
		return nil, err
	}

	c.nextID++
	p := models.Playlist{ID: fmt.Sprintf("new-%d", c.nextID), Name: name, Description: description, Public: public, Collaborative: collaborative}
	c.Lists = append(c.Lists, p)
	return &p, nil
}

func (c *FakeCatalog) DeletePlaylist(ctx context.Context, playlistID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutate(Call{Op: "DeletePlaylist", PlaylistID: playlistID}); err != nil {
		return err
	}

	c.Lists = slices.DeleteFunc(c.Lists, func(p models.Playlist) bool { return p.ID == playlistID })
	delete(c.Tracks, playlistID)
	return nil
}

func (c *FakeCatalog) AddTracks(ctx context.Context, playlistID string, trackIDs []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutate(Call{Op: "AddTracks", PlaylistID: playlistID, TrackIDs: slices.Clone(trackIDs)}); err != nil {
		return err
	}

	if c.Tracks == nil {
		c.Tracks = map[string][]models.Track{}
	}
	for _, id := range trackIDs {
		c.nextMember++
		c.Tracks[playlistID] = append(c.Tracks[playlistID], models.Track{ID: id, PlaylistTrackID: fmt.Sprintf("m%d", c.nextMember)})
	}
	return nil
}

func (c *FakeCatalog) RemoveTracks(ctx context.Context, playlistID string, playlistTrackIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutate(Call{Op: "RemoveTracks", PlaylistID: playlistID, PlaylistTrackIDs: slices.Clone(playlistTrackIDs)}); err != nil {
		return err
	}

	if c.Tracks == nil {
		return nil
	}
	c.Tracks[playlistID] = slices.DeleteFunc(c.Tracks[playlistID], func(t models.Track) bool {
		return slices.Contains(playlistTrackIDs, t.PlaylistTrackID)
	})
	return nil
}

func (c *FakeCatalog) AddFavorites(ctx context.Context, favorites models.Favorites) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate(Call{Op: "AddFavorites", Favorites: favorites})
}

func (c *FakeCatalog) RemoveFavorites(ctx context.Context, favorites models.Favorites) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate(Call{Op: "RemoveFavorites", Favorites: favorites})
}

// CallsTo returns the recorded mutations named op, in order.
func (c *FakeCatalog) CallsTo(op string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var calls []Call
	for _, call := range c.Calls {
		if call.Op == op {
			calls = append(calls, call)
		}
	}
	return calls
}

// TrackIDs returns the track ids currently held by a playlist, in order.
func (c *FakeCatalog) TrackIDs(playlistID string) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []int64
	for _, t := range c.Tracks[playlistID] {
		ids = append(ids, t.ID)
	}
	return ids
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
