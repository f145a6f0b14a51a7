// Qobuz API implementation of [Catalog]
//
// Endpoints follow the public api.json/0.2 surface used by the Qobuz web player.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
	"golang.org/x/time/rate"
)

const qobuzBaseURL = "https://www.qobuz.com/api.json/0.2"

// flexID decodes an identifier sent either as a JSON number or a JSON string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

func (f flexID) Int64() (int64, error) {
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric id %q: %w", string(f), err)
	}
	return n, nil
}

type qobuzImage struct {
	Small     string `json:"small"`
	Thumbnail string `json:"thumbnail"`
	Large     string `json:"large"`
}

type qobuzArtist struct {
	ID          flexID `json:"id"`
	Name        string `json:"name"`
	AlbumsCount int    `json:"albums_count"`
}

type qobuzAlbum struct {
	ID          flexID      `json:"id"`
	Title       string      `json:"title"`
	Artist      qobuzArtist `json:"artist"`
	TracksCount int         `json:"tracks_count"`
	ReleasedAt  int64       `json:"released_at"`
	Image       qobuzImage  `json:"image"`
}

type qobuzTrack struct {
	ID              flexID      `json:"id"`
	Title           string      `json:"title"`
	Duration        int         `json:"duration"`
	TrackNumber     int         `json:"track_number"`
	Album           qobuzAlbum  `json:"album"`
	Performer       qobuzArtist `json:"performer"`
	Performers      string      `json:"performers"`
	PlaylistTrackID flexID      `json:"playlist_track_id"`
}

type qobuzOwner struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

type qobuzPlaylist struct {
	ID              flexID     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	IsPublic        bool       `json:"is_public"`
	IsCollaborative bool       `json:"is_collaborative"`
	Duration        int        `json:"duration"`
	TracksCount     int        `json:"tracks_count"`
	UpdatedAt       int64      `json:"updated_at"`
	Owner           qobuzOwner `json:"owner"`
}

type page[T any] struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
	Items  []T `json:"items"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (a qobuzArtist) model() models.Artist {
	return models.Artist{ID: a.ID.String(), Name: a.Name, AlbumsCount: a.AlbumsCount}
}

func (a qobuzAlbum) model() models.Album {
	return models.Album{
		ID:          a.ID.String(),
		Title:       a.Title,
		Artist:      a.Artist.model(),
		TracksCount: a.TracksCount,
		ReleasedAt:  a.ReleasedAt,
		Image:       models.Image{Small: a.Image.Small, Thumbnail: a.Image.Thumbnail, Large: a.Image.Large},
	}
}

func (t qobuzTrack) model() (models.Track, error) {
	id, err := t.ID.Int64()
	if err != nil {
		return models.Track{}, err
	}
	artist := t.Performer.model()
	if artist.Name == "" {
		artist = t.Album.Artist.model()
	}
	return models.Track{
		ID:              id,
		Title:           t.Title,
		Duration:        t.Duration,
		TrackNumber:     t.TrackNumber,
		Album:           t.Album.model(),
		Artist:          artist,
		Performers:      splitPerformers(t.Performers),
		PlaylistTrackID: t.PlaylistTrackID.String(),
	}, nil
}

// trackModels maps a page of tracks. A track without a numeric id fails the whole page rather than
// dropping out of the observed state.
func trackModels(items []qobuzTrack) ([]models.Track, error) {
	tracks := make([]models.Track, 0, len(items))
	for _, t := range items {
		track, err := t.model()
		if err != nil {
			return nil, fmt.Errorf("%w: track %q: %w", shared.ErrAPIRequest, t.Title, err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (p qobuzPlaylist) model() models.Playlist {
	return models.Playlist{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Public:        p.IsPublic,
		Collaborative: p.IsCollaborative,
		Duration:      p.Duration,
		TracksCount:   p.TracksCount,
		UpdatedAt:     p.UpdatedAt,
		Owner:         p.Owner.Name,
	}
}

// splitPerformers splits the " - " separated performer credits of a track.
func splitPerformers(s string) []string {
	var out []string
	for _, p := range strings.Split(s, " - ") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// APIError is the error body returned by the Qobuz API.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("qobuz API error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("qobuz API error %d", e.Status)
}

// parseAPIError decodes an error body, falling back to the raw text.
func parseAPIError(status int, body []byte) *APIError {
	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err == nil && sr.Message != "" {
		if sr.Code != 0 {
			status = sr.Code
		}
		return &APIError{Status: status, Code: sr.Code, Message: sr.Message}
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
}

// QobuzOpts configures a [QobuzService].
type QobuzOpts struct {
	BaseURL    string
	AppID      string
	Session    *Session
	RateLimit  float64 // requests per second; zero disables limiting
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// QobuzService implements [Catalog] against the Qobuz JSON API.
type QobuzService struct {
	baseURL    string
	appID      string
	session    *Session
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewQobuzService creates a [QobuzService]. AppID and Session are required.
func NewQobuzService(opts QobuzOpts) (*QobuzService, error) {
	if opts.AppID == "" {
		return nil, fmt.Errorf("%w: missing app_id", shared.ErrMissingCredentials)
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("%w: missing session", shared.ErrNotAuthenticated)
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = qobuzBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	return &QobuzService{
		baseURL:    baseURL,
		appID:      opts.AppID,
		session:    opts.Session,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}, nil
}

// NewQobuzServiceFromConfig wires a [QobuzService] and its [Session] from the loaded configuration.
// onLogin receives every token obtained by a fresh login.
func NewQobuzServiceFromConfig(ctx context.Context, cfg *shared.Config, logger *log.Logger, onLogin func(token string)) (*QobuzService, error) {
	q := cfg.Credentials.Qobuz
	client := &http.Client{Timeout: cfg.API.Timeout()}
	session := NewSession(ctx, SessionOpts{
		BaseURL:    cfg.API.BaseURL,
		AppID:      q.AppID,
		Email:      q.Email,
		Password:   q.Password,
		Token:      q.UserAuthToken,
		HTTPClient: client,
		OnLogin:    onLogin,
	})
	return NewQobuzService(QobuzOpts{
		BaseURL:    cfg.API.BaseURL,
		AppID:      q.AppID,
		Session:    session,
		RateLimit:  cfg.API.RateLimit,
		HTTPClient: client,
		Logger:     logger,
	})
}

func (s *QobuzService) Name() string {
	return "Qobuz"
}

// doRequest performs an authenticated request and decodes the response body into result.
//
// GET requests carry params in the query string; POST requests send them form-encoded.
// A rejected token is discarded and the request retried once after a fresh login.
func (s *QobuzService) doRequest(ctx context.Context, method, endpoint string, params url.Values, result any) error {
	body, err := s.send(ctx, method, endpoint, params)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && s.session.CanLogin() {
		s.logger.Debug("auth token rejected, logging in again", "endpoint", endpoint)
		s.session.Invalidate()
		body, err = s.send(ctx, method, endpoint, params)
	}
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	// raw documents keep numbers as written
	if _, ok := result.(*map[string]any); ok {
		dec.UseNumber()
	}
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, endpoint, err)
	}
	return nil
}

func (s *QobuzService) send(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := s.session.Token()
	if err != nil {
		return nil, err
	}

	apiURL := s.baseURL + "/" + endpoint
	var reqBody io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			apiURL += "?" + params.Encode()
		}
	} else {
		reqBody = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-App-Id", s.appID)
	req.Header.Set("X-User-Auth-Token", token.AccessToken)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	s.logger.Debug("qobuz request", "method", method, "endpoint", endpoint)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrServiceUnavailable, method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, endpoint, parseAPIError(resp.StatusCode, body))
	}
	return body, nil
}

// mutate posts params to endpoint and treats a {"status":"error"} body as a failure.
func (s *QobuzService) mutate(ctx context.Context, endpoint string, params url.Values, result any) error {
	var raw json.RawMessage
	if err := s.doRequest(ctx, http.MethodPost, endpoint, params, &raw); err != nil {
		return err
	}

	var sr statusResponse
	if err := json.Unmarshal(raw, &sr); err == nil && sr.Status == "error" {
		return fmt.Errorf("%w: POST %s: %w", shared.ErrAPIRequest, endpoint, &APIError{Status: sr.Code, Code: sr.Code, Message: sr.Message})
	}

	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, endpoint, err)
		}
	}
	return nil
}

func pageParams(offset, limit int) url.Values {
	return url.Values{"offset": {strconv.Itoa(offset)}, "limit": {strconv.Itoa(limit)}}
}

func playlistsParams(filter string, offset, limit int) url.Values {
	params := pageParams(offset, limit)
	params.Set("filter", filter)
	return params
}

func playlistTracksParams(playlistID string, offset, limit int) url.Values {
	params := pageParams(offset, limit)
	params.Set("playlist_id", playlistID)
	params.Set("extra", "tracks")
	return params
}

func favoritesParams(kind models.FavoriteKind, offset, limit int) url.Values {
	params := pageParams(offset, limit)
	params.Set("type", string(kind))
	return params
}

// Playlists retrieves one page of the user's playlists.
func (s *QobuzService) Playlists(ctx context.Context, filter string, offset, limit int) ([]models.Playlist, error) {
	var response struct {
		Playlists page[qobuzPlaylist] `json:"playlists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "playlist/getUserPlaylists", playlistsParams(filter, offset, limit), &response); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(response.Playlists.Items))
	for _, p := range response.Playlists.Items {
		playlists = append(playlists, p.model())
	}
	return playlists, nil
}

func (s *QobuzService) PlaylistsRaw(ctx context.Context, filter string, offset, limit int) (map[string]any, error) {
	var doc map[string]any
	if err := s.doRequest(ctx, http.MethodGet, "playlist/getUserPlaylists", playlistsParams(filter, offset, limit), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// PlaylistTracks retrieves one page of a playlist's tracks.
func (s *QobuzService) PlaylistTracks(ctx context.Context, playlistID string, offset, limit int) ([]models.Track, error) {
	var response struct {
		Tracks page[qobuzTrack] `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "playlist/get", playlistTracksParams(playlistID, offset, limit), &response); err != nil {
		return nil, err
	}

	return trackModels(response.Tracks.Items)
}

func (s *QobuzService) PlaylistTracksRaw(ctx context.Context, playlistID string, offset, limit int) (map[string]any, error) {
	var doc map[string]any
	if err := s.doRequest(ctx, http.MethodGet, "playlist/get", playlistTracksParams(playlistID, offset, limit), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *QobuzService) FavoriteTracks(ctx context.Context, offset, limit int) ([]models.Track, error) {
	var response struct {
		Tracks page[qobuzTrack] `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "favorite/getUserFavorites", favoritesParams(models.FavoriteTracks, offset, limit), &response); err != nil {
		return nil, err
	}

	return trackModels(response.Tracks.Items)
}

func (s *QobuzService) FavoriteAlbums(ctx context.Context, offset, limit int) ([]models.Album, error) {
	var response struct {
		Albums page[qobuzAlbum] `json:"albums"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "favorite/getUserFavorites", favoritesParams(models.FavoriteAlbums, offset, limit), &response); err != nil {
		return nil, err
	}

	albums := make([]models.Album, 0, len(response.Albums.Items))
	for _, a := range response.Albums.Items {
		albums = append(albums, a.model())
	}
	return albums, nil
}

func (s *QobuzService) FavoriteArtists(ctx context.Context, offset, limit int) ([]models.Artist, error) {
	var response struct {
		Artists page[qobuzArtist] `json:"artists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "favorite/getUserFavorites", favoritesParams(models.FavoriteArtists, offset, limit), &response); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Artists.Items))
	for _, a := range response.Artists.Items {
		artists = append(artists, a.model())
	}
	return artists, nil
}

func (s *QobuzService) FavoritesRaw(ctx context.Context, kind models.FavoriteKind, offset, limit int) (map[string]any, error) {
	var doc map[string]any
	if err := s.doRequest(ctx, http.MethodGet, "favorite/getUserFavorites", favoritesParams(kind, offset, limit), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreatePlaylist creates a playlist and returns it with its new id.
func (s *QobuzService) CreatePlaylist(ctx context.Context, name, description string, public, collaborative bool) (*models.Playlist, error) {
	params := url.Values{
		"name":             {name},
		"description":      {description},
		"is_public":        {boolParam(public)},
		"is_collaborative": {boolParam(collaborative)},
	}

	var created qobuzPlaylist
	if err := s.mutate(ctx, "playlist/create", params, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: playlist/create returned no id", shared.ErrAPIRequest)
	}

	playlist := created.model()
	return &playlist, nil
}

func (s *QobuzService) DeletePlaylist(ctx context.Context, playlistID string) error {
	return s.mutate(ctx, "playlist/delete", url.Values{"playlist_id": {playlistID}}, nil)
}

// AddTracks appends tracks to a playlist. Empty input is a no-op.
func (s *QobuzService) AddTracks(ctx context.Context, playlistID string, trackIDs []int64) error {
	if len(trackIDs) == 0 {
		return nil
	}

	ids := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	params := url.Values{"playlist_id": {playlistID}, "track_ids": {strings.Join(ids, ",")}}
	return s.mutate(ctx, "playlist/addTracks", params, nil)
}

// RemoveTracks removes playlist memberships. Empty input is a no-op.
func (s *QobuzService) RemoveTracks(ctx context.Context, playlistID string, playlistTrackIDs []string) error {
	if len(playlistTrackIDs) == 0 {
		return nil
	}

	params := url.Values{"playlist_id": {playlistID}, "playlist_track_ids": {strings.Join(playlistTrackIDs, ",")}}
	return s.mutate(ctx, "playlist/deleteTracks", params, nil)
}

func (s *QobuzService) AddFavorites(ctx context.Context, favorites models.Favorites) error {
	return s.mutate(ctx, "favorite/create", favoritesForm(favorites), nil)
}

func (s *QobuzService) RemoveFavorites(ctx context.Context, favorites models.Favorites) error {
	return s.mutate(ctx, "favorite/delete", favoritesForm(favorites), nil)
}

func favoritesForm(f models.Favorites) url.Values {
	return url.Values{
		"album_ids":  {strings.Join(f.Albums, ",")},
		"track_ids":  {strings.Join(f.Tracks, ",")},
		"artist_ids": {strings.Join(f.Artists, ",")},
	}
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

var _ Catalog = (*QobuzService)(nil)
