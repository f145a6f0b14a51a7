package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/qbx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgTracksFetched
	MsgPlaylistDropped
)

type playlistsPayload struct {
	playlists []models.Playlist
	err       error
}

type tracksPayload struct {
	playlist models.Playlist
	tracks   []models.Track
	err      error
}

type droppedPayload struct {
	playlist *models.Playlist
	err      error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsPayload{playlists, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(playlist models.Playlist, tracks []models.Track, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksPayload{playlist, tracks, err}}
}

// playlistDroppedMsg is the constructor for [MsgPlaylistDropped]
func playlistDroppedMsg(playlist *models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistDropped, data: droppedPayload{playlist, err}}
}
