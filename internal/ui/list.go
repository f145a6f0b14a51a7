package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }

func (i playlistItem) Title() string { return i.playlist.Name }

func (i playlistItem) Description() string {
	parts := []string{
		fmt.Sprintf("%d tracks", i.playlist.TracksCount),
		shared.FormatDuration(i.playlist.Duration),
	}
	if i.playlist.Owner != "" {
		parts = append(parts, i.playlist.Owner)
	}
	if i.playlist.Description != "" {
		parts = append(parts, i.playlist.Description)
	}
	return strings.Join(parts, " • ")
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist.Name }

func (i trackItem) Title() string { return i.track.Title }

func (i trackItem) Description() string {
	desc := i.track.Artist.Name
	if i.track.Album.Title != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Title)
	}
	return fmt.Sprintf("%s • %s • #%d", desc, shared.FormatDuration(i.track.Duration), i.track.ID)
}
