package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/services"
	"github.com/desertthunder/qbx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	ResultView
)

// Options configures the listings shown by [Model].
type Options struct {
	Filter   string // Playlist filter passed to the catalog
	PageSize int
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	catalog      services.CatalogReader
	reconciler   *tasks.Reconciler
	opts         Options
	width        int
	height       int
	loading      bool
	spinner      spinner.Model
	playlistList list.Model
	playlists    []models.Playlist
	trackList    list.Model
	tracksReady  bool
	selected     *models.Playlist
	dropped      *models.Playlist
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// The reconciler is used only to delete playlists; it may be nil for a read-only browser.
func NewModel(ctx context.Context, catalog services.CatalogReader, reconciler *tasks.Reconciler, opts Options) *Model {
	if opts.Filter == "" {
		opts.Filter = services.PlaylistFilter("owner")
	}
	return &Model{
		ctx:        ctx,
		view:       PlaylistListView,
		catalog:    catalog,
		reconciler: reconciler,
		opts:       opts,
		loading:    true,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the spinner and fetches playlists.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchPlaylists())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// SetSize needs the delegate set by list.New.
		if m.playlists != nil {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.tracksReady {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filtering() {
			return m.updateLists(msg)
		}
		if key.Matches(msg, m.keys.quit) && m.view != ConfirmView {
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	m.loading = false

	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsPayload)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.playlists = append([]models.Playlist{}, data.playlists...)
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Qobuz Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		m.view = PlaylistListView

	case MsgTracksFetched:
		data := msg.data.(tracksPayload)
		if data.err != nil {
			m.err = data.err
			m.view = PlaylistListView
			return m, nil
		}
		items := make([]list.Item, len(data.tracks))
		for i, track := range data.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", data.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.tracksReady = true
		m.view = TrackListView

	case MsgPlaylistDropped:
		data := msg.data.(droppedPayload)
		m.dropped = data.playlist
		m.err = data.err
		m.view = ResultView
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.loading {
		return fmt.Sprintf("%s Loading...\n", m.spinner.View())
	}
	if m.err != nil && m.view != ResultView {
		return styles.Err(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchPlaylists())
	case m.err != nil:
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected = &pl.playlist
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetchTracks(pl.playlist))
		}
	case key.Matches(msg, m.keys.drop):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok && m.reconciler != nil {
			m.selected = &pl.playlist
			m.view = ConfirmView
			return m, nil
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.back) {
		m.view = PlaylistListView
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.dropPlaylist(m.selected.Name))
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = PlaylistListView
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.refresh) || key.Matches(msg, m.keys.back) {
		m.selected = nil
		m.dropped = nil
		m.err = nil
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchPlaylists())
	}
	return m, nil
}

func (m *Model) filtering() bool {
	switch m.view {
	case PlaylistListView:
		return m.playlists != nil && m.playlistList.FilterState() == list.Filtering
	case TrackListView:
		return m.tracksReady && m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.view == PlaylistListView && m.playlists != nil:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case m.view == TrackListView && m.tracksReady:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := services.AllPlaylists(m.ctx, m.catalog, m.opts.Filter, m.opts.PageSize)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) fetchTracks(playlist models.Playlist) tea.Cmd {
	return func() tea.Msg {
		tracks, err := services.AllPlaylistTracks(m.ctx, m.catalog, playlist.ID, m.opts.PageSize)
		return tracksFetchedMsg(playlist, tracks, err)
	}
}

func (m *Model) dropPlaylist(name string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.reconciler.DeletePlaylist(m.ctx, name)
		return playlistDroppedMsg(playlist, err)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	if m.reconciler != nil {
		helpKeys = []key.Binding{m.keys.enter, m.keys.drop, m.keys.refresh, m.keys.quit}
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	title := styles.Title(fmt.Sprintf("Delete playlist '%s'?", m.selected.Name))
	info := fmt.Sprintf("\nID: %s\nTracks: %d\n%s\n", m.selected.ID, m.selected.TracksCount,
		styles.Warn("This cannot be undone."))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.Err(fmt.Sprintf("Delete failed: %v", m.err)), helpView)
	}
	if m.dropped == nil {
		return fmt.Sprintf("%s\n\n%s", styles.Err("No result available"), helpView)
	}

	title := styles.OK(fmt.Sprintf("✓ Deleted '%s'", m.dropped.Name))
	return fmt.Sprintf("%s\n%s\n\n%s", title, styles.Help("id "+m.dropped.ID), helpView)
}
