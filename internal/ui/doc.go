// Package ui implements an interactive catalog browser using bubbletea's Elm architecture.
//
// The browser has four views:
//  1. [PlaylistListView] : Browse the account's playlists
//  2. [TrackListView] : Inspect the tracks of one playlist
//  3. [ConfirmView] : Confirm deleting a playlist
//  4. [ResultView] : Show the outcome of the delete
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving results of
// catalog calls as [Msg] values. Listings page through the catalog with the same helpers the commands use.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, x, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
