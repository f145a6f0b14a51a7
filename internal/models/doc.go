// Package models defines the value records exchanged between the catalog client, the declarative parser and the reconciler.
//
// The package contains two categories of types:
//
// 1. Catalog records: lightweight structs decoded from the remote catalog
//   - [Playlist] : playlist metadata (name, description, visibility, owner)
//   - [Track] : track metadata, carrying its membership handle when read from a playlist
//   - [Album], [Artist] : favorite entries
//   - [Favorites] : the three favorite id sets, as declared in a document or applied remotely
//
// 2. Desired state and history
//   - [DesiredPlaylist] : one playlist block of a declarative document
//   - [Run], [RunResult] : a persisted record of one reconciliation run
//
// [Run] implements the [Model] interface; the [Repository] interface describes its persistence.
package models
