// Package tasks converges the remote catalog to declarative playlist and favorites documents.
//
// # Diff Engine
//
// [Diff] compares the desired track ids of one playlist with its observed tracks and returns a [Plan]:
//
//   - [ModeAdd] : desired tracks that are missing, in desired order
//   - [ModeDelete] : membership ids of desired tracks that are present
//   - [ModeReplace] : both, so the playlist ends with exactly the desired tracks
//
// Tracks are added by track id but removed by membership id. [EffectiveMode] escalates an add
// against an existing playlist to replace when the force flag is set.
//
// # Reconciler
//
// [Reconciler] runs one document against a [services.Catalog]. Owned playlists are listed once per
// run; each document playlist is then matched by case-insensitive name (or created), its tracks are
// fetched, diffed and mutated before the next one starts. Fetch failures abort the run; mutation
// failures are reported on the affected [PlaylistResult] and the run continues.
//
// Favorites are applied as a single batched add or delete, with no comparison against current favorites.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends use select with default
// so a slow reader never blocks a run.
//
// # Covers
//
// [DownloadCovers] fetches album cover images with a bounded, rate-limited worker pool.
package tasks
