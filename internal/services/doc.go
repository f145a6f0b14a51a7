// Package services defines the [Catalog] interface for the remote music catalog and implements it for Qobuz.
//
// # Catalog Interface
//
// [CatalogReader] lists playlists, playlist tracks and favorites one page at a time, either decoded into
// models records or as raw JSON documents. [CatalogWriter] creates and deletes playlists, adds tracks by
// track id, removes them by membership id, and adds or removes favorites in batches.
//
// # Paging Helpers
//
// [AllPlaylists], [AllPlaylistTracks], [AllFavoriteTracks] and their raw variants drive the pager package
// over a [CatalogReader] until the catalog returns an empty page.
//
// # Qobuz Implementation
//
// [QobuzService] talks to the api.json/0.2 endpoints. Every request waits on a [rate.Limiter] and carries
// the X-App-Id and X-User-Auth-Token headers. Reads are GET requests with query parameters; mutations are
// form-encoded POST requests.
//
// [Session] implements [oauth2.TokenSource]: it reuses a saved user auth token and logs in with email and
// md5 password digest when there is none or the API rejects it. The OnLogin callback lets the CLI persist
// the new token to config.toml.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : non-2xx response or {"status":"error"} mutation body, wrapping an [APIError]
//   - [shared.ErrServiceUnavailable] : transport failure
//   - [shared.ErrAuthFailed] : login rejected
//   - [shared.ErrNotAuthenticated] : no token and no credentials to log in with
package services
