package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrRemoteFetch        = fmt.Errorf("remote fetch failed")
	ErrRemoteMutation     = fmt.Errorf("remote mutation failed")

	// Source document errors
	ErrSourceNotFound    = fmt.Errorf("source file not found")
	ErrMalformedSection  = fmt.Errorf("favorites section unknown")
	ErrOrphanIdentifier  = fmt.Errorf("id found before any header")
	ErrInvalidIdentifier = fmt.Errorf("invalid identifier")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
