// package services defines the Spotify OAuth client and the authenticated relay
package services

import (
	"context"
	"encoding/json"

	"github.com/desertthunder/spotifie/internal/models"
)

// MaxResponseBytes caps the size of any upstream body read by a relay.
const MaxResponseBytes int64 = 1 << 20

// Relay endpoints, relative to the configured API base URL.
const (
	EndpointProfile   = "/me"
	EndpointPlaylists = "/me/playlists?limit=20"
	EndpointTopTracks = "/me/top/tracks?limit=10&time_range=short_term"
)

// Relayer performs a single authenticated GET on behalf of a caller.
type Relayer interface {
	// Relay issues exactly one GET to url with token as bearer credential and returns the raw JSON body.
	//
	// Any transport failure, non-2xx status, oversized or non-JSON body yields an error wrapping
	// [shared.ErrUpstreamFailure]. The upstream body is never part of the error.
	Relay(ctx context.Context, token *models.AuthorizedToken, url string) (json.RawMessage, error)

	// URL resolves an endpoint path against the API base URL.
	URL(endpoint string) string
}

// OAuthService drives the OAuth2 authorization code flow.
type OAuthService interface {
	// AuthURL returns the provider login URL carrying state.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*models.AuthorizedToken, error)

	// Identity resolves the caller behind token.
	Identity(ctx context.Context, token *models.AuthorizedToken) (*models.Identity, error)
}
