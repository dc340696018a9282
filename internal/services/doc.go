// Package services talks to the Spotify Web API on behalf of logged-in callers.
//
// # Interfaces
//
//   - [Relayer] : a single bearer-authenticated GET returning the raw upstream JSON
//   - [OAuthService] : the authorization code flow (login URL, code exchange, identity lookup)
//
// [SpotifyService] implements both over [golang.org/x/oauth2].
//
// # Relay
//
// A relay never retries and never refreshes tokens. Bodies are capped at [MaxResponseBytes].
// Failures wrap [shared.ErrUpstreamFailure] and carry only the status code, never the upstream body,
// so callers can answer with a fixed message.
//
// Relay targets are the fixed endpoints [EndpointProfile], [EndpointPlaylists] and [EndpointTopTracks],
// resolved against the configured api_base_url.
package services
