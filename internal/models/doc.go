// Package models defines the request-scoped authentication types and the response envelope for the spotifie service.
//
// # Authentication
//
//   - [Identity] : the Spotify user resolved at login (ID and display name)
//   - [AuthorizedToken] : the OAuth2 access token with expiry and scopes
//   - [AuthContext] : an immutable pairing of the two, passed explicitly to handlers
//   - [Session] : the server-side record binding an Identity to its token
//
// An [AuthContext] is authenticated only when both an identity and a non-empty token are present.
//
// # Envelope
//
// [Envelope] is the uniform response wrapper. [Success] carries a payload and timestamp,
// [Failure] carries an error label and message. Envelopes are built through those constructors only,
// so none is ever half populated.
package models
