// package models defines the data model for the spotifie service
package models

import (
	"slices"
	"time"
)

// Identity is the caller's Spotify identity as resolved at login.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Name returns the display name, falling back to the ID.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.ID
}

// AuthorizedToken is the access credential obtained through the OAuth2 login.
type AuthorizedToken struct {
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	Scopes      []string  `json:"scopes"`
}

// Expired reports whether the token has a known expiry at or before now.
func (t AuthorizedToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Authorities returns the granted scopes in SCOPE_ form.
func (t AuthorizedToken) Authorities() []string {
	out := make([]string, 0, len(t.Scopes))
	for _, s := range t.Scopes {
		out = append(out, "SCOPE_"+s)
	}
	return out
}

// AuthContext is the immutable authentication state handed to each request handler.
//
// Both fields are nil for anonymous callers.
type AuthContext struct {
	identity *Identity
	token    *AuthorizedToken
}

// NewAuthContext copies identity and token into a new [AuthContext].
func NewAuthContext(identity *Identity, token *AuthorizedToken) AuthContext {
	var ac AuthContext
	if identity != nil {
		id := *identity
		ac.identity = &id
	}
	if token != nil {
		tok := *token
		tok.Scopes = slices.Clone(token.Scopes)
		ac.token = &tok
	}
	return ac
}

// Anonymous returns an [AuthContext] with neither identity nor token.
func Anonymous() AuthContext { return AuthContext{} }

// Identity returns a copy of the identity, or nil.
func (a AuthContext) Identity() *Identity {
	if a.identity == nil {
		return nil
	}
	id := *a.identity
	return &id
}

// Token returns a copy of the authorized token, or nil.
func (a AuthContext) Token() *AuthorizedToken {
	if a.token == nil {
		return nil
	}
	tok := *a.token
	tok.Scopes = slices.Clone(a.token.Scopes)
	return &tok
}

// Authenticated reports whether both identity and token are present.
func (a AuthContext) Authenticated() bool {
	return a.identity != nil && a.token != nil && a.token.AccessToken != ""
}

// Session binds an identity to its authorized token for the lifetime of a login.
type Session struct {
	ID        string
	Identity  Identity
	Token     AuthorizedToken
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuthContext builds the request-scoped view of the session.
func (s *Session) AuthContext() AuthContext {
	if s == nil {
		return Anonymous()
	}
	return NewAuthContext(&s.Identity, &s.Token)
}
