package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifie/internal/models"
)

// AccessLevel is the authentication a path requires.
type AccessLevel int

const (
	Public AccessLevel = iota
	Authenticated
)

func (l AccessLevel) String() string {
	if l == Authenticated {
		return "authenticated"
	}
	return "public"
}

// AccessRule maps a path pattern to an [AccessLevel].
//
// A pattern ending in "/**" matches the prefix and everything below it; any other pattern matches exactly.
type AccessRule struct {
	Pattern string
	Level   AccessLevel
}

func (r AccessRule) matches(path string) bool {
	prefix, ok := strings.CutSuffix(r.Pattern, "/**")
	if !ok {
		return path == r.Pattern
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// AccessTable resolves paths to access levels. The first matching rule wins.
type AccessTable struct {
	rules    []AccessRule
	fallback AccessLevel
}

// NewAccessTable builds an [AccessTable] that applies fallback to unmatched paths.
func NewAccessTable(fallback AccessLevel, rules ...AccessRule) AccessTable {
	return AccessTable{rules: append([]AccessRule(nil), rules...), fallback: fallback}
}

// DefaultAccessTable opens the diagnostics, health, login, logout and landing paths and protects everything else.
func DefaultAccessTable() AccessTable {
	return NewAccessTable(Authenticated,
		AccessRule{Pattern: "/api/test/**", Level: Public},
		AccessRule{Pattern: "/actuator/**", Level: Public},
		AccessRule{Pattern: "/", Level: Public},
		AccessRule{Pattern: "/index.html", Level: Public},
		AccessRule{Pattern: "/favicon.ico", Level: Public},
		AccessRule{Pattern: "/oauth2/**", Level: Public},
		AccessRule{Pattern: "/login/**", Level: Public},
		AccessRule{Pattern: "/logout", Level: Public},
	)
}

// Level returns the access level required for path.
func (t AccessTable) Level(path string) AccessLevel {
	for _, rule := range t.rules {
		if rule.matches(path) {
			return rule.Level
		}
	}
	return t.fallback
}

// GateResult is the outcome of [Evaluate]. Both fields are set or both are nil.
type GateResult struct {
	Identity *models.Identity
	Token    *models.AuthorizedToken
}

// Authenticated reports whether the caller presented both an identity and a token.
func (g GateResult) Authenticated() bool {
	return g.Identity != nil && g.Token != nil
}

// Evaluate decides whether auth carries a verified identity and an access token.
//
// Absence is a normal outcome, not an error.
func Evaluate(auth models.AuthContext) GateResult {
	if !auth.Authenticated() {
		return GateResult{}
	}
	return GateResult{Identity: auth.Identity(), Token: auth.Token()}
}

// SessionLookup resolves a session ID from the session cookie.
type SessionLookup interface {
	Get(id string) (*models.Session, error)
}

// AuthHandler handles a request with the caller's [models.AuthContext] passed explicitly.
type AuthHandler func(w http.ResponseWriter, r *http.Request, auth models.AuthContext)

// Gate resolves the caller's session and enforces the [AccessTable] before a handler runs.
type Gate struct {
	table    AccessTable
	sessions SessionLookup
	cookie   string
	logger   *log.Logger
}

// NewGate creates a [Gate] reading sessions from the named cookie.
func NewGate(table AccessTable, sessions SessionLookup, cookieName string, logger *log.Logger) *Gate {
	return &Gate{table: table, sessions: sessions, cookie: cookieName, logger: logger}
}

// Wrap adapts h into an [http.Handler].
//
// Requests to paths that require authentication without a valid session receive the
// 401 envelope and h is never called.
func (g *Gate) Wrap(h AuthHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := g.Resolve(r)

		level := g.table.Level(r.URL.Path)
		if level == Authenticated && !Evaluate(auth).Authenticated() {
			g.logger.Debug("rejected unauthenticated request", "path", r.URL.Path)
			writeEnvelope(w, http.StatusUnauthorized, unauthenticated())
			return
		}

		h(w, r, auth)
	})
}

// Resolve returns the [models.AuthContext] for the session cookie on r, or an anonymous one.
func (g *Gate) Resolve(r *http.Request) models.AuthContext {
	if g.sessions == nil {
		return models.Anonymous()
	}

	cookie, err := r.Cookie(g.cookie)
	if err != nil || cookie.Value == "" {
		return models.Anonymous()
	}

	sess, err := g.sessions.Get(cookie.Value)
	if err != nil {
		g.logger.Debug("session lookup failed", "error", err)
		return models.Anonymous()
	}
	return sess.AuthContext()
}
