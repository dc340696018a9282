package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifie/internal/models"
	"github.com/desertthunder/spotifie/internal/services"
	"github.com/desertthunder/spotifie/internal/shared"
)

// LoginHandler handles the OAuth2 authorization code flow and session cookies.
type LoginHandler struct {
	oauth    services.OAuthService
	sessions SessionManager
	config   shared.SessionConfig
	logger   *log.Logger
}

// NewLoginHandler creates a new login handler.
func NewLoginHandler(oauth services.OAuthService, sessions SessionManager, config shared.SessionConfig, logger *log.Logger) *LoginHandler {
	return &LoginHandler{oauth: oauth, sessions: sessions, config: config, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *LoginHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: LoginPath, Handle: h.Login},
		{Method: http.MethodGet, Path: CallbackPath, Handle: h.Callback},
		{Method: http.MethodGet, Path: LogoutPath, Handle: h.Logout},
	}
}

// Login redirects to Spotify with a fresh single-use state.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request, _ models.AuthContext) {
	state, err := shared.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", "error", err)
		writeEnvelope(w, http.StatusInternalServerError,
			models.Failure("Error interno", "No se pudo iniciar el inicio de sesión"))
		return
	}

	h.sessions.PutState(state)
	http.Redirect(w, r, h.oauth.AuthURL(state), http.StatusFound)
}

// Callback validates the state parameter, exchanges the authorization code for a token,
// resolves the identity and starts a session.
func (h *LoginHandler) Callback(w http.ResponseWriter, r *http.Request, _ models.AuthContext) {
	q := r.URL.Query()

	if !h.sessions.ConsumeState(q.Get("state")) {
		h.logger.Warn("oauth callback with invalid state")
		writeEnvelope(w, http.StatusBadRequest,
			models.Failure("Estado inválido", "El parámetro state no es válido o ha expirado").With("login_url", LoginPath))
		return
	}

	code := q.Get("code")
	if code == "" {
		h.logger.Warn("authorization denied", "error", q.Get("error"), "description", q.Get("error_description"))
		writeEnvelope(w, http.StatusUnauthorized,
			models.Failure("Autorización fallida", "Spotify no autorizó el acceso").With("login_url", LoginPath))
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		writeEnvelope(w, http.StatusUnauthorized,
			models.Failure("Autenticación fallida", "No se pudo completar el inicio de sesión con Spotify").With("login_url", LoginPath))
		return
	}

	identity, err := h.oauth.Identity(r.Context(), token)
	if err != nil {
		h.logger.Error("identity lookup failed", "error", err)
		writeEnvelope(w, http.StatusUnauthorized,
			models.Failure("Autenticación fallida", "No se pudo obtener el perfil de Spotify").With("login_url", LoginPath))
		return
	}

	sess := h.sessions.Create(*identity, *token)
	h.logger.Info("session started", "user", identity.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(h.config.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout ends the current session, if any, and clears the cookie.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request, auth models.AuthContext) {
	if cookie, err := r.Cookie(h.config.CookieName); err == nil && cookie.Value != "" {
		h.sessions.Delete(cookie.Value)
		if id := auth.Identity(); id != nil {
			h.logger.Info("session ended", "user", id.ID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}
