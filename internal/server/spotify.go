package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifie/internal/models"
	"github.com/desertthunder/spotifie/internal/services"
)

const msgSpotifyUnavailable = "No se pudo conectar con la API de Spotify"

// SpotifyHandler serves the landing page and the relay endpoints.
type SpotifyHandler struct {
	relayer services.Relayer
	logger  *log.Logger
	now     func() time.Time
}

func NewSpotifyHandler(relayer services.Relayer, logger *log.Logger) *SpotifyHandler {
	return &SpotifyHandler{relayer: relayer, logger: logger, now: time.Now}
}

func (h *SpotifyHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/", Handle: h.Home},
		{Method: http.MethodGet, Path: "/profile", Handle: h.Profile},
		{Method: http.MethodGet, Path: "/playlists", Handle: h.Playlists},
		{Method: http.MethodGet, Path: "/top-tracks", Handle: h.TopTracks},
		{Method: http.MethodPost, Path: LogoutPath, Handle: h.Logout},
	}
}

// Home reports whether the caller is logged in.
func (h *SpotifyHandler) Home(w http.ResponseWriter, r *http.Request, auth models.AuthContext) {
	res := Evaluate(auth)
	if !res.Authenticated() {
		writeEnvelope(w, http.StatusOK, models.Success(map[string]any{
			"authenticated": false,
			"message":       "No autenticado ❌",
			"login_url":     LoginPath,
			"description":   "Visita " + LoginPath + " para iniciar sesión con Spotify",
		}, h.now()))
		return
	}

	writeEnvelope(w, http.StatusOK, models.Success(map[string]any{
		"authenticated": true,
		"message":       "¡Autenticado con Spotify! ✅",
		"user":          res.Identity.Name(),
		"spotify_id":    res.Identity.ID,
		"endpoints": map[string]string{
			"profile":    "/profile",
			"playlists":  "/playlists",
			"top_tracks": "/top-tracks",
		},
	}, h.now()))
}

// Profile relays the caller's Spotify profile together with session and token metadata.
func (h *SpotifyHandler) Profile(w http.ResponseWriter, r *http.Request, auth models.AuthContext) {
	h.relay(w, r, auth, services.EndpointProfile, "Error al obtener perfil de Spotify",
		func(body json.RawMessage, res GateResult) map[string]any {
			var expiresAt *time.Time
			if !res.Token.ExpiresAt.IsZero() {
				expiresAt = &res.Token.ExpiresAt
			}
			return map[string]any{
				"user_info": map[string]any{
					"session": map[string]any{
						"name":        res.Identity.Name(),
						"authorities": res.Token.Authorities(),
					},
					"spotify_profile": body,
				},
				"access_token_info": map[string]any{
					"expires_at": expiresAt,
					"scopes":     res.Token.Scopes,
				},
			}
		})
}

// Playlists relays the caller's first page of playlists.
func (h *SpotifyHandler) Playlists(w http.ResponseWriter, r *http.Request, auth models.AuthContext) {
	h.relay(w, r, auth, services.EndpointPlaylists, "Error al obtener playlists",
		func(body json.RawMessage, res GateResult) map[string]any {
			return map[string]any{"playlists": body, "user": res.Identity.Name()}
		})
}

// TopTracks relays the caller's short term top tracks.
func (h *SpotifyHandler) TopTracks(w http.ResponseWriter, r *http.Request, auth models.AuthContext) {
	h.relay(w, r, auth, services.EndpointTopTracks, "Error al obtener top tracks",
		func(body json.RawMessage, res GateResult) map[string]any {
			return map[string]any{"top_tracks": body, "user": res.Identity.Name()}
		})
}

// Logout returns guidance only; the session stays valid until GET /logout.
func (h *SpotifyHandler) Logout(w http.ResponseWriter, r *http.Request, _ models.AuthContext) {
	writeEnvelope(w, http.StatusOK, models.Success(map[string]any{
		"message":     "Para cerrar sesión, ve a:",
		"logout_url":  LogoutPath,
		"description": "GET " + LogoutPath + " cierra la sesión actual",
	}, h.now()))
}

// relay issues one upstream call for an authenticated caller.
//
// The caller is checked again here so no path can reach the relayer without an identity and token.
// Upstream failures produce a fixed error envelope labelled with failure.
func (h *SpotifyHandler) relay(
	w http.ResponseWriter, r *http.Request, auth models.AuthContext,
	endpoint, failure string, wrap func(json.RawMessage, GateResult) map[string]any,
) {
	res := Evaluate(auth)
	if !res.Authenticated() {
		writeEnvelope(w, http.StatusUnauthorized, unauthenticated())
		return
	}

	body, err := h.relayer.Relay(r.Context(), res.Token, h.relayer.URL(endpoint))
	if err != nil {
		if errors.Is(r.Context().Err(), context.Canceled) {
			h.logger.Warn("relay abandoned", "endpoint", endpoint, "user", res.Identity.ID)
			return
		}
		h.logger.Error("relay failed", "endpoint", endpoint, "user", res.Identity.ID, "error", err)
		writeEnvelope(w, http.StatusInternalServerError, models.Failure(failure, msgSpotifyUnavailable))
		return
	}

	writeEnvelope(w, http.StatusOK, models.Success(wrap(body, res), h.now()))
}
