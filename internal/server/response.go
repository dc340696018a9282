package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/spotifie/internal/models"
)

const (
	LoginPath    = "/oauth2/authorization/spotify"
	CallbackPath = "/login/oauth2/code/spotify"
	LogoutPath   = "/logout"
)

const (
	msgNotAuthenticated = "No autenticado"
	msgLoginRequired    = "Debes iniciar sesión con Spotify primero"
)

func unauthenticated() models.Envelope {
	return models.Failure(msgNotAuthenticated, msgLoginRequired).With("login_url", LoginPath)
}

func writeEnvelope(w http.ResponseWriter, status int, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
