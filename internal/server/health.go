package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifie/internal/models"
)

// Pinger checks a dependency's reachability.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
}

// HealthHandler reports liveness and cache reachability.
type HealthHandler struct {
	redis  Pinger
	logger *log.Logger
	now    func() time.Time
}

func NewHealthHandler(redis Pinger, logger *log.Logger) *HealthHandler {
	return &HealthHandler{redis: redis, logger: logger, now: time.Now}
}

func (h *HealthHandler) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/actuator/health", Handle: h.Health}}
}

// Health answers 200 when the cache responds and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ models.AuthContext) {
	if _, err := h.redis.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", "component", "redis", "error", err)
		writeEnvelope(w, http.StatusServiceUnavailable,
			models.Failure("DOWN", "Redis no disponible").
				With("components", map[string]any{"redis": map[string]string{"status": "DOWN"}}))
		return
	}

	writeEnvelope(w, http.StatusOK, models.Success(map[string]any{
		"health":     "UP",
		"components": map[string]any{"redis": map[string]string{"status": "UP"}},
	}, h.now()))
}
