package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifie/internal/cache"
	"github.com/desertthunder/spotifie/internal/models"
	"github.com/desertthunder/spotifie/internal/shared"
)

const redisPrefix = "/api/test/redis"

// RedisHandler serves the public cache diagnostics.
type RedisHandler struct {
	diag   *cache.Diagnostics
	config shared.RedisConfig
	logger *log.Logger
	now    func() time.Time
}

func NewRedisHandler(diag *cache.Diagnostics, config shared.RedisConfig, logger *log.Logger) *RedisHandler {
	return &RedisHandler{diag: diag, config: config, logger: logger, now: time.Now}
}

func (h *RedisHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: redisPrefix + "/ping", Handle: h.Ping},
		{Method: http.MethodPost, Path: redisPrefix + "/test-write-read", Handle: h.WriteRead},
		{Method: http.MethodGet, Path: redisPrefix + "/config", Handle: h.Config},
		{Method: http.MethodPost, Path: redisPrefix + "/full-test", Handle: h.FullTest},
	}
}

func (h *RedisHandler) Ping(w http.ResponseWriter, r *http.Request, _ models.AuthContext) {
	pong, err := h.diag.Ping(r.Context())
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError,
			models.Failure("Error de conexión", "No se pudo conectar a Redis").
				With("host", h.config.Host).
				With("port", h.config.Port))
		return
	}

	writeEnvelope(w, http.StatusOK, models.Success(map[string]any{
		"ping_result": pong,
		"host":        h.config.Host,
		"port":        h.config.Port,
		"database":    h.config.Database,
	}, h.now()))
}

func (h *RedisHandler) WriteRead(w http.ResponseWriter, r *http.Request, _ models.AuthContext) {
	res, err := h.diag.WriteRead(r.Context())
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError,
			models.Failure("Error de Redis", "Error en operación Redis").With("operation", "write-read"))
		return
	}

	var retrieved any
	if res.Found {
		retrieved = res.Retrieved
	}

	writeEnvelope(w, http.StatusOK, models.Success(map[string]any{
		"operation":       "write-read",
		"key":             res.Key,
		"written_value":   res.Written,
		"retrieved_value": retrieved,
		"values_match":    res.Matched(),
		"message":         "Escritura y lectura exitosa",
	}, h.now()))
}

// Config shows the connection settings without the password.
func (h *RedisHandler) Config(w http.ResponseWriter, r *http.Request, _ models.AuthContext) {
	username := h.config.Username
	if username == "" {
		username = "not-set"
	}

	writeEnvelope(w, http.StatusOK, models.Success(map[string]any{
		"redis_config": map[string]any{
			"host":                h.config.Host,
			"port":                h.config.Port,
			"database":            h.config.Database,
			"username":            username,
			"password_configured": h.config.Password != "",
		},
		"message": "Configuration loaded successfully",
	}, h.now()))
}

func (h *RedisHandler) FullTest(w http.ResponseWriter, r *http.Request, _ models.AuthContext) {
	report := h.diag.FullLifecycleTest(r.Context())
	if !report.OK() {
		writeEnvelope(w, http.StatusInternalServerError,
			models.Failure("Test completo fallido", "Error durante el test completo").
				With("failed_at", report.FailedAt.String()).
				With("tests", stepSummary(report)))
		return
	}

	var retrieved any
	if report.Found {
		retrieved = report.Retrieved
	}

	writeEnvelope(w, http.StatusOK, models.Success(map[string]any{
		"tests":           stepSummary(report),
		"test_key":        report.Key,
		"test_value":      report.Written,
		"retrieved_value": retrieved,
		"values_matched":  report.Matched(),
	}, h.now()))
}

// stepSummary labels each lifecycle step OK, FAILED or SKIPPED.
func stepSummary(r cache.LifecycleReport) map[string]string {
	steps := []struct {
		name  string
		stage cache.Stage
	}{
		{"ping", cache.StagePinged},
		{"write", cache.StageWritten},
		{"read", cache.StageRead},
		{"delete", cache.StageDeleted},
	}

	out := make(map[string]string, len(steps))
	for _, s := range steps {
		switch {
		case r.Stage == cache.StageFailed && s.stage == r.FailedAt:
			out[s.name] = "FAILED"
		case r.Stage == cache.StageFailed && s.stage > r.FailedAt:
			out[s.name] = "SKIPPED"
		case s.stage == cache.StageDeleted:
			out[s.name] = fmt.Sprintf("OK (%d keys deleted)", r.Deleted)
		default:
			out[s.name] = "OK"
		}
	}
	return out
}
