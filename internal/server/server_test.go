package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/spotifie/internal/cache"
	"github.com/desertthunder/spotifie/internal/models"
	"github.com/desertthunder/spotifie/internal/services"
	"github.com/desertthunder/spotifie/internal/session"
	"github.com/desertthunder/spotifie/internal/shared"
	tu "github.com/desertthunder/spotifie/internal/testing"
)

type testEnv struct {
	server   *Server
	config   *shared.Config
	api      *tu.CountingServer
	token    *tu.CountingServer
	sessions *session.Store
	redis    *miniredis.Miniredis
	logs     *bytes.Buffer
}

func spotifyAPI(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/me":
		tu.JSONHandler(http.StatusOK, map[string]any{"id": "user1", "display_name": "Ana", "country": "ES"})(w, r)
	case "/me/playlists":
		tu.JSONHandler(http.StatusOK, map[string]any{"items": []map[string]string{{"name": "Mix"}}, "total": 1})(w, r)
	case "/me/top/tracks":
		tu.JSONHandler(http.StatusOK, map[string]any{"items": []map[string]string{{"name": "Song"}}})(w, r)
	default:
		http.NotFound(w, r)
	}
}

func newTestEnv(t *testing.T, api http.HandlerFunc) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	port, _ := strconv.Atoi(mr.Port())

	apiServer := tu.NewCountingServer(t, api)
	tokenServer := tu.NewCountingServer(t, tu.TokenHandler("access-xyz", "user-read-private user-top-read"))

	cfg := shared.DefaultConfig()
	cfg.Credentials.Spotify.ClientID = "client"
	cfg.Credentials.Spotify.ClientSecret = "secret"
	cfg.Credentials.Spotify.APIBaseURL = apiServer.URL
	cfg.Credentials.Spotify.TokenURL = tokenServer.URL
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = port
	cfg.Redis.CommandTimeout = time.Second
	cfg.Redis.ConnectTimeout = time.Second

	spotify, err := services.NewSpotifyService(cfg.Credentials.Spotify, &http.Client{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("failed to create spotify service: %v", err)
	}

	store := cache.NewRedisStore(cfg.Redis)
	t.Cleanup(func() { store.Close() })

	sessions := session.NewStore(cfg.Session.TTL, cfg.Session.StateTTL)
	t.Cleanup(sessions.Close)

	logs := &bytes.Buffer{}
	srv := New(Options{
		Config:   cfg,
		Spotify:  spotify,
		Store:    store,
		Sessions: sessions,
		Logger:   shared.NewLogger(logs),
	})

	return &testEnv{server: srv, config: cfg, api: apiServer, token: tokenServer, sessions: sessions, redis: mr, logs: logs}
}

// login creates a session directly and returns its cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	sess := e.sessions.Create(
		models.Identity{ID: "user1", DisplayName: "Ana"},
		models.AuthorizedToken{
			AccessToken: "access-xyz",
			ExpiresAt:   time.Now().Add(time.Hour),
			Scopes:      []string{"user-read-private", "user-top-read"},
		},
	)
	return &http.Cookie{Name: e.config.Session.CookieName, Value: sess.ID}
}

func (e *testEnv) do(t *testing.T, method, path string, cookie *http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("Content-Type") != "application/json" {
		return rec, nil
	}
	return rec, decodeBody(t, rec.Body.Bytes())
}

func decodeBody(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", b, err)
	}
	return body
}

func TestRelayEndpoints(t *testing.T) {
	t.Run("unauthenticated callers get 401 without upstream calls", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)

		for _, path := range []string{"/profile", "/playlists", "/top-tracks"} {
			t.Run(path, func(t *testing.T) {
				rec, body := env.do(t, http.MethodGet, path, nil)

				if rec.Code != http.StatusUnauthorized {
					t.Errorf("expected 401, got %d", rec.Code)
				}
				if body["error"] != "No autenticado" {
					t.Errorf("expected error No autenticado, got %v", body["error"])
				}
				if body["login_url"] != "/oauth2/authorization/spotify" {
					t.Errorf("expected login_url, got %v", body["login_url"])
				}
				if body["message"] != "Debes iniciar sesión con Spotify primero" {
					t.Errorf("unexpected message %v", body["message"])
				}
			})
		}

		if env.api.Hits() != 0 {
			t.Errorf("expected zero upstream calls, got %d", env.api.Hits())
		}
	})

	t.Run("expired session is unauthenticated", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		sess := env.sessions.Create(models.Identity{ID: "u"}, models.AuthorizedToken{
			AccessToken: "old",
			ExpiresAt:   time.Now().Add(-time.Minute),
		})

		rec, _ := env.do(t, http.MethodGet, "/profile", &http.Cookie{Name: env.config.Session.CookieName, Value: sess.ID})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if env.api.Hits() != 0 {
			t.Errorf("expected zero upstream calls, got %d", env.api.Hits())
		}
	})

	t.Run("profile", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		rec, body := env.do(t, http.MethodGet, "/profile", env.login(t))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if body["status"] != "success" {
			t.Errorf("expected success, got %v", body["status"])
		}
		if _, ok := body["timestamp"]; !ok {
			t.Error("expected timestamp")
		}

		userInfo := body["user_info"].(map[string]any)
		profile := userInfo["spotify_profile"].(map[string]any)
		if profile["id"] != "user1" || profile["country"] != "ES" {
			t.Errorf("expected upstream profile passed through, got %v", profile)
		}

		sess := userInfo["session"].(map[string]any)
		if sess["name"] != "Ana" {
			t.Errorf("expected session name Ana, got %v", sess["name"])
		}

		tokenInfo := body["access_token_info"].(map[string]any)
		if scopes := tokenInfo["scopes"].([]any); len(scopes) != 2 {
			t.Errorf("expected 2 scopes, got %v", scopes)
		}
		if tokenInfo["expires_at"] == nil {
			t.Error("expected expires_at")
		}
		if strings.Contains(rec.Body.String(), "access-xyz") {
			t.Error("access token must not be exposed")
		}

		if env.api.LastAuthorization() != "Bearer access-xyz" {
			t.Errorf("expected bearer token upstream, got %q", env.api.LastAuthorization())
		}
		if env.api.Hits() != 1 {
			t.Errorf("expected one upstream call, got %d", env.api.Hits())
		}
	})

	t.Run("playlists", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		rec, body := env.do(t, http.MethodGet, "/playlists", env.login(t))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body["user"] != "Ana" {
			t.Errorf("expected user Ana, got %v", body["user"])
		}
		playlists := body["playlists"].(map[string]any)
		if playlists["total"] != float64(1) {
			t.Errorf("expected upstream payload, got %v", playlists)
		}
		if env.api.LastPath() != services.EndpointPlaylists {
			t.Errorf("expected %s, got %s", services.EndpointPlaylists, env.api.LastPath())
		}
	})

	t.Run("top tracks", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		rec, body := env.do(t, http.MethodGet, "/top-tracks", env.login(t))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if _, ok := body["top_tracks"].(map[string]any); !ok {
			t.Errorf("expected top_tracks payload, got %v", body)
		}
		if env.api.LastPath() != services.EndpointTopTracks {
			t.Errorf("expected %s, got %s", services.EndpointTopTracks, env.api.LastPath())
		}
	})

	t.Run("upstream failure yields fixed envelope", func(t *testing.T) {
		env := newTestEnv(t, tu.JSONHandler(http.StatusInternalServerError, map[string]string{"error": "upstream secret detail"}))

		tt := []struct {
			path  string
			label string
		}{
			{"/profile", "Error al obtener perfil de Spotify"},
			{"/playlists", "Error al obtener playlists"},
			{"/top-tracks", "Error al obtener top tracks"},
		}

		cookie := env.login(t)
		for _, tc := range tt {
			t.Run(tc.path, func(t *testing.T) {
				rec, body := env.do(t, http.MethodGet, tc.path, cookie)

				if rec.Code != http.StatusInternalServerError {
					t.Errorf("expected 500, got %d", rec.Code)
				}
				if body["status"] != "error" || body["error"] != tc.label {
					t.Errorf("unexpected envelope %v", body)
				}
				if body["message"] != msgSpotifyUnavailable {
					t.Errorf("unexpected message %v", body["message"])
				}
				if strings.Contains(rec.Body.String(), "upstream secret detail") {
					t.Error("upstream body leaked")
				}
			})
		}
	})

	t.Run("relay rechecks authentication", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		h := NewSpotifyHandler(nil, shared.NewLogger(&bytes.Buffer{}))

		rec := httptest.NewRecorder()
		h.Profile(rec, httptest.NewRequest(http.MethodGet, "/profile", nil), models.Anonymous())

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if env.api.Hits() != 0 {
			t.Errorf("expected zero upstream calls, got %d", env.api.Hits())
		}
	})
}

func TestHomeAndLogout(t *testing.T) {
	env := newTestEnv(t, spotifyAPI)

	t.Run("home anonymous", func(t *testing.T) {
		rec, body := env.do(t, http.MethodGet, "/", nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body["authenticated"] != false || body["login_url"] != LoginPath {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("home authenticated", func(t *testing.T) {
		_, body := env.do(t, http.MethodGet, "/", env.login(t))

		if body["authenticated"] != true || body["spotify_id"] != "user1" || body["user"] != "Ana" {
			t.Errorf("unexpected body %v", body)
		}
		if _, ok := body["endpoints"].(map[string]any); !ok {
			t.Error("expected endpoints")
		}
	})

	t.Run("post logout is static guidance", func(t *testing.T) {
		cookie := env.login(t)
		rec, body := env.do(t, http.MethodPost, "/logout", cookie)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body["logout_url"] != "/logout" {
			t.Errorf("unexpected body %v", body)
		}
		if _, err := env.sessions.Get(cookie.Value); err != nil {
			t.Error("POST /logout must not invalidate the session")
		}
	})

	t.Run("get logout ends the session", func(t *testing.T) {
		cookie := env.login(t)
		rec, _ := env.do(t, http.MethodGet, "/logout", cookie)

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if _, err := env.sessions.Get(cookie.Value); err == nil {
			t.Error("expected session to be deleted")
		}
		cleared := rec.Result().Cookies()
		if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
			t.Errorf("expected cookie to be cleared, got %v", cleared)
		}
	})

	t.Run("unsupported method", func(t *testing.T) {
		rec, _ := env.do(t, http.MethodPut, "/profile", env.login(t))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestRedisEndpoints(t *testing.T) {
	t.Run("ping", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		rec, body := env.do(t, http.MethodGet, "/api/test/redis/ping", nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body["ping_result"] != "PONG" || body["host"] != env.redis.Host() {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("write read", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		rec, body := env.do(t, http.MethodPost, "/api/test/redis/test-write-read", nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if body["values_match"] != true {
			t.Errorf("expected values_match true, got %v", body["values_match"])
		}
		key, _ := body["key"].(string)
		if !strings.HasPrefix(key, "test:") {
			t.Errorf("expected key prefixed test:, got %q", key)
		}
		if !env.redis.Exists(key) {
			t.Error("expected key to remain until ttl")
		}
	})

	t.Run("write read wrong method", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		rec, _ := env.do(t, http.MethodGet, "/api/test/redis/test-write-read", nil)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("config", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		_, body := env.do(t, http.MethodGet, "/api/test/redis/config", nil)

		cfg := body["redis_config"].(map[string]any)
		if cfg["username"] != "not-set" {
			t.Errorf("expected username not-set, got %v", cfg["username"])
		}
		if cfg["password_configured"] != false {
			t.Errorf("expected password_configured false, got %v", cfg["password_configured"])
		}
		if _, ok := cfg["password"]; ok {
			t.Error("password must never be shown")
		}
	})

	t.Run("full test", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		rec, body := env.do(t, http.MethodPost, "/api/test/redis/full-test", nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if body["values_matched"] != true {
			t.Errorf("expected values_matched true, got %v", body["values_matched"])
		}
		tests := body["tests"].(map[string]any)
		if tests["delete"] != "OK (1 keys deleted)" {
			t.Errorf("unexpected delete step %v", tests["delete"])
		}
		key := body["test_key"].(string)
		if !strings.HasPrefix(key, "fulltest:") || env.redis.Exists(key) {
			t.Errorf("expected fulltest key to be deleted, key=%s", key)
		}
	})

	t.Run("store unreachable", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		env.redis.Close()

		rec, body := env.do(t, http.MethodGet, "/api/test/redis/ping", nil)
		if rec.Code != http.StatusInternalServerError || body["message"] != "No se pudo conectar a Redis" {
			t.Errorf("unexpected ping failure %d %v", rec.Code, body)
		}

		rec, body = env.do(t, http.MethodPost, "/api/test/redis/test-write-read", nil)
		if rec.Code != http.StatusInternalServerError || body["message"] != "Error en operación Redis" {
			t.Errorf("unexpected write-read failure %d %v", rec.Code, body)
		}

		rec, body = env.do(t, http.MethodPost, "/api/test/redis/full-test", nil)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if body["failed_at"] != "pinged" {
			t.Errorf("expected failure at pinged, got %v", body["failed_at"])
		}
		tests := body["tests"].(map[string]any)
		if tests["ping"] != "FAILED" || tests["write"] != "SKIPPED" || tests["delete"] != "SKIPPED" {
			t.Errorf("unexpected steps %v", tests)
		}
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, spotifyAPI)

	rec, body := env.do(t, http.MethodGet, "/actuator/health", nil)
	if rec.Code != http.StatusOK || body["health"] != "UP" {
		t.Errorf("expected UP, got %d %v", rec.Code, body)
	}

	env.redis.Close()
	rec, body = env.do(t, http.MethodGet, "/actuator/health", nil)
	if rec.Code != http.StatusServiceUnavailable || body["error"] != "DOWN" {
		t.Errorf("expected DOWN, got %d %v", rec.Code, body)
	}
}

func TestLoginFlow(t *testing.T) {
	t.Run("login callback and relay", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)

		rec, _ := env.do(t, http.MethodGet, LoginPath, nil)
		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}

		location, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("bad location: %v", err)
		}
		if location.Host != "accounts.spotify.com" {
			t.Errorf("expected spotify authorize url, got %s", location)
		}
		state := location.Query().Get("state")
		if state == "" {
			t.Fatal("expected state in redirect")
		}

		rec, _ = env.do(t, http.MethodGet, CallbackPath+"?code=abc&state="+url.QueryEscape(state), nil)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
			t.Fatalf("expected redirect to /, got %d %s: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
		}
		if env.token.Hits() != 1 {
			t.Errorf("expected one token exchange, got %d", env.token.Hits())
		}

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == env.config.Session.CookieName {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("expected session cookie")
		}
		if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode {
			t.Errorf("expected HttpOnly Lax cookie, got %+v", cookie)
		}

		rec, body := env.do(t, http.MethodGet, "/profile", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 after login, got %d", rec.Code)
		}
		if body["user_info"].(map[string]any)["session"].(map[string]any)["name"] != "Ana" {
			t.Errorf("unexpected body %v", body)
		}
		if env.api.LastAuthorization() != "Bearer access-xyz" {
			t.Errorf("expected exchanged token upstream, got %q", env.api.LastAuthorization())
		}
	})

	t.Run("callback rejects unknown state", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)

		rec, body := env.do(t, http.MethodGet, CallbackPath+"?code=abc&state=forged", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if body["status"] != "error" {
			t.Errorf("unexpected body %v", body)
		}
		if env.token.Hits() != 0 {
			t.Error("expected no token exchange")
		}
	})

	t.Run("callback without code", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)
		env.sessions.PutState("s1")

		rec, _ := env.do(t, http.MethodGet, CallbackPath+"?state=s1&error=access_denied", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("callback with failing identity lookup", func(t *testing.T) {
		env := newTestEnv(t, tu.JSONHandler(http.StatusInternalServerError, map[string]string{}))
		env.sessions.PutState("s1")

		rec, _ := env.do(t, http.MethodGet, CallbackPath+"?state=s1&code=abc", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if env.sessions.Len() != 0 {
			t.Error("no session should be created")
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("CORS preflight", func(t *testing.T) {
		env := newTestEnv(t, spotifyAPI)

		req := httptest.NewRequest(http.MethodOptions, "/profile", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("CORS restricted origins", func(t *testing.T) {
		h := CORS([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("unexpected CORS header for unknown origin")
		}

		req.Header.Set("Origin", "https://app.example")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
			t.Errorf("expected origin echoed, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("Recovery", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		router := NewBasicRouter(NewGate(DefaultAccessTable(), nil, "SID", logger))
		router.Use(Recovery(logger))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if body := decodeBody(t, rec.Body.Bytes()); body["status"] != "error" {
			t.Errorf("expected error envelope, got %v", body)
		}
		if !strings.Contains(buf.String(), "panic") {
			t.Error("expected panic to be logged")
		}
	})

	t.Run("RequestLogger", func(t *testing.T) {
		var buf bytes.Buffer
		h := RequestLogger(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tea", nil))

		if !strings.Contains(buf.String(), "status=418") || !strings.Contains(buf.String(), "path=/tea") {
			t.Errorf("unexpected log output %q", buf.String())
		}
	})

	t.Run("RequestLogger implicit 200", func(t *testing.T) {
		var buf bytes.Buffer
		h := RequestLogger(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

		if !strings.Contains(buf.String(), "status=200") {
			t.Errorf("unexpected log output %q", buf.String())
		}
	})

	t.Run("RequestLogger abandoned relay", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
		cookie := env.login(t)

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/profile", nil).WithContext(ctx)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()
		env.server.Handler().ServeHTTP(rec, req)

		if rec.Body.Len() != 0 {
			t.Errorf("expected no body for an abandoned request, got %q", rec.Body.String())
		}
		logs := env.logs.String()
		if !strings.Contains(logs, "status=499") || strings.Contains(logs, "status=200") {
			t.Errorf("unexpected log output %q", logs)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter(nil)
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestServe(t *testing.T) {
	env := newTestEnv(t, spotifyAPI)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/actuator/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
