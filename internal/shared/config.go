package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// It is populated once at startup and handed to collaborators by pointer.
type Config struct {
	Server      ServerConfig      `toml:"server" json:"server"`
	Credentials CredentialsConfig `toml:"credentials" json:"credentials"`
	Redis       RedisConfig       `toml:"redis" json:"redis"`
	Session     SessionConfig     `toml:"session" json:"session"`
	Log         LogConfig         `toml:"log" json:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `toml:"host" json:"host"`
	Port            int           `toml:"port" json:"port"`
	AllowedOrigins  []string      `toml:"allowed_origins" json:"allowed_origins"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify" json:"spotify"`
}

// SpotifyConfig contains Spotify OAuth client settings and API endpoints.
type SpotifyConfig struct {
	ClientID       string        `toml:"client_id" json:"client_id"`
	ClientSecret   string        `toml:"client_secret" json:"client_secret"`
	RedirectURI    string        `toml:"redirect_uri" json:"redirect_uri"`
	Scopes         []string      `toml:"scopes" json:"scopes"`
	APIBaseURL     string        `toml:"api_base_url" json:"api_base_url"`
	AuthURL        string        `toml:"auth_url" json:"auth_url"`
	TokenURL       string        `toml:"token_url" json:"token_url"`
	RequestTimeout time.Duration `toml:"request_timeout" json:"request_timeout"`
}

// RedisConfig contains cache connection settings.
type RedisConfig struct {
	Host           string        `toml:"host" json:"host"`
	Port           int           `toml:"port" json:"port"`
	Database       int           `toml:"database" json:"database"`
	Username       string        `toml:"username" json:"username"`
	Password       string        `toml:"password" json:"password"`
	ConnectTimeout time.Duration `toml:"connect_timeout" json:"connect_timeout"`
	CommandTimeout time.Duration `toml:"command_timeout" json:"command_timeout"`
	PoolSize       int           `toml:"pool_size" json:"pool_size"`
}

// Addr returns the host:port address of the Redis server.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SessionConfig contains session cookie settings.
type SessionConfig struct {
	CookieName string        `toml:"cookie_name" json:"cookie_name"`
	TTL        time.Duration `toml:"ttl" json:"ttl"`
	StateTTL   time.Duration `toml:"state_ttl" json:"state_ttl"`
	Secure     bool          `toml:"secure" json:"secure"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults, and secrets may be overridden from the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets from the environment.
//
// Each variable may also be supplied as a file path through its _FILE variant.
func (c *Config) ApplyEnv() {
	if v := getEnv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := getEnv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := getEnv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getEnv("SPOTIFIE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks every field the server needs before it starts.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	switch {
	case unset(sp.ClientID) || unset(sp.ClientSecret):
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	case sp.RedirectURI == "":
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrInvalidConfig)
	case sp.APIBaseURL == "" || sp.AuthURL == "" || sp.TokenURL == "":
		return fmt.Errorf("%w: spotify api_base_url, auth_url and token_url must be set", ErrInvalidConfig)
	case sp.RequestTimeout <= 0:
		return fmt.Errorf("%w: spotify request_timeout must be positive", ErrInvalidConfig)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("%w: redis host must be set", ErrInvalidConfig)
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("%w: redis port %d out of range", ErrInvalidConfig, c.Redis.Port)
	}
	if c.Redis.Database < 0 {
		return fmt.Errorf("%w: redis database must not be negative", ErrInvalidConfig)
	}
	if c.Redis.CommandTimeout <= 0 || c.Redis.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: redis timeouts must be positive", ErrInvalidConfig)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("%w: session cookie_name must be set", ErrInvalidConfig)
	}
	if c.Session.TTL <= 0 || c.Session.StateTTL <= 0 {
		return fmt.Errorf("%w: session ttl and state_ttl must be positive", ErrInvalidConfig)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}

	return nil
}

// Redacted returns a copy of the configuration with secrets masked, suitable for printing.
func (c *Config) Redacted() Config {
	out := *c
	out.Credentials.Spotify.ClientSecret = mask(c.Credentials.Spotify.ClientSecret)
	out.Redis.Password = mask(c.Redis.Password)
	return out
}

// placeholderPrefix marks the template values shipped in config.example.toml.
const placeholderPrefix = "your_"

func unset(s string) bool {
	return s == "" || strings.HasPrefix(s, placeholderPrefix)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func getEnv(key string) string {
	if path := os.Getenv(key + "_FILE"); path != "" {
		if content, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return os.Getenv(key)
}
