package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIFY_REDIRECT_URI"

	// MaxBatchSize is the most items the playlist endpoints accept per call.
	MaxBatchSize = 100
	// MaxPageSize is the most saved tracks returned per page.
	MaxPageSize = 50
)

// Authorization modes.
const (
	AuthModePaste    = "paste"
	AuthModeCallback = "callback"
)

// Config represents the application configuration.
//
// It is built once at process entry from the embedded defaults, an optional TOML file and the environment,
// then passed by pointer to every component.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Auth        AuthConfig        `toml:"auth"`
	Server      ServerConfig      `toml:"server"`
	Shuffle     ShuffleConfig     `toml:"shuffle"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// AuthConfig controls how tokens are obtained and cached.
type AuthConfig struct {
	TokenPath   string   `toml:"token_path"`
	Mode        string   `toml:"mode"`
	OpenBrowser bool     `toml:"open_browser"`
	Scopes      []string `toml:"scopes"`
}

// ServerConfig contains the OAuth callback server address.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ShuffleConfig contains settings for fetching and rewriting the target playlist.
type ShuffleConfig struct {
	PlaylistID string  `toml:"playlist_id"`
	BatchSize  int     `toml:"batch_size"`
	PageSize   int     `toml:"page_size"`
	RateLimit  float64 `toml:"rate_limit"`
	Market     string  `toml:"market"`
	Strict     bool    `toml:"strict"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port the callback server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads a TOML configuration file from the specified path and overlays it on [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays credentials from the environment using lookup (usually [os.LookupEnv]).
//
// Non-empty environment values win over values from the config file.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvClientID); ok && v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v, ok := lookup(EnvClientSecret); ok && v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v, ok := lookup(EnvRedirectURI); ok && v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
}

// Validate checks that the configuration is usable before any network call is made.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.Spotify.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: environment variable %s not set", ErrMissingCredentials, strings.Join(missing, " and "))
	}

	if c.Credentials.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: redirect_uri is empty", ErrInvalidConfig)
	}
	if c.Auth.TokenPath == "" {
		return fmt.Errorf("%w: auth.token_path is empty", ErrInvalidConfig)
	}
	switch c.Auth.Mode {
	case AuthModePaste, AuthModeCallback:
	default:
		return fmt.Errorf("%w: unknown auth.mode %q", ErrInvalidConfig, c.Auth.Mode)
	}
	if c.Shuffle.BatchSize < 1 || c.Shuffle.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: shuffle.batch_size must be between 1 and %d", ErrInvalidConfig, MaxBatchSize)
	}
	if c.Shuffle.PageSize < 1 || c.Shuffle.PageSize > MaxPageSize {
		return fmt.Errorf("%w: shuffle.page_size must be between 1 and %d", ErrInvalidConfig, MaxPageSize)
	}

	return nil
}
