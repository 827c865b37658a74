// Package config loads the service configuration file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lawnchairsociety/mysticalmap/internal/database"
	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MYSTIC_"

// Config is the top-level service configuration.
type Config struct {
	Generator mapgen.Config   `yaml:"generator"`
	Database  database.Config `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`

	// Scenes is the path of the scene table; a missing file uses the built-in table.
	Scenes string `yaml:"scenes" env:"SCENES"`
}

// ServerConfig holds preview service settings.
type ServerConfig struct {
	// Listen is the TCP address the HTTP server binds.
	Listen string `yaml:"listen" env:"LISTEN"`

	// ArchiveMaps stores every served map in the database.
	ArchiveMaps bool `yaml:"archive_maps" env:"ARCHIVE_MAPS"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited (not recommended).
	MaxPerIP int `yaml:"max_per_ip" env:"MAX_CONN_PER_IP"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total" env:"MAX_CONN_TOTAL"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" env:"WS_MAX_MESSAGE_SIZE"`
}

// DefaultConfig returns a Config with secure defaults.
func DefaultConfig() *Config {
	return &Config{
		Generator: mapgen.DefaultConfig(),
		Database:  database.DefaultConfig("data/maps.db"),
		Server: ServerConfig{
			Listen:          ":8080",
			ArchiveMaps:     true,
			ShutdownTimeout: 10 * time.Second,
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 100,
			},
		},
		Scenes: "data/scenes.yaml",
	}
}

// LoadConfig loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Use defaults if file doesn't exist
	default:
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// ApplyEnv overrides config fields from MYSTIC_* environment variables.
func ApplyEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate reports every inconsistency in the config.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Generator.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("generator: %w", err))
	}

	switch database.DialectType(strings.ToLower(c.Database.Driver)) {
	case database.DialectSQLite, "":
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("database: sqlite_path is empty"))
		}
	case database.DialectPostgres:
	default:
		errs = append(errs, fmt.Errorf("database: unsupported driver %q", c.Database.Driver))
	}

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server: listen address is empty"))
	}
	if c.Server.WebSocket.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("server: websocket max_message_size must be positive"))
	}
	if c.Server.Connections.MaxPerIP < 0 || c.Server.Connections.MaxTotal < 0 {
		errs = append(errs, errors.New("server: connection limits must not be negative"))
	}

	return errors.Join(errs...)
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	origin = strings.TrimSuffix(origin, "/")
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.TrimSuffix(allowed, "/") == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin's host matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, requestHost)
}
