package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Covers      CoversConfig      `toml:"covers"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Qobuz QobuzConfig `toml:"qobuz"`
}

// QobuzConfig contains the Qobuz application id and account credentials.
//
// Password may be stored in plain text or as its md5 hex digest.
type QobuzConfig struct {
	AppID         string `toml:"app_id"`
	Email         string `toml:"email"`
	Password      string `toml:"password"`
	UserAuthToken string `toml:"user_auth_token"`
}

// APIConfig contains transport settings for the catalog API.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	PageSize       int     `toml:"page_size"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Timeout returns the HTTP client timeout, defaulting to 30 seconds.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CoversConfig controls album cover downloads.
type CoversConfig struct {
	Dir     string `toml:"dir"`
	Size    string `toml:"size"`
	Workers int    `toml:"workers"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

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

// Validate reports whether the configuration carries enough to reach the catalog.
func (c *Config) Validate() error {
	q := c.Credentials.Qobuz
	if q.AppID == "" {
		return fmt.Errorf("%w: credentials.qobuz.app_id is required", ErrMissingConfig)
	}
	if q.UserAuthToken == "" && (q.Email == "" || q.Password == "") {
		return fmt.Errorf("%w: set credentials.qobuz.user_auth_token or email and password", ErrMissingConfig)
	}
	if c.API.PageSize < 0 {
		return fmt.Errorf("%w: api.page_size must not be negative", ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	switch c.Covers.Size {
	case "", "small", "thumbnail", "large":
	default:
		return fmt.Errorf("%w: covers.size %q", ErrInvalidConfig, c.Covers.Size)
	}
	return nil
}

// SaveConfig writes config to path, replacing the existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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
