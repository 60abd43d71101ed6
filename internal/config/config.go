// Package config handles external configuration loading from JSON and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Debug    bool     `json:"debug"`
	LogLevel string   `json:"logLevel"`
	Server   Server   `json:"server"`
	Database Database `json:"database"`
	Business Business `json:"business"`
	JWT      JWT      `json:"jwt"`
	Resolver Resolver `json:"resolver"`
	Uploads  Uploads  `json:"uploads"`
}

// Server holds HTTP server configuration
type Server struct {
	Port         int    `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"readTimeout"`
	WriteTimeout int    `json:"writeTimeout"`
	// PublicBaseURL is the externally reachable origin, used when
	// encoding view links into QR images.
	PublicBaseURL string `json:"publicBaseUrl"`
}

// Database holds database configuration
type Database struct {
	Path string `json:"path"`
}

// Business holds branding and business information
type Business struct {
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	ContactEmail string `json:"contactEmail"`
}

// JWT holds JWT configuration
type JWT struct {
	Secret          string `json:"secret"`
	ExpirationHours int    `json:"expirationHours"`
}

// Resolver holds tuning for the resolution engine
type Resolver struct {
	// RetryAttempts bounds whole-resolution retries on constrained
	// networks when no design was found on the first pass.
	RetryAttempts int `json:"retryAttempts"`
	// RetryDelayMs is the fixed delay between those retries.
	RetryDelayMs int `json:"retryDelayMs"`
	// ProbeTimeoutMs bounds a single media readiness probe.
	ProbeTimeoutMs int `json:"probeTimeoutMs"`
	// CountdownSeconds is how long the redirect card counts down
	// before auto-navigating.
	CountdownSeconds int `json:"countdownSeconds"`
}

// Uploads holds creative file storage configuration
type Uploads struct {
	Dir        string `json:"dir"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	PublicPath string `json:"publicPath"`
}

// Load reads configuration from the specified JSON file and overrides with environment variables
func Load(configPath string) (*Config, error) {
	var cfg Config

	cleanPath := filepath.Clean(configPath)

	data, err := os.ReadFile(cleanPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, we continue with empty config and rely on Env Vars

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides overrides config values with environment variables if set
func (c *Config) applyEnvOverrides() {
	if debug := os.Getenv("DEBUG"); debug != "" {
		c.Debug = debug == "true" || debug == "1"
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		c.Server.PublicBaseURL = base
	}

	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}

	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		c.Uploads.Dir = dir
	}

	// JWT secret (critical for production)
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
}

// applyDefaults fills in values missing from both file and environment
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/adspotly.db"
	}
	if c.JWT.ExpirationHours == 0 {
		c.JWT.ExpirationHours = 24
	}
	if c.Resolver.RetryAttempts == 0 {
		c.Resolver.RetryAttempts = 3
	}
	if c.Resolver.RetryDelayMs == 0 {
		c.Resolver.RetryDelayMs = 700
	}
	if c.Resolver.ProbeTimeoutMs == 0 {
		c.Resolver.ProbeTimeoutMs = 4000
	}
	if c.Resolver.CountdownSeconds == 0 {
		c.Resolver.CountdownSeconds = 3
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "data/uploads"
	}
	if c.Uploads.MaxSizeMB == 0 {
		c.Uploads.MaxSizeMB = 25
	}
	if c.Uploads.PublicPath == "" {
		c.Uploads.PublicPath = "/uploads"
	}
}

// validate checks that all required configuration values are present
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Validate database path for security
	cleanDBPath := filepath.Clean(c.Database.Path)
	if !filepath.IsLocal(cleanDBPath) && !filepath.IsAbs(cleanDBPath) {
		return fmt.Errorf("invalid database path: potential path traversal detected")
	}

	if c.JWT.Secret == "" || c.JWT.Secret == "CHANGE_THIS_SECRET_IN_PRODUCTION" {
		if !c.Debug {
			return fmt.Errorf("JWT secret must be changed for production")
		}
	}

	return nil
}

// Address returns the full server address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabasePath returns the cleaned and validated database path
func (c *Config) GetDatabasePath() string {
	return filepath.Clean(c.Database.Path)
}
