package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"searcharr/internal/core/domain/models"
)

const (
	ServerRadarr = "radarr"
	ServerSonarr = "sonarr"
	ServerLidarr = "lidarr"

	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

// Defaults shared between flag declarations and viper.
const (
	DefaultMissingWeight     = 50
	DefaultCutoffUnmetWeight = 50
	DefaultCooldownHours     = 24.0
	DefaultPageSize          = 250
)

// Config is the run configuration, resolved exactly once at startup. The core
// only ever sees these values; nothing below main reads flags or environment.
type Config struct {
	ServerType        string
	Hostname          string // normalized, always carries a scheme
	APIBase           string // Hostname + "/api/v3" ("/api/v1" for lidarr)
	APIKey            string
	MissingWeight     int
	CutoffUnmetWeight int
	Cooldown          time.Duration
	PageSize          int
	StateBackend      string
	StatePath         string
}

// SetDefaults registers the default configuration values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("missing-weight", DefaultMissingWeight)
	v.SetDefault("cutoff-unmet-weight", DefaultCutoffUnmetWeight)
	v.SetDefault("cooldown-hours", DefaultCooldownHours)
	v.SetDefault("page-size", DefaultPageSize)
	v.SetDefault("state-backend", StateBackendFile)
}

// Load resolves configuration from v (flags over ARR_* environment over
// defaults, as bound by the command) and validates it before any I/O happens.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerType:        strings.ToLower(strings.TrimSpace(v.GetString("type"))),
		Hostname:          NormalizeHost(v.GetString("hostname")),
		APIKey:            strings.TrimSpace(v.GetString("api-key")),
		MissingWeight:     v.GetInt("missing-weight"),
		CutoffUnmetWeight: v.GetInt("cutoff-unmet-weight"),
		Cooldown:          time.Duration(v.GetFloat64("cooldown-hours") * float64(time.Hour)),
		PageSize:          v.GetInt("page-size"),
		StateBackend:      strings.ToLower(strings.TrimSpace(v.GetString("state-backend"))),
		StatePath:         strings.TrimSpace(v.GetString("state-file")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, models.E(models.KindConfig, err)
	}

	cfg.APIBase = cfg.Hostname + "/api/" + apiVersion(cfg.ServerType)
	if cfg.StatePath == "" {
		cfg.StatePath = defaultStatePath(cfg.StateBackend)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.ServerType {
	case ServerRadarr, ServerSonarr, ServerLidarr:
	default:
		return fmt.Errorf("type must be 'radarr', 'sonarr', or 'lidarr', got %q", c.ServerType)
	}
	if c.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.MissingWeight < 0 || c.CutoffUnmetWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if c.MissingWeight == 0 && c.CutoffUnmetWeight == 0 {
		return fmt.Errorf("at least one pool weight must be greater than zero")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must be non-negative")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1")
	}
	switch c.StateBackend {
	case StateBackendFile, StateBackendSQLite:
	default:
		return fmt.Errorf("state backend must be 'file' or 'sqlite', got %q", c.StateBackend)
	}
	return nil
}

// ScopeKey namespaces a content key under this server's identity so identical
// content keys on different servers never collide in persisted state.
func (c *Config) ScopeKey(contentKey string) string {
	return fmt.Sprintf("%s:%s:%s", c.ServerType, c.Hostname, contentKey)
}

// NormalizeHost trims surrounding whitespace and trailing slashes and defaults
// to http when no scheme is given.
func NormalizeHost(hostname string) string {
	host := strings.TrimRight(strings.TrimSpace(hostname), "/")
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

func apiVersion(serverType string) string {
	if serverType == ServerLidarr {
		return "v1"
	}
	return "v3"
}

// defaultStatePath follows the XDG state directory convention.
func defaultStatePath(backend string) string {
	name := "state.json"
	if backend == StateBackendSQLite {
		name = "state.db"
	}

	root := os.Getenv("XDG_STATE_HOME")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		root = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(root, "searcharr", name)
}
