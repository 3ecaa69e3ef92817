// Package config loads and validates the engine configuration.
//
// DESIGN: All configuration MUST come from YAML files. No defaults.
// This ensures explicit, auditable configuration for deployments; the
// binary embeds a complete default file for first runs.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/compresr/truncation-engine/internal/monitoring"
)

// Config is the root configuration for the truncation engine.
type Config struct {
	Server     ServerConfig            `yaml:"server"`     // HTTP server settings
	Engine     EngineConfig            `yaml:"engine"`     // Truncation defaults
	Upstream   UpstreamConfig          `yaml:"upstream"`   // External analyzer
	Store      StoreConfig             `yaml:"store"`      // Analysis cache
	Simulation SimulationConfig        `yaml:"simulation"` // Animation timing
	Logging    monitoring.LoggerConfig `yaml:"logging"`    // Logger settings
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // Port to listen on
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Max time to read request
	WriteTimeout time.Duration `yaml:"write_timeout"` // Max time to write response
}

// EngineConfig contains default truncation parameters. Per-request
// values override them.
type EngineConfig struct {
	MaxLength  int `yaml:"max_length"`
	WindowSize int `yaml:"window_size"`
	MaxChunks  int `yaml:"max_chunks"`
}

// UpstreamConfig points at the external text-analysis service. When
// disabled (or unreachable) the engine computes everything locally.
type UpstreamConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StoreConfig contains analysis cache settings.
type StoreConfig struct {
	Type string        `yaml:"type"` // "memory" or "sqlite"
	Path string        `yaml:"path"` // sqlite file path (sqlite only)
	TTL  time.Duration `yaml:"ttl"`  // Time-to-live for entries
}

// SimulationConfig contains animation timing settings.
type SimulationConfig struct {
	SpeedMs     int           `yaml:"speed_ms"`     // Tick interval
	SettleDelay time.Duration `yaml:"settle_delay"` // Final-frame hold before idle
}

// expandEnvWithDefaults expands environment variables with support for
// default values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file.
// Returns an error if the file doesn't exist or is invalid.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
// Supports ${VAR:-default} env var expansion, env overrides, and validation.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides so external
// systems can redirect logs without modifying config files.
func (c *Config) applyEnvOverrides() {
	if envPath := os.Getenv("ENGINE_LOG_PATH"); envPath != "" {
		c.Logging.Output = envPath
	}
	if endpoint := os.Getenv("ANALYZER_ENDPOINT"); endpoint != "" {
		c.Upstream.Endpoint = endpoint
		c.Upstream.Enabled = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		return fmt.Errorf("server.read_timeout is required")
	}
	if c.Server.WriteTimeout == 0 {
		return fmt.Errorf("server.write_timeout is required")
	}

	// Engine validation
	if c.Engine.MaxLength < 1 {
		return fmt.Errorf("engine.max_length must be at least 1")
	}
	if c.Engine.WindowSize < 1 {
		return fmt.Errorf("engine.window_size must be at least 1")
	}
	if c.Engine.MaxChunks < 1 {
		return fmt.Errorf("engine.max_chunks must be at least 1")
	}

	// Upstream validation
	if c.Upstream.Enabled {
		if c.Upstream.Endpoint == "" {
			return fmt.Errorf("upstream.endpoint is required when upstream is enabled")
		}
		if c.Upstream.Timeout <= 0 {
			return fmt.Errorf("upstream.timeout must be positive")
		}
	}

	// Store validation
	switch c.Store.Type {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite store")
		}
	default:
		return fmt.Errorf("store.type must be \"memory\" or \"sqlite\"")
	}
	if c.Store.TTL == 0 {
		return fmt.Errorf("store.ttl is required")
	}

	// Simulation validation
	if c.Simulation.SpeedMs <= 0 {
		return fmt.Errorf("simulation.speed_ms must be positive")
	}
	if c.Simulation.SettleDelay <= 0 {
		return fmt.Errorf("simulation.settle_delay must be positive")
	}

	return nil
}
