package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Engine configuration (external GraphRAG retrieval engine)
	Engine EngineConfig `mapstructure:"engine"`

	// Transcript configuration
	Transcript TranscriptConfig `mapstructure:"transcript"`

	// Render configuration
	Render RenderConfig `mapstructure:"render"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// TelemetryConfig holds telemetry output configuration
type TelemetryConfig struct {
	// ParquetPath enables parquet capture of warning and error logs
	// when non-empty.
	ParquetPath string `mapstructure:"parquet_path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Engine kinds.
const (
	EngineCLI  = "cli"
	EngineHTTP = "http"
)

// EngineConfig holds configuration for the external retrieval engine.
// The engine is opaque: graphchat only knows how to reach it (a local
// graphrag CLI project or a remote query service) and which defaults to
// pass per search.
type EngineConfig struct {
	Kind           string `mapstructure:"kind"`   // cli, http
	Binary         string `mapstructure:"binary"` // graphrag CLI binary name
	ProjectDir     string `mapstructure:"project_dir"`
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	CommunityLevel int    `mapstructure:"community_level"`
	ResponseType   string `mapstructure:"response_type"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// TranscriptConfig holds transcript store configuration
type TranscriptConfig struct {
	Backend    string `mapstructure:"backend"` // memory, redis
	RedisURL   string `mapstructure:"redis_url"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// RenderConfig holds response rendering configuration
type RenderConfig struct {
	// KeyTerms are bolded in rendered answers.
	KeyTerms []string `mapstructure:"key_terms"`
	// MaxContextChars truncates context blocks for display.
	MaxContextChars int `mapstructure:"max_context_chars"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// OutputDir returns the directory holding the engine's parquet artifacts.
func (e EngineConfig) OutputDir() string {
	return filepath.Join(e.ProjectDir, "output")
}

// SettingsFile returns the engine project's settings file path.
func (e EngineConfig) SettingsFile() string {
	return filepath.Join(e.ProjectDir, "settings.yaml")
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// Validate checks that the configuration is runnable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Engine.Kind {
	case EngineCLI:
		if c.Engine.ProjectDir == "" {
			return fmt.Errorf("engine.project_dir is required for the cli engine")
		}
	case EngineHTTP:
		if c.Engine.BaseURL == "" {
			return fmt.Errorf("engine.base_url is required for the http engine")
		}
	default:
		return fmt.Errorf("unsupported engine kind: %s", c.Engine.Kind)
	}
	switch c.Transcript.Backend {
	case "memory":
	case "redis":
		if c.Transcript.RedisURL == "" {
			return fmt.Errorf("transcript.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported transcript backend: %s", c.Transcript.Backend)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Engine defaults mirror the upstream GraphRAG query defaults.
	viper.SetDefault("engine.kind", "cli")
	viper.SetDefault("engine.binary", "graphrag")
	viper.SetDefault("engine.project_dir", "./graphrag_project")
	viper.SetDefault("engine.community_level", 2)
	viper.SetDefault("engine.response_type", "Multiple Paragraphs")
	viper.SetDefault("engine.timeout_seconds", 120)

	// Transcript defaults
	viper.SetDefault("transcript.backend", "memory")
	viper.SetDefault("transcript.ttl_seconds", 86400)

	// Render defaults
	viper.SetDefault("render.max_context_chars", 1000)
	viper.SetDefault("render.key_terms", []string{
		"Cost Rental", "Housing Agency", "Local Authority",
		"Dublin", "Ireland", "Government",
	})

	// Circuit breaker defaults (disabled unless opted in)
	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Telemetry defaults (disabled unless a path is set)
	viper.SetDefault("telemetry.parquet_path", "")
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("GRAPHRAG_API_KEY"); apiKey != "" {
		config.Engine.APIKey = apiKey
	}
	if dir := os.Getenv("GRAPHRAG_PROJECT_DIR"); dir != "" {
		config.Engine.ProjectDir = dir
	}
	if url := os.Getenv("GRAPHRAG_BASE_URL"); url != "" {
		config.Engine.BaseURL = url
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		config.Transcript.RedisURL = url
		if config.Transcript.Backend == "memory" {
			config.Transcript.Backend = "redis"
		}
	}
}
