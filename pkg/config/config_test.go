package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("GRAPHRAG_API_KEY", "")
	t.Setenv("GRAPHRAG_PROJECT_DIR", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "cli", cfg.Engine.Kind)
	assert.Equal(t, "graphrag", cfg.Engine.Binary)
	assert.Equal(t, 2, cfg.Engine.CommunityLevel)
	assert.Equal(t, "Multiple Paragraphs", cfg.Engine.ResponseType)
	assert.Equal(t, 120, cfg.Engine.TimeoutSeconds)
	assert.Equal(t, "memory", cfg.Transcript.Backend)
	assert.Equal(t, 1000, cfg.Render.MaxContextChars)
	assert.False(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("GRAPHRAG_API_KEY", "sk-test")
	t.Setenv("GRAPHRAG_PROJECT_DIR", "/data/kb")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Engine.APIKey)
	assert.Equal(t, "/data/kb", cfg.Engine.ProjectDir)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Transcript.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Transcript.RedisURL)
}

func TestEngineProjectPaths(t *testing.T) {
	e := EngineConfig{ProjectDir: "/data/kb"}
	assert.Equal(t, "/data/kb/output", e.OutputDir())
	assert.Equal(t, "/data/kb/settings.yaml", e.SettingsFile())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:     ServerConfig{Host: "localhost", Port: 8080},
			Engine:     EngineConfig{Kind: "cli", ProjectDir: "/data/kb"},
			Transcript: TranscriptConfig{Backend: "memory"},
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.Server.Port = 0
	assert.Error(t, c.Validate())

	c = base()
	c.Engine.Kind = "grpc"
	assert.Error(t, c.Validate())

	c = base()
	c.Engine.Kind = "http"
	assert.Error(t, c.Validate(), "http engine without base URL")
	c.Engine.BaseURL = "http://localhost:8001"
	assert.NoError(t, c.Validate())

	c = base()
	c.Transcript.Backend = "redis"
	assert.Error(t, c.Validate(), "redis backend without URL")
	c.Transcript.RedisURL = "redis://localhost:6379"
	assert.NoError(t, c.Validate())
}
