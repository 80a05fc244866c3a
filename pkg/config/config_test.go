package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "llama3"
  embed_model: "nomic-embed-text:latest"
  max_tokens: 1000
  temperature: 0.5

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_chunks"
  vector_dim: 768
  batch_size: 50

splitter:
  chunk_size: 500
  chunk_overlap: 100

retrieval:
  top_k: 3
  score_threshold: 0.6

sessions:
  max_sessions: 10
  ttl_minutes: 30

server:
  port: "9090"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, 500, config.Splitter.ChunkSize)
	assert.Equal(t, 3, config.Retrieval.TopK)
	assert.Equal(t, float32(0.6), config.Retrieval.ScoreThreshold)
	assert.Equal(t, 10, config.Sessions.MaxSessions)
	assert.Equal(t, "9090", config.Server.Port)

	// Unset values fall back to defaults
	assert.Equal(t, 5, config.LLM.MaxToolIterations)
	assert.Equal(t, 60, config.LLM.RequestTimeoutSec)
}

func TestConfigDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	assert.Equal(t, "mistral", config.LLM.Model)
	assert.Equal(t, "nomic-embed-text:latest", config.LLM.EmbedModel)
	assert.Equal(t, "agent_chunks", config.Database.TableName)
	assert.Equal(t, 768, config.Database.VectorDim)
	assert.Equal(t, 1000, config.Splitter.ChunkSize)
	assert.Equal(t, 200, config.Splitter.ChunkOverlap)
	assert.Equal(t, 5, config.Retrieval.TopK)
	assert.Equal(t, float32(0.7), config.Retrieval.ScoreThreshold)
	assert.Equal(t, "8080", config.Server.Port)
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		config := &Config{}
		applyDefaults(config)
		return config
	}

	t.Run("valid config", func(t *testing.T) {
		errors := valid().Validate()
		assert.Empty(t, errors)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		message string
	}{
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.LLM.BaseURL = "" },
			field:   "llm.base_url",
			message: "Ollama base URL is required",
		},
		{
			name:    "max_tokens out of range",
			mutate:  func(c *Config) { c.LLM.MaxTokens = 5000 },
			field:   "llm.max_tokens",
			message: "max_tokens must be between 1 and 4096",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.LLM.Temperature = 3.0 },
			field:   "llm.temperature",
			message: "temperature must be between 0 and 2",
		},
		{
			name:    "negative vector dim",
			mutate:  func(c *Config) { c.Database.VectorDim = -1 },
			field:   "database.vector_dim",
			message: "vector_dim must be positive",
		},
		{
			name:    "overlap exceeds chunk size",
			mutate:  func(c *Config) { c.Splitter.ChunkOverlap = 1000 },
			field:   "splitter.chunk_overlap",
			message: "chunk_overlap must be non-negative and less than chunk_size",
		},
		{
			name:    "score threshold out of range",
			mutate:  func(c *Config) { c.Retrieval.ScoreThreshold = 1.5 },
			field:   "retrieval.score_threshold",
			message: "score_threshold must be between 0 and 1",
		},
		{
			name:    "zero max sessions",
			mutate:  func(c *Config) { c.Sessions.MaxSessions = -1 },
			field:   "sessions.max_sessions",
			message: "max_sessions must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			errors := config.Validate()
			require.Len(t, errors, 1)
			assert.Equal(t, tt.field, errors[0].Field)
			assert.Contains(t, errors[0].Error(), tt.message)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	// Set environment variables
	os.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	os.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	os.Setenv("WEATHER_API_KEY", "env-key")
	defer func() {
		os.Unsetenv("OLLAMA_BASE_URL")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("WEATHER_API_KEY")
	}()

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "env-key", config.Weather.APIKey)
}
