package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL           string  `yaml:"base_url"`
		Model             string  `yaml:"model"`
		EmbedModel        string  `yaml:"embed_model"`
		MaxTokens         int     `yaml:"max_tokens"`
		Temperature       float64 `yaml:"temperature"`
		RequestTimeoutSec int     `yaml:"request_timeout_sec"`
		MaxToolIterations int     `yaml:"max_tool_iterations"`
		EmbedRateLimit    float64 `yaml:"embed_rate_limit"`
	} `yaml:"llm"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	Splitter struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"splitter"`

	Retrieval struct {
		TopK           int     `yaml:"top_k"`
		ScoreThreshold float32 `yaml:"score_threshold"`
	} `yaml:"retrieval"`

	Sessions struct {
		MaxSessions int `yaml:"max_sessions"`
		TTLMinutes  int `yaml:"ttl_minutes"`
	} `yaml:"sessions"`

	Weather struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"weather"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/relay/config.yaml"),
			"/etc/relay/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.RequestTimeoutSec == 0 {
		config.LLM.RequestTimeoutSec = 60
	}
	if config.LLM.MaxToolIterations == 0 {
		config.LLM.MaxToolIterations = 5
	}
	if config.LLM.EmbedRateLimit == 0 {
		config.LLM.EmbedRateLimit = 10
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "agent_chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Splitter.ChunkSize == 0 {
		config.Splitter.ChunkSize = 1000
	}
	if config.Splitter.ChunkOverlap == 0 {
		config.Splitter.ChunkOverlap = 200
	}

	if config.Retrieval.TopK == 0 {
		config.Retrieval.TopK = 5
	}
	if config.Retrieval.ScoreThreshold == 0 {
		config.Retrieval.ScoreThreshold = 0.7
	}

	if config.Sessions.MaxSessions == 0 {
		config.Sessions.MaxSessions = 1000
	}
	if config.Sessions.TTLMinutes == 0 {
		config.Sessions.TTLMinutes = 60
	}

	if config.Weather.BaseURL == "" {
		config.Weather.BaseURL = "http://api.weatherapi.com/v1"
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if key := os.Getenv("WEATHER_API_KEY"); key != "" {
		config.Weather.APIKey = key
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}
