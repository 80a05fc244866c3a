package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.MaxToolIterations < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tool_iterations",
			Message: "max_tool_iterations must be positive",
		})
	}

	if c.LLM.RequestTimeoutSec < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.request_timeout_sec",
			Message: "request_timeout_sec must be positive",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	// Validate Splitter config
	if c.Splitter.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "splitter.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Splitter.ChunkOverlap < 0 || c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "splitter.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	// Validate Retrieval config
	if c.Retrieval.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.score_threshold",
			Message: "score_threshold must be between 0 and 1",
		})
	}

	// Validate Sessions config
	if c.Sessions.MaxSessions < 1 {
		errors = append(errors, ValidationError{
			Field:   "sessions.max_sessions",
			Message: "max_sessions must be positive",
		})
	}

	if c.Sessions.TTLMinutes < 1 {
		errors = append(errors, ValidationError{
			Field:   "sessions.ttl_minutes",
			Message: "ttl_minutes must be positive",
		})
	}

	// Validate base URL format
	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	return errors
}
