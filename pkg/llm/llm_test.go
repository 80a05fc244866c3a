package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/relay/pkg/llm"
)

func TestNewChatModel(t *testing.T) {
	model, err := llm.NewChatModel(llm.ChatConfig{
		Model:       "testmodel",
		Temperature: 0.5,
		MaxTokens:   1000,
		BaseURL:     "http://localhost:1234",
	})
	require.NoError(t, err)
	assert.NotNil(t, model)
}

func TestNewChatModel_Defaults(t *testing.T) {
	model, err := llm.NewChatModel(llm.ChatConfig{})
	require.NoError(t, err)
	assert.NotNil(t, model)
}

func TestNewChatModel_Invalid(t *testing.T) {
	_, err := llm.NewChatModel(llm.ChatConfig{Temperature: 3.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature must be between 0 and 2")

	_, err = llm.NewChatModel(llm.ChatConfig{MaxTokens: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max tokens cannot be negative")
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   "nomic-embed-text:latest",
		BaseURL: "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}
