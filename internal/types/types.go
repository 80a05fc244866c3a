package types

import (
	"context"

	"github.com/xhad/relay/internal/models"
)

// Core interfaces
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, agent models.Agent, query string, k int, threshold float32) ([]models.Retrieved, error)
}

type Splitter interface {
	Split(text string) []string
}

// Tool is one named callable an agent's reasoning step may invoke.
// Implementations form a closed set registered per profile at startup.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, input string) (string, error)
}
