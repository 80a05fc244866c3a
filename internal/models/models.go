package models

import (
	"strings"
	"time"
)

// Agent identifies one of the fixed domain specialists.
type Agent string

const (
	AgentGeneral    Agent = "general"
	AgentRealEstate Agent = "real_estate"
	AgentMedical    Agent = "medical"
	AgentAIML       Agent = "ai_ml"
	AgentSales      Agent = "sales"
	AgentEducation  Agent = "education"
)

// AllAgents returns the closed set of agent identities.
func AllAgents() []Agent {
	return []Agent{
		AgentGeneral,
		AgentRealEstate,
		AgentMedical,
		AgentAIML,
		AgentSales,
		AgentEducation,
	}
}

// ParseAgent validates a raw identity string against the known set.
// Input is case-insensitive and may carry surrounding whitespace.
func ParseAgent(s string) (Agent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range AllAgents() {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// Chunk is one bounded slice of a source document, immutable once created.
type Chunk struct {
	Text        string
	Source      string
	Filename    string
	FileType    string
	ChunkIndex  int
	TotalChunks int
}

// Metadata returns the chunk's provenance fields as a generic map,
// the shape stored alongside the embedding and echoed back in sources.
func (c Chunk) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"source":       c.Source,
		"filename":     c.Filename,
		"file_type":    c.FileType,
		"chunk_index":  c.ChunkIndex,
		"total_chunks": c.TotalChunks,
	}
}

// Retrieved pairs a chunk with its similarity score for one query.
type Retrieved struct {
	Chunk Chunk
	Score float32
}

// Source is the caller-facing evidence record attached to a response.
type Source struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float32                `json:"score"`
}

// RoutingDecision is the classifier's structured reply. Ephemeral,
// produced per query and never persisted.
type RoutingDecision struct {
	PrimaryAgent    string   `json:"primary_agent"`
	SecondaryAgents []string `json:"secondary_agents,omitempty"`
	Reasoning       string   `json:"reasoning"`
	Confidence      float64  `json:"confidence"`
}

// ComplexityReport flags queries that may benefit from multi-agent
// synthesis. Advisory only; routing never consumes it automatically.
type ComplexityReport struct {
	Score              float64 `json:"complexity_score"`
	MultiDomain        bool    `json:"multi_domain"`
	Comparison         bool    `json:"comparison"`
	TechnicalDepth     bool    `json:"technical_depth"`
	DomainsMentioned   []Agent `json:"domains_mentioned"`
	RequiresMultiAgent bool    `json:"requires_multi_agent"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn entry in a session's history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnMetrics carries per-turn timing and usage figures.
type TurnMetrics struct {
	TotalMs      float64 `json:"total_time_ms"`
	RoutingMs    float64 `json:"routing_time_ms"`
	AgentMs      float64 `json:"agent_time_ms"`
	SourcesCount int     `json:"sources_count"`
}

// ChatTurnResult is the orchestrator's answer for one handled turn.
type ChatTurnResult struct {
	Response  string      `json:"response"`
	SessionID string      `json:"session_id"`
	AgentUsed Agent       `json:"agent_used"`
	Sources   []Source    `json:"sources,omitempty"`
	Metrics   TurnMetrics `json:"metrics"`
	Timestamp time.Time   `json:"timestamp"`
}

// SessionInfo is the listing view of one live session.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	AgentsUsed   []string  `json:"agents_used"`
}
