package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xhad/relay/internal/models"
	"github.com/xhad/relay/pkg/agent"
	"github.com/xhad/relay/pkg/router"
	"github.com/xhad/relay/pkg/session"
)

// Orchestrator ties the router, the agent set, and session state into the
// single entry point for one conversational turn.
type Orchestrator struct {
	router   *router.Router
	agents   map[models.Agent]*agent.Agent
	sessions *session.Manager
	logger   *zap.Logger
}

type TurnRequest struct {
	Query          string
	SessionID      string
	AgentOverride  string
	IncludeSources bool
}

// New requires every known identity to have an agent; the set is built
// eagerly at startup so dispatch never races on instantiation.
func New(r *router.Router, agents map[models.Agent]*agent.Agent, sessions *session.Manager, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, id := range models.AllAgents() {
		if _, ok := agents[id]; !ok {
			return nil, fmt.Errorf("missing agent for identity %s", id)
		}
	}

	return &Orchestrator{
		router:   r,
		agents:   agents,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// HandleTurn processes one query end to end. Turns for the same session
// are serialized; on failure the session's history and turn count stay
// untouched.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (models.ChatTurnResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return models.ChatTurnResult{}, fmt.Errorf("query must not be empty")
	}

	start := time.Now()

	sess := o.sessions.GetOrCreate(req.SessionID)
	sess.LockTurn()
	defer sess.UnlockTurn()

	var selected models.Agent
	var routingMs float64

	if req.AgentOverride != "" {
		if override, ok := models.ParseAgent(req.AgentOverride); ok {
			selected = override
			o.logger.Info("using override agent", zap.String("agent", string(selected)))
		} else {
			o.logger.Warn("ignoring unknown agent override", zap.String("agent", req.AgentOverride))
		}
	}
	if selected == "" {
		routingStart := time.Now()
		selected = o.router.Route(ctx, req.Query)
		routingMs = float64(time.Since(routingStart).Microseconds()) / 1000
	}

	sess.RecordAgent(selected)

	agentStart := time.Now()
	result, err := o.agents[selected].Answer(ctx, req.Query, sess, req.IncludeSources)
	if err != nil {
		o.logger.Error("turn failed",
			zap.String("session", sess.ID()),
			zap.String("agent", string(selected)),
			zap.Error(err))
		return models.ChatTurnResult{}, fmt.Errorf("failed to process message: %w", err)
	}
	agentMs := float64(time.Since(agentStart).Microseconds()) / 1000

	sess.CompleteTurn()

	totalMs := float64(time.Since(start).Microseconds()) / 1000
	o.logger.Info("turn completed",
		zap.String("session", sess.ID()),
		zap.String("agent", string(selected)),
		zap.Float64("total_ms", totalMs))

	return models.ChatTurnResult{
		Response:  result.Response,
		SessionID: sess.ID(),
		AgentUsed: selected,
		Sources:   result.Sources,
		Metrics: models.TurnMetrics{
			TotalMs:      totalMs,
			RoutingMs:    routingMs,
			AgentMs:      agentMs,
			SourcesCount: len(result.Sources),
		},
		Timestamp: time.Now(),
	}, nil
}

// ClearSession drops one session. Reports whether it existed.
func (o *Orchestrator) ClearSession(id string) bool {
	return o.sessions.Clear(id)
}

func (o *Orchestrator) ListSessions() []models.SessionInfo {
	return o.sessions.List()
}

// AgentInfo describes one specialist for catalog listings.
type AgentInfo struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
}

func (o *Orchestrator) ListAgents() []AgentInfo {
	infos := make([]AgentInfo, 0, len(o.agents))
	for _, id := range models.AllAgents() {
		profile := o.agents[id].Profile()
		infos = append(infos, AgentInfo{
			Name:        string(profile.ID),
			DisplayName: profile.DisplayName,
			Description: profile.Description,
			Tools:       append([]string(nil), profile.ToolNames...),
		})
	}
	return infos
}

// Analyze exposes the router's complexity heuristic.
func (o *Orchestrator) Analyze(query string) models.ComplexityReport {
	return o.router.Analyze(query)
}
