package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/xhad/relay/internal/models"
	"github.com/xhad/relay/internal/types"
	"github.com/xhad/relay/pkg/session"
	"github.com/xhad/relay/pkg/tools"
)

const (
	contextPrefixLen  = 500
	sourcePreviewLen  = 200
	defaultIterations = 5
)

// ExecutionError marks an irrecoverable failure of the reasoning step.
// Unlike routing failures, it surfaces to the caller.
type ExecutionError struct {
	Agent models.Agent
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("agent %s execution failed: %v", e.Agent, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

type AgentConfig struct {
	Temperature    float64
	MaxTokens      int
	MaxIterations  int
	RequestTimeout time.Duration
	TopK           int
	ScoreThreshold float32
}

// Agent answers queries for one domain. One instance serves all sessions;
// it holds no per-session data.
type Agent struct {
	profile  Profile
	config   AgentConfig
	model    llms.Model
	searcher types.Searcher
	tools    []types.Tool
	byName   map[string]types.Tool
	logger   *zap.Logger
}

// Result is one answered query with its supporting evidence.
type Result struct {
	Response string
	Sources  []models.Source
	Agent    models.Agent
}

func New(profile Profile, config AgentConfig, model llms.Model, searcher types.Searcher, registry *tools.Registry, logger *zap.Logger) (*Agent, error) {
	if config.MaxIterations == 0 {
		config.MaxIterations = defaultIterations
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 60 * time.Second
	}
	if config.TopK == 0 {
		config.TopK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	selected, err := registry.Select(profile.ToolNames)
	if err != nil {
		return nil, fmt.Errorf("failed to build agent %s: %w", profile.ID, err)
	}

	byName := make(map[string]types.Tool, len(selected))
	for _, tool := range selected {
		byName[tool.Name()] = tool
	}

	return &Agent{
		profile:  profile,
		config:   config,
		model:    model,
		searcher: searcher,
		tools:    selected,
		byName:   byName,
		logger:   logger.With(zap.String("agent", string(profile.ID))),
	}, nil
}

func (a *Agent) Profile() Profile { return a.profile }

// Answer resolves one query: retrieves supporting evidence when asked,
// runs the bounded tool-call loop, and appends the completed exchange to
// the session only after success. sess may be nil for one-shot use.
func (a *Agent) Answer(ctx context.Context, query string, sess *session.Session, includeSources bool) (Result, error) {
	sources, contextBlock := a.retrieve(ctx, query, includeSources)

	enhanced := query
	if contextBlock != "" {
		enhanced = query + "\n" + contextBlock
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, a.profile.SystemPrompt),
	}
	if sess != nil {
		for _, msg := range sess.History() {
			role := llms.ChatMessageTypeHuman
			if msg.Role == models.RoleAssistant {
				role = llms.ChatMessageTypeAI
			}
			messages = append(messages, llms.TextParts(role, msg.Content))
		}
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, enhanced))

	response, err := a.reason(ctx, messages)
	if err != nil {
		return Result{}, &ExecutionError{Agent: a.profile.ID, Err: err}
	}

	if sess != nil {
		sess.AppendExchange(query, response)
	}

	result := Result{
		Response: response,
		Agent:    a.profile.ID,
	}
	if includeSources {
		result.Sources = sources
	}
	return result, nil
}

// retrieve searches the agent's document index and builds the context
// block. Retrieval failures degrade to an answer without evidence.
func (a *Agent) retrieve(ctx context.Context, query string, includeSources bool) ([]models.Source, string) {
	if !includeSources || a.searcher == nil {
		return nil, ""
	}

	results, err := a.searcher.Search(ctx, a.profile.ID, query, a.config.TopK, a.config.ScoreThreshold)
	if err != nil {
		a.logger.Warn("retrieval failed", zap.Error(err))
		return nil, ""
	}
	if len(results) == 0 {
		return nil, ""
	}

	var b strings.Builder
	b.WriteString("\nRelevant information from knowledge base:\n")

	sources := make([]models.Source, 0, len(results))
	for _, r := range results {
		b.WriteString("\n- " + preview(r.Chunk.Text, contextPrefixLen))
		sources = append(sources, models.Source{
			Content:  preview(r.Chunk.Text, sourcePreviewLen),
			Metadata: r.Chunk.Metadata(),
			Score:    r.Score,
		})
	}
	return sources, b.String()
}

// reason runs the model with the agent's tool set, feeding tool results
// back until the model produces a final answer or the iteration bound is
// hit. Exhausting the bound yields the best partial answer, not an error.
func (a *Agent) reason(ctx context.Context, messages []llms.MessageContent) (string, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(a.config.Temperature),
	}
	if a.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(a.config.MaxTokens))
	}
	if len(a.tools) > 0 {
		opts = append(opts, llms.WithTools(tools.Specs(a.tools)))
	}

	var lastContent string
	for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
		callCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
		resp, err := a.model.GenerateContent(callCtx, messages, opts...)
		cancel()
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("model returned no choices")
		}

		choice := resp.Choices[0]
		if choice.Content != "" {
			lastContent = choice.Content
		}

		if len(choice.ToolCalls) == 0 {
			if choice.Content == "" {
				return "", fmt.Errorf("model returned an empty response")
			}
			return choice.Content, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, call := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, call)
		}
		messages = append(messages, assistant)

		for _, call := range choice.ToolCalls {
			output := a.runTool(ctx, call)
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: call.ID,
					Name:       call.FunctionCall.Name,
					Content:    output,
				}},
			})
		}
	}

	if lastContent == "" {
		lastContent = "I was unable to finish the requested tool calls within the allowed number of steps."
	}
	a.logger.Warn("tool loop exhausted", zap.Int("iterations", a.config.MaxIterations))
	return lastContent, nil
}

// runTool executes one requested tool call. Failures come back as error
// strings fed into the loop; a bad tool call never aborts the turn.
func (a *Agent) runTool(ctx context.Context, call llms.ToolCall) string {
	if call.FunctionCall == nil {
		return "tool error: malformed tool call"
	}

	tool, ok := a.byName[call.FunctionCall.Name]
	if !ok {
		return fmt.Sprintf("tool error: unknown tool %q", call.FunctionCall.Name)
	}

	input := call.FunctionCall.Arguments
	var args struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err == nil && args.Input != "" {
		input = args.Input
	}

	output, err := tool.Invoke(ctx, input)
	if err != nil {
		a.logger.Warn("tool invocation failed",
			zap.String("tool", tool.Name()),
			zap.Error(err))
		return fmt.Sprintf("tool error: %v", err)
	}
	return output
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
