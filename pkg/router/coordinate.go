package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/xhad/relay/internal/models"
)

const coordinatorSystemPrompt = "You are a response coordinator that synthesizes multiple expert opinions into coherent answers."

// Coordinate merges secondary agent responses into the primary one via a
// composition prompt. Synthesis is strictly additive: any failure returns
// the primary response unmodified.
func (r *Router) Coordinate(ctx context.Context, query, primary string, secondary map[models.Agent]string) string {
	if len(secondary) == 0 {
		return primary
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are coordinating responses from multiple specialized agents for this query: %s\n\n", query)
	fmt.Fprintf(&b, "Primary response (main answer):\n%s\n\n", primary)
	b.WriteString("Additional context from other agents:\n")
	for agent, response := range secondary {
		fmt.Fprintf(&b, "\n%s: %s\n", agent, response)
	}
	b.WriteString(`
Please synthesize these responses into a comprehensive, coherent answer that:
1. Prioritizes the primary response
2. Incorporates relevant additional context
3. Maintains consistency and accuracy
4. Provides a natural, unified response

Synthesized response:`)

	callCtx, cancel := context.WithTimeout(ctx, r.config.RequestTimeout)
	defer cancel()

	resp, err := r.model.GenerateContent(callCtx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, coordinatorSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, b.String()),
	})
	if err != nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		r.logger.Warn("response coordination failed, keeping primary", zap.Error(err))
		return primary
	}

	return resp.Choices[0].Content
}
