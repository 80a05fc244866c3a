package router_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/xhad/relay/internal/models"
	"github.com/xhad/relay/pkg/router"
)

// fakeModel scripts the classifier's replies.
type fakeModel struct {
	generate func(messages []llms.MessageContent) (*llms.ContentResponse, error)
	calls    int
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	return f.generate(messages)
}

func (f *fakeModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func reply(content string) func([]llms.MessageContent) (*llms.ContentResponse, error) {
	return func([]llms.MessageContent) (*llms.ContentResponse, error) {
		return &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: content}},
		}, nil
	}
}

func TestRoute_FastPath(t *testing.T) {
	tests := []struct {
		query string
		want  models.Agent
	}{
		{"What's the weather in Dhaka?", models.AgentGeneral},
		{"Can you calculate 15% of 200?", models.AgentGeneral},
		{"I have chest pain and a fever", models.AgentMedical},
		{"How do neural networks work?", models.AgentAIML},
		{"Find me an apartment to rent", models.AgentRealEstate},
		{"Show my sales pipeline for Q3", models.AgentSales},
		{"Help me study for my exam", models.AgentEducation},
		// Set priority: general keywords win over later domains.
		{"weather for my property viewing", models.AgentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			model := &fakeModel{generate: reply("should not be called")}
			r := router.New(router.RouterConfig{}, model, nil)

			got := r.Route(context.Background(), tt.query)

			assert.Equal(t, tt.want, got)
			assert.Zero(t, model.calls, "fast path must not hit the classifier")
		})
	}
}

func TestRoute_Classifier(t *testing.T) {
	// No fast-path keyword, so the classifier decides.
	query := "Recommend a good restaurant nearby"

	model := &fakeModel{generate: reply(
		`Here is my analysis: {"primary_agent": "general", "confidence": 0.9, "reasoning": "everyday question"}`)}
	r := router.New(router.RouterConfig{}, model, nil)

	got := r.Route(context.Background(), query)

	assert.Equal(t, models.AgentGeneral, got)
	assert.Equal(t, 1, model.calls)
}

func TestRoute_ClassifierFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		generate func([]llms.MessageContent) (*llms.ContentResponse, error)
	}{
		{
			name: "call error",
			generate: func([]llms.MessageContent) (*llms.ContentResponse, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "no choices",
			generate: func([]llms.MessageContent) (*llms.ContentResponse, error) {
				return &llms.ContentResponse{}, nil
			},
		},
		{
			name:     "no JSON in reply",
			generate: reply("I think the general agent should handle this."),
		},
		{
			name:     "malformed JSON",
			generate: reply(`{"primary_agent": general`),
		},
		{
			name:     "missing primary agent",
			generate: reply(`{"confidence": 0.8}`),
		},
		{
			name:     "unknown agent name",
			generate: reply(`{"primary_agent": "astrology", "confidence": 0.8}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{generate: tt.generate}
			r := router.New(router.RouterConfig{}, model, nil)

			got := r.Route(context.Background(), "Recommend a good restaurant nearby")

			assert.Equal(t, models.AgentGeneral, got)
		})
	}
}

func TestAnalyze(t *testing.T) {
	r := router.New(router.RouterConfig{}, &fakeModel{generate: reply("")}, nil)

	t.Run("simple query", func(t *testing.T) {
		report := r.Analyze("hello there")

		assert.Empty(t, report.DomainsMentioned)
		assert.False(t, report.MultiDomain)
		assert.Zero(t, report.Score)
		assert.False(t, report.RequiresMultiAgent)
	})

	t.Run("multi domain", func(t *testing.T) {
		report := r.Analyze("Should I use machine learning to price real estate sales leads?")

		assert.True(t, report.MultiDomain)
		assert.Contains(t, report.DomainsMentioned, models.AgentRealEstate)
		assert.Contains(t, report.DomainsMentioned, models.AgentAIML)
		assert.Contains(t, report.DomainsMentioned, models.AgentSales)
		assert.True(t, report.RequiresMultiAgent)
	})

	t.Run("all indicators", func(t *testing.T) {
		report := r.Analyze("Compare how to implement a neural model versus a sales forecast")

		assert.True(t, report.MultiDomain)
		assert.True(t, report.Comparison)
		assert.True(t, report.TechnicalDepth)
		assert.InDelta(t, 1.0, report.Score, 1e-9)
		assert.True(t, report.RequiresMultiAgent)
	})
}

func TestCoordinate(t *testing.T) {
	t.Run("no secondary responses", func(t *testing.T) {
		model := &fakeModel{generate: reply("should not be called")}
		r := router.New(router.RouterConfig{}, model, nil)

		got := r.Coordinate(context.Background(), "query", "primary answer", nil)

		assert.Equal(t, "primary answer", got)
		assert.Zero(t, model.calls)
	})

	t.Run("synthesis", func(t *testing.T) {
		var prompt string
		model := &fakeModel{generate: func(messages []llms.MessageContent) (*llms.ContentResponse, error) {
			require.Len(t, messages, 2)
			prompt = messages[1].Parts[0].(llms.TextContent).Text
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{Content: "merged answer"}},
			}, nil
		}}
		r := router.New(router.RouterConfig{}, model, nil)

		got := r.Coordinate(context.Background(), "query", "primary answer", map[models.Agent]string{
			models.AgentMedical: "medical context",
		})

		assert.Equal(t, "merged answer", got)
		assert.Contains(t, prompt, "primary answer")
		assert.Contains(t, prompt, "medical context")
	})

	t.Run("failure keeps primary", func(t *testing.T) {
		model := &fakeModel{generate: func([]llms.MessageContent) (*llms.ContentResponse, error) {
			return nil, errors.New("model offline")
		}}
		r := router.New(router.RouterConfig{}, model, nil)

		got := r.Coordinate(context.Background(), "query", "primary answer", map[models.Agent]string{
			models.AgentSales: "sales context",
		})

		assert.Equal(t, "primary answer", got)
	})
}
