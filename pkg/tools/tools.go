// Package tools holds the closed set of callable functions agents may
// invoke mid-answer. Tools are registered explicitly per agent profile at
// startup; there is no open-ended dispatch.
package tools

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/xhad/relay/internal/types"
)

// Registry is the process-wide tool catalog, built once at startup.
type Registry struct {
	byName map[string]types.Tool
	order  []string
}

func NewRegistry(tools ...types.Tool) *Registry {
	r := &Registry{byName: make(map[string]types.Tool, len(tools))}
	for _, tool := range tools {
		if _, exists := r.byName[tool.Name()]; exists {
			continue
		}
		r.byName[tool.Name()] = tool
		r.order = append(r.order, tool.Name())
	}
	return r
}

func (r *Registry) Get(name string) (types.Tool, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// Select resolves profile tool names against the registry. An unknown name
// is a startup configuration error, not a runtime fallback.
func (r *Registry) Select(names []string) ([]types.Tool, error) {
	selected := make([]types.Tool, 0, len(names))
	for _, name := range names {
		tool, ok := r.byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool: %s", name)
		}
		selected = append(selected, tool)
	}
	return selected, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Specs converts tools to the model-facing function declarations. Every
// tool takes one free-form string input, mirroring its Invoke signature.
func Specs(selected []types.Tool) []llms.Tool {
	specs := make([]llms.Tool, 0, len(selected))
	for _, tool := range selected {
		specs = append(specs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "Tool input",
						},
					},
					"required": []string{"input"},
				},
			},
		})
	}
	return specs
}
