package tools

import (
	"context"
	"fmt"
)

// staticTool answers from a canned template. The domain specialists carry
// one or two of these as placeholders for real data integrations.
type staticTool struct {
	name        string
	description string
	respond     func(input string) string
}

func (t *staticTool) Name() string        { return t.name }
func (t *staticTool) Description() string { return t.description }

func (t *staticTool) Invoke(_ context.Context, input string) (string, error) {
	return t.respond(input), nil
}

func NewPropertySearchTool() *staticTool {
	return &staticTool{
		name:        "property_search",
		description: "Search for property information and listings",
		respond: func(input string) string {
			return fmt.Sprintf("Property search results for: %s", input)
		},
	}
}

func NewMarketAnalysisTool() *staticTool {
	return &staticTool{
		name:        "market_analysis",
		description: "Analyze real estate market trends and data",
		respond: func(input string) string {
			return fmt.Sprintf("Market analysis for %s: average prices, trends, and demand indicators.", input)
		},
	}
}

func NewSymptomCheckerTool() *staticTool {
	return &staticTool{
		name:        "symptom_checker",
		description: "Check symptoms and provide general health information",
		respond: func(input string) string {
			return fmt.Sprintf("Based on symptoms %q, please consult a healthcare professional for accurate diagnosis.", input)
		},
	}
}

func NewCodeExamplesTool() *staticTool {
	return &staticTool{
		name:        "code_examples",
		description: "Get code examples for AI/ML implementations",
		respond: func(input string) string {
			return fmt.Sprintf("Here's a code example outline for %s.", input)
		},
	}
}

func NewModelRecommendationsTool() *staticTool {
	return &staticTool{
		name:        "model_recommendations",
		description: "Recommend ML models for specific use cases",
		respond: func(input string) string {
			return fmt.Sprintf("For %s, consider a baseline model first, then compare against stronger architectures.", input)
		},
	}
}

func NewCRMInsightsTool() *staticTool {
	return &staticTool{
		name:        "crm_insights",
		description: "Get CRM insights and customer data analysis",
		respond: func(input string) string {
			return fmt.Sprintf("CRM insights for %s: customer segments, churn signals, and engagement trends.", input)
		},
	}
}

func NewSalesMetricsTool() *staticTool {
	return &staticTool{
		name:        "sales_metrics",
		description: "Calculate and analyze sales metrics",
		respond: func(input string) string {
			return fmt.Sprintf("Sales metrics for %s: conversion rates, pipeline velocity, and revenue figures.", input)
		},
	}
}

func NewStudyPlannerTool() *staticTool {
	return &staticTool{
		name:        "study_planner",
		description: "Create personalized study plans",
		respond: func(input string) string {
			return fmt.Sprintf("Study plan for %s: a structured learning path with milestones.", input)
		},
	}
}

func NewResourceFinderTool() *staticTool {
	return &staticTool{
		name:        "resource_finder",
		description: "Find educational resources and materials",
		respond: func(input string) string {
			return fmt.Sprintf("Educational resources for %s: books, courses, and practice material.", input)
		},
	}
}
