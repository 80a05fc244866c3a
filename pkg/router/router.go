package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/xhad/relay/internal/models"
)

// keywordSet pairs an agent with its fast-path trigger words. Sets are
// tested in declared priority order; the first hit wins.
type keywordSet struct {
	agent    models.Agent
	keywords []string
}

var fastPath = []keywordSet{
	{models.AgentGeneral, []string{
		"weather", "temperature", "forecast", "rain", "sunny",
		"calculate", "math", "time", "timezone", "what time",
		"hello", "hi", "how are you", "thank",
	}},
	{models.AgentMedical, []string{
		"sick", "ill", "pain", "symptom", "disease", "health",
		"medical", "doctor", "medicine", "treatment", "diagnosis",
	}},
	{models.AgentAIML, []string{
		"ai", "ml", "machine learning", "neural", "deep learning",
		"model", "algorithm", "training", "dataset", "tensorflow",
		"pytorch", "scikit", "nlp", "computer vision",
	}},
	{models.AgentRealEstate, []string{
		"property", "house", "apartment", "real estate",
		"mortgage", "rent", "buy house", "sell house",
	}},
	{models.AgentSales, []string{
		"sales", "customer", "client", "revenue", "deal",
		"lead", "crm", "pipeline", "quota", "prospect",
	}},
	{models.AgentEducation, []string{
		"learn", "study", "education", "course", "teach",
		"school", "university", "exam", "homework", "curriculum",
	}},
}

const routingSystemPrompt = `You are the master orchestrator for a multi-agent system. Your role is to:
1. Analyze the user's query to understand the intent and domain
2. Determine which specialized agent is best suited to handle the query
3. Route the query to the appropriate agent

Available agents:
- general: Weather, time, calculations, general knowledge, everyday questions
- real_estate: Property, housing, real estate investments
- medical: Health, symptoms, medical information
- ai_ml: Artificial intelligence, machine learning, data science
- sales: Sales strategies, customer relations, business development
- education: Learning, teaching, educational resources

Routing guidelines:
- Use 'general' for weather queries, time queries, calculations, or general questions
- Use 'medical' ONLY for health-related queries
- Use 'ai_ml' ONLY for AI/ML technical topics
- Use other agents for their specific domains
- When in doubt, use 'general' agent`

const routingPromptTemplate = `Analyze the following query and determine which agent(s) should handle it.

IMPORTANT: Follow these routing rules:
- Weather, time, calculations, greetings -> "general"
- Health, medical, symptoms -> "medical"
- AI, ML, neural networks, algorithms -> "ai_ml"
- Property, real estate, housing -> "real_estate"
- Sales, customers, revenue -> "sales"
- Learning, education, teaching -> "education"

Respond with a JSON object containing:
- "primary_agent": The main agent to handle this query
- "secondary_agents": List of other agents that might provide supporting information (optional)
- "reasoning": Brief explanation of why this agent was chosen
- "confidence": Confidence score from 0 to 1

Query: %s

Response (JSON only):`

// The classifier may prepend commentary, so grab the outermost braces
// rather than parsing the whole reply.
var jsonPattern = regexp.MustCompile(`(?s)\{.*\}`)

type RouterConfig struct {
	Temperature    float64
	RequestTimeout time.Duration
}

// Router classifies a query into exactly one target agent. A keyword fast
// path covers the common case; an LLM classifier handles the rest. Every
// failure path lands on the general agent: a routing error must never
// become a user-visible failure.
type Router struct {
	config RouterConfig
	model  llms.Model
	logger *zap.Logger
}

func New(config RouterConfig, model llms.Model, logger *zap.Logger) *Router {
	if config.Temperature == 0 {
		// Lower temperature for more consistent routing
		config.Temperature = 0.3
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Router{
		config: config,
		model:  model,
		logger: logger,
	}
}

// Route picks the agent for a query. Never fails.
func (r *Router) Route(ctx context.Context, query string) models.Agent {
	queryLower := strings.ToLower(query)

	for _, set := range fastPath {
		for _, keyword := range set.keywords {
			if strings.Contains(queryLower, keyword) {
				r.logger.Info("fast-path routing",
					zap.String("agent", string(set.agent)),
					zap.String("keyword", keyword))
				return set.agent
			}
		}
	}

	return r.classify(ctx, query)
}

func (r *Router) classify(ctx context.Context, query string) models.Agent {
	callCtx, cancel := context.WithTimeout(ctx, r.config.RequestTimeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, routingSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(routingPromptTemplate, query)),
	}

	resp, err := r.model.GenerateContent(callCtx, messages,
		llms.WithTemperature(r.config.Temperature))
	if err != nil {
		r.logger.Warn("classifier call failed, using general", zap.Error(err))
		return models.AgentGeneral
	}
	if len(resp.Choices) == 0 {
		r.logger.Warn("classifier returned no choices, using general")
		return models.AgentGeneral
	}

	decision, err := parseRoutingDecision(resp.Choices[0].Content)
	if err != nil {
		r.logger.Warn("could not parse routing response, using general", zap.Error(err))
		return models.AgentGeneral
	}

	agent, ok := models.ParseAgent(decision.PrimaryAgent)
	if !ok {
		r.logger.Warn("classifier picked unknown agent, using general",
			zap.String("agent", decision.PrimaryAgent))
		return models.AgentGeneral
	}

	r.logger.Info("classifier routing",
		zap.String("agent", string(agent)),
		zap.Float64("confidence", decision.Confidence),
		zap.String("reasoning", decision.Reasoning))
	return agent
}

func parseRoutingDecision(raw string) (models.RoutingDecision, error) {
	var decision models.RoutingDecision

	match := jsonPattern.FindString(raw)
	if match == "" {
		return decision, fmt.Errorf("no JSON object in reply")
	}

	if err := json.Unmarshal([]byte(match), &decision); err != nil {
		return decision, fmt.Errorf("invalid routing JSON: %w", err)
	}
	if decision.PrimaryAgent == "" {
		return decision, fmt.Errorf("routing JSON missing primary_agent")
	}
	return decision, nil
}
