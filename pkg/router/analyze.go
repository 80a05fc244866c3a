package router

import (
	"strings"

	"github.com/xhad/relay/internal/models"
)

var domainKeywords = map[models.Agent][]string{
	models.AgentRealEstate: {"property", "house", "apartment", "mortgage", "real estate"},
	models.AgentMedical:    {"health", "medical", "symptom", "treatment", "disease"},
	models.AgentAIML:       {"ai", "machine learning", "neural", "algorithm", "model"},
	models.AgentSales:      {"sales", "customer", "revenue", "marketing", "lead"},
	models.AgentEducation:  {"learn", "study", "course", "education", "teach"},
}

var comparisonWords = []string{"compare", "versus", "vs", "difference", "better", "choose"}

var technicalWords = []string{"implement", "architecture", "optimize", "integrate", "develop"}

// Analyze scores a query for multi-agent potential. Advisory only:
// nothing consumes it to alter routing automatically.
func (r *Router) Analyze(query string) models.ComplexityReport {
	queryLower := strings.ToLower(query)

	var report models.ComplexityReport

	for _, agent := range models.AllAgents() {
		keywords, ok := domainKeywords[agent]
		if !ok {
			continue
		}
		for _, keyword := range keywords {
			if strings.Contains(queryLower, keyword) {
				report.DomainsMentioned = append(report.DomainsMentioned, agent)
				break
			}
		}
	}
	report.MultiDomain = len(report.DomainsMentioned) > 1

	for _, word := range comparisonWords {
		if strings.Contains(queryLower, word) {
			report.Comparison = true
			break
		}
	}

	for _, word := range technicalWords {
		if strings.Contains(queryLower, word) {
			report.TechnicalDepth = true
			break
		}
	}

	indicators := 0
	for _, hit := range []bool{report.MultiDomain, report.Comparison, report.TechnicalDepth} {
		if hit {
			indicators++
		}
	}
	report.Score = float64(indicators) / 3.0
	report.RequiresMultiAgent = report.Score > 0.5 || len(report.DomainsMentioned) > 1

	return report
}
