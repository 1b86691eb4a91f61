package generation

import "github.com/aretw0/infrascope/pkg/domain"

// DefaultSystemPrompts maps schema names to the system prompt sent with them.
func DefaultSystemPrompts() map[string]string {
	return map[string]string{
		domain.AnomaliesSchema.Name: "You are a helpful assistant that can analyze infrastructure reports and detect anomalies. " +
			"Answer with a single JSON object that matches the requested schema.",
		domain.RecommendationsSchema.Name: "You are a helpful assistant that can analyze infrastructure reports and propose optimization recommendations. " +
			"Answer with a single JSON object that matches the requested schema.",
	}
}
