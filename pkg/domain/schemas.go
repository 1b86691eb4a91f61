package domain

import (
	"fmt"

	"github.com/aretw0/infrascope/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

var anomalySchema = schema.Schema{
	"metric":           schema.Describe(schema.String(), "The name of the metric that is anomalous"),
	"timestamp":        schema.Describe(schema.Slice(schema.String()), "The timestamp(s) where the anomaly occurred"),
	"value":            schema.Describe(schema.Slice(schema.String()), "The value(s) of the metric that is anomalous, aligned with timestamp"),
	"description":      schema.Describe(schema.String(), "A brief description of why it is considered abnormal"),
	"potential_impact": schema.Describe(schema.String(), "A brief description of the potential impact on the infrastructure"),
}

// AnomaliesSchema describes the record produced by anomaly detection.
var AnomaliesSchema = schema.Descriptor{
	Name:        "Anomalies",
	Description: "Anomalies detected in an infrastructure metrics report",
	Schema: schema.Schema{
		"anomalies": schema.Describe(
			schema.Default(schema.Slice(schema.Object(anomalySchema)), []any{}),
			"The list of anomalies detected in the infrastructure report",
		),
		"summary": schema.Describe(
			schema.Default(schema.String(), DefaultAnomaliesSummary),
			"A concise summary of the overall health and any critical issues detected",
		),
	},
}

var recommendationSchema = schema.Schema{
	"title":       schema.Describe(schema.String(), "The title of the recommendation"),
	"description": schema.Describe(schema.String(), "A brief description of the recommendation"),
	"justification": schema.Describe(schema.Object(schema.Schema{
		"metric":   schema.Describe(schema.String(), "The metric that motivates the recommendation"),
		"evidence": schema.Describe(schema.Slice(schema.String()), "Evidence from the report, may be empty"),
	}), "Why the recommendation is needed"),
	"action": schema.Describe(schema.Object(schema.Schema{
		"type": schema.Describe(schema.String(),
			"e.g. scale_out | scale_up | load_balancing | caching | tuning | limits | retries | circuit_breaker | db_indexing | storage_tiering"),
		"steps": schema.Describe(schema.Slice(schema.String()), "The steps to take, may be empty"),
	}), "The action to take"),
	"target":          schema.Describe(schema.String(), "The target of the recommendation, e.g. reduce p95 latency from 400ms to <250ms"),
	"priority":        schema.Describe(schema.String(), "The priority of the recommendation, e.g. P0 | P1 | P2"),
	"expected_impact": schema.Describe(schema.String(), "The expected impact, quantified if possible"),
	"risks":           schema.Describe(schema.Slice(schema.String()), "The risks associated with the recommendation, may be empty"),
	"verification": schema.Describe(schema.Object(schema.Schema{
		"method":   schema.Describe(schema.String(), "e.g. canary, A/B, SLO dashboard, load test"),
		"rollback": schema.Describe(schema.String(), "The rollback procedure"),
	}), "How to verify and roll back the recommendation"),
}

// RecommendationsSchema describes the record produced by the optimization step.
var RecommendationsSchema = schema.Descriptor{
	Name:        "Recommendations",
	Description: "Prioritized, actionable optimization recommendations for an infrastructure report",
	Schema: schema.Schema{
		"recommendations": schema.Describe(
			schema.Default(schema.Slice(schema.Object(recommendationSchema)), []any{}),
			"The list of recommendations",
		),
		"summary": schema.Describe(
			schema.Default(schema.String(), DefaultRecommendationsSummary),
			"A concise summary of the overall health and any critical issues detected",
		),
	},
}

// ParseAnomalies validates payload against AnomaliesSchema and decodes it.
// A missing field on any element is a validation failure, never a partial record.
func ParseAnomalies(payload map[string]any) (*Anomalies, error) {
	var out Anomalies
	if err := parseRecord(AnomaliesSchema, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseRecommendations validates payload against RecommendationsSchema and decodes it.
func ParseRecommendations(payload map[string]any) (*Recommendations, error) {
	var out Recommendations
	if err := parseRecord(RecommendationsSchema, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func parseRecord(d schema.Descriptor, payload map[string]any, out any) error {
	if payload == nil {
		return fmt.Errorf("%s: empty payload", d.Name)
	}
	if err := d.Validate(payload); err != nil {
		return fmt.Errorf("%s: %w", d.Name, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("%s: decode: %w", d.Name, err)
	}
	return nil
}
