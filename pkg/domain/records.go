package domain

// DefaultAnomaliesSummary is used when the analysis omits a summary.
const DefaultAnomaliesSummary = "No anomalies detected. All infrastructure metrics are within normal ranges."

// DefaultRecommendationsSummary is used when the proposal omits a summary.
const DefaultRecommendationsSummary = "No recommendations found. All infrastructure metrics are within normal ranges."

// Anomaly is a single abnormal indicator found in the report.
// Timestamp and Value are index-aligned.
type Anomaly struct {
	Metric          string   `json:"metric" mapstructure:"metric"`
	Timestamp       []string `json:"timestamp" mapstructure:"timestamp"`
	Value           []string `json:"value" mapstructure:"value"`
	Description     string   `json:"description" mapstructure:"description"`
	PotentialImpact string   `json:"potential_impact" mapstructure:"potential_impact"`
}

// Anomalies is the validated result of the anomaly detection step.
type Anomalies struct {
	Anomalies []Anomaly `json:"anomalies" mapstructure:"anomalies"`
	Summary   string    `json:"summary" mapstructure:"summary"`
}

// Count returns the number of anomalies, tolerating a nil receiver.
func (a *Anomalies) Count() int {
	if a == nil {
		return 0
	}
	return len(a.Anomalies)
}

// Justification ties a recommendation to the metrics that motivate it.
type Justification struct {
	Metric   string   `json:"metric" mapstructure:"metric"`
	Evidence []string `json:"evidence" mapstructure:"evidence"`
}

// Action describes what to do. Type is a free tag such as
// scale_out, caching or db_indexing.
type Action struct {
	Type  string   `json:"type" mapstructure:"type"`
	Steps []string `json:"steps" mapstructure:"steps"`
}

// Verification describes how to confirm and undo a recommendation.
type Verification struct {
	Method   string `json:"method" mapstructure:"method"`
	Rollback string `json:"rollback" mapstructure:"rollback"`
}

// Recommendation is a single optimization proposal.
type Recommendation struct {
	Title          string        `json:"title" mapstructure:"title"`
	Description    string        `json:"description" mapstructure:"description"`
	Justification  Justification `json:"justification" mapstructure:"justification"`
	Action         Action        `json:"action" mapstructure:"action"`
	Target         string        `json:"target" mapstructure:"target"`
	Priority       string        `json:"priority" mapstructure:"priority"`
	ExpectedImpact string        `json:"expected_impact" mapstructure:"expected_impact"`
	Risks          []string      `json:"risks" mapstructure:"risks"`
	Verification   Verification  `json:"verification" mapstructure:"verification"`
}

// Recommendations is the validated result of the optimization step.
type Recommendations struct {
	Recommendations []Recommendation `json:"recommendations" mapstructure:"recommendations"`
	Summary         string           `json:"summary" mapstructure:"summary"`
}

// Count returns the number of recommendations, tolerating a nil receiver.
func (r *Recommendations) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Recommendations)
}
