package domain

// Capability names resolved from the tool registry.
const (
	ToolReadJSONFile         = "read_json_file"
	ToolDetectAnomalies      = "detect_anomalies"
	ToolProposeOptimizations = "propose_optimizations"
)

// Capability argument names.
const (
	ArgFileName = "file_name"
	ArgReport   = "report"
)

// DefaultReportName is the artifact the loader reads when none is configured.
const DefaultReportName = "rapport.json"

// RequiredTools lists every capability a run needs.
func RequiredTools() []string {
	return []string{ToolReadJSONFile, ToolDetectAnomalies, ToolProposeOptimizations}
}
