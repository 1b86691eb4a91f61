package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/infrascope/pkg/domain"
)

// Overlay marks what a run actually did.
type Overlay struct {
	Visited []domain.StepID
	Failed  bool
}

type edge struct {
	from, to domain.StepID
	label    string
}

var pipeline = []edge{
	{from: domain.StepLoader, to: domain.StepAnomalyDetector},
	{from: domain.StepAnomalyDetector, to: domain.StepOptimizationProposer},
	{from: domain.StepOptimizationProposer, to: domain.StepFinalizer},
	{from: domain.StepFinalizer, to: domain.StepEnd},
	{from: domain.StepLoader, to: domain.StepErrorHandler, label: "error"},
	{from: domain.StepAnomalyDetector, to: domain.StepErrorHandler, label: "error"},
	{from: domain.StepOptimizationProposer, to: domain.StepErrorHandler, label: "error"},
	{from: domain.StepErrorHandler, to: domain.StepEnd},
}

// GenerateMermaid renders the step graph as a Mermaid flowchart:
// - End: ((Circle))
// - Capability-backed steps: [[Subroutine]]
// - Others: [Rectangle]
// Visited steps are styled when overlay is set, and the terminal step is
// highlighted as done or failed.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range []domain.StepID{
		domain.StepLoader, domain.StepAnomalyDetector, domain.StepOptimizationProposer,
		domain.StepFinalizer, domain.StepErrorHandler, domain.StepEnd,
	} {
		opener, closer := "[", "]"
		switch id {
		case domain.StepEnd:
			opener, closer = "((", "))"
		case domain.StepLoader, domain.StepAnomalyDetector, domain.StepOptimizationProposer:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(string(id)), opener, id, closer)
	}

	for _, e := range pipeline {
		arrow := "-->"
		if e.label != "" {
			arrow = fmt.Sprintf("-. \"%s\" .->", e.label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(string(e.from)), arrow, sanitizeMermaidID(string(e.to)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			safeID := sanitizeMermaidID(string(id))
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			class := "visited"
			if id == domain.StepErrorHandler && overlay.Failed {
				class = "failed"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", safeID, class)
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	if s == "end" {
		// reserved word in Mermaid
		return "end_"
	}
	return s
}
