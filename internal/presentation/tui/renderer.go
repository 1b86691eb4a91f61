package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// Summary renders the outcome of a run as markdown.
func Summary(runID string, s *domain.WorkflowState) string {
	var sb strings.Builder

	status := domain.StatusOf(s)
	fmt.Fprintf(&sb, "# Run %s: %s\n\n", runID, status)
	if s == nil {
		return sb.String()
	}
	if s.Failed() {
		fmt.Fprintf(&sb, "> %s\n", s.Error)
		return sb.String()
	}

	if a := s.Anomalies; a != nil {
		fmt.Fprintf(&sb, "## Anomalies (%d)\n\n%s\n\n", len(a.Anomalies), a.Summary)
		if len(a.Anomalies) > 0 {
			sb.WriteString("| Metric | Description | Impact |\n|---|---|---|\n")
			for _, an := range a.Anomalies {
				fmt.Fprintf(&sb, "| %s | %s | %s |\n", cell(an.Metric), cell(an.Description), cell(an.PotentialImpact))
			}
			sb.WriteString("\n")
		}
	}

	if r := s.Recommendations; r != nil {
		fmt.Fprintf(&sb, "## Recommendations (%d)\n\n%s\n\n", len(r.Recommendations), r.Summary)
		for i, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "%d. **%s** (%s, %s)\n", i+1, rec.Title, rec.Priority, rec.Target)
			if rec.ExpectedImpact != "" {
				fmt.Fprintf(&sb, "   Expected impact: %s\n", rec.ExpectedImpact)
			}
		}
	}
	return sb.String()
}

// PrintSummary writes the run summary to w, rendered with glamour when w is
// a terminal and as plain markdown otherwise.
func PrintSummary(w io.Writer, runID string, s *domain.WorkflowState) error {
	md := Summary(runID, s)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		rendered, err := NewRenderer()(md)
		if err == nil {
			md = rendered
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
