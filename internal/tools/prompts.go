package tools

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.md.tmpl
var promptsFS embed.FS

var prompts = template.Must(template.New("prompts").ParseFS(promptsFS, "prompts/*.md.tmpl"))

type promptData struct {
	Report string
}

// AnomalyPrompt builds the anomaly-analysis prompt for report.
func AnomalyPrompt(report string) (string, error) {
	return render("anomalies.md.tmpl", report)
}

// OptimizationPrompt builds the optimization prompt for report.
func OptimizationPrompt(report string) (string, error) {
	return render("optimizations.md.tmpl", report)
}

func render(name, report string) (string, error) {
	if strings.TrimSpace(report) == "" {
		return "", fmt.Errorf("%s: report is empty", strings.TrimSuffix(name, ".md.tmpl"))
	}
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, promptData{Report: report}); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
