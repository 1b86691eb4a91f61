// Package tools implements the three capabilities a run needs: reading the
// report and building the two analysis prompts.
package tools

import (
	"context"
	"fmt"

	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/registry"
)

// Specs lists the tools in registration order.
func Specs() []registry.Spec {
	return []registry.Spec{
		{
			Name:        domain.ToolReadJSONFile,
			Description: "Read a JSON file and return the content as a string",
			Arg:         domain.ArgFileName,
			ArgHelp:     "The name of the JSON file to read",
		},
		{
			Name:        domain.ToolDetectAnomalies,
			Description: "Analyze the provided infrastructure report and detect any anomalies or abnormal indicators.",
			Arg:         domain.ArgReport,
			ArgHelp:     "The JSON-formatted infrastructure report to analyze.",
		},
		{
			Name:        domain.ToolProposeOptimizations,
			Description: "Produce a structured report proposing concrete actions to optimize performance.",
			Arg:         domain.ArgReport,
			ArgHelp:     "The infrastructure report as a JSON string to analyze.",
		},
	}
}

// Functions returns the tool implementations keyed by name. File reads are
// confined to baseDir.
func Functions(baseDir string) map[string]func(arg string) (string, error) {
	return map[string]func(string) (string, error){
		domain.ToolReadJSONFile: func(name string) (string, error) {
			return ReadJSONFile(baseDir, name)
		},
		domain.ToolDetectAnomalies:      AnomalyPrompt,
		domain.ToolProposeOptimizations: OptimizationPrompt,
	}
}

// Register installs the tools in reg.
func Register(reg *registry.Registry, baseDir string) {
	fns := Functions(baseDir)
	for _, spec := range Specs() {
		fn := fns[spec.Name]
		arg := spec.Arg
		reg.Register(spec.Name, func(_ context.Context, args map[string]any) (any, error) {
			v, ok := args[arg].(string)
			if !ok {
				return nil, fmt.Errorf("argument %q must be a string", arg)
			}
			return fn(v)
		})
	}
}
