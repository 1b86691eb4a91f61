/*
Package infrascope analyzes infrastructure metrics reports with a language
model and produces a combined anomaly and optimization artifact.

A run is a fixed pipeline of steps routed by a pure function over a shared
state record:

	read_report -> detect_anomalies -> propose_optimizations -> finalize_results
	     \______________\___________________\______> error

Each step checks its precondition, calls a tool (read the report, build the
analysis prompt) and asks the generation client for a payload matching a
schema. The first error recorded on the state sends the run to the error
handler, and no artifact is produced.

# Usage

Tools come from any registry.Source: a local registry, or an MCP tool server
through pkg/adapters/mcp. Generation comes from any ports.Generator, usually a
generation.Client over one of the provider adapters.

	reg := registry.NewRegistry()
	tools.Register(reg, "./reports")

	analyzer, err := infrascope.New(
		infrascope.WithTools(reg),
		infrascope.WithGenerator(generation.NewClient(openai.New(apiKey))),
		infrascope.WithStore(file.New(".infrascope/runs")),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := analyzer.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Status, res.RunID)

The output artifact is the shallow merge of the anomaly and optimization
records; on a shared key the optimization value is kept.
*/
package infrascope
