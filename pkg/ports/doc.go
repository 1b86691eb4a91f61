/*
Package ports defines the driven ports (interfaces) of the analysis pipeline.

These interfaces decouple the pipeline from external implementations, allowing
it to work with various language-model providers and artifact backends.

# Key Interfaces

  - Generator: Structured generation against a schema.Descriptor.
  - ArtifactStore: Persists the merged output artifact of successful runs.

The tool registry boundary lives in pkg/registry.
*/
package ports
