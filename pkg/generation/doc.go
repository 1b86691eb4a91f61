// Package generation implements the structured generation client.
//
// A Client sends the prompt and a JSON schema to a Provider, decodes the
// completion and validates it with pkg/schema before handing it back.
// Provider adapters live in pkg/adapters/openai and pkg/adapters/gemini.
package generation
