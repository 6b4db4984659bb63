// Package generation defines the boundary between the flashcard engine and
// generative text/vision models. Callers describe what they need with a
// Request (prompt, task type, complexity, optional images) and receive plain
// text; model selection and transport live in platform adapters such as
// platform/gemini.
//
// RetryingGenerator wraps any Generator with a bounded per-attempt timeout and
// exponential backoff for transient failures.
package generation
