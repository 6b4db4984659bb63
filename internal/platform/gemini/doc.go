// Package gemini implements generation.Generator on top of Google's Gemini
// API (google.golang.org/genai).
//
// The adapter translates a generation.Request into a GenerateContent call:
//   - model selection from the task type and complexity (vision, complex, default)
//   - inline image parts for vision extraction
//   - JSON response mode for structured tasks
//
// Responses are reduced to plain text. Safety blocks, empty candidates and
// quota failures are mapped to the sentinel errors of the generation package
// so that the retry decorator can tell permanent from transient failures.
package gemini
