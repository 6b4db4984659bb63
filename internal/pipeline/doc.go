// Package pipeline turns learning material into candidate flashcards.
//
// A generation runs Normalizer → Analyzer → Orchestrator (knowledge lookup
// plus the generative collaborator) → Synthesizer → Quality Assessor, and
// records its progress in a GenerationSession through the Ledger port.
// Every collaborator is injected, so each stage can run against test doubles.
package pipeline
