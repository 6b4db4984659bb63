// Package store defines the persistence ports of the engine: the generation
// session ledger, candidate and reviewable cards, the knowledge base and the
// analytics sink. Implementations live under internal/platform.
package store
