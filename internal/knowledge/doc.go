// Package knowledge looks up previously vetted context for a query.
//
// A Source returns ranked snippets; Thresholds decide which of them are
// usable (confidence strictly above 0.7 and context strictly longer than 50
// characters by default). Sources can be the postgres knowledge base, the
// HTTP retrieval service, or either wrapped in a read-through cache.
package knowledge
