package knowledge

import "context"

// Retriever returns the single best usable context for a query.
type Retriever interface {
	// RetrieveContext returns nil, nil when nothing passes the thresholds.
	RetrieveContext(ctx context.Context, query, subject string) (*Snippet, error)
}

// SourceRetriever implements Retriever over a Source.
type SourceRetriever struct {
	source     Source
	thresholds Thresholds
}

var _ Retriever = (*SourceRetriever)(nil)

// NewRetriever creates a Retriever that applies thresholds to source results.
func NewRetriever(source Source, thresholds Thresholds) *SourceRetriever {
	return &SourceRetriever{source: source, thresholds: thresholds}
}

// RetrieveContext implements Retriever.
func (r *SourceRetriever) RetrieveContext(ctx context.Context, query, subject string) (*Snippet, error) {
	snippets, err := r.source.Search(ctx, Query{Text: query, Subject: subject, Limit: DefaultResultLimit})
	if err != nil {
		return nil, err
	}
	for _, s := range snippets {
		if r.thresholds.Usable(s) {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}
