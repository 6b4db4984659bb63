package domain

import "time"

// Cached content types.
const (
	CacheTypeAnalysis  = "analysis"
	CacheTypeKnowledge = "knowledge"
)

// CachedContextEntry is a fingerprint-keyed payload with a time to live.
type CachedContextEntry struct {
	Hash        string    `json:"hash"`
	ContentType string    `json:"content_type"`
	Payload     []byte    `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether the entry must no longer be returned at now.
func (e *CachedContextEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
