package domain

import "github.com/google/uuid"

// KnowledgeItem is a vetted question with its lecture context, stored in the
// knowledge base and used to answer cache lookups.
type KnowledgeItem struct {
	ID       uuid.UUID         `json:"id"`
	Question string            `json:"question"`
	Context  string            `json:"context"`
	Solution string            `json:"solution,omitempty"`
	Answer   string            `json:"answer,omitempty"`
	Subject  string            `json:"subject,omitempty"`
	Topic    string            `json:"topic,omitempty"`
	Choices  map[string]string `json:"choices,omitempty"`
}
