package models

import (
	"time"
)

// QueryHistoryEntry records one completed question/answer exchange.
// Entries are immutable after creation; the only mutations the ledger
// allows are deletion (single or bulk).
type QueryHistoryEntry struct {
	ID        string    `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Response  string    `json:"response" db:"response"`
	ModelUsed string    `json:"model_used" db:"model_used"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

type QueryRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
}

// SourceSnippet is a truncated excerpt of an indexed chunk that
// contributed to an answer.
type SourceSnippet struct {
	Filename string  `json:"filename"`
	Excerpt  string  `json:"excerpt"`
	Score    float32 `json:"score"`
}

type QueryResponse struct {
	Entry   QueryHistoryEntry `json:"entry"`
	Sources []SourceSnippet   `json:"sources,omitempty"`
}

// ModelsResponse describes the configuration surface for model selection.
type ModelsResponse struct {
	Available []string `json:"available"`
	Active    string   `json:"active"`
}
