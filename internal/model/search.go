package model

// SemanticResult is one hit from the vector store. Score is cosine
// similarity derived from pgvector distance (1 - distance).
type SemanticResult struct {
	ConversationID string   `json:"conversation_id"`
	Title          string   `json:"title"`
	Score          float64  `json:"score"`
	Snippet        string   `json:"snippet"`
	Timestamp      *float64 `json:"timestamp,omitempty"`
}

// KeywordResult is one hit from the full-text index. Presence implies a
// match; the engine's rank is not comparable to cosine similarity and is
// deliberately not carried.
type KeywordResult struct {
	ConversationID string   `json:"conversation_id"`
	Title          string   `json:"title"`
	Snippet        string   `json:"snippet,omitempty"`
	CreateTime     *float64 `json:"create_time,omitempty"`
}

// SearchResult is a fused, ranked entry. Query-time only, never persisted.
type SearchResult struct {
	ConversationID string   `json:"conversation_id"`
	Title          string   `json:"title"`
	SemanticScore  float64  `json:"semantic_score"`
	KeywordScore   float64  `json:"keyword_score"`
	CombinedScore  float64  `json:"combined_score"`
	Snippet        string   `json:"snippet,omitempty"`
	Timestamp      *float64 `json:"timestamp,omitempty"`
}
