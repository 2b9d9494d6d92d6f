package model

// TitleChunkIndex marks the chunk carrying only the conversation title,
// emitted so title-only semantic matches are possible. Content windows
// start at index 0.
const TitleChunkIndex = -1

// ConversationChunk is the atomic unit of search indexing: a bounded,
// timestamped slice of conversation text. Chunks are write-once; a
// re-import replaces a conversation's chunks wholesale.
type ConversationChunk struct {
	ConversationID    string   `json:"conversation_id"`
	ConversationTitle string   `json:"conversation_title"`
	ChunkIndex        int      `json:"chunk_index"`
	Text              string   `json:"text"`
	FirstTimestamp    *float64 `json:"first_timestamp,omitempty"`
	LastTimestamp     *float64 `json:"last_timestamp,omitempty"`
}
