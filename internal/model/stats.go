package model

type ModelUsage struct {
	Model string `json:"model"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalConversations int          `json:"total_conversations"`
	TotalMessages      int          `json:"total_messages"`
	AvgMessages        float64      `json:"avg_messages_per_conversation"`
	DateRangeStart     *float64     `json:"date_range_start,omitempty"`
	DateRangeEnd       *float64     `json:"date_range_end,omitempty"`
	TopModels          []ModelUsage `json:"top_models"`
	IndexedChunks      int          `json:"indexed_chunks"`
}
