package search

import (
	"sort"

	"github.com/laifehacker/chatgpt2claude/internal/model"
)

const (
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3
)

// Weights controls the combined-score formula. The keyword side is binary
// presence, not a graded score: the full-text engine's rank metric is not
// comparable to cosine similarity, so conflating them numerically would be
// unsound.
type Weights struct {
	Semantic float64
	Keyword  float64
}

func DefaultWeights() Weights {
	return Weights{Semantic: DefaultSemanticWeight, Keyword: DefaultKeywordWeight}
}

func (w Weights) normalized() Weights {
	if w.Semantic == 0 && w.Keyword == 0 {
		return DefaultWeights()
	}
	return w
}

// Fuse merges a semantic result set and a keyword result set into one
// ranked, deduplicated list of at most limit entries. Ties keep insertion
// order (semantic set first).
func Fuse(semantic []model.SemanticResult, keyword []model.KeywordResult, limit int, weights Weights) []model.SearchResult {
	weights = weights.normalized()

	merged := make([]*model.SearchResult, 0, len(semantic)+len(keyword))
	byID := make(map[string]*model.SearchResult, len(semantic)+len(keyword))

	for _, r := range semantic {
		if entry, ok := byID[r.ConversationID]; ok {
			// Duplicate conversation in the semantic set: keep the best
			// score and the snippet that came with it.
			if r.Score > entry.SemanticScore {
				entry.SemanticScore = r.Score
				entry.Snippet = r.Snippet
				entry.Timestamp = r.Timestamp
			}
			continue
		}
		entry := &model.SearchResult{
			ConversationID: r.ConversationID,
			Title:          r.Title,
			SemanticScore:  r.Score,
			Snippet:        r.Snippet,
			Timestamp:      r.Timestamp,
		}
		merged = append(merged, entry)
		byID[r.ConversationID] = entry
	}

	for _, r := range keyword {
		if entry, ok := byID[r.ConversationID]; ok {
			entry.KeywordScore = 1
			if r.Snippet != "" {
				entry.Snippet = r.Snippet
			}
			continue
		}
		entry := &model.SearchResult{
			ConversationID: r.ConversationID,
			Title:          r.Title,
			KeywordScore:   1,
			Snippet:        r.Snippet,
			Timestamp:      r.CreateTime,
		}
		merged = append(merged, entry)
		byID[r.ConversationID] = entry
	}

	for _, entry := range merged {
		entry.CombinedScore = weights.Semantic*entry.SemanticScore + weights.Keyword*entry.KeywordScore
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CombinedScore > merged[j].CombinedScore
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	results := make([]model.SearchResult, 0, len(merged))
	for _, entry := range merged {
		results = append(results, *entry)
	}
	return results
}
