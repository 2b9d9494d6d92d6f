package service

import (
	"context"
	"errors"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/laifehacker/chatgpt2claude/internal/ai"
	"github.com/laifehacker/chatgpt2claude/internal/model"
	appErr "github.com/laifehacker/chatgpt2claude/internal/pkg/errors"
	"github.com/laifehacker/chatgpt2claude/internal/repo"
	"github.com/laifehacker/chatgpt2claude/internal/search"
)

type SearchService struct {
	chunks        *repo.ChunkRepo
	conversations *repo.ConversationRepo
	embedder      ai.IEmbedder
	weights       search.Weights
	defaultLimit  int
}

func NewSearchService(chunks *repo.ChunkRepo, conversations *repo.ConversationRepo, embedder ai.IEmbedder, weights search.Weights, defaultLimit int) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &SearchService{
		chunks:        chunks,
		conversations: conversations,
		embedder:      embedder,
		weights:       weights,
		defaultLimit:  defaultLimit,
	}
}

// Search runs the semantic and keyword engines independently and fuses
// their result sets into one ranked list. When the embedding provider is
// unavailable the search degrades to keyword-only instead of failing.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.ErrInvalid
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	logger := logutil.GetLogger(ctx).With(zap.String("query", query), zap.Int("limit", limit))

	var semantic []model.SemanticResult
	queryEmb, err := s.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	switch {
	case errors.Is(err, ai.ErrUnavailable):
		logger.Warn("embedding provider unavailable, keyword-only search")
	case err != nil:
		return nil, err
	default:
		semantic, err = s.chunks.SemanticSearch(ctx, queryEmb, limit)
		if err != nil {
			return nil, err
		}
	}

	keyword, err := s.conversations.SearchKeyword(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	results := search.Fuse(semantic, keyword, limit, s.weights)
	logger.Debug("search completed",
		zap.Int("semantic_hits", len(semantic)),
		zap.Int("keyword_hits", len(keyword)),
		zap.Int("results", len(results)),
	)
	return results, nil
}
