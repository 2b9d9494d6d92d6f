package repo

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/pgvector/pgvector-go"

	"github.com/laifehacker/chatgpt2claude/internal/model"
)

const snippetRunes = 200

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceConversation swaps out every chunk for one conversation. Chunks
// and embeddings are parallel slices produced during import.
func (r *ChunkRepo) ReplaceConversation(ctx context.Context, convID string, chunks []*model.ConversationChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_chunks WHERE conversation_id = $1`, convID); err != nil {
		return err
	}

	const insert = `
		INSERT INTO conversation_chunks
			(id, conversation_id, conversation_title, chunk_index, content, embedding, first_timestamp, last_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, chunk := range chunks {
		chunkID := fmt.Sprintf("%s__chunk_%d", chunk.ConversationID, chunk.ChunkIndex)
		if _, err := stmt.ExecContext(ctx,
			chunkID, chunk.ConversationID, chunk.ConversationTitle, chunk.ChunkIndex,
			chunk.Text, pgvector.NewVector(embeddings[i]),
			nullFloat(chunk.FirstTimestamp), nullFloat(chunk.LastTimestamp),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ChunkRepo) DeleteConversation(ctx context.Context, convID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conversation_chunks WHERE conversation_id = $1`, convID)
	return err
}

// SemanticSearch runs nearest-neighbor over all chunks and keeps the best
// chunk per conversation. It over-fetches 3x the requested amount so the
// dedupe still fills topK distinct conversations.
func (r *ChunkRepo) SemanticSearch(ctx context.Context, queryEmbedding []float32, topK int) ([]model.SemanticResult, error) {
	if topK <= 0 {
		return []model.SemanticResult{}, nil
	}
	const query = `
		SELECT conversation_id, conversation_title, content, first_timestamp,
		       1 - (embedding <=> $1) AS score
		FROM conversation_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(queryEmbedding), topK*3)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	results := make([]model.SemanticResult, 0, topK)
	for rows.Next() {
		var item model.SemanticResult
		var firstTS sql.NullFloat64
		var content string
		if err := rows.Scan(&item.ConversationID, &item.Title, &content, &firstTS, &item.Score); err != nil {
			return nil, err
		}
		// Rows arrive in ascending distance, so the first chunk seen for a
		// conversation is its best match.
		if _, ok := seen[item.ConversationID]; ok {
			continue
		}
		seen[item.ConversationID] = struct{}{}
		item.Score = math.Round(item.Score*10000) / 10000
		item.Snippet = makeSnippet(content)
		item.Timestamp = floatPtr(firstTS)
		results = append(results, item)
		if len(results) >= topK {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_chunks`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE conversation_chunks`)
	return err
}

func makeSnippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetRunes {
		return content
	}
	return string(runes[:snippetRunes]) + "..."
}
