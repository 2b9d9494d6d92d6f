package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/laifehacker/chatgpt2claude/internal/ai"
	"github.com/laifehacker/chatgpt2claude/internal/chunker"
	"github.com/laifehacker/chatgpt2claude/internal/model"
	"github.com/laifehacker/chatgpt2claude/internal/parser"
	appErr "github.com/laifehacker/chatgpt2claude/internal/pkg/errors"
	"github.com/laifehacker/chatgpt2claude/internal/pkg/timeutil"
	"github.com/laifehacker/chatgpt2claude/internal/repo"
)

const exportFileName = "conversations.json"

type ImportSummary struct {
	Found    int `json:"found"`
	Parsed   int `json:"parsed"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Messages int `json:"messages"`
	Chunks   int `json:"chunks"`
}

type ImportService struct {
	conversations *repo.ConversationRepo
	chunks        *repo.ChunkRepo
	imports       *repo.ImportRepo
	embedder      ai.IEmbedder
	chunkParams   chunker.Params
}

func NewImportService(conversations *repo.ConversationRepo, chunks *repo.ChunkRepo, imports *repo.ImportRepo, embedder ai.IEmbedder, chunkParams chunker.Params) *ImportService {
	return &ImportService{
		conversations: conversations,
		chunks:        chunks,
		imports:       imports,
		embedder:      embedder,
		chunkParams:   chunkParams,
	}
}

// ImportArchive ingests a ChatGPT data-export ZIP: extract, resolve each
// conversation tree, chunk, embed, and replace state in both stores. One
// conversation failing never aborts the rest of the batch.
func (s *ImportService) ImportArchive(ctx context.Context, zipPath string, force bool) (*ImportSummary, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("file", zipPath))

	entries, err := readExportArchive(zipPath)
	if err != nil {
		return nil, err
	}
	logger.Info("export archive decoded", zap.Int("conversations", len(entries)))

	conversations := parser.ParseConversations(ctx, entries)
	logger.Info("conversations parsed", zap.Int("parsed", len(conversations)), zap.Int("dropped", len(entries)-len(conversations)))

	summary := &ImportSummary{Found: len(entries), Parsed: len(conversations)}
	for _, conv := range conversations {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}
		if !force {
			exists, err := s.conversations.Exists(ctx, conv.ID)
			if err != nil {
				return summary, err
			}
			if exists {
				summary.Skipped++
				continue
			}
		}
		chunkCount, err := s.importOne(ctx, conv)
		if err != nil {
			logger.Warn("failed to import conversation",
				zap.String("conversation_id", conv.ID),
				zap.String("title", conv.Title),
				zap.Error(err),
			)
			summary.Failed++
			continue
		}
		summary.Imported++
		summary.Messages += conv.MessageCount
		summary.Chunks += chunkCount
	}

	if err := s.imports.Record(ctx, &model.ImportRecord{
		ImportTime:    timeutil.NowUnix(),
		FilePath:      zipPath,
		Conversations: summary.Imported,
		Messages:      summary.Messages,
		Chunks:        summary.Chunks,
	}); err != nil {
		logger.Warn("failed to record import metadata", zap.Error(err))
	}
	return summary, nil
}

// importOne writes one conversation to both stores. Each store write is a
// full delete-and-replace, so a crash between them leaves at worst a
// conversation whose chunks lag one import behind, fixed by re-running.
func (s *ImportService) importOne(ctx context.Context, conv *model.Conversation) (int, error) {
	chunks := chunker.ChunkConversation(conv, s.chunkParams)
	embeddings := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		emb, err := s.embedder.Embed(ctx, chunk.Text, ai.TaskRetrievalDocument)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", chunk.ChunkIndex, err)
		}
		embeddings = append(embeddings, emb)
	}
	if err := s.conversations.Replace(ctx, conv); err != nil {
		return 0, fmt.Errorf("store conversation: %w", err)
	}
	if err := s.chunks.ReplaceConversation(ctx, conv.ID, chunks, embeddings); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(chunks), nil
}

func readExportArchive(zipPath string) ([]json.RawMessage, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appErr.ErrInvalidFile, err)
	}
	defer reader.Close()

	var exportFile *zip.File
	for _, f := range reader.File {
		if f.Name == exportFileName {
			exportFile = f
			break
		}
	}
	if exportFile == nil {
		return nil, fmt.Errorf("%w: no %s in archive", appErr.ErrInvalidFile, exportFileName)
	}

	rc, err := exportFile.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON array", appErr.ErrInvalidFile, exportFileName)
	}
	return entries, nil
}
