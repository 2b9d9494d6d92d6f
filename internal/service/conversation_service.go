package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/laifehacker/chatgpt2claude/internal/model"
	appErr "github.com/laifehacker/chatgpt2claude/internal/pkg/errors"
	"github.com/laifehacker/chatgpt2claude/internal/pkg/timeutil"
	"github.com/laifehacker/chatgpt2claude/internal/repo"
)

const (
	// transcriptMaxChars bounds a rendered transcript; very long
	// conversations get a truncation notice instead of the tail.
	transcriptMaxChars = 50000

	previewRunes = 200
)

type ConversationService struct {
	conversations *repo.ConversationRepo
	chunks        *repo.ChunkRepo
}

func NewConversationService(conversations *repo.ConversationRepo, chunks *repo.ChunkRepo) *ConversationService {
	return &ConversationService{conversations: conversations, chunks: chunks}
}

func (s *ConversationService) Get(ctx context.Context, convID string) (*model.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	messages, err := s.conversations.ListMessages(ctx, convID)
	if err != nil {
		return nil, err
	}
	conv.Messages = messages
	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, limit, offset uint, keyword string) ([]model.Conversation, error) {
	if limit == 0 {
		limit = 20
	}
	return s.conversations.List(ctx, limit, offset, keyword)
}

// Transcript renders a conversation as markdown, stopping at a fixed
// character budget with a truncation notice.
func (s *ConversationService) Transcript(ctx context.Context, convID string) (string, error) {
	conv, err := s.Get(ctx, convID)
	if err != nil {
		return "", err
	}

	modelSlug := conv.ModelSlug
	if modelSlug == "" {
		modelSlug = "Unknown"
	}
	lines := []string{
		fmt.Sprintf("# %s", conv.Title),
		fmt.Sprintf("Date: %s", timeutil.FormatTimestamp(conv.CreateTime)),
		fmt.Sprintf("Model: %s", modelSlug),
		fmt.Sprintf("Messages: %d", conv.MessageCount),
		"",
		"---",
		"",
	}

	truncNotice := fmt.Sprintf("\n... [Truncated - conversation exceeds %d chars. Total: %d messages]", transcriptMaxChars, conv.MessageCount)
	charCount := 0
	for _, msg := range conv.Messages {
		role := "**User**"
		if msg.Role == model.RoleAssistant {
			role = "**Assistant**"
		}
		header := role
		if msg.Timestamp != nil {
			header = fmt.Sprintf("%s (%s)", role, timeutil.FormatTimestamp(msg.Timestamp))
		}

		remaining := transcriptMaxChars - charCount
		if remaining <= 0 {
			lines = append(lines, truncNotice)
			break
		}
		lines = append(lines, header+":")
		if utf8.RuneCountInString(msg.Content) > remaining {
			runes := []rune(msg.Content)
			lines = append(lines, string(runes[:remaining]), truncNotice)
			break
		}
		charCount += utf8.RuneCountInString(msg.Content)
		lines = append(lines, msg.Content, "")
	}
	return strings.Join(lines, "\n"), nil
}

type MessagePreview struct {
	Role    string `json:"role"`
	Preview string `json:"preview"`
}

type Overview struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	CreateTime   *float64         `json:"create_time,omitempty"`
	ModelSlug    string           `json:"model_slug,omitempty"`
	MessageCount int              `json:"message_count"`
	Opening      []MessagePreview `json:"opening"`
	Recent       []MessagePreview `json:"recent,omitempty"`
}

// Overview gives a quick feel for a conversation without the full
// transcript: the opening exchanges, plus the most recent ones when the
// conversation is long enough for them not to overlap.
func (s *ConversationService) Overview(ctx context.Context, convID string) (*Overview, error) {
	conv, err := s.Get(ctx, convID)
	if err != nil {
		return nil, err
	}
	ov := &Overview{
		ID:           conv.ID,
		Title:        conv.Title,
		CreateTime:   conv.CreateTime,
		ModelSlug:    conv.ModelSlug,
		MessageCount: conv.MessageCount,
	}
	opening := conv.Messages
	if len(opening) > 6 {
		opening = opening[:6]
	}
	for _, msg := range opening {
		ov.Opening = append(ov.Opening, previewOf(msg))
	}
	if len(conv.Messages) > 8 {
		for _, msg := range conv.Messages[len(conv.Messages)-4:] {
			ov.Recent = append(ov.Recent, previewOf(msg))
		}
	}
	return ov, nil
}

func (s *ConversationService) Stats(ctx context.Context) (*model.Stats, error) {
	stats, err := s.conversations.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.TotalConversations == 0 {
		return nil, appErr.ErrNoData
	}
	chunkCount, err := s.chunks.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.IndexedChunks = chunkCount
	return stats, nil
}

func previewOf(msg model.Message) MessagePreview {
	preview := msg.Content
	if utf8.RuneCountInString(preview) > previewRunes {
		runes := []rune(preview)
		preview = string(runes[:previewRunes]) + "..."
	}
	return MessagePreview{Role: msg.Role, Preview: preview}
}
