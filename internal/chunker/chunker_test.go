package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/laifehacker/chatgpt2claude/internal/model"
)

func floatPtr(v float64) *float64 {
	return &v
}

func userMsg(content string, ts *float64) model.Message {
	return model.Message{Role: model.RoleUser, Content: content, Timestamp: ts}
}

func assistantMsg(content string, ts *float64) model.Message {
	return model.Message{Role: model.RoleAssistant, Content: content, Timestamp: ts}
}

func exchange(n int) []model.Message {
	messages := make([]model.Message, 0, n*2)
	for i := 0; i < n; i++ {
		messages = append(messages,
			userMsg(fmt.Sprintf("question %d", i), floatPtr(float64(1000+i*10))),
			assistantMsg(fmt.Sprintf("answer %d", i), floatPtr(float64(1005+i*10))),
		)
	}
	return messages
}

func TestGroupTurnsPairsUserAssistant(t *testing.T) {
	turns := GroupTurns(exchange(3))
	require.Len(t, turns, 3)
	for i, turn := range turns {
		require.Equal(t, fmt.Sprintf("question %d", i), turn.User.Content)
		require.NotNil(t, turn.Assistant)
		require.Equal(t, fmt.Sprintf("answer %d", i), turn.Assistant.Content)
	}
}

func TestGroupTurnsLoneUser(t *testing.T) {
	messages := []model.Message{
		userMsg("first", nil),
		userMsg("second", nil),
		assistantMsg("reply to second", nil),
	}
	turns := GroupTurns(messages)
	require.Len(t, turns, 2)
	require.Nil(t, turns[0].Assistant)
	require.Equal(t, "second", turns[1].User.Content)
	require.NotNil(t, turns[1].Assistant)
}

func TestGroupTurnsOrphanAssistantGetsPlaceholder(t *testing.T) {
	messages := []model.Message{
		assistantMsg("orphaned", floatPtr(500)),
		userMsg("follow-up", nil),
	}
	turns := GroupTurns(messages)
	require.Len(t, turns, 2)
	require.Equal(t, ContinuedPlaceholder, turns[0].User.Content)
	require.NotNil(t, turns[0].Assistant)
	require.Equal(t, "orphaned", turns[0].Assistant.Content)
}

func TestGroupTurnsConservesMessages(t *testing.T) {
	messages := []model.Message{
		assistantMsg("leading orphan", nil),
		userMsg("q1", nil),
		assistantMsg("a1", nil),
		userMsg("lone", nil),
		userMsg("q2", nil),
		assistantMsg("a2", nil),
	}
	turns := GroupTurns(messages)

	flattened := make([]string, 0, len(messages))
	for _, turn := range turns {
		if turn.User.Content != ContinuedPlaceholder {
			flattened = append(flattened, turn.User.Content)
		}
		if turn.Assistant != nil {
			flattened = append(flattened, turn.Assistant.Content)
		}
	}
	require.Equal(t, []string{"leading orphan", "q1", "a1", "lone", "q2", "a2"}, flattened)
}

func TestChunkConversationTitleChunkFirst(t *testing.T) {
	conv := &model.Conversation{
		ID:         "conv-1",
		Title:      "Planning a trip",
		CreateTime: floatPtr(1700000000),
		Messages:   exchange(1),
	}
	chunks := ChunkConversation(conv, DefaultParams())
	require.Len(t, chunks, 2)
	require.Equal(t, model.TitleChunkIndex, chunks[0].ChunkIndex)
	require.Equal(t, "Planning a trip", chunks[0].Text)
	require.Equal(t, 1700000000.0, *chunks[0].FirstTimestamp)
	require.Equal(t, 0, chunks[1].ChunkIndex)
}

func TestChunkConversationTitleOnlyWhenNoTurns(t *testing.T) {
	conv := &model.Conversation{ID: "conv-1", Title: "Empty"}
	chunks := ChunkConversation(conv, DefaultParams())
	require.Len(t, chunks, 1)
	require.Equal(t, model.TitleChunkIndex, chunks[0].ChunkIndex)
}

func TestChunkConversationSlidingWindow(t *testing.T) {
	// 10 turns, window 4 with overlap 1 means step 3: windows start at
	// turns 0, 3, 6 and 9, the last holding a single turn.
	conv := &model.Conversation{ID: "conv-1", Title: "Long chat", Messages: exchange(10)}
	chunks := ChunkConversation(conv, Params{TurnPairs: 4, OverlapPairs: 1, MaxChars: 100000})
	require.Len(t, chunks, 5)

	content := chunks[1:]
	require.True(t, strings.HasPrefix(content[0].Text, "User: question 0"))
	require.True(t, strings.HasPrefix(content[1].Text, "User: question 3"))
	require.True(t, strings.HasPrefix(content[2].Text, "User: question 6"))
	require.True(t, strings.HasPrefix(content[3].Text, "User: question 9"))
	require.NotContains(t, content[3].Text, "question 8")

	for i, chunk := range content {
		require.Equal(t, i, chunk.ChunkIndex)
	}
	// Overlap: turn 3 closes window 0 and opens window 1.
	require.Contains(t, content[0].Text, "question 3")
	require.Contains(t, content[1].Text, "question 3")
}

func TestChunkConversationWindowTimestamps(t *testing.T) {
	conv := &model.Conversation{ID: "conv-1", Title: "T", Messages: exchange(2)}
	chunks := ChunkConversation(conv, Params{TurnPairs: 2, OverlapPairs: 0, MaxChars: 100000})
	require.Len(t, chunks, 2)
	require.Equal(t, 1000.0, *chunks[1].FirstTimestamp)
	require.Equal(t, 1015.0, *chunks[1].LastTimestamp)
}

func TestChunkConversationNilTimestamps(t *testing.T) {
	conv := &model.Conversation{
		ID:       "conv-1",
		Title:    "T",
		Messages: []model.Message{userMsg("q", nil), assistantMsg("a", nil)},
	}
	chunks := ChunkConversation(conv, DefaultParams())
	require.Len(t, chunks, 2)
	require.Nil(t, chunks[1].FirstTimestamp)
	require.Nil(t, chunks[1].LastTimestamp)
}

func TestChunkConversationTruncation(t *testing.T) {
	long := strings.Repeat("深い話を", 200) // multi-byte, 800 runes
	conv := &model.Conversation{
		ID:       "conv-1",
		Title:    "T",
		Messages: []model.Message{userMsg(long, nil), assistantMsg(long, nil)},
	}
	chunks := ChunkConversation(conv, Params{TurnPairs: 1, OverlapPairs: 0, MaxChars: 100})
	require.Len(t, chunks, 2)
	text := chunks[1].Text
	require.True(t, strings.HasSuffix(text, "..."))
	require.Equal(t, 103, utf8.RuneCountInString(text))
	require.True(t, utf8.ValidString(text))
}

func TestChunkConversationIdempotent(t *testing.T) {
	conv := &model.Conversation{ID: "conv-1", Title: "T", CreateTime: floatPtr(1), Messages: exchange(7)}
	first := ChunkConversation(conv, DefaultParams())
	second := ChunkConversation(conv, DefaultParams())
	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, *first[i], *second[i])
	}
}

func TestParamsStepNeverZero(t *testing.T) {
	p := Params{TurnPairs: 2, OverlapPairs: 5, MaxChars: 100}.normalized()
	require.Equal(t, 1, p.step())

	p = Params{TurnPairs: 4, OverlapPairs: 1}.normalized()
	require.Equal(t, 3, p.step())
}
