package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/laifehacker/chatgpt2claude/internal/model"
)

const (
	// ContinuedPlaceholder anchors an assistant message that has no
	// preceding user message, so every turn has a populated user slot.
	ContinuedPlaceholder = "[continued]"

	turnSeparator   = "\n\n---\n\n"
	truncationMark  = "..."
	DefaultPairs    = 4
	DefaultOverlap  = 1
	DefaultMaxChars = 2000
)

// Params controls the sliding window over turn pairs.
type Params struct {
	TurnPairs    int
	OverlapPairs int
	MaxChars     int
}

func DefaultParams() Params {
	return Params{
		TurnPairs:    DefaultPairs,
		OverlapPairs: DefaultOverlap,
		MaxChars:     DefaultMaxChars,
	}
}

func (p Params) normalized() Params {
	if p.TurnPairs <= 0 {
		p.TurnPairs = DefaultPairs
	}
	if p.OverlapPairs < 0 {
		p.OverlapPairs = DefaultOverlap
	}
	if p.MaxChars <= 0 {
		p.MaxChars = DefaultMaxChars
	}
	return p
}

// step never drops below 1, even when overlap >= window size.
func (p Params) step() int {
	step := p.TurnPairs - p.OverlapPairs
	if step < 1 {
		step = 1
	}
	return step
}

// Turn pairs a user message with the assistant reply that follows it, if
// any. The user slot is always populated.
type Turn struct {
	User      model.Message
	Assistant *model.Message
}

// GroupTurns scans messages left to right and pairs them into turns. An
// assistant message with no unpaired user message before it gets a
// synthetic placeholder user slot.
func GroupTurns(messages []model.Message) []Turn {
	turns := make([]Turn, 0, (len(messages)+1)/2)
	i := 0
	for i < len(messages) {
		msg := messages[i]
		switch msg.Role {
		case model.RoleUser:
			if i+1 < len(messages) && messages[i+1].Role == model.RoleAssistant {
				assistant := messages[i+1]
				turns = append(turns, Turn{User: msg, Assistant: &assistant})
				i += 2
			} else {
				turns = append(turns, Turn{User: msg})
				i++
			}
		case model.RoleAssistant:
			assistant := msg
			turns = append(turns, Turn{
				User:      model.Message{Role: model.RoleUser, Content: ContinuedPlaceholder},
				Assistant: &assistant,
			})
			i++
		default:
			i++
		}
	}
	return turns
}

func formatTurn(turn Turn) string {
	var sb strings.Builder
	sb.WriteString("User: ")
	sb.WriteString(turn.User.Content)
	if turn.Assistant != nil {
		sb.WriteString("\n\nAssistant: ")
		sb.WriteString(turn.Assistant.Content)
	}
	return sb.String()
}

// ChunkConversation splits a conversation into indexable chunks: one
// title-only chunk, then content windows over the turn sequence. Chunking
// is deterministic; re-running it over the same conversation yields
// identical chunks.
func ChunkConversation(conv *model.Conversation, params Params) []*model.ConversationChunk {
	params = params.normalized()

	chunks := []*model.ConversationChunk{
		{
			ConversationID:    conv.ID,
			ConversationTitle: conv.Title,
			ChunkIndex:        model.TitleChunkIndex,
			Text:              conv.Title,
			FirstTimestamp:    conv.CreateTime,
			LastTimestamp:     conv.CreateTime,
		},
	}

	turns := GroupTurns(conv.Messages)
	if len(turns) == 0 {
		return chunks
	}

	step := params.step()
	chunkNum := 0
	for start := 0; start < len(turns); start += step {
		end := start + params.TurnPairs
		if end > len(turns) {
			end = len(turns)
		}
		window := turns[start:end]

		parts := make([]string, 0, len(window))
		for _, turn := range window {
			parts = append(parts, formatTurn(turn))
		}
		text := strings.Join(parts, turnSeparator)
		if utf8.RuneCountInString(text) > params.MaxChars {
			runes := []rune(text)
			text = string(runes[:params.MaxChars]) + truncationMark
		}

		first, last := windowTimestamps(window)
		chunks = append(chunks, &model.ConversationChunk{
			ConversationID:    conv.ID,
			ConversationTitle: conv.Title,
			ChunkIndex:        chunkNum,
			Text:              text,
			FirstTimestamp:    first,
			LastTimestamp:     last,
		})
		chunkNum++
	}
	return chunks
}

func windowTimestamps(window []Turn) (first, last *float64) {
	var minTS, maxTS float64
	found := false
	observe := func(ts *float64) {
		if ts == nil {
			return
		}
		if !found || *ts < minTS {
			minTS = *ts
		}
		if !found || *ts > maxTS {
			maxTS = *ts
		}
		found = true
	}
	for _, turn := range window {
		observe(turn.User.Timestamp)
		if turn.Assistant != nil {
			observe(turn.Assistant.Timestamp)
		}
	}
	if !found {
		return nil, nil
	}
	firstVal, lastVal := minTS, maxTS
	return &firstVal, &lastVal
}
