package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/laifehacker/chatgpt2claude/internal/model"
)

// extractText joins the string-typed elements of a content part list.
// Non-string parts (image refs, tool payloads) are dropped.
func extractText(parts []interface{}) string {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if s, ok := part.(string); ok {
			texts = append(texts, s)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

// traverseTree walks from the current node back to the root via parent
// pointers and returns node ids in root-first order. A revisited node means
// the mapping contains a cycle; the walk stops with the path gathered so
// far rather than failing the conversation.
func traverseTree(ctx context.Context, mapping map[string]RawNode, currentNode string) []string {
	path := make([]string, 0, len(mapping))
	visited := make(map[string]struct{}, len(mapping))

	nodeID := currentNode
	for nodeID != "" {
		node, ok := mapping[nodeID]
		if !ok {
			break
		}
		if _, seen := visited[nodeID]; seen {
			logutil.GetLogger(ctx).Warn("circular reference in conversation mapping", zap.String("node_id", nodeID))
			break
		}
		visited[nodeID] = struct{}{}
		path = append(path, nodeID)
		nodeID = node.Parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ParseConversation resolves one raw conversation tree into a linear,
// role-filtered message sequence along the active branch.
func ParseConversation(ctx context.Context, raw *RawConversation) (*model.Conversation, error) {
	if raw == nil || raw.ID == "" || len(raw.Mapping) == 0 {
		return nil, fmt.Errorf("missing id or mapping")
	}
	if raw.CurrentNode == "" {
		return nil, fmt.Errorf("missing current_node")
	}
	if _, ok := raw.Mapping[raw.CurrentNode]; !ok {
		return nil, fmt.Errorf("current_node %s not in mapping", raw.CurrentNode)
	}

	nodeIDs := traverseTree(ctx, raw.Mapping, raw.CurrentNode)
	messages := make([]model.Message, 0, len(nodeIDs))
	modelSlug := ""

	for _, nodeID := range nodeIDs {
		msg := raw.Mapping[nodeID].Message
		if msg == nil {
			continue
		}
		role := msg.Author.Role
		if role == model.RoleSystem {
			// System prompts injected by the product are noise; only
			// user-authored system messages carry real content, and those
			// read as user input downstream.
			if !msg.Metadata.IsUserSystemMessage {
				continue
			}
			role = model.RoleUser
		} else if role != model.RoleUser && role != model.RoleAssistant {
			continue
		}

		text := extractText(msg.Content.Parts)
		if text == "" {
			continue
		}

		if role == model.RoleAssistant && modelSlug == "" {
			modelSlug = msg.Metadata.ModelSlug
		}

		messages = append(messages, model.Message{
			Role:      role,
			Content:   text,
			Timestamp: msg.CreateTime,
		})
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("no extractable messages")
	}

	title := raw.Title
	if title == "" {
		title = "Untitled"
	}
	return &model.Conversation{
		ID:           raw.ID,
		Title:        title,
		CreateTime:   raw.CreateTime,
		UpdateTime:   raw.UpdateTime,
		Messages:     messages,
		MessageCount: len(messages),
		ModelSlug:    modelSlug,
	}, nil
}

// ParseConversations decodes and resolves a full conversations.json array.
// Each conversation is decoded independently so one malformed entry never
// aborts the batch.
func ParseConversations(ctx context.Context, entries []json.RawMessage) []*model.Conversation {
	logger := logutil.GetLogger(ctx)
	conversations := make([]*model.Conversation, 0, len(entries))

	for i, entry := range entries {
		var raw RawConversation
		if err := json.Unmarshal(entry, &raw); err != nil {
			logger.Warn("failed to decode conversation", zap.Int("index", i), zap.Error(err))
			continue
		}
		conv, err := ParseConversation(ctx, &raw)
		if err != nil {
			title := raw.Title
			if title == "" {
				title = "unknown"
			}
			logger.Warn("skipping conversation", zap.String("title", title), zap.Error(err))
			continue
		}
		conversations = append(conversations, conv)
	}
	return conversations
}
