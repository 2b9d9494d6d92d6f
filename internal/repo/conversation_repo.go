package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/didi/gendry/builder"

	"github.com/laifehacker/chatgpt2claude/internal/model"
	"github.com/laifehacker/chatgpt2claude/internal/pkg/dbutil"
	appErr "github.com/laifehacker/chatgpt2claude/internal/pkg/errors"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Replace writes a conversation and its messages, removing any prior state
// first. The whole replacement runs in one transaction so a re-import never
// leaves a partial overlay.
func (r *ConversationRepo) Replace(ctx context.Context, conv *model.Conversation) error {
	fullText := buildFullText(conv.Messages)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conv.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, conv.ID); err != nil {
		return err
	}

	const insertConv = `
		INSERT INTO conversations (id, title, create_time, update_time, message_count, model_slug, full_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, insertConv,
		conv.ID, conv.Title, nullFloat(conv.CreateTime), nullFloat(conv.UpdateTime),
		conv.MessageCount, nullString(conv.ModelSlug), fullText,
	); err != nil {
		return err
	}

	const insertMsg = `
		INSERT INTO messages (conversation_id, role, content, ts, message_index)
		VALUES ($1, $2, $3, $4, $5)
	`
	stmt, err := tx.PrepareContext(ctx, insertMsg)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for idx, msg := range conv.Messages {
		if _, err := stmt.ExecContext(ctx, conv.ID, msg.Role, msg.Content, nullFloat(msg.Timestamp), idx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ConversationRepo) Exists(ctx context.Context, convID string) (bool, error) {
	where := map[string]interface{}{"id": convID}
	sqlStr, args, err := builder.BuildSelect("conversations", where, []string{"1"})
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, convID string) (*model.Conversation, error) {
	const query = `
		SELECT id, title, create_time, update_time, message_count, model_slug
		FROM conversations WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, convID)
	conv, err := scanConversation(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return conv, nil
}

func (r *ConversationRepo) ListMessages(ctx context.Context, convID string) ([]model.Message, error) {
	const query = `
		SELECT role, content, ts FROM messages
		WHERE conversation_id = $1 ORDER BY message_index
	`
	rows, err := r.db.QueryContext(ctx, query, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	messages := make([]model.Message, 0)
	for rows.Next() {
		var msg model.Message
		var ts sql.NullFloat64
		if err := rows.Scan(&msg.Role, &msg.Content, &ts); err != nil {
			return nil, err
		}
		msg.Timestamp = floatPtr(ts)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// List returns conversation summaries newest first, optionally filtered by
// a full-text keyword.
func (r *ConversationRepo) List(ctx context.Context, limit, offset uint, keyword string) ([]model.Conversation, error) {
	var query string
	var args []interface{}
	if keyword != "" {
		cleaned := sanitizeFTSQuery(keyword)
		if cleaned == "" {
			return []model.Conversation{}, nil
		}
		query = `
			SELECT id, title, create_time, update_time, message_count, model_slug
			FROM conversations
			WHERE search_vec @@ plainto_tsquery('english', $1)
			ORDER BY create_time DESC NULLS LAST
			LIMIT $2 OFFSET $3
		`
		args = []interface{}{cleaned, limit, offset}
	} else {
		query = `
			SELECT id, title, create_time, update_time, message_count, model_slug
			FROM conversations
			ORDER BY create_time DESC NULLS LAST
			LIMIT $1 OFFSET $2
		`
		args = []interface{}{limit, offset}
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *conv)
	}
	return items, rows.Err()
}

// SearchKeyword runs a full-text match and returns the matches with a
// highlighted snippet. The engine's rank only decides which rows surface
// within the limit; it is never exposed as a score.
func (r *ConversationRepo) SearchKeyword(ctx context.Context, query string, limit int) ([]model.KeywordResult, error) {
	cleaned := sanitizeFTSQuery(query)
	if cleaned == "" {
		return []model.KeywordResult{}, nil
	}
	const stmt = `
		SELECT id, title, create_time,
		       ts_headline('english', full_text, plainto_tsquery('english', $1),
		                   'StartSel=>>>, StopSel=<<<, MaxWords=40, MinWords=15') AS snippet
		FROM conversations
		WHERE search_vec @@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(search_vec, plainto_tsquery('english', $1)) DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, stmt, cleaned, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := make([]model.KeywordResult, 0)
	for rows.Next() {
		var item model.KeywordResult
		var createTime sql.NullFloat64
		var snippet sql.NullString
		if err := rows.Scan(&item.ConversationID, &item.Title, &createTime, &snippet); err != nil {
			return nil, err
		}
		item.CreateTime = floatPtr(createTime)
		item.Snippet = snippet.String
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *ConversationRepo) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&stats.TotalConversations); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.TotalMessages); err != nil {
		return nil, err
	}
	var start, end sql.NullFloat64
	const rangeQuery = `SELECT MIN(create_time), MAX(create_time) FROM conversations WHERE create_time IS NOT NULL`
	if err := r.db.QueryRowContext(ctx, rangeQuery).Scan(&start, &end); err != nil {
		return nil, err
	}
	stats.DateRangeStart = floatPtr(start)
	stats.DateRangeEnd = floatPtr(end)

	const modelQuery = `
		SELECT model_slug, COUNT(*) AS cnt FROM conversations
		WHERE model_slug IS NOT NULL
		GROUP BY model_slug ORDER BY cnt DESC LIMIT 10
	`
	rows, err := r.db.QueryContext(ctx, modelQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var usage model.ModelUsage
		if err := rows.Scan(&usage.Model, &usage.Count); err != nil {
			return nil, err
		}
		stats.TopModels = append(stats.TopModels, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if stats.TotalConversations > 0 {
		avg := float64(stats.TotalMessages) / float64(stats.TotalConversations)
		stats.AvgMessages = float64(int(avg*10+0.5)) / 10
	}
	return stats, nil
}

func (r *ConversationRepo) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE conversations, messages`)
	return err
}

func buildFullText(messages []model.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(parts, "\n\n")
}

func scanConversation(scan func(dest ...interface{}) error) (*model.Conversation, error) {
	var conv model.Conversation
	var createTime, updateTime sql.NullFloat64
	var modelSlug sql.NullString
	if err := scan(&conv.ID, &conv.Title, &createTime, &updateTime, &conv.MessageCount, &modelSlug); err != nil {
		return nil, err
	}
	conv.CreateTime = floatPtr(createTime)
	conv.UpdateTime = floatPtr(updateTime)
	conv.ModelSlug = modelSlug.String
	return &conv, nil
}

func sanitizeFTSQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	var sb strings.Builder
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	val := v.Float64
	return &val
}
