package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/laifehacker/chatgpt2claude/internal/model"
	"github.com/laifehacker/chatgpt2claude/internal/pkg/dbutil"
)

type ImportRepo struct {
	db *sql.DB
}

func NewImportRepo(db *sql.DB) *ImportRepo {
	return &ImportRepo{db: db}
}

func (r *ImportRepo) Record(ctx context.Context, rec *model.ImportRecord) error {
	data := map[string]interface{}{
		"import_time":            rec.ImportTime,
		"file_path":              rec.FilePath,
		"conversations_imported": rec.Conversations,
		"messages_imported":      rec.Messages,
		"chunks_indexed":         rec.Chunks,
	}
	sqlStr, args, err := builder.BuildInsert("import_records", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ImportRepo) Latest(ctx context.Context) (*model.ImportRecord, error) {
	const query = `
		SELECT id, import_time, file_path, conversations_imported, messages_imported, chunks_indexed
		FROM import_records ORDER BY id DESC LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query)
	var rec model.ImportRecord
	if err := row.Scan(&rec.ID, &rec.ImportTime, &rec.FilePath, &rec.Conversations, &rec.Messages, &rec.Chunks); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *ImportRepo) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE import_records`)
	return err
}
