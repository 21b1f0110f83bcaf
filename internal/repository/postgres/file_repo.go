package postgres

import (
	"context"
	"database/sql"

	"meetapp/internal/domain"
)

type fileRepository struct {
	DB *sql.DB
}

// NewFileRepository returns an AttachmentResolver over the files table.
func NewFileRepository(db *sql.DB) domain.AttachmentResolver {
	return &fileRepository{DB: db}
}

func (r *fileRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM files WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, storeErr("check attachment", err)
	}
	return exists, nil
}
