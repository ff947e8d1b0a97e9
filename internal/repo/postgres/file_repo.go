package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

type FileRepo struct {
	pool *pgxpool.Pool
}

func NewFileRepo(pool *pgxpool.Pool) *FileRepo {
	return &FileRepo{pool: pool}
}

func (r *FileRepo) Create(ctx context.Context, file model.File) (model.File, error) {
	if r.pool == nil {
		return model.File{}, fmt.Errorf("postgres pool is nil")
	}

	var created model.File
	var uploader uuid.NullUUID
	err := r.pool.QueryRow(ctx, `
INSERT INTO files (id, filename, content_type, size, object_key, uploader_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, filename, content_type, size, object_key, uploader_id, created_at
`, file.ID, file.Filename, file.ContentType, file.Size, file.ObjectKey, file.UploaderID, file.CreatedAt.UTC()).Scan(
		&created.ID,
		&created.Filename,
		&created.ContentType,
		&created.Size,
		&created.ObjectKey,
		&uploader,
		&created.CreatedAt,
	)
	if err != nil {
		return model.File{}, fmt.Errorf("insert file: %w", err)
	}
	created.UploaderID = nullUUIDPtr(uploader)
	created.CreatedAt = created.CreatedAt.UTC()
	return created, nil
}

func (r *FileRepo) Get(ctx context.Context, id uuid.UUID) (model.File, error) {
	if r.pool == nil {
		return model.File{}, fmt.Errorf("postgres pool is nil")
	}

	file, err := scanFile(r.pool.QueryRow(ctx, `
SELECT id, filename, content_type, size, object_key, uploader_id, created_at
FROM files
WHERE id = $1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.File{}, fmt.Errorf("file %s: %w", id, apperr.ErrNotFound)
		}
		return model.File{}, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// Organization documents are free-form JSON, so any occurrence of the file
// id in them counts as a reference.
const listOrphansQuery = `
SELECT f.id, f.filename, f.content_type, f.size, f.object_key, f.uploader_id, f.created_at
FROM files f
WHERE f.created_at < $1
  AND NOT EXISTS (SELECT 1 FROM users u WHERE f.id = ANY (u.documents))
  AND NOT EXISTS (SELECT 1 FROM users u WHERE u.approvement_file_id = f.id)
  AND NOT EXISTS (SELECT 1 FROM organizations o WHERE o.documents::text LIKE '%' || f.id::text || '%')
ORDER BY f.created_at ASC
LIMIT $2
`

// ListOrphans returns files older than before that nothing references:
// neither a user (documents or approval attachment) nor an organization.
func (r *FileRepo) ListOrphans(ctx context.Context, before time.Time, limit int) ([]model.File, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, listOrphansQuery, before.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list orphan files: %w", err)
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan orphan file: %w", err)
		}
		items = append(items, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orphan files: %w", err)
	}
	return items, nil
}

func (r *FileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func scanFile(row pgx.Row) (model.File, error) {
	var (
		file     model.File
		uploader uuid.NullUUID
	)
	if err := row.Scan(
		&file.ID,
		&file.Filename,
		&file.ContentType,
		&file.Size,
		&file.ObjectKey,
		&uploader,
		&file.CreatedAt,
	); err != nil {
		return model.File{}, err
	}
	file.UploaderID = nullUUIDPtr(uploader)
	file.CreatedAt = file.CreatedAt.UTC()
	return file, nil
}
