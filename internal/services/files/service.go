package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

var ErrValidation = fmt.Errorf("invalid file: %w", apperr.ErrValidation)

const (
	signedURLTTL = 5 * time.Minute
	// MaxUploadSize bounds a single upload.
	MaxUploadSize    = 20 << 20
	maxFilenameRunes = 255
)

type Store interface {
	Create(ctx context.Context, file model.File) (model.File, error)
	Get(ctx context.Context, id uuid.UUID) (model.File, error)
	ListOrphans(ctx context.Context, before time.Time, limit int) ([]model.File, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	store   Store
	storage ObjectStorage
	now     func() time.Time
}

func NewService(store Store, storage ObjectStorage) *Service {
	return &Service{
		store:   store,
		storage: storage,
		now:     time.Now,
	}
}

// Upload streams body to object storage and records the metadata row. The
// object is removed again when the row cannot be written.
func (s *Service) Upload(ctx context.Context, uploaderID *uuid.UUID, filename, contentType string, body io.Reader, size int64) (model.File, error) {
	if body == nil || size <= 0 {
		return model.File{}, fmt.Errorf("file is empty: %w", ErrValidation)
	}
	if size > MaxUploadSize {
		return model.File{}, fmt.Errorf("file exceeds %d bytes: %w", MaxUploadSize, ErrValidation)
	}
	if s.store == nil || s.storage == nil {
		return model.File{}, fmt.Errorf("file storage is not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return model.File{}, fmt.Errorf("ensure bucket: %w", err)
	}

	filename = cleanFilename(filename)
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	now := s.now().UTC()
	file := model.File{
		ID:          uuid.New(),
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		UploaderID:  uploaderID,
		CreatedAt:   now,
	}
	file.ObjectKey = buildObjectKey(file.ID, filename, now)

	if err := s.storage.Put(ctx, file.ObjectKey, body, size, contentType); err != nil {
		return model.File{}, fmt.Errorf("put object: %w", err)
	}

	created, err := s.store.Create(ctx, file)
	if err != nil {
		_ = s.storage.Delete(ctx, file.ObjectKey)
		return model.File{}, fmt.Errorf("create file record: %w", err)
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.File, error) {
	if s.store == nil {
		return model.File{}, fmt.Errorf("file storage is not configured")
	}
	return s.store.Get(ctx, id)
}

// DownloadURL returns a short-lived presigned link to the file body.
func (s *Service) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	file, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if s.storage == nil {
		return "", fmt.Errorf("file storage is not configured")
	}

	url, err := s.storage.PresignGet(ctx, file.ObjectKey, file.Filename, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign file url: %w", err)
	}
	return url, nil
}

// DeleteOrphans removes up to limit files created before the cutoff that no
// user references. It keeps going past single failures and returns the
// number of removed files together with the joined errors.
func (s *Service) DeleteOrphans(ctx context.Context, before time.Time, limit int) (int, error) {
	if s.store == nil || s.storage == nil {
		return 0, fmt.Errorf("file storage is not configured")
	}
	if limit <= 0 {
		limit = 100
	}

	orphans, err := s.store.ListOrphans(ctx, before, limit)
	if err != nil {
		return 0, fmt.Errorf("list orphans: %w", err)
	}

	var (
		removed int
		errs    []error
	)
	for _, file := range orphans {
		if err := s.storage.Delete(ctx, file.ObjectKey); err != nil {
			errs = append(errs, fmt.Errorf("delete object %s: %w", file.ObjectKey, err))
			continue
		}
		if err := s.store.Delete(ctx, file.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete file %s: %w", file.ID, err))
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

func cleanFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	if runes := []rune(name); len(runes) > maxFilenameRunes {
		name = string(runes[:maxFilenameRunes])
	}
	return name
}

func buildObjectKey(id uuid.UUID, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("files/%s/%s%s", now.Format("2006/01/02"), id.String(), ext)
}
