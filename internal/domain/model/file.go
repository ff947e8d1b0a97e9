package model

import (
	"time"

	"github.com/google/uuid"
)

type File struct {
	ID          uuid.UUID  `json:"id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	ObjectKey   string     `json:"-"`
	UploaderID  *uuid.UUID `json:"uploader_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
