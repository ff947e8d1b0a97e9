package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Organization is stored as a loosely structured document: contacts and
// documents are opaque JSON owned by the clients.
type Organization struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Contacts  json.RawMessage `json:"contacts"`
	Documents json.RawMessage `json:"documents"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
