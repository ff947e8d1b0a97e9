package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/enums"
)

type TelegramInfo struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  *string `json:"last_name,omitempty"`
	Username  *string `json:"username,omitempty"`
	PhotoURL  *string `json:"photo_url,omitempty"`
}

type Approvement struct {
	Status         enums.ApprovementStatus `json:"status"`
	OrganizationID *uuid.UUID              `json:"organization_id,omitempty"`
	FileID         *uuid.UUID              `json:"file_id,omitempty"`
	Comment        string                  `json:"comment"`
	ModeratorID    *uuid.UUID              `json:"moderator_id,omitempty"`
	UpdatedAt      *time.Time              `json:"updated_at,omitempty"`
}

type User struct {
	ID          uuid.UUID     `json:"id"`
	Role        enums.Role    `json:"role"`
	Telegram    *TelegramInfo `json:"telegram,omitempty"`
	Documents   []uuid.UUID   `json:"documents"`
	Approvement Approvement   `json:"approvement"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (u User) IsModerator() bool {
	return u.Role.IsModerator()
}

func (u User) HasPendingApprovement() bool {
	return u.Approvement.Status == enums.ApprovementStatusPending
}
