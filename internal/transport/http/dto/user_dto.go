package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

type ViewTelegram struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
	PhotoURL  *string `json:"photo_url"`
}

type ViewApprovement struct {
	Status         string     `json:"status"`
	OrganizationID *string    `json:"organization_id"`
	FileID         *string    `json:"file_id"`
	Comment        string     `json:"comment"`
	ModeratorID    *string    `json:"moderator_id"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type ViewUser struct {
	ID                    string          `json:"id"`
	Role                  string          `json:"role"`
	Telegram              *ViewTelegram   `json:"telegram"`
	Documents             []string        `json:"documents"`
	Approvement           ViewApprovement `json:"approvement"`
	HasPendingApprovement bool            `json:"has_pending_approvement"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

type ViewUsersResponse struct {
	Items []ViewUser `json:"items"`
}

func NewViewUser(user model.User) ViewUser {
	view := ViewUser{
		ID:                    user.ID.String(),
		Role:                  string(user.Role),
		Documents:             make([]string, 0, len(user.Documents)),
		HasPendingApprovement: user.HasPendingApprovement(),
		Approvement: ViewApprovement{
			Status:         string(user.Approvement.Status),
			OrganizationID: uuidString(user.Approvement.OrganizationID),
			FileID:         uuidString(user.Approvement.FileID),
			Comment:        user.Approvement.Comment,
			ModeratorID:    uuidString(user.Approvement.ModeratorID),
			UpdatedAt:      user.Approvement.UpdatedAt,
		},
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if tg := user.Telegram; tg != nil {
		view.Telegram = &ViewTelegram{
			ID:        tg.ID,
			FirstName: tg.FirstName,
			LastName:  tg.LastName,
			Username:  tg.Username,
			PhotoURL:  tg.PhotoURL,
		}
	}
	for _, id := range user.Documents {
		view.Documents = append(view.Documents, id.String())
	}
	return view
}

func NewViewUsers(users []model.User) ViewUsersResponse {
	items := make([]ViewUser, 0, len(users))
	for _, user := range users {
		items = append(items, NewViewUser(user))
	}
	return ViewUsersResponse{Items: items}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
