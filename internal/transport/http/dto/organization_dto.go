package dto

import (
	"encoding/json"
	"time"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

type OrganizationRequest struct {
	Name      string          `json:"name"`
	Contacts  json.RawMessage `json:"contacts"`
	Documents json.RawMessage `json:"documents"`
}

type OrganizationResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Contacts  json.RawMessage `json:"contacts"`
	Documents json.RawMessage `json:"documents"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type OrganizationsListResponse struct {
	Items []OrganizationResponse `json:"items"`
}

func NewOrganizationResponse(org model.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Contacts:  rawOrNull(org.Contacts),
		Documents: rawOrNull(org.Documents),
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
