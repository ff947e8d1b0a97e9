package dto

import (
	"time"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

type ReviewResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Rating         int       `json:"rating"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReviewWithOrganizationResponse struct {
	ReviewResponse
	OrganizationName string `json:"organization_name"`
}

type ReviewsListResponse struct {
	Items []ReviewResponse `json:"items"`
}

func NewReviewResponse(review model.Review) ReviewResponse {
	return ReviewResponse{
		ID:             review.ID.String(),
		OrganizationID: review.OrganizationID.String(),
		UserID:         review.UserID.String(),
		Rating:         review.Rating,
		Text:           review.Text,
		CreatedAt:      review.CreatedAt,
	}
}

// NewReviewsWithOrganization keeps the bare array shape the /users/me/reviews
// clients expect.
func NewReviewsWithOrganization(items []model.ReviewWithOrganizationInfo) []ReviewWithOrganizationResponse {
	out := make([]ReviewWithOrganizationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ReviewWithOrganizationResponse{
			ReviewResponse:   NewReviewResponse(item.Review),
			OrganizationName: item.OrganizationName,
		})
	}
	return out
}
