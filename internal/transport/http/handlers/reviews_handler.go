package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
	"github.com/ivankudzin/orgreviews/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/orgreviews/internal/transport/http/errors"
)

type reviewsService interface {
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]model.Review, error)
	Create(ctx context.Context, actor authsvc.Identity, organizationID uuid.UUID, rating int, text string) (model.Review, error)
}

type ReviewsHandler struct {
	service reviewsService
	logger  *zap.Logger
}

func NewReviewsHandler(service reviewsService, logger *zap.Logger) *ReviewsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewsHandler{service: service, logger: logger}
}

func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	organizationID, err := uuidParam(r, "organization_id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	reviews, err := h.service.ListByOrganization(r.Context(), organizationID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]dto.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, dto.NewReviewResponse(review))
	}
	httperrors.Write(w, http.StatusOK, dto.ReviewsListResponse{Items: items})
}

func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizationID, err := uuidParam(r, "organization_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req dto.CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	review, err := h.service.Create(r.Context(), identity(r), organizationID, req.Rating, req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, dto.NewReviewResponse(review))
}

func (h *ReviewsHandler) writeError(w http.ResponseWriter, err error) {
	status, body := httperrors.FromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("reviews request failed", zap.Error(err))
	}
	httperrors.Write(w, status, body)
}
