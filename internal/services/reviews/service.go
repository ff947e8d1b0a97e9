package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
	"github.com/ivankudzin/orgreviews/internal/domain/rules"
	"github.com/ivankudzin/orgreviews/internal/pkg/validate"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
)

type Store interface {
	Create(ctx context.Context, review model.Review) (model.Review, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]model.Review, error)
}

type OrganizationStore interface {
	Get(ctx context.Context, id uuid.UUID) (model.Organization, error)
}

type Service struct {
	store         Store
	organizations OrganizationStore
}

func NewService(store Store, organizations OrganizationStore) *Service {
	return &Service{store: store, organizations: organizations}
}

func (s *Service) ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]model.Review, error) {
	if _, err := s.organizations.Get(ctx, organizationID); err != nil {
		return nil, err
	}

	limit, offset = rules.Page(limit, offset)
	items, err := s.store.ListByOrganization(ctx, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list organization reviews: %w", err)
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, actor authsvc.Identity, organizationID uuid.UUID, rating int, text string) (model.Review, error) {
	if actor.UserID == uuid.Nil {
		return model.Review{}, apperr.ErrUnauthenticated
	}
	if !rules.ValidRating(rating) {
		return model.Review{}, fmt.Errorf("rating must be between %d and %d: %w", model.MinReviewRating, model.MaxReviewRating, apperr.ErrValidation)
	}
	text = strings.TrimSpace(text)
	if !validate.MaxRunes(text, rules.MaxReviewTextRunes) {
		return model.Review{}, fmt.Errorf("text is longer than %d characters: %w", rules.MaxReviewTextRunes, apperr.ErrValidation)
	}

	if _, err := s.organizations.Get(ctx, organizationID); err != nil {
		return model.Review{}, err
	}

	review, err := s.store.Create(ctx, model.Review{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		UserID:         actor.UserID,
		Rating:         rating,
		Text:           text,
	})
	if err != nil {
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}
