package organizations

import (
	"context"
	"encoding/json"
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
	List(ctx context.Context, limit, offset int) ([]model.Organization, error)
	Get(ctx context.Context, id uuid.UUID) (model.Organization, error)
	Create(ctx context.Context, org model.Organization) (model.Organization, error)
	Update(ctx context.Context, org model.Organization) (model.Organization, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Cache is an optional read-through cache for Get. Its failures never fail
// a request.
type Cache interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (model.Organization, bool, error)
	SetOrganization(ctx context.Context, org model.Organization) error
	InvalidateOrganization(ctx context.Context, id uuid.UUID) error
}

// Input carries the writable organization fields.
type Input struct {
	Name      string
	Contacts  json.RawMessage
	Documents json.RawMessage
}

type Service struct {
	store Store
	cache Cache
}

func NewService(store Store, cache Cache) *Service {
	return &Service{store: store, cache: cache}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]model.Organization, error) {
	limit, offset = rules.Page(limit, offset)
	items, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Organization, error) {
	if s.cache != nil {
		if org, ok, err := s.cache.GetOrganization(ctx, id); err == nil && ok {
			return org, nil
		}
	}

	org, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Organization{}, err
	}
	if s.cache != nil {
		_ = s.cache.SetOrganization(ctx, org)
	}
	return org, nil
}

func (s *Service) Create(ctx context.Context, actor authsvc.Identity, in Input) (model.Organization, error) {
	if err := actor.CheckModerator(); err != nil {
		return model.Organization{}, err
	}
	org, err := in.toModel(uuid.New())
	if err != nil {
		return model.Organization{}, err
	}
	return s.store.Create(ctx, org)
}

func (s *Service) Update(ctx context.Context, actor authsvc.Identity, id uuid.UUID, in Input) (model.Organization, error) {
	if err := actor.CheckModerator(); err != nil {
		return model.Organization{}, err
	}
	org, err := in.toModel(id)
	if err != nil {
		return model.Organization{}, err
	}
	updated, err := s.store.Update(ctx, org)
	if err != nil {
		return model.Organization{}, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor authsvc.Identity, id uuid.UUID) error {
	if err := actor.CheckModerator(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.InvalidateOrganization(ctx, id)
	}
}

func (in Input) toModel(id uuid.UUID) (model.Organization, error) {
	name := strings.TrimSpace(in.Name)
	if !validate.Required(name) {
		return model.Organization{}, fmt.Errorf("name is required: %w", apperr.ErrValidation)
	}
	if !validate.MaxRunes(name, rules.MaxOrganizationNameRunes) {
		return model.Organization{}, fmt.Errorf("name is longer than %d characters: %w", rules.MaxOrganizationNameRunes, apperr.ErrValidation)
	}
	if !validate.OptionalJSON(in.Contacts) {
		return model.Organization{}, fmt.Errorf("contacts must be valid json: %w", apperr.ErrValidation)
	}
	if !validate.OptionalJSON(in.Documents) {
		return model.Organization{}, fmt.Errorf("documents must be valid json: %w", apperr.ErrValidation)
	}

	return model.Organization{
		ID:        id,
		Name:      name,
		Contacts:  in.Contacts,
		Documents: in.Documents,
	}, nil
}
