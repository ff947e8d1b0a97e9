package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
	orgsvc "github.com/ivankudzin/orgreviews/internal/services/organizations"
	"github.com/ivankudzin/orgreviews/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/orgreviews/internal/transport/http/errors"
)

type organizationsService interface {
	List(ctx context.Context, limit, offset int) ([]model.Organization, error)
	Get(ctx context.Context, id uuid.UUID) (model.Organization, error)
	Create(ctx context.Context, actor authsvc.Identity, in orgsvc.Input) (model.Organization, error)
	Update(ctx context.Context, actor authsvc.Identity, id uuid.UUID, in orgsvc.Input) (model.Organization, error)
	Delete(ctx context.Context, actor authsvc.Identity, id uuid.UUID) error
}

type OrganizationsHandler struct {
	service organizationsService
	logger  *zap.Logger
}

func NewOrganizationsHandler(service organizationsService, logger *zap.Logger) *OrganizationsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationsHandler{service: service, logger: logger}
}

func (h *OrganizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	orgs, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]dto.OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		items = append(items, dto.NewOrganizationResponse(org))
	}
	httperrors.Write(w, http.StatusOK, dto.OrganizationsListResponse{Items: items})
}

func (h *OrganizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "organization_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	org, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewOrganizationResponse(org))
}

func (h *OrganizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.OrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	org, err := h.service.Create(r.Context(), identity(r), organizationInput(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, dto.NewOrganizationResponse(org))
}

func (h *OrganizationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "organization_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req dto.OrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	org, err := h.service.Update(r.Context(), identity(r), id, organizationInput(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewOrganizationResponse(org))
}

func (h *OrganizationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "organization_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), identity(r), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrganizationsHandler) writeError(w http.ResponseWriter, err error) {
	status, body := httperrors.FromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("organizations request failed", zap.Error(err))
	}
	httperrors.Write(w, status, body)
}

func organizationInput(req dto.OrganizationRequest) orgsvc.Input {
	return orgsvc.Input{
		Name:      req.Name,
		Contacts:  req.Contacts,
		Documents: req.Documents,
	}
}
