package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
	filessvc "github.com/ivankudzin/orgreviews/internal/services/files"
	userssvc "github.com/ivankudzin/orgreviews/internal/services/users"
	"github.com/ivankudzin/orgreviews/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/orgreviews/internal/transport/http/errors"
)

const (
	approvementFileField = "upload_file_obj"
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	multipartOverhead    = 1 << 20
)

type usersService interface {
	GetMe(ctx context.Context, actor authsvc.Identity) (model.User, error)
	MyReviews(ctx context.Context, actor authsvc.Identity) ([]model.ReviewWithOrganizationInfo, error)
	SetDocuments(ctx context.Context, actor authsvc.Identity, rawIDs []string) (model.User, error)
	RequestApprovement(ctx context.Context, actor authsvc.Identity, organizationID uuid.UUID, upload *userssvc.Upload) (model.User, error)
	ListPendingApprovement(ctx context.Context, actor authsvc.Identity) ([]model.User, error)
	ExportPendingApprovement(ctx context.Context, actor authsvc.Identity) ([]byte, error)
	GetByID(ctx context.Context, actor authsvc.Identity, userID uuid.UUID) (model.User, error)
	Approve(ctx context.Context, actor authsvc.Identity, userID uuid.UUID, isApprove bool, comment string) (model.User, error)
}

type UsersHandler struct {
	service usersService
	logger  *zap.Logger
}

func NewUsersHandler(service usersService, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersHandler{service: service, logger: logger}
}

func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetMe(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewViewUser(user))
}

func (h *UsersHandler) MyReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.MyReviews(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewReviewsWithOrganization(reviews))
}

func (h *UsersHandler) SetDocuments(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := decodeJSON(w, r, &ids); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.service.SetDocuments(r.Context(), identity(r), ids)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewViewUser(user))
}

func (h *UsersHandler) RequestApprovement(w http.ResponseWriter, r *http.Request) {
	organizationID, err := uuidParam(r, "organization_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	upload, cleanup, err := readOptionalUpload(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cleanup()

	user, err := h.service.RequestApprovement(r.Context(), identity(r), organizationID, upload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewViewUser(user))
}

func (h *UsersHandler) PendingApprovement(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListPendingApprovement(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewViewUsers(users))
}

func (h *UsersHandler) ExportPendingApprovement(w http.ResponseWriter, r *http.Request) {
	body, err := h.service.ExportPendingApprovement(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="pending-approvement.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *UsersHandler) ByID(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.service.GetByID(r.Context(), identity(r), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewViewUser(user))
}

func (h *UsersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	isApprove, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("is_approve")))
	if err != nil {
		writeBadRequest(w, "is_approve must be a boolean")
		return
	}

	user, err := h.service.Approve(r.Context(), identity(r), userID, isApprove, r.URL.Query().Get("comment"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewViewUser(user))
}

func (h *UsersHandler) writeError(w http.ResponseWriter, err error) {
	status, body := httperrors.FromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("users request failed", zap.Error(err))
	}
	httperrors.Write(w, status, body)
}

// readOptionalUpload returns the approval attachment when the request is a
// multipart form carrying one. Any other body means no attachment.
func readOptionalUpload(w http.ResponseWriter, r *http.Request) (*userssvc.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
		return nil, noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, filessvc.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(filessvc.MaxUploadSize); err != nil {
		return nil, noop, fmt.Errorf("invalid multipart form: %w", apperr.ErrValidation)
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile(approvementFileField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cleanup, nil
	}
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("read %s: %w", approvementFileField, apperr.ErrValidation)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &userssvc.Upload{
			Filename:    header.Filename,
			ContentType: contentType,
			Body:        file,
			Size:        header.Size,
		}, func() {
			_ = file.Close()
			cleanup()
		}, nil
}
