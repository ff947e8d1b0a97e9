package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
	filessvc "github.com/ivankudzin/orgreviews/internal/services/files"
	"github.com/ivankudzin/orgreviews/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/orgreviews/internal/transport/http/errors"
)

type filesService interface {
	Upload(ctx context.Context, uploaderID *uuid.UUID, filename, contentType string, body io.Reader, size int64) (model.File, error)
	DownloadURL(ctx context.Context, id uuid.UUID) (string, error)
}

type FilesHandler struct {
	service filesService
	logger  *zap.Logger
}

func NewFilesHandler(service filesService, logger *zap.Logger) *FilesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesHandler{service: service, logger: logger}
}

func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor := identity(r)
	if actor.UserID == uuid.Nil {
		h.writeError(w, apperr.ErrUnauthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, filessvc.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(filessvc.MaxUploadSize); err != nil {
		writeBadRequest(w, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploaderID := actor.UserID
	created, err := h.service.Upload(r.Context(), &uploaderID, header.Filename, contentType, file, header.Size)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.FileUploadResponse{
		ID:       created.ID.String(),
		Filename: created.Filename,
	})
}

func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "file_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	url, err := h.service.DownloadURL(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *FilesHandler) writeError(w http.ResponseWriter, err error) {
	status, body := httperrors.FromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("files request failed", zap.Error(err))
	}
	httperrors.Write(w, status, body)
}
