package users

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/enums"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
)

// notifyTimeout bounds one background decision message.
const notifyTimeout = 20 * time.Second

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	SetDocuments(ctx context.Context, userID uuid.UUID, documents []uuid.UUID) (model.User, error)
	RequestApprovement(ctx context.Context, userID, organizationID uuid.UUID, fileID *uuid.UUID) (model.User, error)
	ListPendingApprovement(ctx context.Context) ([]model.User, error)
	SetApprovement(ctx context.Context, userID uuid.UUID, status enums.ApprovementStatus, comment string, moderatorID uuid.UUID) (model.User, error)
}

type ReviewStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ReviewWithOrganizationInfo, error)
}

type OrganizationStore interface {
	Get(ctx context.Context, id uuid.UUID) (model.Organization, error)
}

type FileUploader interface {
	Upload(ctx context.Context, uploaderID *uuid.UUID, filename, contentType string, body io.Reader, size int64) (model.File, error)
}

type DecisionNotifier interface {
	ApprovementDecided(ctx context.Context, user model.User, organizationName string)
}

// Upload is a file attached to an approval request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

type Service struct {
	users         UserStore
	reviews       ReviewStore
	organizations OrganizationStore
	files         FileUploader
	notifier      DecisionNotifier
}

func NewService(users UserStore, reviews ReviewStore, organizations OrganizationStore, files FileUploader, notifier DecisionNotifier) *Service {
	return &Service{
		users:         users,
		reviews:       reviews,
		organizations: organizations,
		files:         files,
		notifier:      notifier,
	}
}

func (s *Service) GetMe(ctx context.Context, actor authsvc.Identity) (model.User, error) {
	if actor.UserID == uuid.Nil {
		return model.User{}, apperr.ErrUnauthenticated
	}
	return s.users.GetByID(ctx, actor.UserID)
}

func (s *Service) MyReviews(ctx context.Context, actor authsvc.Identity) ([]model.ReviewWithOrganizationInfo, error) {
	if actor.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthenticated
	}
	if s.reviews == nil {
		return nil, fmt.Errorf("review store is not configured")
	}

	reviews, err := s.reviews.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	return reviews, nil
}

// SetDocuments replaces the document list with the given ids. Ids must be
// well formed; nothing else is checked.
func (s *Service) SetDocuments(ctx context.Context, actor authsvc.Identity, rawIDs []string) (model.User, error) {
	if actor.UserID == uuid.Nil {
		return model.User{}, apperr.ErrUnauthenticated
	}

	documents := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return model.User{}, fmt.Errorf("document id %q: %w", raw, apperr.ErrValidation)
		}
		documents = append(documents, id)
	}

	return s.users.SetDocuments(ctx, actor.UserID, documents)
}

// RequestApprovement asks moderators to confirm membership in the
// organization. An attached file is uploaded before the user row is
// touched; without one no storage call is made.
func (s *Service) RequestApprovement(ctx context.Context, actor authsvc.Identity, organizationID uuid.UUID, upload *Upload) (model.User, error) {
	if actor.UserID == uuid.Nil {
		return model.User{}, apperr.ErrUnauthenticated
	}

	if _, err := s.users.GetByID(ctx, actor.UserID); err != nil {
		return model.User{}, err
	}
	if _, err := s.organizations.Get(ctx, organizationID); err != nil {
		return model.User{}, err
	}

	var fileID *uuid.UUID
	if upload != nil {
		if s.files == nil {
			return model.User{}, fmt.Errorf("file storage is not configured")
		}
		uploaderID := actor.UserID
		file, err := s.files.Upload(ctx, &uploaderID, upload.Filename, upload.ContentType, upload.Body, upload.Size)
		if err != nil {
			return model.User{}, fmt.Errorf("upload approvement file: %w", err)
		}
		fileID = &file.ID
	}

	user, err := s.users.RequestApprovement(ctx, actor.UserID, organizationID, fileID)
	if err != nil {
		return model.User{}, fmt.Errorf("request approvement: %w", err)
	}
	return user, nil
}

func (s *Service) ListPendingApprovement(ctx context.Context, actor authsvc.Identity) ([]model.User, error) {
	if err := actor.CheckModerator(); err != nil {
		return nil, err
	}

	users, err := s.users.ListPendingApprovement(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, actor authsvc.Identity, userID uuid.UUID) (model.User, error) {
	if err := actor.CheckModerator(); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, userID)
}

// Approve stores the moderator decision and notifies the user in the
// background. The comment is stored as given.
func (s *Service) Approve(ctx context.Context, actor authsvc.Identity, userID uuid.UUID, isApprove bool, comment string) (model.User, error) {
	if err := actor.CheckModerator(); err != nil {
		return model.User{}, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.User{}, err
	}

	user, err := s.users.SetApprovement(ctx, userID, enums.ApprovementDecision(isApprove), comment, actor.UserID)
	if err != nil {
		return model.User{}, fmt.Errorf("set approvement: %w", err)
	}

	if s.notifier != nil {
		go s.notifyDecision(context.WithoutCancel(ctx), user)
	}

	return user, nil
}

func (s *Service) notifyDecision(parent context.Context, user model.User) {
	ctx, cancel := context.WithTimeout(parent, notifyTimeout)
	defer cancel()

	s.notifier.ApprovementDecided(ctx, user, s.organizationName(ctx, user.Approvement.OrganizationID))
}

func (s *Service) organizationName(ctx context.Context, id *uuid.UUID) string {
	if id == nil || s.organizations == nil {
		return ""
	}
	org, err := s.organizations.Get(ctx, *id)
	if err != nil {
		return ""
	}
	return org.Name
}
