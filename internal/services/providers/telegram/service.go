package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/enums"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
)

type UserStore interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (model.User, error)
	CreateFromTelegram(ctx context.Context, info model.TelegramInfo) (model.User, error)
	LinkTelegram(ctx context.Context, userID uuid.UUID, info model.TelegramInfo) (model.User, error)
}

type SessionIssuer interface {
	IssueSession(ctx context.Context, userID uuid.UUID, role enums.Role) (authsvc.AuthResult, error)
}

// LoginResult carries the answer for the client and, when a user was found,
// the session that has been started for it.
type LoginResult struct {
	Response LoginResponse
	Session  *authsvc.AuthResult
}

type ConnectResult struct {
	User    model.User
	Session *authsvc.AuthResult
}

type Service struct {
	verifier *Verifier
	users    UserStore
	sessions SessionIssuer
	logger   *zap.Logger
}

func NewService(verifier *Verifier, users UserStore, sessions SessionIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		verifier: verifier,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// Login starts a session for the user owning the Telegram account. When no
// user owns it yet the caller is told to connect first.
func (s *Service) Login(ctx context.Context, data WidgetData) (LoginResult, error) {
	if err := s.verify(data); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetByTelegramID(ctx, data.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return LoginResult{Response: LoginResponse{NeedToConnect: true}}, nil
		}
		return LoginResult{}, fmt.Errorf("find user by telegram id: %w", err)
	}

	session, err := s.sessions.IssueSession(ctx, user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session: %w", err)
	}

	s.logger.Info("telegram login", zap.String("user_id", user.ID.String()), zap.Int64("telegram_id", data.ID))
	return LoginResult{
		Response: LoginResponse{NeedToConnect: false},
		Session:  &session,
	}, nil
}

// Connect attaches the Telegram account to the calling user. Anonymous
// callers get a fresh user built from the widget data, or the existing owner
// of the account, plus a new session.
func (s *Service) Connect(ctx context.Context, actor *authsvc.Identity, data WidgetData) (ConnectResult, error) {
	if err := s.verify(data); err != nil {
		return ConnectResult{}, err
	}
	info := data.TelegramInfo()

	if actor != nil && actor.UserID != uuid.Nil {
		user, err := s.users.LinkTelegram(ctx, actor.UserID, info)
		if err != nil {
			return ConnectResult{}, fmt.Errorf("link telegram account: %w", err)
		}
		s.logger.Info("telegram account linked", zap.String("user_id", user.ID.String()), zap.Int64("telegram_id", data.ID))
		return ConnectResult{User: user}, nil
	}

	user, err := s.users.GetByTelegramID(ctx, data.ID)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		user, err = s.users.CreateFromTelegram(ctx, info)
		if err != nil {
			return ConnectResult{}, fmt.Errorf("create user from telegram: %w", err)
		}
		s.logger.Info("user created from telegram", zap.String("user_id", user.ID.String()), zap.Int64("telegram_id", data.ID))
	default:
		return ConnectResult{}, fmt.Errorf("find user by telegram id: %w", err)
	}

	session, err := s.sessions.IssueSession(ctx, user.ID, user.Role)
	if err != nil {
		return ConnectResult{}, fmt.Errorf("issue session: %w", err)
	}
	return ConnectResult{User: user, Session: &session}, nil
}

func (s *Service) verify(data WidgetData) error {
	if err := s.verifier.Verify(data); err != nil {
		s.logger.Debug("telegram widget rejected", zap.Int64("telegram_id", data.ID), zap.Error(err))
		return err
	}
	return nil
}
