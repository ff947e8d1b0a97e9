package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/enums"
)

const (
	MinSessionTTL = time.Hour
	MaxSessionTTL = 90 * 24 * time.Hour
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	jwt        *JWTManager
	sessions   SessionStore
	sessionTTL time.Duration
	now        func() time.Time
}

func NewService(jwtManager *JWTManager, sessions SessionStore, sessionTTL time.Duration) *Service {
	if sessionTTL < MinSessionTTL {
		sessionTTL = MinSessionTTL
	}
	if sessionTTL > MaxSessionTTL {
		sessionTTL = MaxSessionTTL
	}

	return &Service{
		jwt:        jwtManager,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// IssueSession starts a new session for the user and signs an access token
// bound to it.
func (s *Service) IssueSession(ctx context.Context, userID uuid.UUID, role enums.Role) (AuthResult, error) {
	if userID == uuid.Nil {
		return AuthResult{}, ErrInvalidInput
	}

	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}

	session := SessionRecord{
		SID:       sessionID,
		UserID:    userID,
		Role:      role,
		ExpiresAt: s.now().UTC().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(userID, sessionID, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		SessionID:      sessionID,
		SessionExpires: session.ExpiresAt,
		AccessToken:    accessToken,
		AccessExpires:  accessExpires,
		UserID:         userID,
		Role:           role,
	}, nil
}

// Logout drops the session. Unknown or empty ids are not an error.
func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

// ValidateAccessToken checks the bearer token and that its session is still
// alive.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	identity, err := s.ValidateSession(ctx, claims.SID)
	if err != nil {
		return Identity{}, err
	}
	if identity.UserID != claims.UserID {
		return Identity{}, ErrUnauthenticated
	}
	return identity, nil
}

// ValidateSession resolves a session id taken from the cookie.
func (s *Service) ValidateSession(ctx context.Context, sid string) (Identity, error) {
	if strings.TrimSpace(sid) == "" {
		return Identity{}, ErrUnauthenticated
	}

	session, err := s.sessions.GetSession(ctx, sid)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("get session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return Identity{}, ErrUnauthenticated
	}

	return Identity{
		UserID: session.UserID,
		SID:    session.SID,
		Role:   session.Role,
	}, nil
}
