package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/enums"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = apperr.ErrUnauthenticated
	ErrSessionNotFound = errors.New("session not found")
)

type SessionRecord struct {
	SID       string
	UserID    uuid.UUID
	Role      enums.Role
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    uuid.UUID
	SID       string
	Role      enums.Role
	ExpiresAt time.Time
}

// AuthResult is handed back to the client after a successful login. The
// session id travels in the cookie, the access token in the JSON body.
type AuthResult struct {
	SessionID      string
	SessionExpires time.Time
	AccessToken    string
	AccessExpires  time.Time
	UserID         uuid.UUID
	Role           enums.Role
}
