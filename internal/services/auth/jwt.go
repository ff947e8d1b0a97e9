package auth

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/enums"
)

const (
	tokenIssuer      = "orgreviews"
	defaultAccessTTL = 15 * time.Minute
)

// JWTManager signs short-lived HS256 access tokens. A token only names the
// session; the session itself lives in Redis and can be revoked.
type JWTManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type accessTokenClaims struct {
	SessionID string     `json:"sid"`
	Role      enums.Role `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	return &JWTManager{key: []byte(secret), ttl: accessTTL, now: time.Now}
}

func (m *JWTManager) GenerateAccessToken(userID uuid.UUID, sid string, role enums.Role) (string, time.Time, error) {
	switch {
	case len(m.key) == 0:
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	case userID == uuid.Nil, strings.TrimSpace(sid) == "":
		return "", time.Time{}, fmt.Errorf("access token needs a user and a session: %w", ErrInvalidInput)
	}

	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		SessionID: sid,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken reports ErrUnauthenticated for every malformed, expired
// or foreign token.
func (m *JWTManager) ParseAccessToken(raw string) (AccessClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AccessClaims{}, ErrUnauthenticated
	}

	var claims accessTokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return m.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return AccessClaims{}, ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil || strings.TrimSpace(claims.SessionID) == "" {
		return AccessClaims{}, ErrUnauthenticated
	}

	return AccessClaims{
		UserID:    userID,
		SID:       claims.SessionID,
		Role:      enums.ParseRole(string(claims.Role)),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
