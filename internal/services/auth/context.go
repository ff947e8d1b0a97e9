package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/enums"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

type Identity struct {
	UserID uuid.UUID
	SID    string
	Role   enums.Role
}

func (i Identity) IsModerator() bool {
	return i.Role.IsModerator()
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// CheckModerator fails for anonymous callers and for every role except
// moderator.
func (i Identity) CheckModerator() error {
	if i.UserID == uuid.Nil {
		return apperr.ErrUnauthenticated
	}
	if !i.IsModerator() {
		return apperr.ErrNotEnoughPermissions
	}
	return nil
}

// RequireModerator returns the caller identity when it belongs to a
// moderator.
func RequireModerator(ctx context.Context) (Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, apperr.ErrUnauthenticated
	}
	if err := identity.CheckModerator(); err != nil {
		return Identity{}, err
	}
	return identity, nil
}
