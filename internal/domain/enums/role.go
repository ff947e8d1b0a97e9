package enums

import "strings"

type Role string

const (
	RoleDefault   Role = "default"
	RoleModerator Role = "moderator"
)

func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleModerator:
		return RoleModerator
	default:
		return RoleDefault
	}
}

func (r Role) IsModerator() bool {
	return r == RoleModerator
}
