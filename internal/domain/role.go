package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

type Role string

const (
	RoleParticipant Role = "participant"
	RoleModerator   Role = "moderator"
	RoleJury        Role = "jury"
	RoleOrganizer   Role = "organizer"
)

var roleAliases = map[string]Role{
	"participant":  RoleParticipant,
	"participants": RoleParticipant,
	"участник":     RoleParticipant,
	"участники":    RoleParticipant,
	"moderator":    RoleModerator,
	"moderators":   RoleModerator,
	"модератор":    RoleModerator,
	"модераторы":   RoleModerator,
	"jury":         RoleJury,
	"жюри":         RoleJury,
	"organizer":    RoleOrganizer,
	"organizers":   RoleOrganizer,
	"организатор":  RoleOrganizer,
	"организаторы": RoleOrganizer,
}

// ParseRole maps stored or user supplied role names onto the closed set of
// roles. Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return role, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleModerator, RoleJury, RoleOrganizer:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Role   Role
}

func (a Actor) Is(role Role) bool {
	return a.UserID != 0 && a.Role == role
}
