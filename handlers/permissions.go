package handlers

import (
	"errors"

	"discord-modbot/platform"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrMissingPermission     = errors.New("missing permission")
	ErrHierarchyInsufficient = errors.New("target has an equal or higher role")
	ErrInvalidOption         = errors.New("invalid option")
	ErrActionInProgress      = errors.New("another action on this member is in progress")
)

// Actor is the member invoking a command together with their resolved
// channel permissions.
type Actor struct {
	Member      platform.Member
	Permissions int64
}

func (a Actor) has(permission int64) bool {
	if a.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return a.Permissions&permission == permission
}

// CheckModeration verifies that the actor holds permission and, when the
// target is a member of the guild, outranks it. A nil target is a user who
// is not in the guild.
func CheckModeration(actor Actor, permission int64, target platform.Member) error {
	if !actor.has(permission) {
		return ErrMissingPermission
	}
	if target == nil {
		return nil
	}
	if actor.Member.TopRolePosition() <= target.TopRolePosition() {
		return ErrHierarchyInsufficient
	}
	return nil
}
