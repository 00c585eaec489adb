package handlers

import (
	"testing"
	"time"

	"discord-modbot/platform/platformtest"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestCheckModeration(t *testing.T) {
	g := platformtest.New().AddGuild(1)
	mod := g.AddMember(10, 5, time.Time{})
	lower := g.AddMember(11, 4, time.Time{})
	equal := g.AddMember(12, 5, time.Time{})
	higher := g.AddMember(13, 9, time.Time{})

	banner := Actor{Member: mod, Permissions: discordgo.PermissionBanMembers}
	admin := Actor{Member: mod, Permissions: discordgo.PermissionAdministrator}
	nobody := Actor{Member: mod}

	assert.NoError(t, CheckModeration(banner, discordgo.PermissionBanMembers, lower))
	assert.NoError(t, CheckModeration(banner, discordgo.PermissionBanMembers, nil))
	assert.NoError(t, CheckModeration(admin, discordgo.PermissionKickMembers, lower))

	assert.ErrorIs(t, CheckModeration(nobody, discordgo.PermissionBanMembers, nil), ErrMissingPermission)
	assert.ErrorIs(t, CheckModeration(banner, discordgo.PermissionKickMembers, lower), ErrMissingPermission)
	assert.ErrorIs(t, CheckModeration(banner, discordgo.PermissionBanMembers, equal), ErrHierarchyInsufficient)
	assert.ErrorIs(t, CheckModeration(admin, discordgo.PermissionBanMembers, higher), ErrHierarchyInsufficient)
}
