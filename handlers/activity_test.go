package handlers

import (
	"context"
	"testing"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func TestEventLogHonorsToggles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.repos.UtilityChannels.Add(ctx, guildID, logChannel+1, "log")
	require.NoError(t, err)

	f.h.messageDeleted(ctx, f.g, 5, targetID, "gone")
	assert.Len(t, f.g.ChannelMessages(logChannel), 1)
	assert.Len(t, f.g.ChannelMessages(logChannel+1), 1)

	f.h.inviteDeleted(ctx, f.g, "abc", 5)
	assert.Len(t, f.g.ChannelMessages(logChannel), 1, "invite logging is off by default")

	_, err = f.repos.GuildSettings.Set(ctx, guildID, SettingInvites, "1")
	require.NoError(t, err)
	f.h.inviteDeleted(ctx, f.g, "abc", 5)
	assert.Len(t, f.g.ChannelMessages(logChannel), 2)
}

func TestUnchangedEditIsNotLogged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.h.messageEdited(ctx, f.g, 5, targetID, "same", "same")
	assert.Zero(t, f.logged())
	f.h.messageEdited(ctx, f.g, 5, targetID, "old", "new")
	assert.Equal(t, 1, f.logged())
}

func TestNamesRecordedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := MemberState{UserID: targetID, Username: "alice", GlobalName: "Alice", Nick: "al"}

	changed := f.h.recordNames(ctx, f.g, m)
	assert.Len(t, changed, 3)
	assert.Empty(t, f.h.recordNames(ctx, f.g, m))

	m.Nick = "ally"
	changed = f.h.recordNames(ctx, f.g, m)
	require.Len(t, changed, 1)
	assert.Equal(t, "Nickname", changed[0].Name)

	nicks, err := f.repos.Nicknames.History(ctx, guildID, targetID)
	require.NoError(t, err)
	assert.Len(t, nicks, 2)
	users, err := f.repos.Usernames.History(ctx, targetID)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMemberUpdateLogsRolesAndTimeouts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, s := range []string{SettingMemberRoleChanges, SettingTimeouts} {
		_, err := f.repos.GuildSettings.Set(ctx, guildID, s, "1")
		require.NoError(t, err)
	}

	before := MemberState{UserID: targetID, Roles: []string{"1", "2"}}
	after := MemberState{UserID: targetID, Roles: []string{"2", "3"}, TimeoutUntil: time.Now().Add(time.Hour)}
	f.h.memberUpdated(ctx, f.g, before, after)

	msgs := f.g.ChannelMessages(logChannel)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Member timed out", msgs[0].Embed.Title)
	assert.Equal(t, "Roles changed", msgs[1].Embed.Title)
	assert.Equal(t, "<@&3>", msgs[1].Embed.Fields[1].Value)
	assert.Equal(t, "<@&1>", msgs[1].Embed.Fields[2].Value)
}

func TestUncachedMemberUpdateOnlyRecordsNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.repos.GuildSettings.Set(ctx, guildID, SettingMemberRoleChanges, "1")
	require.NoError(t, err)

	f.h.memberUpdated(ctx, f.g, MemberState{}, MemberState{UserID: targetID, Username: "bob", Roles: []string{"1"}})
	assert.Zero(t, f.logged())

	latest, err := f.repos.Usernames.Latest(ctx, targetID)
	require.NoError(t, err)
	assert.Equal(t, "bob", latest.Name)
}

func TestMemberJoinAttributesInvite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.g.Invite = []platform.Invite{{Code: "a", Uses: 1, InviterID: 7}, {Code: "b", Uses: 4, InviterID: 8}}
	f.h.initGuild(ctx, f.g)

	f.g.Invite = []platform.Invite{{Code: "a", Uses: 1, InviterID: 7}, {Code: "b", Uses: 5, InviterID: 8}}
	f.h.memberJoined(ctx, f.g, MemberState{UserID: targetID, Username: "carol"}, epoch)

	msgs := f.g.ChannelMessages(logChannel)
	require.Len(t, msgs, 1)
	fields := msgs[0].Embed.Fields
	require.Len(t, fields, 3)
	assert.Equal(t, "b by <@8> (5 uses)", fields[2].Value)
}

func TestMemberLeftIsRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.h.memberLeft(ctx, f.g, targetID)

	left, err := f.repos.LeftMembers.ListForUser(ctx, guildID, targetID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
	assert.Equal(t, 1, f.logged())
}

func TestManualUnbanDropsTemporaryBan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.repos.TempBans.Add(ctx, guildID, targetID, epoch.Add(time.Hour))
	require.NoError(t, err)

	f.h.memberUnbanned(ctx, f.g, targetID)
	f.h.memberUnbanned(ctx, f.g, targetID)

	expired, err := f.repos.TempBans.GetExpired(ctx, epoch.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestGuildLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.h.initGuild(ctx, f.g)
	list, err := f.repos.GuildSettings.List(ctx, guildID)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	category, err := f.repos.RoleCategories.AddCategory(ctx, guildID, model.CategoryVerified)
	require.NoError(t, err)
	binding, err := f.repos.RoleCategories.AddRole(ctx, category, 77)
	require.NoError(t, err)
	_, err = f.repos.Passphrases.Add(ctx, guildID, "open sesame", null.Int64From(binding))
	require.NoError(t, err)
	_, err = f.repos.UnverifiedReminderMessages.Add(ctx, guildID, "please verify", time.Hour)
	require.NoError(t, err)
	_, err = f.repos.UnverifiedKickRules.Set(ctx, guildID, 24*time.Hour)
	require.NoError(t, err)
	_, err = f.repos.UtilityChannels.Add(ctx, guildID, 901, model.PurposeVerification)
	require.NoError(t, err)

	f.h.forgetGuild(ctx, guildID)
	list, err = f.repos.GuildSettings.List(ctx, guildID)
	require.NoError(t, err)
	assert.Empty(t, list)

	categories, err := f.repos.RoleCategories.ListCategories(ctx, guildID)
	require.NoError(t, err)
	assert.Empty(t, categories)
	phrases, err := f.repos.Passphrases.List(ctx, guildID)
	require.NoError(t, err)
	assert.Empty(t, phrases)
	templates, err := f.repos.UnverifiedReminderMessages.List(ctx, guildID)
	require.NoError(t, err)
	assert.Empty(t, templates)
	_, err = f.repos.UnverifiedKickRules.Get(ctx, guildID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	channels, err := f.repos.UtilityChannels.List(ctx, guildID)
	require.NoError(t, err)
	assert.Empty(t, channels)

	// Leaving a guild with nothing configured is not an error.
	f.h.forgetGuild(ctx, guildID)
}

func TestExperienceAward(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.h.messageCreated(ctx, guildID, targetID)
	f.h.messageCreated(ctx, guildID, targetID)

	xp, err := f.repos.Experience.Get(ctx, guildID, targetID)
	require.NoError(t, err)
	assert.EqualValues(t, experiencePerMessage, xp.Amount)
}

func TestDiffRoles(t *testing.T) {
	added, removed := diffRoles([]string{"3", "1"}, []string{"4", "2", "1"})
	assert.Equal(t, []string{"2", "4"}, added)
	assert.Equal(t, []string{"3"}, removed)
}
