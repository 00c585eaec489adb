package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanRefusedBeforeAnySideEffect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)
	f.g.AddMember(targetID, 5, epoch)

	_, err := f.h.moderator.Ban(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID, Reason: "spam", Notify: true}, BanOptions{})
	assert.ErrorIs(t, err, ErrHierarchyInsufficient)

	assert.Empty(t, f.p.DMsTo(targetID))
	assert.Empty(t, f.g.Bans)
	list, err := f.punishments.ListForUser(ctx, guildID, targetID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, f.logged())
}

func TestBanOptionValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)
	req := ModerationRequest{Actor: actor, TargetID: targetID}

	_, err := f.h.moderator.Ban(ctx, f.g, req, BanOptions{DeleteMessageDays: 8})
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = f.h.moderator.Ban(ctx, f.g, req, BanOptions{DeleteMessageDays: -1})
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = f.h.moderator.Ban(ctx, f.g, req, BanOptions{Duration: -time.Minute})
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Empty(t, f.g.Bans)

	actor.Permissions = 0
	_, err = f.h.moderator.Ban(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID}, BanOptions{})
	assert.ErrorIs(t, err, ErrMissingPermission)
}

func TestTemporaryBan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)
	f.g.AddMember(targetID, 1, epoch)

	out, err := f.h.moderator.Ban(ctx, f.g,
		ModerationRequest{Actor: actor, TargetID: targetID, Reason: "raid", Notify: true},
		BanOptions{DeleteMessageDays: 1, Duration: 2 * time.Hour})
	require.NoError(t, err)

	assert.True(t, out.Notified)
	assert.Equal(t, epoch.Add(2*time.Hour), out.Until)
	assert.NotZero(t, out.PunishmentID)
	assert.Contains(t, f.g.Bans[targetID], "raid")
	assert.Equal(t, 1, f.g.BanDays[targetID])
	assert.Len(t, f.p.DMsTo(targetID), 1)

	expired, err := f.repos.TempBans.GetExpired(ctx, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
	expired, err = f.repos.TempBans.GetExpired(ctx, epoch.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, targetID, expired[0].UserID)
	assert.Equal(t, guildID, expired[0].GuildID)

	p, err := f.punishments.Get(ctx, out.PunishmentID)
	require.NoError(t, err)
	assert.Equal(t, model.PunishmentBan, p.Type)
	assert.Equal(t, modID, p.IssuerID)
	assert.Equal(t, 1, f.logged())
}

func TestBanUserOutsideGuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)

	out, err := f.h.moderator.Ban(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID, Notify: true}, BanOptions{})
	require.NoError(t, err)
	assert.False(t, out.Notified)
	assert.Contains(t, f.g.Bans, targetID)
}

func TestBanPlatformErrorLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)
	f.g.AddMember(targetID, 1, epoch)
	f.g.BanErr = platform.ErrForbidden

	_, err := f.h.moderator.Ban(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID}, BanOptions{Duration: time.Hour})
	assert.ErrorIs(t, err, platform.ErrForbidden)

	list, err := f.punishments.ListForUser(ctx, guildID, targetID)
	require.NoError(t, err)
	assert.Empty(t, list)
	expired, err := f.repos.TempBans.GetExpired(ctx, epoch.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestActionInProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)
	f.g.AddMember(targetID, 1, epoch)

	require.True(t, f.h.b.Locks.TryLock(guildID, targetID))
	_, err := f.h.moderator.Ban(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID}, BanOptions{})
	assert.ErrorIs(t, err, ErrActionInProgress)
	assert.Empty(t, f.g.Bans)

	f.h.b.Locks.Unlock(guildID, targetID)
	_, err = f.h.moderator.Ban(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID}, BanOptions{})
	require.NoError(t, err)
	assert.True(t, f.h.b.Locks.TryLock(guildID, targetID), "lock is released after the action")
}

func TestKick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)

	f.g.AddMember(targetID, 1, epoch)
	out, err := f.h.moderator.Kick(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID, Reason: "rude"}, false)
	require.NoError(t, err)
	assert.Zero(t, out.PunishmentID)
	assert.False(t, out.Notified)
	assert.True(t, f.g.Kicked(targetID))
	list, err := f.punishments.ListForUser(ctx, guildID, targetID)
	require.NoError(t, err)
	assert.Empty(t, list)

	f.g.AddMember(targetID, 1, epoch)
	out, err = f.h.moderator.Kick(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID, Reason: "rude", Notify: true}, true)
	require.NoError(t, err)
	assert.NotZero(t, out.PunishmentID)
	assert.True(t, out.Notified)
	list, err = f.punishments.ListForUser(ctx, guildID, targetID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.PunishmentKick, list[0].Type)
	assert.Equal(t, 2, f.logged())
}

func TestKickRequiresMember(t *testing.T) {
	f := newFixture(t)
	actor := f.moderator(5)

	_, err := f.h.moderator.Kick(context.Background(), f.g, ModerationRequest{Actor: actor, TargetID: targetID}, true)
	assert.ErrorIs(t, err, platform.ErrInvalidArgument)
}

func TestWarn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)
	f.g.AddMember(targetID, 1, epoch)

	_, err := f.h.moderator.Warn(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID})
	assert.ErrorIs(t, err, ErrInvalidOption)

	f.p.SendErr[targetID] = platform.ErrForbidden
	out, err := f.h.moderator.Warn(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID, Reason: "caps"})
	require.NoError(t, err)
	assert.False(t, out.Notified)

	delete(f.p.SendErr, targetID)
	out, err = f.h.moderator.Warn(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID, Reason: "caps again"})
	require.NoError(t, err)
	assert.True(t, out.Notified)

	counts, err := f.punishments.CountByType(ctx, guildID, targetID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.PunishmentWarn])
	assert.Equal(t, 2, f.logged())
}

func TestWarningLogToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	actor := f.moderator(5)
	f.g.AddMember(targetID, 1, epoch)

	_, err := f.repos.GuildSettings.Set(ctx, guildID, SettingWarnings, "0")
	require.NoError(t, err)

	_, err = f.h.moderator.Warn(ctx, f.g, ModerationRequest{Actor: actor, TargetID: targetID, Reason: "caps"})
	require.NoError(t, err)
	assert.Zero(t, f.logged())
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "You do not have permission to use this command.", StatusText(ErrMissingPermission))
	assert.Equal(t, "That user or object could not be found.", StatusText(platform.ErrInvalidArgument))
	assert.Equal(t, "Nothing found.", StatusText(database.ErrNotFound))
	assert.Equal(t, "Something went wrong.", StatusText(errors.New("boom")))
	assert.Contains(t, StatusText(ErrInvalidOption), "invalid option")
}
