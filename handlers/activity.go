package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"discord-modbot/platform"
	"discord-modbot/utils"
	"discord-modbot/utils/database"

	"github.com/bwmarrin/discordgo"
)

// Experience awarded per message, at most once per experienceInterval.
const (
	experiencePerMessage = 10
	experienceInterval   = time.Minute
)

// MemberState is the part of a member the activity log compares.
type MemberState struct {
	UserID       int64
	Nick         string
	Username     string
	GlobalName   string
	Avatar       string
	Roles        []string
	TimeoutUntil time.Time
}

func (m MemberState) timedOut(now time.Time) bool {
	return m.TimeoutUntil.After(now)
}

func (h *handler) now() time.Time {
	return time.Now().UTC()
}

// initGuild seeds the guild's settings and snapshots its invites.
func (h *handler) initGuild(ctx context.Context, g platform.Guild) {
	added, err := h.b.Repos.GuildSettings.InitializeGuildSettings(ctx, g.ID())
	if err != nil {
		logger.WithError(err).WithField("guild", g.ID()).Error("Failed to initialize guild settings")
	} else if added > 0 {
		logger.WithField("guild", g.ID()).WithField("count", added).Info("Initialized guild settings")
	}

	invites, err := g.Invites(ctx)
	if err != nil {
		logger.WithError(err).WithField("guild", g.ID()).Debug("Cannot read invites")
		return
	}
	h.b.Invites.Snapshot(g.ID(), invites)
}

// forgetGuild drops the per-guild state once the bot leaves a guild.
func (h *handler) forgetGuild(ctx context.Context, guildID int64) {
	repos := h.b.Repos
	steps := []struct {
		what string
		del  func(context.Context, int64) error
	}{
		{"settings", repos.GuildSettings.DeleteGuild},
		{"verification questions", repos.VerificationQuestions.DeleteForGuild},
		{"verification reminder history", repos.UnverifiedReminderHistory.DeleteForGuild},
		{"verification reminder messages", repos.UnverifiedReminderMessages.DeleteForGuild},
		{"kick rule", repos.UnverifiedKickRules.Delete},
		{"passphrases", repos.Passphrases.DeleteForGuild},
		{"role categories", repos.RoleCategories.DeleteForGuild},
		{"utility channels", repos.UtilityChannels.DeleteForGuild},
	}
	for _, step := range steps {
		if err := step.del(ctx, guildID); err != nil && !database.IsNotFound(err) {
			logger.WithError(err).WithField("guild", guildID).Errorf("Failed to delete %s", step.what)
		}
	}
}

func (h *handler) messageCreated(ctx context.Context, guildID, userID int64) {
	if _, err := h.b.Repos.Experience.Award(ctx, guildID, userID, experiencePerMessage, h.now(), experienceInterval); err != nil {
		logger.WithError(err).WithField("user", userID).Warn("Failed to award experience")
	}
}

func (h *handler) messageEdited(ctx context.Context, g platform.Guild, channelID, authorID int64, before, after string) {
	if before == after {
		return
	}
	h.events.Post(ctx, g, SettingEditedMessages, utils.LogEmbed(utils.Info, "Message edited",
		utils.Field("Author", utils.Mention(authorID), true),
		utils.Field("Channel", utils.ChannelMention(channelID), true),
		utils.Field("Before", before, false),
		utils.Field("After", after, false),
	))
}

func (h *handler) messageDeleted(ctx context.Context, g platform.Guild, channelID, authorID int64, content string) {
	author := "unknown"
	if authorID != 0 {
		author = utils.Mention(authorID)
	}
	h.events.Post(ctx, g, SettingDeletedMessages, utils.LogEmbed(utils.Warn, "Message deleted",
		utils.Field("Author", author, true),
		utils.Field("Channel", utils.ChannelMention(channelID), true),
		utils.Field("Content", content, false),
	))
}

// memberJoined attributes the join to an invite and records the member's
// names.
func (h *handler) memberJoined(ctx context.Context, g platform.Guild, m MemberState, accountCreated time.Time) {
	fields := []*discordgo.MessageEmbedField{
		utils.Field("Member", utils.Mention(m.UserID), true),
		utils.Field("Account created", fmt.Sprintf("<t:%d:R>", accountCreated.Unix()), true),
	}

	invites, err := g.Invites(ctx)
	if err == nil {
		if inv, ok := h.b.Invites.Attribute(g.ID(), invites); ok {
			inviter := "unknown"
			if inv.InviterID != 0 {
				inviter = utils.Mention(inv.InviterID)
			}
			fields = append(fields, utils.Field("Invite", fmt.Sprintf("%s by %s (%d uses)", inv.Code, inviter, inv.Uses), false))
		}
	}

	h.recordNames(ctx, g, m)
	h.events.Post(ctx, g, SettingMembershipChanges, utils.LogEmbed(utils.Info, "Member joined", fields...))
}

func (h *handler) memberLeft(ctx context.Context, g platform.Guild, userID int64) {
	if _, err := h.b.Repos.LeftMembers.Add(ctx, g.ID(), userID, h.now()); err != nil {
		logger.WithError(err).WithField("user", userID).Error("Failed to record left member")
	}
	if err := h.b.Repos.UnverifiedReminderHistory.DeleteForUser(ctx, g.ID(), userID); err != nil {
		logger.WithError(err).WithField("user", userID).Error("Failed to clear verification reminder history")
	}
	h.events.Post(ctx, g, SettingMembershipChanges, utils.LogEmbed(utils.Warn, "Member left",
		utils.Field("Member", utils.Mention(userID), true),
	))
}

// memberUpdated logs what changed between before and after. before may be
// the zero value when the member was not cached.
func (h *handler) memberUpdated(ctx context.Context, g platform.Guild, before, after MemberState) {
	now := h.now()
	changed := h.recordNames(ctx, g, after)
	if len(changed) > 0 {
		h.events.Post(ctx, g, SettingNameChanges, utils.LogEmbed(utils.Info, "Name changed",
			append([]*discordgo.MessageEmbedField{utils.Field("Member", utils.Mention(after.UserID), false)}, changed...)...))
	}

	if before.UserID == 0 {
		return
	}

	if before.Avatar != after.Avatar {
		h.events.Post(ctx, g, SettingAvatarChanges, utils.LogEmbed(utils.Info, "Avatar changed",
			utils.Field("Member", utils.Mention(after.UserID), true),
		))
	}

	if !before.timedOut(now) && after.timedOut(now) {
		h.events.Post(ctx, g, SettingTimeouts, utils.LogEmbed(utils.Warn, "Member timed out",
			utils.Field("Member", utils.Mention(after.UserID), true),
			utils.Field("Until", fmt.Sprintf("<t:%d:f>", after.TimeoutUntil.Unix()), true),
		))
	} else if before.timedOut(now) && !after.timedOut(now) {
		h.events.Post(ctx, g, SettingTimeouts, utils.LogEmbed(utils.Info, "Timeout removed",
			utils.Field("Member", utils.Mention(after.UserID), true),
		))
	}

	added, removed := diffRoles(before.Roles, after.Roles)
	if len(added) > 0 || len(removed) > 0 {
		h.events.Post(ctx, g, SettingMemberRoleChanges, utils.LogEmbed(utils.Info, "Roles changed",
			utils.Field("Member", utils.Mention(after.UserID), false),
			utils.Field("Added", roleMentions(added), true),
			utils.Field("Removed", roleMentions(removed), true),
		))
	}
}

// recordNames appends every name that differs from the latest stored one
// and returns a field per change.
func (h *handler) recordNames(ctx context.Context, g platform.Guild, m MemberState) []*discordgo.MessageEmbedField {
	repos := h.b.Repos
	var changed []*discordgo.MessageEmbedField

	if latest, err := repos.Usernames.Latest(ctx, m.UserID); m.Username != "" && differs(latest.Name, err, m.Username) {
		if _, err := repos.Usernames.Add(ctx, m.UserID, m.Username); err != nil {
			logger.WithError(err).Error("Failed to record username")
		}
		changed = append(changed, utils.Field("Username", fmt.Sprintf("%s → %s", orDash(latest.Name), m.Username), false))
	}
	if latest, err := repos.GlobalNames.Latest(ctx, m.UserID); m.GlobalName != "" && differs(latest.Name, err, m.GlobalName) {
		if _, err := repos.GlobalNames.Add(ctx, m.UserID, m.GlobalName); err != nil {
			logger.WithError(err).Error("Failed to record global name")
		}
		changed = append(changed, utils.Field("Display name", fmt.Sprintf("%s → %s", orDash(latest.Name), m.GlobalName), false))
	}
	if latest, err := repos.Nicknames.Latest(ctx, g.ID(), m.UserID); m.Nick != "" && differs(latest.Name, err, m.Nick) {
		if _, err := repos.Nicknames.Add(ctx, g.ID(), m.UserID, m.Nick); err != nil {
			logger.WithError(err).Error("Failed to record nickname")
		}
		changed = append(changed, utils.Field("Nickname", fmt.Sprintf("%s → %s", orDash(latest.Name), m.Nick), false))
	}
	return changed
}

func differs(latest string, err error, current string) bool {
	if database.IsNotFound(err) {
		return true
	}
	if err != nil {
		logger.WithError(err).Error("Failed to read name history")
		return false
	}
	return latest != current
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func diffRoles(before, after []string) (added, removed []string) {
	had := make(map[string]bool, len(before))
	for _, r := range before {
		had[r] = true
	}
	has := make(map[string]bool, len(after))
	for _, r := range after {
		has[r] = true
		if !had[r] {
			added = append(added, r)
		}
	}
	for _, r := range before {
		if !has[r] {
			removed = append(removed, r)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func roleMentions(ids []string) string {
	mentions := make([]string, len(ids))
	for n, id := range ids {
		mentions[n] = "<@&" + id + ">"
	}
	return strings.Join(mentions, " ")
}

func (h *handler) memberBanned(ctx context.Context, g platform.Guild, userID int64) {
	h.events.Post(ctx, g, SettingMembershipChanges, utils.LogEmbed(utils.Error, "Member banned",
		utils.Field("Member", utils.Mention(userID), true),
	))
}

// memberUnbanned drops a pending temporary ban lifted by hand.
func (h *handler) memberUnbanned(ctx context.Context, g platform.Guild, userID int64) {
	err := h.b.Repos.TempBans.DeleteByUserGuild(ctx, g.ID(), userID)
	if err != nil && !database.IsNotFound(err) {
		logger.WithError(err).WithField("user", userID).Error("Failed to drop temporary ban")
	}
	h.events.Post(ctx, g, SettingMembershipChanges, utils.LogEmbed(utils.Info, "Member unbanned",
		utils.Field("Member", utils.Mention(userID), true),
	))
}

func (h *handler) inviteCreated(ctx context.Context, g platform.Guild, inv platform.Invite, channelID int64) {
	h.b.Invites.Put(g.ID(), inv)
	h.events.Post(ctx, g, SettingInvites, utils.LogEmbed(utils.Info, "Invite created",
		utils.Field("Code", inv.Code, true),
		utils.Field("Inviter", utils.Mention(inv.InviterID), true),
		utils.Field("Channel", utils.ChannelMention(channelID), true),
	))
}

func (h *handler) inviteDeleted(ctx context.Context, g platform.Guild, code string, channelID int64) {
	h.b.Invites.Forget(g.ID(), code)
	h.events.Post(ctx, g, SettingInvites, utils.LogEmbed(utils.Warn, "Invite deleted",
		utils.Field("Code", code, true),
		utils.Field("Channel", utils.ChannelMention(channelID), true),
	))
}
