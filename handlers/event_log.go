package handlers

import (
	"context"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Guild setting toggles for the activity log.
const (
	SettingEditedMessages    = "log_edited_messages"
	SettingDeletedMessages   = "log_deleted_messages"
	SettingMembershipChanges = "log_membership_changes"
	SettingTimeouts          = "log_timeouts"
	SettingWarnings          = "log_warnings"
	SettingNameChanges       = "log_name_changes"
	SettingMemberRoleChanges = "log_member_role_changes"
	SettingAvatarChanges     = "log_avatar_changes"
	SettingChannelChanges    = "log_channel_changes"
	SettingGuildRoleChanges  = "log_guild_role_changes"
	SettingInvites           = "log_invites"
	SettingMessageReactions  = "log_message_reactions"
	SettingWebhookChanges    = "log_webhook_changes"
)

// EventLog posts activity embeds to every log channel of a guild whose
// toggle for the event is on.
type EventLog struct {
	repos *database.Repositories
}

func NewEventLog(repos *database.Repositories) *EventLog {
	return &EventLog{repos: repos}
}

// Post returns the number of channels the embed reached.
func (l *EventLog) Post(ctx context.Context, g platform.Guild, setting string, embed *discordgo.MessageEmbed) int {
	fields := logrus.Fields{"guild": g.ID(), "setting": setting}

	enabled, err := l.repos.GuildSettings.Enabled(ctx, g.ID(), setting)
	if err != nil {
		logger.WithError(err).WithFields(fields).Error("Failed to read log toggle")
		return 0
	}
	if !enabled {
		return 0
	}

	channels, err := l.repos.UtilityChannels.ListByPurpose(ctx, g.ID(), model.PurposeLog)
	if err != nil {
		logger.WithError(err).WithFields(fields).Error("Failed to list log channels")
		return 0
	}

	posted := 0
	for _, c := range channels {
		if err := g.SendChannelMessage(ctx, c.ChannelID, platform.Message{Embed: embed}); err != nil {
			logger.WithError(err).WithFields(fields).WithField("channel", c.ChannelID).Warn("Failed to post to log channel")
			continue
		}
		posted++
	}
	return posted
}
