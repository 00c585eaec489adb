package handlers

import (
	"time"

	"discord-modbot/platform"
	"discord-modbot/utils"

	"github.com/bwmarrin/discordgo"
)

func memberState(m *discordgo.Member) MemberState {
	if m == nil || m.User == nil {
		return MemberState{}
	}
	st := MemberState{
		UserID:     platform.ParseID(m.User.ID),
		Nick:       m.Nick,
		Username:   m.User.Username,
		GlobalName: m.User.GlobalName,
		Avatar:     m.User.Avatar,
		Roles:      m.Roles,
	}
	if m.CommunicationDisabledUntil != nil {
		st.TimeoutUntil = *m.CommunicationDisabledUntil
	}
	return st
}

func (h *handler) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Infof("Logged in as: %v (%d guilds)", r.User.Username, len(r.Guilds))
}

// onGuildCreate fires for every guild once the session is ready and when
// the bot joins a new guild.
func (h *handler) onGuildCreate(s *discordgo.Session, e *discordgo.GuildCreate) {
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, e.ID)
	if err != nil {
		logger.WithError(err).WithField("guild", e.ID).Warn("Failed to resolve guild")
		return
	}
	h.initGuild(ctx, g)
}

func (h *handler) onGuildDelete(s *discordgo.Session, e *discordgo.GuildDelete) {
	if e.Unavailable {
		return
	}
	ctx, cancel := h.context()
	defer cancel()
	h.forgetGuild(ctx, platform.ParseID(e.ID))
}

func (h *handler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}
	ctx, cancel := h.context()
	defer cancel()
	guildID, userID := platform.ParseID(m.GuildID), platform.ParseID(m.Author.ID)
	h.messageCreated(ctx, guildID, userID)

	g, err := h.guild(ctx, m.GuildID)
	if err != nil {
		return
	}
	h.verifyByPassphrase(ctx, g, platform.ParseID(m.ChannelID), userID, m.Content)
}

func (h *handler) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.GuildID == "" || m.BeforeUpdate == nil || m.Author == nil || m.Author.Bot {
		return
	}
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, m.GuildID)
	if err != nil {
		return
	}
	h.messageEdited(ctx, g, platform.ParseID(m.ChannelID), platform.ParseID(m.Author.ID), m.BeforeUpdate.Content, m.Content)
}

func (h *handler) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}
	var authorID int64
	content := ""
	if b := m.BeforeDelete; b != nil {
		if b.Author != nil {
			if b.Author.Bot {
				return
			}
			authorID = platform.ParseID(b.Author.ID)
		}
		content = b.Content
	}
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, m.GuildID)
	if err != nil {
		return
	}
	h.messageDeleted(ctx, g, platform.ParseID(m.ChannelID), authorID, content)
}

func (h *handler) onMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, m.GuildID)
	if err != nil || m.User == nil {
		return
	}
	created, err := discordgo.SnowflakeTimestamp(m.User.ID)
	if err != nil {
		created = time.Time{}
	}
	h.memberJoined(ctx, g, memberState(m.Member), created)
}

func (h *handler) onMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, m.GuildID)
	if err != nil || m.User == nil {
		return
	}
	h.memberLeft(ctx, g, platform.ParseID(m.User.ID))
}

func (h *handler) onMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, m.GuildID)
	if err != nil || m.User == nil {
		return
	}
	h.memberUpdated(ctx, g, memberState(m.BeforeUpdate), memberState(m.Member))
}

func (h *handler) onBan(s *discordgo.Session, e *discordgo.GuildBanAdd) {
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, e.GuildID)
	if err != nil || e.User == nil {
		return
	}
	h.memberBanned(ctx, g, platform.ParseID(e.User.ID))
}

func (h *handler) onUnban(s *discordgo.Session, e *discordgo.GuildBanRemove) {
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, e.GuildID)
	if err != nil || e.User == nil {
		return
	}
	h.memberUnbanned(ctx, g, platform.ParseID(e.User.ID))
}

func (h *handler) onInviteCreate(s *discordgo.Session, e *discordgo.InviteCreate) {
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, e.GuildID)
	if err != nil || e.Invite == nil {
		return
	}
	inv := platform.Invite{Code: e.Code, Uses: e.Uses}
	if e.Inviter != nil {
		inv.InviterID = platform.ParseID(e.Inviter.ID)
	}
	h.inviteCreated(ctx, g, inv, platform.ParseID(e.ChannelID))
}

func (h *handler) onInviteDelete(s *discordgo.Session, e *discordgo.InviteDelete) {
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, e.GuildID)
	if err != nil {
		return
	}
	h.inviteDeleted(ctx, g, e.Code, platform.ParseID(e.ChannelID))
}

func (h *handler) onChannelCreate(s *discordgo.Session, e *discordgo.ChannelCreate) {
	h.postSimple(e.GuildID, SettingChannelChanges, utils.Info, "Channel created",
		utils.Field("Channel", utils.ChannelMention(platform.ParseID(e.ID)), true),
		utils.Field("Name", e.Name, true))
}

func (h *handler) onChannelDelete(s *discordgo.Session, e *discordgo.ChannelDelete) {
	h.postSimple(e.GuildID, SettingChannelChanges, utils.Warn, "Channel deleted",
		utils.Field("Name", e.Name, true))
}

func (h *handler) onRoleCreate(s *discordgo.Session, e *discordgo.GuildRoleCreate) {
	if e.GuildRole == nil || e.Role == nil {
		return
	}
	h.postSimple(e.GuildID, SettingGuildRoleChanges, utils.Info, "Role created",
		utils.Field("Role", "<@&"+e.Role.ID+">", true),
		utils.Field("Name", e.Role.Name, true))
}

func (h *handler) onRoleDelete(s *discordgo.Session, e *discordgo.GuildRoleDelete) {
	h.postSimple(e.GuildID, SettingGuildRoleChanges, utils.Warn, "Role deleted",
		utils.Field("Role ID", e.RoleID, true))
}

func (h *handler) onReactionAdd(s *discordgo.Session, e *discordgo.MessageReactionAdd) {
	if e.MessageReaction == nil || (e.Member != nil && e.Member.User != nil && e.Member.User.Bot) {
		return
	}
	h.postSimple(e.GuildID, SettingMessageReactions, utils.Info, "Reaction added",
		utils.Field("Member", utils.Mention(platform.ParseID(e.UserID)), true),
		utils.Field("Channel", utils.ChannelMention(platform.ParseID(e.ChannelID)), true),
		utils.Field("Emoji", e.Emoji.MessageFormat(), true))
}

func (h *handler) onWebhooksUpdate(s *discordgo.Session, e *discordgo.WebhooksUpdate) {
	h.postSimple(e.GuildID, SettingWebhookChanges, utils.Warn, "Webhooks updated",
		utils.Field("Channel", utils.ChannelMention(platform.ParseID(e.ChannelID)), true))
}

func (h *handler) postSimple(guildID, setting string, level utils.LogLevel, title string, fields ...*discordgo.MessageEmbedField) {
	if guildID == "" {
		return
	}
	ctx, cancel := h.context()
	defer cancel()
	g, err := h.guild(ctx, guildID)
	if err != nil {
		return
	}
	h.events.Post(ctx, g, setting, utils.LogEmbed(level, title, fields...))
}
