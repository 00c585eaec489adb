package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils"
	"discord-modbot/utils/database"

	"github.com/bwmarrin/discordgo"
)

// moderate runs a moderation command behind a deferred ephemeral response.
func (h *handler) moderate(s *discordgo.Session, i *discordgo.InteractionCreate, action func(ctx context.Context, g platform.Guild, req ModerationRequest, o options) (string, error)) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		logger.WithError(err).Warn("Failed to defer interaction")
		return
	}
	ctx, cancel := h.context()
	defer cancel()

	g, err := h.guild(ctx, i.GuildID)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, StatusText(err))
		return
	}
	actor, err := h.actor(ctx, g, i)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, StatusText(err))
		return
	}

	o := optionsOf(i)
	req := ModerationRequest{
		Actor:    actor,
		TargetID: o.id("member"),
		Reason:   o.string("reason", ""),
		Notify:   o.bool("notify", false),
	}
	msg, err := action(ctx, g, req, o)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, StatusText(err))
		return
	}
	utils.SendFollowUp(s, i.Interaction, msg)
}

func summary(verb string, targetID int64, out Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s %s", utils.Mention(targetID), verb)
	if !out.Until.IsZero() {
		fmt.Fprintf(&b, " until <t:%d:f>", out.Until.Unix())
	}
	if out.PunishmentID != 0 {
		fmt.Fprintf(&b, " (punishment #%d)", out.PunishmentID)
	}
	if out.Notified {
		b.WriteString(", member notified")
	}
	return b.String()
}

func (h *handler) handleBan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.moderate(s, i, func(ctx context.Context, g platform.Guild, req ModerationRequest, o options) (string, error) {
		out, err := h.moderator.Ban(ctx, g, req, BanOptions{DeleteMessageDays: int(o.int("delete_message_days", 0))})
		if err != nil {
			return "", err
		}
		return summary("banned", req.TargetID, out), nil
	})
}

func (h *handler) handleTempBan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.moderate(s, i, func(ctx context.Context, g platform.Guild, req ModerationRequest, o options) (string, error) {
		minutes := o.int("minutes", 0)
		if minutes <= 0 {
			return "", fmt.Errorf("%w: minutes must be positive", ErrInvalidOption)
		}
		req.Notify = true
		out, err := h.moderator.Ban(ctx, g, req, BanOptions{Duration: time.Duration(minutes) * time.Minute})
		if err != nil {
			return "", err
		}
		return summary("banned", req.TargetID, out), nil
	})
}

func (h *handler) handleKick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.moderate(s, i, func(ctx context.Context, g platform.Guild, req ModerationRequest, o options) (string, error) {
		out, err := h.moderator.Kick(ctx, g, req, o.bool("log_as_punishment", true))
		if err != nil {
			return "", err
		}
		return summary("kicked", req.TargetID, out), nil
	})
}

func (h *handler) handleWarn(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.moderate(s, i, func(ctx context.Context, g platform.Guild, req ModerationRequest, o options) (string, error) {
		out, err := h.moderator.Warn(ctx, g, req)
		if err != nil {
			return "", err
		}
		return summary("warned", req.TargetID, out), nil
	})
}

func (h *handler) handlePunishments(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	if !(Actor{Permissions: i.Member.Permissions}).has(discordgo.PermissionModerateMembers) {
		utils.SendErrorResponse(s, i, StatusText(ErrMissingPermission))
		return
	}

	o := optionsOf(i)
	guildID := platform.ParseID(i.GuildID)
	userID := o.id("user")

	list := h.b.Punishments.ListForUser
	if o.bool("all", false) {
		list = h.b.Punishments.ListAllForUser
	}
	records, err := list(ctx, guildID, userID)
	if err != nil {
		logger.WithError(err).Error("Failed to list punishments")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}
	counts, err := h.b.Punishments.CountByType(ctx, guildID, userID)
	if err != nil {
		logger.WithError(err).Error("Failed to count punishments")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}

	utils.SendEmbedResponse(s, i, false, punishmentsEmbed(userID, records, counts))
}

// Embeds hold at most 25 fields; the newest records are shown.
const maxPunishmentFields = 20

func punishmentsEmbed(userID int64, records []model.Punishment, counts map[string]int) *discordgo.MessageEmbed {
	var tally []string
	for _, kind := range []string{model.PunishmentWarn, model.PunishmentTimeout, model.PunishmentKick, model.PunishmentBan} {
		tally = append(tally, fmt.Sprintf("%s: %d", kind, counts[kind]))
	}

	if len(records) > maxPunishmentFields {
		records = records[len(records)-maxPunishmentFields:]
	}
	fields := make([]*discordgo.MessageEmbedField, 0, len(records))
	for _, p := range records {
		name := fmt.Sprintf("#%d %s", p.ID, p.Type)
		if p.Deleted {
			name += " (deleted)"
		}
		value := fmt.Sprintf("<t:%d:d> by %s\n%s", p.Time.Unix(), utils.Mention(p.IssuerID), p.Reason.String)
		fields = append(fields, utils.Field(name, value, false))
	}

	embed := utils.LogEmbed(utils.Info, "Punishments", fields...)
	embed.Description = fmt.Sprintf("%s\n%s", utils.Mention(userID), strings.Join(tally, " · "))
	if len(records) == 0 {
		embed.Description += "\nNo records."
	}
	return embed
}

func (h *handler) handlePunishmentDelete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	if !(Actor{Permissions: i.Member.Permissions}).has(discordgo.PermissionModerateMembers) {
		utils.SendErrorResponse(s, i, StatusText(ErrMissingPermission))
		return
	}

	o := optionsOf(i)
	id := o.int("id", 0)
	p, err := h.b.Punishments.Get(ctx, id)
	if err == nil && p.GuildID != platform.ParseID(i.GuildID) {
		err = database.ErrNotFound
	}
	if err != nil {
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}

	if o.bool("restore", false) {
		err = h.b.Punishments.UnmarkDeleted(ctx, id)
	} else {
		err = h.b.Punishments.MarkDeleted(ctx, id)
	}
	if err != nil {
		logger.WithError(err).WithField("punishment", id).Error("Failed to update punishment")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}

	if o.bool("restore", false) {
		utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ Punishment #%d restored", id))
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ Punishment #%d deleted", id))
}
