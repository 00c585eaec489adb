package handlers

import (
	"errors"
	"fmt"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils"
	"discord-modbot/utils/database"

	"github.com/bwmarrin/discordgo"
)

func validPurpose(p string) bool {
	switch p {
	case model.PurposeLog, model.PurposeRules, model.PurposeVerification:
		return true
	}
	return false
}

func (h *handler) handleAddChannelUtility(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	if !(Actor{Permissions: i.Member.Permissions}).has(discordgo.PermissionManageGuild) {
		utils.SendErrorResponse(s, i, StatusText(ErrMissingPermission))
		return
	}
	o := optionsOf(i)
	purpose, channelID := o.string("utility", ""), o.id("channel")
	if !validPurpose(purpose) {
		utils.SendErrorResponse(s, i, fmt.Sprintf("Unknown utility %q.", purpose))
		return
	}

	_, err := h.b.Repos.UtilityChannels.Add(ctx, platform.ParseID(i.GuildID), channelID, purpose)
	if errors.Is(err, database.ErrConstraintViolation) {
		utils.SendErrorResponse(s, i, fmt.Sprintf("%s is already a %s channel.", utils.ChannelMention(channelID), purpose))
		return
	}
	if err != nil {
		logger.WithError(err).Error("Failed to add utility channel")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ %s is now a %s channel.", utils.ChannelMention(channelID), purpose))
}

func (h *handler) handleRemoveChannelUtility(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	if !(Actor{Permissions: i.Member.Permissions}).has(discordgo.PermissionManageGuild) {
		utils.SendErrorResponse(s, i, StatusText(ErrMissingPermission))
		return
	}
	o := optionsOf(i)
	purpose, channelID := o.string("utility", ""), o.id("channel")

	err := h.b.Repos.UtilityChannels.Remove(ctx, platform.ParseID(i.GuildID), channelID, purpose)
	if database.IsNotFound(err) {
		utils.SendErrorResponse(s, i, fmt.Sprintf("%s is not a %s channel.", utils.ChannelMention(channelID), purpose))
		return
	}
	if err != nil {
		logger.WithError(err).Error("Failed to remove utility channel")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ %s is no longer a %s channel.", utils.ChannelMention(channelID), purpose))
}
