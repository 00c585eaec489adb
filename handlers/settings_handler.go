package handlers

import (
	"fmt"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils"
	"discord-modbot/utils/database"

	"github.com/bwmarrin/discordgo"
)

// Embeds hold at most 25 fields.
const maxSettingFields = 25

func (h *handler) handleSettings(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	if !(Actor{Permissions: i.Member.Permissions}).has(discordgo.PermissionManageGuild) {
		utils.SendErrorResponse(s, i, StatusText(ErrMissingPermission))
		return
	}

	guildID := platform.ParseID(i.GuildID)
	o := optionsOf(i)
	name := o.string("name", "")

	switch o.string("action", "") {
	case "search":
		settings, err := h.b.Repos.GuildSettings.Search(ctx, guildID, name)
		if err != nil {
			logger.WithError(err).Error("Failed to search settings")
			utils.SendErrorResponse(s, i, StatusText(err))
			return
		}
		utils.SendEmbedResponse(s, i, false, settingsEmbed(name, settings))

	case "set":
		value := o.string("value", "")
		if name == "" || value == "" {
			utils.SendErrorResponse(s, i, "Both name and value are required.")
			return
		}
		if _, err := h.b.Repos.GuildSettings.Set(ctx, guildID, name, value); err != nil {
			if database.IsNotFound(err) {
				utils.SendErrorResponse(s, i, fmt.Sprintf("Unknown setting %q.", name))
				return
			}
			logger.WithError(err).Error("Failed to set setting")
			utils.SendErrorResponse(s, i, StatusText(err))
			return
		}
		utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ %s = %s", name, value))

	case "reset":
		err := h.b.Repos.GuildSettings.ResetToDefaultByName(ctx, guildID, name)
		if database.IsNotFound(err) {
			utils.SendErrorResponse(s, i, fmt.Sprintf("Unknown setting %q.", name))
			return
		}
		if err != nil {
			logger.WithError(err).Error("Failed to reset setting")
			utils.SendErrorResponse(s, i, StatusText(err))
			return
		}
		value, err := h.b.Repos.GuildSettings.Value(ctx, guildID, name)
		if err != nil {
			utils.SendErrorResponse(s, i, StatusText(err))
			return
		}
		utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ %s reset to %s", name, value))

	default:
		utils.SendErrorResponse(s, i, "Unknown action.")
	}
}

func settingsEmbed(keyword string, settings []model.GuildSetting) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(settings))
	for n, gs := range settings {
		if n == maxSettingFields {
			break
		}
		fields = append(fields, utils.Field(gs.Name, gs.Value, true))
	}
	embed := utils.LogEmbed(utils.Info, "Settings", fields...)
	if keyword != "" {
		embed.Description = fmt.Sprintf("Matching %q", keyword)
	}
	if len(settings) == 0 {
		embed.Description = "No settings found."
	}
	return embed
}
