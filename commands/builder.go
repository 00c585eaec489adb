package commands

import (
	"discord-modbot/commands/defs"

	"github.com/bwmarrin/discordgo"
)

// GenerateCommands returns every slash command the bot registers.
func GenerateCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.AddChannelUtility,
		defs.RemoveChannelUtility,
		defs.Ban,
		defs.Kick,
		defs.TempBan,
		defs.Warn,
		defs.Punishments,
		defs.PunishmentDelete,
		defs.Remind,
		defs.Reminders,
		defs.TimeZone,
		defs.Settings,
		defs.Verification,
		defs.SystemInfo,
	}
}
