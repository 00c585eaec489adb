package defs

import "github.com/bwmarrin/discordgo"

var (
	minRepeatMinutes = 1.0
	minRepeats       = -1.0
)

var Remind = &discordgo.ApplicationCommand{
	Name:        "remind",
	Description: "Set a reminder",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "when",
			Description: "When to remind, like \"in 2 hours\" or \"tomorrow at 9am\"",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "content",
			Description: "What to remind about",
			Required:    true,
			MaxLength:   1000,
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "public",
			Description: "Let other members opt in",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "repeat_minutes",
			Description: "Repeat every this many minutes",
			MinValue:    &minRepeatMinutes,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "repeats",
			Description: "How many times to fire, -1 for forever (default 1)",
			MinValue:    &minRepeats,
		},
	},
}

var Reminders = &discordgo.ApplicationCommand{
	Name:        "reminders",
	Description: "List, join, leave or delete reminders",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "action",
			Description: "What to do",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "list", Value: "list"},
				{Name: "join", Value: "join"},
				{Name: "leave", Value: "leave"},
				{Name: "delete", Value: "delete"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "id",
			Description: "Reminder id",
			MinValue:    &minID,
		},
	},
}

var TimeZone = &discordgo.ApplicationCommand{
	Name:        "timezone",
	Description: "Show or set your time zone",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "zone",
			Description: "IANA name or abbreviation, like Europe/Berlin or CET",
		},
	},
}

var Settings = &discordgo.ApplicationCommand{
	Name:                     "settings",
	Description:              "Search, change or reset guild settings",
	DefaultMemberPermissions: &manageGuild,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "action",
			Description: "What to do",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "search", Value: "search"},
				{Name: "set", Value: "set"},
				{Name: "reset", Value: "reset"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "name",
			Description: "Setting name, or keyword for search",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "value",
			Description: "New value for set",
		},
	},
}

var SystemInfo = &discordgo.ApplicationCommand{
	Name:                     "systeminfo",
	Description:              "Display bot and system status information",
	DefaultMemberPermissions: &manageGuild,
}
