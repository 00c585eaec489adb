package defs

import "github.com/bwmarrin/discordgo"

var (
	banMembers  int64 = discordgo.PermissionBanMembers
	kickMembers int64 = discordgo.PermissionKickMembers
	moderate    int64 = discordgo.PermissionModerateMembers

	minDays       = 0.0
	minMinutes    = 1.0
	minPunishment = 1.0
)

func memberOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "member",
		Description: "The member to act on",
		Required:    true,
	}
}

func reasonOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason shown in the audit log and the notification",
		Required:    required,
		MaxLength:   512,
	}
}

func notifyOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionBoolean,
		Name:        "notify",
		Description: "Send the member a direct message (default false)",
	}
}

var Ban = &discordgo.ApplicationCommand{
	Name:                     "ban",
	Description:              "Ban a member",
	DefaultMemberPermissions: &banMembers,
	Options: []*discordgo.ApplicationCommandOption{
		memberOption(),
		reasonOption(false),
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "delete_message_days",
			Description: "Days of messages to delete (0-7, default 0)",
			MinValue:    &minDays,
			MaxValue:    7,
		},
		notifyOption(),
	},
}

var Kick = &discordgo.ApplicationCommand{
	Name:                     "kick",
	Description:              "Kick a member",
	DefaultMemberPermissions: &kickMembers,
	Options: []*discordgo.ApplicationCommandOption{
		memberOption(),
		reasonOption(false),
		notifyOption(),
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "log_as_punishment",
			Description: "Record the kick as a punishment (default true)",
		},
	},
}

var TempBan = &discordgo.ApplicationCommand{
	Name:                     "tempban",
	Description:              "Ban a member for a number of minutes",
	DefaultMemberPermissions: &banMembers,
	Options: []*discordgo.ApplicationCommandOption{
		memberOption(),
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "minutes",
			Description: "Ban length in minutes",
			Required:    true,
			MinValue:    &minMinutes,
			MaxValue:    60 * 24 * 365,
		},
		reasonOption(false),
	},
}

var Warn = &discordgo.ApplicationCommand{
	Name:                     "warn",
	Description:              "Warn a member",
	DefaultMemberPermissions: &moderate,
	Options: []*discordgo.ApplicationCommandOption{
		memberOption(),
		reasonOption(true),
	},
}

var Punishments = &discordgo.ApplicationCommand{
	Name:                     "punishments",
	Description:              "List a user's punishments",
	DefaultMemberPermissions: &moderate,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "The user to look up",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "all",
			Description: "Include deleted records",
		},
	},
}

var PunishmentDelete = &discordgo.ApplicationCommand{
	Name:                     "punishment-delete",
	Description:              "Delete or restore a punishment record",
	DefaultMemberPermissions: &moderate,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "id",
			Description: "Punishment id",
			Required:    true,
			MinValue:    &minPunishment,
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "restore",
			Description: "Restore a deleted record instead",
		},
	},
}
