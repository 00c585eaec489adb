package defs

import "github.com/bwmarrin/discordgo"

var (
	minDelayMinutes = 0.0
	minKickHours    = 1.0
	minID           = 1.0
)

var Verification = &discordgo.ApplicationCommand{
	Name:                     "verification",
	Description:              "Configure verified roles, passphrases, nudges and the kick rule",
	DefaultMemberPermissions: &manageGuild,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "action",
			Description: "What to do",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "show", Value: "show"},
				{Name: "role-add", Value: "role-add"},
				{Name: "role-remove", Value: "role-remove"},
				{Name: "template-add", Value: "template-add"},
				{Name: "template-delete", Value: "template-delete"},
				{Name: "kick-set", Value: "kick-set"},
				{Name: "kick-clear", Value: "kick-clear"},
				{Name: "passphrase-add", Value: "passphrase-add"},
				{Name: "passphrase-delete", Value: "passphrase-delete"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "role",
			Description: "Verified role, or the role a passphrase grants",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "text",
			Description: "Nudge message or passphrase",
			MaxLength:   1000,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "minutes",
			Description: "Minutes after joining before the nudge is sent",
			MinValue:    &minDelayMinutes,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "hours",
			Description: "Hours after joining before unverified members are kicked",
			MinValue:    &minKickHours,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "id",
			Description: "Template or passphrase id, see show",
			MinValue:    &minID,
		},
	},
}
