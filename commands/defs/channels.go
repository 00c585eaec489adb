package defs

import (
	"discord-modbot/model"

	"github.com/bwmarrin/discordgo"
)

var manageGuild int64 = discordgo.PermissionManageGuild

var utilityChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "log", Value: model.PurposeLog},
	{Name: "rules", Value: model.PurposeRules},
	{Name: "verification", Value: model.PurposeVerification},
}

var utilityOptions = []*discordgo.ApplicationCommandOption{
	{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "utility",
		Description: "What the channel is used for",
		Required:    true,
		Choices:     utilityChoices,
	},
	{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  "The text channel",
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	},
}

var AddChannelUtility = &discordgo.ApplicationCommand{
	Name:                     "addchannelutility",
	Description:              "Assign a utility to a channel",
	DefaultMemberPermissions: &manageGuild,
	Options:                  utilityOptions,
}

var RemoveChannelUtility = &discordgo.ApplicationCommand{
	Name:                     "removechannelutility",
	Description:              "Remove a utility from a channel",
	DefaultMemberPermissions: &manageGuild,
	Options:                  utilityOptions,
}
