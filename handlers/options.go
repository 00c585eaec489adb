package handlers

import (
	"fmt"

	"discord-modbot/platform"

	"github.com/bwmarrin/discordgo"
)

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(i *discordgo.InteractionCreate) options {
	opts := i.ApplicationCommandData().Options
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) string(name, def string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return def
}

func (o options) int(name string, def int64) int64 {
	if opt, ok := o[name]; ok {
		return opt.IntValue()
	}
	return def
}

func (o options) bool(name string, def bool) bool {
	if opt, ok := o[name]; ok {
		return opt.BoolValue()
	}
	return def
}

// id returns the snowflake of a user, channel or role option.
func (o options) id(name string) int64 {
	if opt, ok := o[name]; ok {
		return platform.ParseID(fmt.Sprint(opt.Value))
	}
	return 0
}
