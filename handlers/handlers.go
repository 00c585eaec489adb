package handlers

import (
	"context"
	"time"

	"discord-modbot/bot"
	"discord-modbot/platform"
	"discord-modbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("p", "handlers")

// Each command or event gets its own deadline.
const handlerTimeout = 30 * time.Second

type handler struct {
	b         *bot.Bot
	moderator *Moderator
	events    *EventLog
	reminders *ReminderParser
}

func Register(b *bot.Bot) {
	h := &handler{
		b:         b,
		moderator: NewModerator(b.Repos, b.Punishments, b.Locks),
		events:    NewEventLog(b.Repos),
		reminders: NewReminderParser(),
	}
	b.CommandHandlers = h.commandHandlers()
	h.addHandlers()
}

func (h *handler) commandHandlers() map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"addchannelutility":    h.handleAddChannelUtility,
		"removechannelutility": h.handleRemoveChannelUtility,
		"ban":                  h.handleBan,
		"kick":                 h.handleKick,
		"tempban":              h.handleTempBan,
		"warn":                 h.handleWarn,
		"punishments":          h.handlePunishments,
		"punishment-delete":    h.handlePunishmentDelete,
		"remind":               h.handleRemind,
		"reminders":            h.handleReminders,
		"timezone":             h.handleTimeZone,
		"settings":             h.handleSettings,
		"verification":         h.handleVerification,
		"systeminfo":           h.handleSystemInfo,
	}
}

func (h *handler) addHandlers() {
	s := h.b.Session
	s.AddHandler(h.onReady)
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if i.Member == nil {
			utils.SendErrorResponse(s, i, "Commands only work inside a server.")
			return
		}
		if f, ok := h.b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			f(s, i)
		}
	})
	s.AddHandler(h.onGuildCreate)
	s.AddHandler(h.onGuildDelete)
	s.AddHandler(h.onMessageCreate)
	s.AddHandler(h.onMessageUpdate)
	s.AddHandler(h.onMessageDelete)
	s.AddHandler(h.onMemberJoin)
	s.AddHandler(h.onMemberRemove)
	s.AddHandler(h.onMemberUpdate)
	s.AddHandler(h.onBan)
	s.AddHandler(h.onUnban)
	s.AddHandler(h.onInviteCreate)
	s.AddHandler(h.onInviteDelete)
	s.AddHandler(h.onChannelCreate)
	s.AddHandler(h.onChannelDelete)
	s.AddHandler(h.onRoleCreate)
	s.AddHandler(h.onRoleDelete)
	s.AddHandler(h.onReactionAdd)
	s.AddHandler(h.onWebhooksUpdate)
}

func (h *handler) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

// guild resolves a guild through the platform adapter.
func (h *handler) guild(ctx context.Context, guildID string) (platform.Guild, error) {
	return h.b.Platform.Guild(ctx, platform.ParseID(guildID))
}

// actor resolves the invoking member of an interaction.
func (h *handler) actor(ctx context.Context, g platform.Guild, i *discordgo.InteractionCreate) (Actor, error) {
	m, err := g.Member(ctx, platform.ParseID(i.Member.User.ID))
	if err != nil {
		return Actor{}, err
	}
	return Actor{Member: m, Permissions: i.Member.Permissions}, nil
}
