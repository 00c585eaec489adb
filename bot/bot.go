package bot

import (
	"fmt"

	"discord-modbot/commands"
	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils"
	"discord-modbot/utils/database"
	"discord-modbot/utils/database/punishments"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("p", "bot")

// Messages kept per channel so edits and deletions can be logged with the
// previous content.
const stateMessageCount = 200

type Bot struct {
	Session            *discordgo.Session
	Platform           *platform.Discord
	Store              *database.Store
	Repos              *database.Repositories
	Punishments        *punishments.Repository
	Invites            *utils.InviteCache
	Locks              *utils.ActionLocks
	RegisteredCommands []*discordgo.ApplicationCommand
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
	config             *model.Config
	scheduler          *Scheduler
}

func (b *Bot) GetConfig() *model.Config {
	return b.config
}

// New creates the session and every repository over an already migrated
// store. The session is not opened until Run.
func New(cfg *model.Config, store *database.Store) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentGuildModeration |
		discordgo.IntentsGuildInvites |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildWebhooks |
		discordgo.IntentMessageContent
	dg.State.MaxMessageCount = stateMessageCount

	repos := database.NewRepositories(store, cfg)
	p := platform.NewDiscord(dg)

	b := &Bot{
		Session:     dg,
		Platform:    p,
		Store:       store,
		Repos:       repos,
		Punishments: punishments.NewRepository(store),
		Invites:     utils.NewInviteCache(),
		Locks:       utils.NewActionLocks(),
		config:      cfg,
	}
	b.scheduler = NewScheduler(p, repos, cfg.SchedulerTick())
	return b, nil
}

// Close stops the scheduler and the session. The store is owned by the
// caller.
func (b *Bot) Close() {
	logger.Info("Gracefully shutting down")
	b.scheduler.Stop()
	if err := b.Session.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close session")
	}
}

// RefreshCommands overwrites the application commands of guildID, or the
// global commands when guildID is empty.
func (b *Bot) RefreshCommands(guildID string) {
	cmds := commands.GenerateCommands()
	fields := logrus.Fields{"guild": guildID, "count": len(cmds)}
	logger.WithFields(fields).Info("Registering commands")

	registered, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, guildID, cmds)
	if err != nil {
		logger.WithError(err).WithFields(fields).Error("Cannot update commands")
		return
	}
	b.RegisteredCommands = append(b.RegisteredCommands, registered...)
}
