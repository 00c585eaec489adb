package handlers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"discord-modbot/bot"
	"discord-modbot/model"
	"discord-modbot/platform/platformtest"
	"discord-modbot/utils"
	"discord-modbot/utils/database"
	"discord-modbot/utils/database/punishments"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

const (
	guildID    = int64(100)
	logChannel = int64(900)
	modID      = int64(1)
	targetID   = int64(2)
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	h           *handler
	repos       *database.Repositories
	punishments *punishments.Repository
	p           *platformtest.Platform
	g           *platformtest.Guild
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = database.NewMigrator(store).Migrate(context.Background())
	require.NoError(t, err)

	repos := database.NewRepositories(store, &model.Config{})
	pun := punishments.NewRepository(store)
	locks := utils.NewActionLocks()
	b := &bot.Bot{
		Store:       store,
		Repos:       repos,
		Punishments: pun,
		Invites:     utils.NewInviteCache(),
		Locks:       locks,
	}

	mod := NewModerator(repos, pun, locks)
	mod.now = func() time.Time { return epoch }

	p := platformtest.New()
	g := p.AddGuild(guildID)
	_, err = repos.UtilityChannels.Add(context.Background(), guildID, logChannel, model.PurposeLog)
	require.NoError(t, err)

	return &fixture{
		h: &handler{
			b:         b,
			moderator: mod,
			events:    NewEventLog(repos),
			reminders: NewReminderParser(),
		},
		repos:       repos,
		punishments: pun,
		p:           p,
		g:           g,
	}
}

// moderator adds a member with every moderation permission and the given
// top role.
func (f *fixture) moderator(top int) Actor {
	m := f.g.AddMember(modID, top, epoch.Add(-24*time.Hour))
	return Actor{
		Member: m,
		Permissions: discordgo.PermissionBanMembers |
			discordgo.PermissionKickMembers |
			discordgo.PermissionModerateMembers,
	}
}

func (f *fixture) logged() int {
	return len(f.g.ChannelMessages(logChannel))
}
