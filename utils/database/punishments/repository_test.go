package punishments

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"discord-modbot/model"
	"discord-modbot/utils/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

const guild = int64(10)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = database.NewMigrator(store).Migrate(context.Background())
	require.NoError(t, err)
	return NewRepository(store)
}

func TestAddStoresDigestOnly(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	id, err := repo.Add(ctx, Record{
		UserID: 1234, IssuerID: 1, GuildID: guild, Type: model.PunishmentWarn,
		Reason: null.StringFrom("spam"), Time: time.Now(),
	})
	require.NoError(t, err)

	list, err := repo.ListForUser(ctx, guild, 1234)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "03ac674216f3e15c761ee1a5e255f067953623c8b388b4459e13f978d7c846f4", list[0].UserIDDigest)

	other, err := repo.ListForUser(ctx, guild, 4321)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRejectsUnknownType(t *testing.T) {
	_, err := newRepo(t).Add(context.Background(), Record{UserID: 1, Type: "SHOUT", Time: time.Now()})
	assert.Error(t, err)
}

func TestSoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := repo.Add(ctx, Record{UserID: 5, IssuerID: 1, GuildID: guild, Type: model.PunishmentKick, Time: base})
	require.NoError(t, err)
	second, err := repo.Add(ctx, Record{UserID: 5, IssuerID: 1, GuildID: guild, Type: model.PunishmentBan, Time: base.Add(time.Hour)})
	require.NoError(t, err)

	original, err := repo.Get(ctx, first)
	require.NoError(t, err)

	require.NoError(t, repo.MarkDeleted(ctx, first))
	require.NoError(t, repo.MarkDeleted(ctx, first))

	visible, err := repo.ListForUser(ctx, guild, 5)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, second, visible[0].ID)

	all, err := repo.ListAllForUser(ctx, guild, 5)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[0].ID)
	assert.True(t, all[0].Deleted)

	require.NoError(t, repo.UnmarkDeleted(ctx, first))
	require.NoError(t, repo.UnmarkDeleted(ctx, first))
	restored, err := repo.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, original, restored)

	assert.ErrorIs(t, repo.MarkDeleted(ctx, 999), database.ErrNotFound)
}

func TestCountByType(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	now := time.Now()

	for _, kind := range []string{model.PunishmentWarn, model.PunishmentWarn, model.PunishmentTimeout} {
		_, err := repo.Add(ctx, Record{UserID: 8, IssuerID: 1, GuildID: guild, Type: kind, Time: now})
		require.NoError(t, err)
	}

	counts, err := repo.CountByType(ctx, guild, 8)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{model.PunishmentWarn: 2, model.PunishmentTimeout: 1}, counts)

	guildList, err := repo.ListForGuild(ctx, guild)
	require.NoError(t, err)
	assert.Len(t, guildList, 3)

	require.NoError(t, repo.Delete(ctx, guildList[0].ID))
	_, err = repo.Get(ctx, guildList[0].ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
