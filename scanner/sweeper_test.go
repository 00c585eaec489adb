package scanner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/platform/platformtest"
	"discord-modbot/utils/database"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

const guildID = int64(500)

func newStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = database.NewMigrator(store).Migrate(context.Background())
	require.NoError(t, err)
	return store
}

func setup(t *testing.T) (*Sweeper, *platformtest.Platform, *database.Repositories) {
	t.Helper()
	return setupWithStore(t, newStore(t))
}

func setupWithStore(t *testing.T, store *database.Store) (*Sweeper, *platformtest.Platform, *database.Repositories) {
	t.Helper()
	repos := database.NewRepositories(store, &model.Config{})
	fake := platformtest.New()
	return NewSweeper(fake, repos), fake, repos
}

func TestExpiredReminderSweep(t *testing.T) {
	ctx := context.Background()
	sweeper, fake, repos := setup(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := repos.Reminders.Add(ctx, model.Reminder{
		CreatorID:       1,
		Content:         "stand up",
		ReminderDate:    now.Add(-time.Second),
		Public:          true,
		IntervalSeconds: null.Int64From(0),
		ReminderType:    model.ReminderAfter,
		RepeatsLeft:     1,
	})
	require.NoError(t, err)
	_, err = repos.Reminders.AddUser(ctx, id, 2)
	require.NoError(t, err)
	_, err = repos.Reminders.AddUser(ctx, id, 3)
	require.NoError(t, err)

	report := sweeper.Tick(ctx, now)
	assert.Equal(t, 1, report.RemindersDelivered)
	assert.Equal(t, int64(1), report.RemindersRetired)

	for _, user := range []int64{1, 2, 3} {
		msgs := fake.DMsTo(user)
		require.Len(t, msgs, 1, "user %d", user)
		assert.Equal(t, "stand up", msgs[0].Embed.Description)
	}

	_, err = repos.Reminders.Get(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUnreadableRowsDoNotBlockSweep(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	sweeper, fake, repos := setupWithStore(t, store)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	guild := fake.AddGuild(guildID)
	guild.Bans[7] = "spam"
	guild.Bans[8] = "spam"

	healthy, err := repos.Reminders.Add(ctx, model.Reminder{
		CreatorID: 1, Content: "still due", ReminderDate: now.Add(-time.Second),
		ReminderType: model.ReminderAfter, RepeatsLeft: 1,
	})
	require.NoError(t, err)
	broken, err := repos.Reminders.Add(ctx, model.Reminder{
		CreatorID: 2, Content: "garbled", ReminderDate: now.Add(-time.Hour),
		ReminderType: model.ReminderAfter, RepeatsLeft: 1,
	})
	require.NoError(t, err)
	_, err = repos.TempBans.Add(ctx, guildID, 7, now.Add(-time.Minute))
	require.NoError(t, err)
	brokenBan, err := repos.TempBans.Add(ctx, guildID, 8, now.Add(-time.Hour))
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec("UPDATE reminders SET reminder_date = '2024-01-01T00:00:00Z' WHERE id = ?", broken); err != nil {
			return err
		}
		_, err := tx.Exec("UPDATE temporary_bans SET unban_date = '2024-01-01T00:00:00Z' WHERE id = ?", brokenBan)
		return err
	}))

	report := sweeper.Tick(ctx, now)
	assert.Equal(t, 1, report.RemindersDelivered)
	assert.Equal(t, 1, report.BansLifted)
	assert.Len(t, fake.DMsTo(1), 1)
	assert.Empty(t, fake.DMsTo(2))
	assert.Equal(t, []int64{7}, guild.Unbanned)

	_, err = repos.Reminders.Get(ctx, healthy)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestOptInTransportErrorIsCounted(t *testing.T) {
	ctx := context.Background()
	sweeper, fake, repos := setup(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fake.SendErr[3] = platform.ErrTransport

	id, err := repos.Reminders.Add(ctx, model.Reminder{
		CreatorID: 1, CreatorGuildID: null.Int64From(guildID), Content: "team standup",
		ReminderDate: now.Add(-time.Second), Public: true,
		ReminderType: model.ReminderAfter, RepeatsLeft: 1,
	})
	require.NoError(t, err)
	_, err = repos.Reminders.AddUser(ctx, id, 2)
	require.NoError(t, err)
	_, err = repos.Reminders.AddUser(ctx, id, 3)
	require.NoError(t, err)

	report := sweeper.Tick(ctx, now)
	assert.Equal(t, 1, report.RemindersDelivered)
	assert.Equal(t, 1, report.OptInsFailed)
	assert.Len(t, fake.DMsTo(2), 1)
	assert.Empty(t, fake.DMsTo(3))
	assert.Equal(t, int64(1), report.RemindersRetired)
}

func TestTempBanRetriedAfterPlatformError(t *testing.T) {
	ctx := context.Background()
	sweeper, fake, repos := setup(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	guild := fake.AddGuild(guildID)
	guild.Bans[7] = "spam"
	guild.UnbanErr = platform.ErrForbidden

	id, err := repos.TempBans.Add(ctx, guildID, 7, now.Add(-time.Minute))
	require.NoError(t, err)

	report := sweeper.Tick(ctx, now)
	assert.Equal(t, 1, report.BansKept)
	_, err = repos.TempBans.Get(ctx, id)
	require.NoError(t, err)

	guild.UnbanErr = nil
	report = sweeper.Tick(ctx, now.Add(time.Minute))
	assert.Equal(t, 1, report.BansLifted)
	assert.Equal(t, []int64{7}, guild.Unbanned)

	_, err = repos.TempBans.Get(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestTempBanDroppedWhenGuildIsGone(t *testing.T) {
	ctx := context.Background()
	sweeper, _, repos := setup(t)
	now := time.Now().UTC()

	id, err := repos.TempBans.Add(ctx, 999, 7, now.Add(-time.Minute))
	require.NoError(t, err)

	sweeper.Tick(ctx, now)
	_, err = repos.TempBans.Get(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepeatingReminderIsRescheduled(t *testing.T) {
	ctx := context.Background()
	sweeper, fake, repos := setup(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := repos.Reminders.Add(ctx, model.Reminder{
		CreatorID:       1,
		Content:         "weekly sync",
		ReminderDate:    now.Add(-3 * time.Hour),
		IntervalSeconds: null.Int64From(3600),
		ReminderType:    model.ReminderTime,
		RepeatsLeft:     model.InfiniteRepeats,
	})
	require.NoError(t, err)

	sweeper.Tick(ctx, now)
	assert.Len(t, fake.DMsTo(1), 1)

	r, err := repos.Reminders.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), r.ReminderDate)
	assert.Equal(t, int64(model.InfiniteRepeats), r.RepeatsLeft)
}

func TestCreatorTransportErrorSkipsReminder(t *testing.T) {
	ctx := context.Background()
	sweeper, fake, repos := setup(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fake.SendErr[1] = platform.ErrTransport

	id, err := repos.Reminders.Add(ctx, model.Reminder{
		CreatorID: 1, Content: "retry me", ReminderDate: now.Add(-time.Second),
		ReminderType: model.ReminderAfter, RepeatsLeft: 1,
	})
	require.NoError(t, err)

	report := sweeper.Tick(ctx, now)
	assert.Equal(t, 1, report.RemindersSkipped)
	r, err := repos.Reminders.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.RepeatsLeft)

	delete(fake.SendErr, 1)
	sweeper.Tick(ctx, now.Add(time.Minute))
	_, err = repos.Reminders.Get(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestForbiddenCreatorStillAdvances(t *testing.T) {
	ctx := context.Background()
	sweeper, fake, repos := setup(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fake.SendErr[1] = platform.ErrForbidden

	id, err := repos.Reminders.Add(ctx, model.Reminder{
		CreatorID: 1, Content: "closed DMs", ReminderDate: now.Add(-time.Second),
		ReminderType: model.ReminderAfter, RepeatsLeft: model.InfiniteRepeats,
	})
	require.NoError(t, err)

	report := sweeper.Tick(ctx, now)
	assert.Equal(t, 1, report.RemindersDelivered)
	_, err = repos.Reminders.Get(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUnverifiedMembersAreNudgedThenKicked(t *testing.T) {
	ctx := context.Background()
	sweeper, fake, repos := setup(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	category, err := repos.RoleCategories.AddCategory(ctx, guildID, model.CategoryVerified)
	require.NoError(t, err)
	_, err = repos.RoleCategories.AddRole(ctx, category, 77)
	require.NoError(t, err)
	_, err = repos.UnverifiedReminderMessages.Add(ctx, guildID, "first nudge", time.Hour)
	require.NoError(t, err)
	_, err = repos.UnverifiedReminderMessages.Add(ctx, guildID, "second nudge", 2*time.Hour)
	require.NoError(t, err)
	_, err = repos.UnverifiedKickRules.Set(ctx, guildID, 24*time.Hour)
	require.NoError(t, err)

	guild := fake.AddGuild(guildID)
	guild.AddMember(10, 1, now.Add(-3*time.Hour))
	guild.AddMember(11, 1, now.Add(-3*time.Hour), 77)
	guild.AddMember(12, 1, now.Add(-25*time.Hour))
	guild.AddMember(13, 0, now.Add(-3*time.Hour)).Bot = true

	report := sweeper.Tick(ctx, now)
	assert.Equal(t, 1, report.NudgesSent)
	assert.Equal(t, 1, report.MembersKicked)
	require.Len(t, fake.DMsTo(10), 1)
	assert.Equal(t, "first nudge", fake.DMsTo(10)[0].Content)
	assert.Empty(t, fake.DMsTo(11))
	assert.Empty(t, fake.DMsTo(13))
	assert.True(t, guild.Kicked(12))
	assert.False(t, guild.Kicked(10))

	sweeper.Tick(ctx, now.Add(time.Minute))
	msgs := fake.DMsTo(10)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second nudge", msgs[1].Content)

	sweeper.Tick(ctx, now.Add(2*time.Minute))
	assert.Len(t, fake.DMsTo(10), 2)
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := model.Reminder{ReminderDate: now.Add(-90 * time.Minute), IntervalSeconds: null.Int64From(3600)}
	assert.Equal(t, now.Add(30*time.Minute), NextOccurrence(r, now))

	r.ReminderDate = now
	assert.Equal(t, now.Add(time.Hour), NextOccurrence(r, now))

	r.IntervalSeconds = null.Int64{}
	assert.Equal(t, now, NextOccurrence(r, now))
}
