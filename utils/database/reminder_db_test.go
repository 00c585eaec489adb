package database

import (
	"context"
	"testing"
	"time"

	"discord-modbot/model"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func newReminder(creator int64, at time.Time, repeats int64) model.Reminder {
	return model.Reminder{
		CreatorID:    creator,
		Content:      "drink water",
		ReminderDate: at,
		ReminderType: model.ReminderAfter,
		RepeatsLeft:  repeats,
	}
}

func TestAddReminderRequiresType(t *testing.T) {
	repo := NewReminders(newTestStore(t))
	rem := newReminder(1, time.Now(), 1)
	rem.ReminderType = ""

	_, err := repo.Add(context.Background(), rem)
	assert.ErrorIs(t, err, ErrInvalidReminderType)
}

func TestGetExpiredOrdersAscending(t *testing.T) {
	ctx := context.Background()
	repo := NewReminders(newTestStore(t))
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	late, err := repo.Add(ctx, newReminder(1, now.Add(-time.Minute), 1))
	require.NoError(t, err)
	early, err := repo.Add(ctx, newReminder(1, now.Add(-time.Hour), 1))
	require.NoError(t, err)
	_, err = repo.Add(ctx, newReminder(1, now.Add(time.Hour), 1))
	require.NoError(t, err)

	expired, err := repo.GetExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, early, expired[0].ID)
	assert.Equal(t, late, expired[1].ID)
}

func TestUpdateReminderRepeatsFloors(t *testing.T) {
	ctx := context.Background()
	repo := NewReminders(newTestStore(t))
	now := time.Now()

	once, err := repo.Add(ctx, newReminder(1, now, 1))
	require.NoError(t, err)
	forever, err := repo.Add(ctx, newReminder(1, now, model.InfiniteRepeats))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.UpdateReminderRepeats(ctx, once))
		require.NoError(t, repo.UpdateReminderRepeats(ctx, forever))
	}

	r, err := repo.Get(ctx, once)
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.RepeatsLeft)
	r, err = repo.Get(ctx, forever)
	require.NoError(t, err)
	assert.Equal(t, int64(model.InfiniteRepeats), r.RepeatsLeft)

	deleted, err := repo.DeleteRemindersWithNoRepeats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, once)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, forever)
	assert.NoError(t, err)
}

func TestReminderOptInsCascade(t *testing.T) {
	ctx := context.Background()
	repo := NewReminders(newTestStore(t))

	rem := newReminder(1, time.Now(), 1)
	rem.Public = true
	rem.CreatorGuildID = null.Int64From(testGuild)
	rem.IntervalSeconds = null.Int64From(3600)
	id, err := repo.Add(ctx, rem)
	require.NoError(t, err)

	_, err = repo.AddUser(ctx, id, 2)
	require.NoError(t, err)
	_, err = repo.AddUser(ctx, id, 3)
	require.NoError(t, err)
	_, err = repo.AddUser(ctx, id, 2)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	public, err := repo.ListPublic(ctx, testGuild)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.True(t, public[0].Repeating())

	require.NoError(t, repo.RemoveUser(ctx, id, 3))
	users, err := repo.ListUsers(ctx, id)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(2), users[0].UserID)

	require.NoError(t, repo.Delete(ctx, id))
	users, err = repo.ListUsers(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = repo.AddUser(ctx, id, 4)
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestUpdateReminderDate(t *testing.T) {
	ctx := context.Background()
	repo := NewReminders(newTestStore(t))
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	id, err := repo.Add(ctx, newReminder(1, start, 2))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateReminderDate(ctx, id, start.Add(24*time.Hour)))

	r, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, start.Add(24*time.Hour), r.ReminderDate)

	assert.ErrorIs(t, repo.UpdateReminderDate(ctx, id+100, start), ErrNotFound)
}

func corruptDate(t *testing.T, store *Store, table, column string, id int64) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE "+table+" SET "+column+" = '2024-01-01T00:00:00Z' WHERE id = ?", id)
		return err
	}))
}

func TestGetExpiredSkipsUnreadableRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewReminders(store)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	healthy, err := repo.Add(ctx, newReminder(1, now.Add(-time.Minute), 1))
	require.NoError(t, err)
	broken, err := repo.Add(ctx, newReminder(2, now.Add(-time.Hour), 1))
	require.NoError(t, err)
	corruptDate(t, store, "reminders", "reminder_date", broken)

	expired, err := repo.GetExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, healthy, expired[0].ID)
}

func TestAdvanceReminder(t *testing.T) {
	ctx := context.Background()
	repo := NewReminders(newTestStore(t))
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	next := start.Add(time.Hour)

	t.Run("repeating moves to next", func(t *testing.T) {
		rem := newReminder(1, start, 3)
		rem.IntervalSeconds = null.Int64From(3600)
		id, err := repo.Add(ctx, rem)
		require.NoError(t, err)

		require.NoError(t, repo.Advance(ctx, id, next))
		r, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), r.RepeatsLeft)
		assert.Equal(t, next, r.ReminderDate)
	})

	t.Run("last repeat stays for retirement", func(t *testing.T) {
		rem := newReminder(1, start, 1)
		rem.IntervalSeconds = null.Int64From(3600)
		id, err := repo.Add(ctx, rem)
		require.NoError(t, err)

		require.NoError(t, repo.Advance(ctx, id, next))
		r, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), r.RepeatsLeft)
		assert.Equal(t, start, r.ReminderDate)
	})

	t.Run("one-shot forever reminder is deleted", func(t *testing.T) {
		id, err := repo.Add(ctx, newReminder(1, start, model.InfiniteRepeats))
		require.NoError(t, err)

		require.NoError(t, repo.Advance(ctx, id, time.Time{}))
		_, err = repo.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing reminder", func(t *testing.T) {
		assert.Error(t, repo.Advance(ctx, 9999, next))
	})
}

func TestTempBans(t *testing.T) {
	ctx := context.Background()
	repo := NewTempBans(newTestStore(t))
	now := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)

	expired, err := repo.Add(ctx, testGuild, 5, now.Add(-time.Second))
	require.NoError(t, err)
	_, err = repo.Add(ctx, testGuild, 6, now.Add(time.Hour))
	require.NoError(t, err)

	bans, err := repo.GetExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, expired, bans[0].ID)
	assert.Equal(t, int64(5), bans[0].UserID)

	require.NoError(t, repo.DeleteByUserGuild(ctx, testGuild, 5))
	bans, err = repo.GetExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, int64(6), bans[0].UserID)
}
