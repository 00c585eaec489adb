package database

import (
	"context"
	"fmt"
	"time"

	"discord-modbot/model"
	"discord-modbot/utils"

	"github.com/jmoiron/sqlx"
)

const reminderColumns = `id, creator_id, creator_guild_id, content, reminder_date, public,
	interval_seconds, reminder_type, repeats_left FROM reminders`

// Reminders stores scheduled reminders and the users opted in to them.
type Reminders struct {
	store *Store
}

func NewReminders(store *Store) *Reminders {
	return &Reminders{store: store}
}

// Add stores a reminder and returns its id. The reminder type is required.
func (r *Reminders) Add(ctx context.Context, rem model.Reminder) (int64, error) {
	if !model.ValidReminderType(rem.ReminderType) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidReminderType, rem.ReminderType)
	}

	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx, `
			INSERT INTO reminders (creator_id, creator_guild_id, content, reminder_date, public,
				interval_seconds, reminder_type, repeats_left)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rem.CreatorID, rem.CreatorGuildID, rem.Content, utils.EncodeTime(rem.ReminderDate),
			rem.Public, rem.IntervalSeconds, rem.ReminderType, rem.RepeatsLeft)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add reminder for %d: %w", rem.CreatorID, err)
	}
	return id, nil
}

func (r *Reminders) Get(ctx context.Context, id int64) (model.Reminder, error) {
	var rem model.Reminder
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		rem, err = selectOne(ctx, tx, model.ReminderFromRow, "SELECT "+reminderColumns+" WHERE id = ?", id)
		return err
	})
	return rem, err
}

// ListByCreator returns the creator's reminders, soonest first.
func (r *Reminders) ListByCreator(ctx context.Context, creatorID int64) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		reminders, err = selectAll(ctx, tx, model.ReminderFromRow,
			"SELECT "+reminderColumns+" WHERE creator_id = ? ORDER BY reminder_date, id", creatorID)
		return err
	})
	return reminders, err
}

// ListPublic returns the public reminders created in the guild, soonest first.
func (r *Reminders) ListPublic(ctx context.Context, guildID int64) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		reminders, err = selectAll(ctx, tx, model.ReminderFromRow,
			"SELECT "+reminderColumns+" WHERE public = 1 AND creator_guild_id = ? ORDER BY reminder_date, id", guildID)
		return err
	})
	return reminders, err
}

// GetExpired returns the reminders due before now, oldest first. Rows that
// cannot be read are skipped.
func (r *Reminders) GetExpired(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		reminders, err = selectEach(ctx, tx, model.ReminderFromRow,
			"SELECT "+reminderColumns+" WHERE reminder_date < ? ORDER BY reminder_date, id", utils.EncodeTime(now))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get expired reminders: %w", err)
	}
	return reminders, nil
}

// UpdateReminderRepeats decrements repeats_left when it is positive. Zero and
// the infinite sentinel are left alone and nothing is deleted.
func (r *Reminders) UpdateReminderRepeats(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE reminders SET repeats_left = repeats_left - 1 WHERE id = ? AND repeats_left > 0", id)
		return err
	})
}

// DeleteRemindersWithNoRepeats retires every reminder whose repeats_left is
// exactly zero and returns how many were removed.
func (r *Reminders) DeleteRemindersWithNoRepeats(ctx context.Context) (int64, error) {
	var n int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM reminders WHERE repeats_left = 0")
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to retire reminders: %w", err)
	}
	return n, nil
}

func (r *Reminders) UpdateReminderDate(ctx context.Context, id int64, date time.Time) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "UPDATE reminders SET reminder_date = ? WHERE id = ?", utils.EncodeTime(date), id)
	})
}

// Advance consumes one repeat of a delivered reminder in a single
// transaction. With a zero next the reminder is one-shot and is deleted
// unless it is left at zero repeats for DeleteRemindersWithNoRepeats;
// otherwise it moves to next while repeats remain.
func (r *Reminders) Advance(ctx context.Context, id int64, next time.Time) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE reminders SET repeats_left = repeats_left - 1 WHERE id = ? AND repeats_left > 0", id); err != nil {
			return err
		}
		var left int64
		if err := tx.GetContext(ctx, &left, "SELECT repeats_left FROM reminders WHERE id = ?", id); err != nil {
			return err
		}
		switch {
		case left == 0:
			return nil
		case next.IsZero():
			return execAffecting(ctx, tx, "DELETE FROM reminders WHERE id = ?", id)
		default:
			return execAffecting(ctx, tx, "UPDATE reminders SET reminder_date = ? WHERE id = ?", utils.EncodeTime(next), id)
		}
	})
}

// Delete removes the reminder and, by cascade, its opt-ins.
func (r *Reminders) Delete(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM reminders WHERE id = ?", id)
	})
}

// AddUser opts a user in to a reminder.
func (r *Reminders) AddUser(ctx context.Context, reminderID, userID int64) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx, "INSERT INTO user_reminders (user_id, reminder_id) VALUES (?, ?)", userID, reminderID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to opt %d in to reminder %d: %w", userID, reminderID, err)
	}
	return id, nil
}

func (r *Reminders) RemoveUser(ctx context.Context, reminderID, userID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM user_reminders WHERE user_id = ? AND reminder_id = ?", userID, reminderID)
	})
}

// ListUsers returns the opt-ins of a reminder in the order they were made.
func (r *Reminders) ListUsers(ctx context.Context, reminderID int64) ([]model.UserReminder, error) {
	var users []model.UserReminder
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		users, err = selectAll(ctx, tx, model.UserReminderFromRow,
			"SELECT id, user_id, reminder_id FROM user_reminders WHERE reminder_id = ? ORDER BY id", reminderID)
		return err
	})
	return users, err
}
