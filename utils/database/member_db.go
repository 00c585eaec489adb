package database

import (
	"context"
	"fmt"
	"time"

	"discord-modbot/model"
	"discord-modbot/utils"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"
)

// TempBans stores bans that are lifted by the scheduler once unban_date
// has passed.
type TempBans struct {
	store *Store
}

func NewTempBans(store *Store) *TempBans {
	return &TempBans{store: store}
}

func (r *TempBans) Add(ctx context.Context, guildID, userID int64, unbanDate time.Time) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO temporary_bans (user_id, guild_id, unban_date) VALUES (?, ?, ?)",
			userID, guildID, utils.EncodeTime(unbanDate))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add temporary ban of %d: %w", userID, err)
	}
	return id, nil
}

func (r *TempBans) Get(ctx context.Context, id int64) (model.TemporaryBan, error) {
	var b model.TemporaryBan
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		b, err = selectOne(ctx, tx, model.TemporaryBanFromRow,
			"SELECT id, user_id, guild_id, unban_date FROM temporary_bans WHERE id = ?", id)
		return err
	})
	return b, err
}

// GetExpired returns every ban whose unban_date is before now, oldest first.
// Rows that cannot be read are skipped.
func (r *TempBans) GetExpired(ctx context.Context, now time.Time) ([]model.TemporaryBan, error) {
	var bans []model.TemporaryBan
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		bans, err = selectEach(ctx, tx, model.TemporaryBanFromRow,
			"SELECT id, user_id, guild_id, unban_date FROM temporary_bans WHERE unban_date < ? ORDER BY unban_date, id",
			utils.EncodeTime(now))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get expired temporary bans: %w", err)
	}
	return bans, nil
}

func (r *TempBans) Delete(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM temporary_bans WHERE id = ?", id)
	})
}

// DeleteByUserGuild drops pending bans of a user who was unbanned by hand.
func (r *TempBans) DeleteByUserGuild(ctx context.Context, guildID, userID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM temporary_bans WHERE user_id = ? AND guild_id = ?", userID, guildID)
		return err
	})
}

// LeftMembers records when members leave a guild.
type LeftMembers struct {
	store *Store
}

func NewLeftMembers(store *Store) *LeftMembers {
	return &LeftMembers{store: store}
}

func (r *LeftMembers) Add(ctx context.Context, guildID, userID int64, at time.Time) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO left_members (user_id, guild_id, leave_date) VALUES (?, ?, ?)",
			userID, guildID, utils.EncodeTime(at))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record leave of %d: %w", userID, err)
	}
	return id, nil
}

// ListForUser returns the user's departures from the guild, oldest first.
func (r *LeftMembers) ListForUser(ctx context.Context, guildID, userID int64) ([]model.LeftMember, error) {
	var members []model.LeftMember
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		members, err = selectAll(ctx, tx, model.LeftMemberFromRow,
			"SELECT id, user_id, guild_id, leave_date FROM left_members WHERE guild_id = ? AND user_id = ? ORDER BY leave_date, id",
			guildID, userID)
		return err
	})
	return members, err
}

// TimeZones stores each user's preferred zone.
type TimeZones struct {
	store *Store
}

func NewTimeZones(store *Store) *TimeZones {
	return &TimeZones{store: store}
}

// GetUserTimeZone returns the stored zone or, when the user never set one,
// a synthetic UTC record without id. It never reports ErrNotFound.
func (r *TimeZones) GetUserTimeZone(ctx context.Context, userID int64) (model.TimeZone, error) {
	var tz model.TimeZone
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		tz, err = selectOne(ctx, tx, model.TimeZoneFromRow,
			"SELECT id, user_id, time_zone FROM time_zones WHERE user_id = ?", userID)
		return err
	})
	if IsNotFound(err) {
		return model.TimeZone{ID: null.Int64{}, UserID: userID, TimeZone: model.DefaultTimeZone}, nil
	}
	return tz, err
}

// Set stores the user's zone, replacing a previous one.
func (r *TimeZones) Set(ctx context.Context, userID int64, zone string) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO time_zones (user_id, time_zone) VALUES (?, ?)
			ON CONFLICT (user_id) DO UPDATE SET time_zone = excluded.time_zone`, userID, zone); err != nil {
			return err
		}
		return tx.GetContext(ctx, &id, "SELECT id FROM time_zones WHERE user_id = ?", userID)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to set time zone of %d: %w", userID, err)
	}
	return id, nil
}

func (r *TimeZones) Delete(ctx context.Context, userID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM time_zones WHERE user_id = ?", userID)
	})
}

// Experience tracks per-guild activity points.
type Experience struct {
	store *Store
}

func NewExperience(store *Store) *Experience {
	return &Experience{store: store}
}

// Award adds amount to the user's experience unless the previous award is
// less than interval old. It reports whether points were granted.
func (r *Experience) Award(ctx context.Context, guildID, userID, amount int64, now time.Time, interval time.Duration) (bool, error) {
	var awarded bool
	err := r.store.Update(ctx, func(tx *sqlx.Tx) error {
		current, err := selectOne(ctx, tx, model.ExperienceFromRow,
			"SELECT id, user_id, server_id, amount, last_experience FROM experience WHERE user_id = ? AND server_id = ?",
			userID, guildID)
		switch {
		case IsNotFound(err):
			_, err = tx.ExecContext(ctx,
				"INSERT INTO experience (user_id, server_id, amount, last_experience) VALUES (?, ?, ?, ?)",
				userID, guildID, amount, utils.EncodeTime(now))
			awarded = err == nil
			return err
		case err != nil:
			return err
		}

		if now.Sub(current.LastExperience) < interval {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE experience SET amount = amount + ?, last_experience = ? WHERE id = ?",
			amount, utils.EncodeTime(now), current.ID)
		awarded = err == nil
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to award experience to %d: %w", userID, err)
	}
	return awarded, nil
}

func (r *Experience) Get(ctx context.Context, guildID, userID int64) (model.Experience, error) {
	var e model.Experience
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		e, err = selectOne(ctx, tx, model.ExperienceFromRow,
			"SELECT id, user_id, server_id, amount, last_experience FROM experience WHERE user_id = ? AND server_id = ?",
			userID, guildID)
		return err
	})
	return e, err
}

// Leaderboard returns the guild's top entries by amount.
func (r *Experience) Leaderboard(ctx context.Context, guildID int64, limit int) ([]model.Experience, error) {
	var entries []model.Experience
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		entries, err = selectAll(ctx, tx, model.ExperienceFromRow,
			"SELECT id, user_id, server_id, amount, last_experience FROM experience WHERE server_id = ? ORDER BY amount DESC, id LIMIT ?",
			guildID, limit)
		return err
	})
	return entries, err
}
