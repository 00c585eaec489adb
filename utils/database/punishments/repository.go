// Package punishments stores moderation actions. Subjects are never stored
// in plain text: every write and lookup goes through utils.UserIDDigest.
package punishments

import (
	"context"
	"fmt"
	"time"

	"discord-modbot/model"
	"discord-modbot/utils"
	"discord-modbot/utils/database"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"
)

const columns = "id, user_id, issuer_id, guild_id, type, reason, time, deleted FROM punishments"

const ordering = "ORDER BY time ASC, deleted ASC, id ASC"

// Record is a punishment about to be stored, with the subject still in
// plain form.
type Record struct {
	UserID   int64
	IssuerID int64
	GuildID  int64
	Type     string
	Reason   null.String
	Time     time.Time
}

type Repository struct {
	store *database.Store
}

func NewRepository(store *database.Store) *Repository {
	return &Repository{store: store}
}

// Add stores the punishment under the digest of its subject and returns
// the new id.
func (r *Repository) Add(ctx context.Context, rec Record) (int64, error) {
	if !model.ValidPunishmentType(rec.Type) {
		return 0, fmt.Errorf("unknown punishment type %q", rec.Type)
	}

	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = database.Insert(ctx, tx, `
			INSERT INTO punishments (user_id, issuer_id, guild_id, type, reason, time, deleted)
			VALUES (?, ?, ?, ?, ?, ?, 0)`,
			utils.UserIDDigest(rec.UserID), rec.IssuerID, rec.GuildID, rec.Type, rec.Reason, utils.EncodeTime(rec.Time))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add %s punishment: %w", rec.Type, err)
	}
	return id, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (model.Punishment, error) {
	var p model.Punishment
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		p, err = database.SelectOne(ctx, tx, model.PunishmentFromRow, "SELECT "+columns+" WHERE id = ?", id)
		return err
	})
	return p, err
}

// ListForUser returns the user's visible punishments in the guild.
func (r *Repository) ListForUser(ctx context.Context, guildID, userID int64) ([]model.Punishment, error) {
	return r.list(ctx, "WHERE user_id = ? AND guild_id = ? AND deleted = 0", utils.UserIDDigest(userID), guildID)
}

// ListAllForUser is ListForUser including soft-deleted punishments.
func (r *Repository) ListAllForUser(ctx context.Context, guildID, userID int64) ([]model.Punishment, error) {
	return r.list(ctx, "WHERE user_id = ? AND guild_id = ?", utils.UserIDDigest(userID), guildID)
}

// ListForGuild returns every visible punishment issued in the guild.
func (r *Repository) ListForGuild(ctx context.Context, guildID int64) ([]model.Punishment, error) {
	return r.list(ctx, "WHERE guild_id = ? AND deleted = 0", guildID)
}

func (r *Repository) list(ctx context.Context, where string, args ...interface{}) ([]model.Punishment, error) {
	var punishments []model.Punishment
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		punishments, err = database.SelectAll(ctx, tx, model.PunishmentFromRow,
			"SELECT "+columns+" "+where+" "+ordering, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list punishments: %w", err)
	}
	return punishments, nil
}

// CountByType returns the number of visible punishments of each type the
// user received in the guild.
func (r *Repository) CountByType(ctx context.Context, guildID, userID int64) (map[string]int, error) {
	type count struct {
		Type  string `db:"type"`
		Count int    `db:"n"`
	}
	var counts []count
	err := r.store.View(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &counts,
			"SELECT type, COUNT(*) AS n FROM punishments WHERE user_id = ? AND guild_id = ? AND deleted = 0 GROUP BY type",
			utils.UserIDDigest(userID), guildID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count punishments: %w", err)
	}

	result := make(map[string]int, len(counts))
	for _, c := range counts {
		result[c.Type] = c.Count
	}
	return result, nil
}

// MarkDeleted hides a punishment from the default listing. Marking an
// already hidden punishment is a no-op.
func (r *Repository) MarkDeleted(ctx context.Context, id int64) error {
	return r.setDeleted(ctx, id, true)
}

// UnmarkDeleted restores a hidden punishment.
func (r *Repository) UnmarkDeleted(ctx context.Context, id int64) error {
	return r.setDeleted(ctx, id, false)
}

func (r *Repository) setDeleted(ctx context.Context, id int64, deleted bool) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return database.ExecAffecting(ctx, tx, "UPDATE punishments SET deleted = ? WHERE id = ?", deleted, id)
	})
}

// Delete removes a punishment permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return database.ExecAffecting(ctx, tx, "DELETE FROM punishments WHERE id = ?", id)
	})
}
