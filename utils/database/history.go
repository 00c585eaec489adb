package database

import (
	"context"
	"fmt"
	"time"

	"discord-modbot/model"
	"discord-modbot/utils"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// TrimStrategy picks which stored record becomes the floor when a history
// is full. Every record with an id up to and including the floor is removed.
type TrimStrategy int

const (
	// TrimFromOldest uses the earliest record as the floor, keeping a
	// rolling window of the most recent names.
	TrimFromOldest TrimStrategy = iota
	// TrimFromNewest uses the newest record as the floor, which clears the
	// whole history before the insert.
	TrimFromNewest
)

func (s TrimStrategy) String() string {
	if s == TrimFromNewest {
		return "newest"
	}
	return "oldest"
}

// boundedHistory is a per-subject name log capped at limit records.
type boundedHistory struct {
	store    *Store
	table    string
	scoped   bool
	strategy TrimStrategy
	limit    int
	now      func() time.Time
}

type historySubject struct {
	userID  int64
	guildID int64
}

func (h *boundedHistory) where(s historySubject) (string, []interface{}) {
	if h.scoped {
		return "user_id = ? AND guild_id = ?", []interface{}{s.userID, s.guildID}
	}
	return "user_id = ?", []interface{}{s.userID}
}

func (h *boundedHistory) columns() string {
	if h.scoped {
		return "id, user_id, guild_id, name, time"
	}
	return "id, user_id, name, time"
}

func (h *boundedHistory) fromRow(row model.Row) (model.NameRecord, error) {
	return model.NameRecordFromRow(h.table, row)
}

func (h *boundedHistory) list(ctx context.Context, tx *sqlx.Tx, s historySubject) ([]model.NameRecord, error) {
	where, args := h.where(s)
	return selectAll(ctx, tx, h.fromRow,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY time, id", h.columns(), h.table, where), args...)
}

// add trims the subject's history when it holds limit or more records and
// then appends name.
func (h *boundedHistory) add(ctx context.Context, s historySubject, name string) (int64, error) {
	var id int64
	err := h.store.Update(ctx, func(tx *sqlx.Tx) error {
		records, err := h.list(ctx, tx, s)
		if err != nil {
			return err
		}

		if len(records) >= h.limit && len(records) > 0 {
			// With exactly limit records the floor is the earliest one; a
			// history that outgrew a lowered limit is cut back in one go.
			floor := records[0]
			if h.limit > 0 {
				floor = records[len(records)-h.limit]
			}
			if h.strategy == TrimFromNewest {
				floor = records[len(records)-1]
			}
			where, args := h.where(s)
			res, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE %s AND id <= ?", h.table, where), append(args, floor.ID)...)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil {
				logger.WithFields(logrus.Fields{
					"table":   h.table,
					"user":    s.userID,
					"trimmed": n,
				}).Debug("Trimmed name history")
			}
		}

		at := utils.EncodeTime(h.now())
		if h.scoped {
			id, err = insert(ctx, tx,
				fmt.Sprintf("INSERT INTO %s (user_id, guild_id, name, time) VALUES (?, ?, ?, ?)", h.table),
				s.userID, s.guildID, name, at)
		} else {
			id, err = insert(ctx, tx,
				fmt.Sprintf("INSERT INTO %s (user_id, name, time) VALUES (?, ?, ?)", h.table),
				s.userID, name, at)
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add %s entry for %d: %w", h.table, s.userID, err)
	}
	return id, nil
}

func (h *boundedHistory) history(ctx context.Context, s historySubject) ([]model.NameRecord, error) {
	var records []model.NameRecord
	err := h.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		records, err = h.list(ctx, tx, s)
		return err
	})
	return records, err
}

func (h *boundedHistory) latest(ctx context.Context, s historySubject) (model.NameRecord, error) {
	var rec model.NameRecord
	err := h.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		where, args := h.where(s)
		rec, err = selectOne(ctx, tx, h.fromRow,
			fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY time DESC, id DESC LIMIT 1", h.columns(), h.table, where),
			args...)
		return err
	})
	return rec, err
}

func (h *boundedHistory) deleteAll(ctx context.Context, s historySubject) error {
	return h.store.Update(ctx, func(tx *sqlx.Tx) error {
		where, args := h.where(s)
		_, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", h.table, where), args...)
		return err
	})
}
