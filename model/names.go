package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// NameRecord is one entry of a username, nickname or global name history.
// GuildID is only set for nicknames.
type NameRecord struct {
	ID      int64
	UserID  int64
	GuildID null.Int64
	Name    string
	Time    time.Time
}

func NameRecordFromRow(table string, row Row) (NameRecord, error) {
	r := newRowReader(table, row)
	n := NameRecord{
		ID:     r.int64("id"),
		UserID: r.int64("user_id"),
		Name:   r.string("name"),
		Time:   r.time("time"),
	}
	if _, ok := row["guild_id"]; ok {
		n.GuildID = r.nullInt64("guild_id")
	}
	return n, r.err
}
