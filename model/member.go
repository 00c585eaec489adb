package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// DefaultTimeZone is reported for users who never set one.
const DefaultTimeZone = "UTC"

type TemporaryBan struct {
	ID        int64
	UserID    int64
	GuildID   int64
	UnbanDate time.Time
}

type LeftMember struct {
	ID        int64
	UserID    int64
	GuildID   int64
	LeaveDate time.Time
}

// TimeZone is a user's preferred zone. ID is invalid for the synthetic
// default record.
type TimeZone struct {
	ID       null.Int64
	UserID   int64
	TimeZone string
}

type Experience struct {
	ID             int64
	UserID         int64
	ServerID       int64
	Amount         int64
	LastExperience time.Time
}

func TemporaryBanFromRow(row Row) (TemporaryBan, error) {
	r := newRowReader("temporary_bans", row)
	b := TemporaryBan{
		ID:        r.int64("id"),
		UserID:    r.int64("user_id"),
		GuildID:   r.int64("guild_id"),
		UnbanDate: r.time("unban_date"),
	}
	return b, r.err
}

func LeftMemberFromRow(row Row) (LeftMember, error) {
	r := newRowReader("left_members", row)
	m := LeftMember{
		ID:        r.int64("id"),
		UserID:    r.int64("user_id"),
		GuildID:   r.int64("guild_id"),
		LeaveDate: r.time("leave_date"),
	}
	return m, r.err
}

func TimeZoneFromRow(row Row) (TimeZone, error) {
	r := newRowReader("time_zones", row)
	tz := TimeZone{
		ID:       null.Int64From(r.int64("id")),
		UserID:   r.int64("user_id"),
		TimeZone: r.string("time_zone"),
	}
	return tz, r.err
}

func ExperienceFromRow(row Row) (Experience, error) {
	r := newRowReader("experience", row)
	e := Experience{
		ID:             r.int64("id"),
		UserID:         r.int64("user_id"),
		ServerID:       r.int64("server_id"),
		Amount:         r.int64("amount"),
		LastExperience: r.time("last_experience"),
	}
	return e, r.err
}
