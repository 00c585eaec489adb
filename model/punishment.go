package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Punishment types.
const (
	PunishmentBan     = "BAN"
	PunishmentKick    = "KICK"
	PunishmentTimeout = "TIMEOUT"
	PunishmentWarn    = "WARN"
)

func ValidPunishmentType(t string) bool {
	switch t {
	case PunishmentBan, PunishmentKick, PunishmentTimeout, PunishmentWarn:
		return true
	}
	return false
}

// Punishment is a stored moderation action. The subject is only known by the
// hex SHA-256 digest of its identifier.
type Punishment struct {
	ID           int64
	UserIDDigest string
	IssuerID     int64
	GuildID      int64
	Type         string
	Reason       null.String
	Time         time.Time
	Deleted      bool
}

func PunishmentFromRow(row Row) (Punishment, error) {
	r := newRowReader("punishments", row)
	p := Punishment{
		ID:           r.int64("id"),
		UserIDDigest: r.string("user_id"),
		IssuerID:     r.int64("issuer_id"),
		GuildID:      r.int64("guild_id"),
		Type:         r.string("type"),
		Reason:       r.nullString("reason"),
		Time:         r.time("time"),
		Deleted:      r.bool("deleted"),
	}
	return p, r.err
}
