package model

import (
	"testing"
	"time"

	"discord-modbot/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderFromRow(t *testing.T) {
	row := Row{
		"id":               int64(3),
		"creator_id":       int64(42),
		"creator_guild_id": nil,
		"content":          "water the plants",
		"reminder_date":    "2025-03-01 12:00:00",
		"public":           int64(1),
		"interval_seconds": int64(3600),
		"reminder_type":    ReminderAfter,
		"repeats_left":     int64(-1),
		"unrelated_column": "ignored",
	}

	r, err := ReminderFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.ID)
	assert.False(t, r.CreatorGuildID.Valid)
	assert.True(t, r.Public)
	assert.True(t, r.Repeating())
	assert.Equal(t, int64(InfiniteRepeats), r.RepeatsLeft)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), r.ReminderDate)
}

func TestFromRowMissingColumn(t *testing.T) {
	_, err := SettingFromRow(Row{"id": int64(1), "name": "log_invites"})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestFromRowNullRequiredColumn(t *testing.T) {
	_, err := UtilityChannelFromRow(Row{
		"id":         int64(1),
		"channel_id": nil,
		"guild_id":   int64(2),
		"purpose":    PurposeLog,
	})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestFromRowWrongType(t *testing.T) {
	_, err := TemporaryBanFromRow(Row{
		"id":         int64(1),
		"user_id":    3.5,
		"guild_id":   int64(2),
		"unban_date": "2025-01-01 00:00:00",
	})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestFromRowInvalidTimestamp(t *testing.T) {
	_, err := LeftMemberFromRow(Row{
		"id":         int64(1),
		"user_id":    int64(2),
		"guild_id":   int64(3),
		"leave_date": "",
	})
	assert.ErrorIs(t, err, utils.ErrInvalidTimestamp)
}

func TestPunishmentFromRowAcceptsByteSlicesAndBools(t *testing.T) {
	p, err := PunishmentFromRow(Row{
		"id":        int64(9),
		"user_id":   []byte("03ac674216f3e15c761ee1a5e255f067953623c8b388b4459e13f978d7c846f4"),
		"issuer_id": int64(1),
		"guild_id":  int64(2),
		"type":      PunishmentWarn,
		"reason":    nil,
		"time":      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"deleted":   true,
	})
	require.NoError(t, err)
	assert.Len(t, p.UserIDDigest, 64)
	assert.False(t, p.Reason.Valid)
	assert.True(t, p.Deleted)
}

func TestNameRecordFromRowOptionalGuild(t *testing.T) {
	n, err := NameRecordFromRow("usernames", Row{
		"id":      int64(1),
		"user_id": int64(2),
		"name":    "alice",
		"time":    "2025-01-01 00:00:00",
	})
	require.NoError(t, err)
	assert.False(t, n.GuildID.Valid)

	n, err = NameRecordFromRow("nicknames", Row{
		"id":       int64(1),
		"user_id":  int64(2),
		"guild_id": int64(7),
		"name":     "al",
		"time":     "2025-01-01 00:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n.GuildID.Int64)
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{SchedulerTickSeconds: 5}
	assert.Equal(t, MinSchedulerTick, cfg.SchedulerTick())
	assert.Equal(t, DefaultHistoryLimit, cfg.UsernameHistoryLimit())

	cfg = &Config{SchedulerTickSeconds: 300, NicknameLimit: 3}
	assert.Equal(t, 5*time.Minute, cfg.SchedulerTick())
	assert.Equal(t, 3, cfg.NicknameHistoryLimit())
}
