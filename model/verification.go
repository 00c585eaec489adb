package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Passphrase verifies a member who types it; RoleID references guild_roles.id
// and is cleared when that role binding is deleted.
type Passphrase struct {
	ID         int64
	GuildID    int64
	Passphrase string
	RoleID     null.Int64
}

type VerificationQuestion struct {
	ID       int64
	GuildID  int64
	Question string
}

type VerificationAnswer struct {
	ID         int64
	QuestionID int64
	Answer     string
}

// UnverifiedReminderMessage is a nudge sent to members who are still
// unverified TimedeltaSeconds after joining.
type UnverifiedReminderMessage struct {
	ID               int64
	GuildID          int64
	Content          string
	TimedeltaSeconds int64
}

// UnverifiedReminderHistory records that a template was delivered to a user.
type UnverifiedReminderHistory struct {
	ID                int64
	UserID            int64
	ReminderMessageID int64
	Time              time.Time
}

// UnverifiedKickRule makes members unverified for longer than
// TimedeltaSeconds eligible for a kick.
type UnverifiedKickRule struct {
	ID               int64
	GuildID          int64
	TimedeltaSeconds int64
}

func PassphraseFromRow(row Row) (Passphrase, error) {
	r := newRowReader("passphrases", row)
	p := Passphrase{
		ID:         r.int64("id"),
		GuildID:    r.int64("guild_id"),
		Passphrase: r.string("passphrase"),
		RoleID:     r.nullInt64("role_id"),
	}
	return p, r.err
}

func VerificationQuestionFromRow(row Row) (VerificationQuestion, error) {
	r := newRowReader("verification_questions", row)
	q := VerificationQuestion{
		ID:       r.int64("id"),
		GuildID:  r.int64("guild_id"),
		Question: r.string("question"),
	}
	return q, r.err
}

func VerificationAnswerFromRow(row Row) (VerificationAnswer, error) {
	r := newRowReader("verification_answers", row)
	a := VerificationAnswer{
		ID:         r.int64("id"),
		QuestionID: r.int64("question_id"),
		Answer:     r.string("answer"),
	}
	return a, r.err
}

func UnverifiedReminderMessageFromRow(row Row) (UnverifiedReminderMessage, error) {
	r := newRowReader("unverified_reminder_messages", row)
	m := UnverifiedReminderMessage{
		ID:               r.int64("id"),
		GuildID:          r.int64("guild_id"),
		Content:          r.string("content"),
		TimedeltaSeconds: r.int64("timedelta_seconds"),
	}
	return m, r.err
}

func UnverifiedReminderHistoryFromRow(row Row) (UnverifiedReminderHistory, error) {
	r := newRowReader("unverified_reminder_history", row)
	h := UnverifiedReminderHistory{
		ID:                r.int64("id"),
		UserID:            r.int64("user_id"),
		ReminderMessageID: r.int64("reminder_message_id"),
		Time:              r.time("time"),
	}
	return h, r.err
}

func UnverifiedKickRuleFromRow(row Row) (UnverifiedKickRule, error) {
	r := newRowReader("unverified_kick_rules", row)
	k := UnverifiedKickRule{
		ID:               r.int64("id"),
		GuildID:          r.int64("guild_id"),
		TimedeltaSeconds: r.int64("timedelta_seconds"),
	}
	return k, r.err
}
