package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Reminder types.
const (
	ReminderWeekday = "weekday"
	ReminderDay     = "day"
	ReminderTime    = "time"
	ReminderAfter   = "after"
)

// InfiniteRepeats marks a reminder that is never retired by the repeat counter.
const InfiniteRepeats = -1

// ValidReminderType reports whether t is one of the known reminder types.
func ValidReminderType(t string) bool {
	switch t {
	case ReminderWeekday, ReminderDay, ReminderTime, ReminderAfter:
		return true
	}
	return false
}

type Reminder struct {
	ID              int64
	CreatorID       int64
	CreatorGuildID  null.Int64
	Content         string
	ReminderDate    time.Time
	Public          bool
	IntervalSeconds null.Int64
	ReminderType    string
	RepeatsLeft     int64
}

// Repeating reports whether the reminder has a positive interval.
func (r Reminder) Repeating() bool {
	return r.IntervalSeconds.Valid && r.IntervalSeconds.Int64 > 0
}

// UserReminder is an opt-in of a user to someone else's public reminder.
type UserReminder struct {
	ID         int64
	UserID     int64
	ReminderID int64
}

func ReminderFromRow(row Row) (Reminder, error) {
	r := newRowReader("reminders", row)
	rem := Reminder{
		ID:              r.int64("id"),
		CreatorID:       r.int64("creator_id"),
		CreatorGuildID:  r.nullInt64("creator_guild_id"),
		Content:         r.string("content"),
		ReminderDate:    r.time("reminder_date"),
		Public:          r.bool("public"),
		IntervalSeconds: r.nullInt64("interval_seconds"),
		ReminderType:    r.string("reminder_type"),
		RepeatsLeft:     r.int64("repeats_left"),
	}
	return rem, r.err
}

func UserReminderFromRow(row Row) (UserReminder, error) {
	r := newRowReader("user_reminders", row)
	ur := UserReminder{
		ID:         r.int64("id"),
		UserID:     r.int64("user_id"),
		ReminderID: r.int64("reminder_id"),
	}
	return ur, r.err
}
