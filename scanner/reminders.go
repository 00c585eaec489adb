package scanner

import (
	"context"
	"fmt"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// deliverReminders sends every due reminder to its creator and opt-ins,
// then advances or retires it.
func (s *Sweeper) deliverReminders(ctx context.Context, now time.Time, report *Report) {
	reminders, err := s.repos.Reminders.GetExpired(ctx, now)
	if err != nil {
		logger.WithError(err).Error("Failed to load expired reminders")
		return
	}

	for _, r := range reminders {
		if err := s.deliverReminder(ctx, r, report); err != nil {
			report.RemindersSkipped++
			logger.WithError(err).WithField("reminder", r.ID).Warn("Reminder delivery failed, retrying next tick")
			continue
		}
		report.RemindersDelivered++

		if err := s.advanceReminder(ctx, r, now); err != nil {
			logger.WithError(err).WithField("reminder", r.ID).Error("Failed to advance reminder")
		}
	}

	retired, err := s.repos.Reminders.DeleteRemindersWithNoRepeats(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to retire reminders")
		return
	}
	report.RemindersRetired = retired
}

// deliverReminder fails only when the creator could not be reached for a
// reason that may go away. A creator who blocks direct messages counts as
// delivered. Opt-ins that cannot be reached are counted in OptInsFailed
// and are not retried.
func (s *Sweeper) deliverReminder(ctx context.Context, r model.Reminder, report *Report) error {
	msg := reminderMessage(r)

	if err := s.send(ctx, r.CreatorID, msg); err != nil {
		if platform.IsTransient(err) {
			return err
		}
		logger.WithError(err).WithField("user", r.CreatorID).Info("Creator did not accept reminder")
	}

	users, err := s.repos.Reminders.ListUsers(ctx, r.ID)
	if err != nil {
		logger.WithError(err).WithField("reminder", r.ID).Error("Failed to load reminder opt-ins")
		return nil
	}
	for _, u := range users {
		if err := s.send(ctx, u.UserID, msg); err != nil {
			report.OptInsFailed++
			logger.WithError(err).WithFields(logrus.Fields{"user": u.UserID, "reminder": r.ID}).
				Warn("Failed to deliver reminder to opt-in")
		}
	}
	return nil
}

// advanceReminder consumes one repeat. A repeating reminder that still has
// repeats moves to its next occurrence after now; a reminder without an
// interval never fires twice.
func (s *Sweeper) advanceReminder(ctx context.Context, r model.Reminder, now time.Time) error {
	var next time.Time
	if r.Repeating() {
		next = NextOccurrence(r, now)
	}
	return s.repos.Reminders.Advance(ctx, r.ID, next)
}

// NextOccurrence returns the first date after now reached from the
// reminder's current date by whole intervals.
func NextOccurrence(r model.Reminder, now time.Time) time.Time {
	next := r.ReminderDate
	if !r.Repeating() {
		return next
	}
	interval := time.Duration(r.IntervalSeconds.Int64) * time.Second
	if !next.After(now) {
		steps := now.Sub(next)/interval + 1
		next = next.Add(steps * interval)
	}
	return next
}

func reminderMessage(r model.Reminder) platform.Message {
	embed := &discordgo.MessageEmbed{
		Title:       "Reminder",
		Description: r.Content,
		Color:       utils.ColorInfo,
		Timestamp:   r.ReminderDate.Format(time.RFC3339),
	}
	if r.Public {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Public reminder #%d", r.ID)}
	}
	if r.Repeating() {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:   "Repeats",
			Value:  repeatsText(r),
			Inline: true,
		}}
	}
	return platform.Message{Embed: embed}
}

func repeatsText(r model.Reminder) string {
	every := time.Duration(r.IntervalSeconds.Int64) * time.Second
	if r.RepeatsLeft == model.InfiniteRepeats {
		return fmt.Sprintf("every %s, forever", every)
	}
	return fmt.Sprintf("every %s, %d left", every, r.RepeatsLeft)
}
