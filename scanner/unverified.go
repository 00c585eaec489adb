package scanner

import (
	"context"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils/database"

	"github.com/sirupsen/logrus"
)

const unverifiedKickReason = "Did not verify in time"

// processUnverified nudges members without a VERIFIED role using the
// guild's reminder templates and kicks them once the guild's kick rule
// has elapsed.
func (s *Sweeper) processUnverified(ctx context.Context, now time.Time, report *Report) {
	guilds, err := s.platform.Guilds(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list guilds")
		return
	}
	for _, g := range guilds {
		if err := s.processGuildUnverified(ctx, g, now, report); err != nil {
			logger.WithError(err).WithField("guild", g.ID()).Warn("Failed to process unverified members")
		}
	}
}

func (s *Sweeper) processGuildUnverified(ctx context.Context, g platform.Guild, now time.Time, report *Report) error {
	roles, err := s.repos.RoleCategories.RolesInCategory(ctx, g.ID(), model.CategoryVerified)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	verified := make(map[int64]bool, len(roles))
	for _, r := range roles {
		verified[r.RoleID] = true
	}

	templates, err := s.repos.UnverifiedReminderMessages.List(ctx, g.ID())
	if err != nil {
		return err
	}
	rule, err := s.repos.UnverifiedKickRules.Get(ctx, g.ID())
	hasRule := err == nil
	if err != nil && !database.IsNotFound(err) {
		return err
	}
	if len(templates) == 0 && !hasRule {
		return nil
	}

	members, err := g.Members(ctx)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.IsBot() || isVerified(m, verified) {
			continue
		}
		waited := now.Sub(m.JoinedAt())

		if hasRule && waited >= time.Duration(rule.TimedeltaSeconds)*time.Second {
			s.kickUnverified(ctx, g, m, report)
			continue
		}
		s.nudge(ctx, g, m, templates, waited, now, report)
	}
	return nil
}

func isVerified(m platform.Member, verified map[int64]bool) bool {
	for _, r := range m.Roles() {
		if verified[r] {
			return true
		}
	}
	return false
}

// nudge delivers the earliest elapsed template the member has not received
// yet. History is written right after delivery so it is never sent twice.
func (s *Sweeper) nudge(ctx context.Context, g platform.Guild, m platform.Member, templates []model.UnverifiedReminderMessage, waited time.Duration, now time.Time, report *Report) {
	fields := logrus.Fields{"guild": g.ID(), "user": m.UserID()}
	for _, t := range templates {
		if waited < time.Duration(t.TimedeltaSeconds)*time.Second {
			return
		}
		delivered, err := s.repos.UnverifiedReminderHistory.Delivered(ctx, m.UserID(), t.ID)
		if err != nil {
			logger.WithError(err).WithFields(fields).Error("Failed to check reminder history")
			return
		}
		if delivered {
			continue
		}

		if err := s.send(ctx, m.UserID(), platform.Message{Content: t.Content}); err != nil {
			logger.WithError(err).WithFields(fields).Info("Could not deliver verification reminder")
			return
		}
		if _, err := s.repos.UnverifiedReminderHistory.Add(ctx, m.UserID(), t.ID, now); err != nil {
			logger.WithError(err).WithFields(fields).Error("Failed to record verification reminder")
		}
		report.NudgesSent++
		return
	}
}

func (s *Sweeper) kickUnverified(ctx context.Context, g platform.Guild, m platform.Member, report *Report) {
	fields := logrus.Fields{"guild": g.ID(), "user": m.UserID()}
	if err := m.Kick(ctx, unverifiedKickReason); err != nil {
		logger.WithError(err).WithFields(fields).Warn("Failed to kick unverified member")
		return
	}
	report.MembersKicked++
	logger.WithFields(fields).Info("Kicked unverified member")

	if err := s.repos.UnverifiedReminderHistory.DeleteForUser(ctx, g.ID(), m.UserID()); err != nil {
		logger.WithError(err).WithFields(fields).Error("Failed to clear verification reminder history")
	}
}
