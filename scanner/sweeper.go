// Package scanner holds the periodic sweeps driven by the bot scheduler:
// lifting expired temporary bans, delivering reminders and nudging or
// kicking members who never verified.
package scanner

import (
	"context"
	"time"

	"discord-modbot/platform"
	"discord-modbot/utils/database"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var logger = logrus.WithField("p", "scanner")

// Direct messages are paced below the platform's global rate limit.
const (
	dmRate  = rate.Limit(5)
	dmBurst = 5
)

// Report counts what a single tick did.
type Report struct {
	BansLifted         int
	BansKept           int
	RemindersDelivered int
	RemindersSkipped   int
	OptInsFailed       int
	RemindersRetired   int64
	NudgesSent         int
	MembersKicked      int
}

// Sweeper runs one scheduling pass per Tick. It never returns errors: a
// failed row is left in place and picked up again on the next tick.
type Sweeper struct {
	platform platform.Platform
	repos    *database.Repositories
	limiter  *rate.Limiter
}

func NewSweeper(p platform.Platform, repos *database.Repositories) *Sweeper {
	return &Sweeper{
		platform: p,
		repos:    repos,
		limiter:  rate.NewLimiter(dmRate, dmBurst),
	}
}

// Tick lifts expired temporary bans, then delivers due reminders, then
// processes unverified members.
func (s *Sweeper) Tick(ctx context.Context, now time.Time) Report {
	var report Report
	s.liftExpiredBans(ctx, now, &report)
	s.deliverReminders(ctx, now, &report)
	s.processUnverified(ctx, now, &report)

	logger.WithFields(logrus.Fields{
		"bans_lifted": report.BansLifted,
		"bans_kept":   report.BansKept,
		"reminders":   report.RemindersDelivered,
		"retired":     report.RemindersRetired,
		"optins_lost": report.OptInsFailed,
		"nudges":      report.NudgesSent,
		"kicked":      report.MembersKicked,
	}).Debug("Scheduler tick finished")
	return report
}

// send paces direct messages through the limiter.
func (s *Sweeper) send(ctx context.Context, userID int64, msg platform.Message) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return platform.ErrTransport
	}
	return s.platform.Send(ctx, userID, msg)
}
