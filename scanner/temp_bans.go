package scanner

import (
	"context"
	"errors"
	"time"

	"discord-modbot/platform"

	"github.com/sirupsen/logrus"
)

const unbanReason = "Temporary ban expired"

// liftExpiredBans unbans every expired temporary ban. Rows are deleted once
// the ban is lifted or the platform no longer knows the ban; forbidden and
// transport failures keep the row for the next tick.
func (s *Sweeper) liftExpiredBans(ctx context.Context, now time.Time, report *Report) {
	bans, err := s.repos.TempBans.GetExpired(ctx, now)
	if err != nil {
		logger.WithError(err).Error("Failed to load expired temporary bans")
		return
	}

	var lastErr error
	for _, ban := range bans {
		guild, err := s.platform.Guild(ctx, ban.GuildID)
		if err == nil {
			err = guild.Unban(ctx, ban.UserID, unbanReason)
		}

		switch {
		case err == nil:
			report.BansLifted++
		case errors.Is(err, platform.ErrInvalidArgument):
			logger.WithFields(logrus.Fields{"guild": ban.GuildID, "user": ban.UserID}).
				Info("Temporary ban no longer exists on the platform, dropping it")
		default:
			report.BansKept++
			lastErr = err
			continue
		}

		if err := s.repos.TempBans.Delete(ctx, ban.ID); err != nil {
			logger.WithError(err).WithField("ban", ban.ID).Error("Failed to delete lifted temporary ban")
		}
	}

	if report.BansKept > 0 {
		logger.WithError(lastErr).WithField("count", report.BansKept).Warn("Could not lift temporary bans, retrying next tick")
	}
}
