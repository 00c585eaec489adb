package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils"
	"discord-modbot/utils/database"
	"discord-modbot/utils/database/punishments"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null/v8"
)

const maxDeleteMessageDays = 7

// ModerationRequest is a moderation action against TargetID.
type ModerationRequest struct {
	Actor    Actor
	TargetID int64
	Reason   string
	Notify   bool
}

type BanOptions struct {
	DeleteMessageDays int
	// Duration makes the ban temporary when positive.
	Duration time.Duration
}

type Outcome struct {
	PunishmentID int64
	Notified     bool
	Until        time.Time
}

// Moderator applies bans, kicks and warnings. Permissions and role
// hierarchy are checked before anything is sent or changed.
type Moderator struct {
	repos       *database.Repositories
	punishments *punishments.Repository
	locks       *utils.ActionLocks
	events      *EventLog
	now         func() time.Time
}

func NewModerator(repos *database.Repositories, p *punishments.Repository, locks *utils.ActionLocks) *Moderator {
	return &Moderator{
		repos:       repos,
		punishments: p,
		locks:       locks,
		events:      NewEventLog(repos),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// member resolves the target. A user who is not in the guild yields nil.
func member(ctx context.Context, g platform.Guild, userID int64) (platform.Member, error) {
	m, err := g.Member(ctx, userID)
	if errors.Is(err, platform.ErrInvalidArgument) {
		return nil, nil
	}
	return m, err
}

func (m *Moderator) lock(g platform.Guild, userID int64) (func(), error) {
	if !m.locks.TryLock(g.ID(), userID) {
		return nil, ErrActionInProgress
	}
	return func() { m.locks.Unlock(g.ID(), userID) }, nil
}

func (m *Moderator) Ban(ctx context.Context, g platform.Guild, req ModerationRequest, opts BanOptions) (Outcome, error) {
	var out Outcome
	if opts.DeleteMessageDays < 0 || opts.DeleteMessageDays > maxDeleteMessageDays {
		return out, fmt.Errorf("%w: delete_message_days must be between 0 and %d", ErrInvalidOption, maxDeleteMessageDays)
	}
	if opts.Duration < 0 {
		return out, fmt.Errorf("%w: negative ban duration", ErrInvalidOption)
	}

	target, err := member(ctx, g, req.TargetID)
	if err != nil {
		return out, err
	}
	if err := CheckModeration(req.Actor, discordgo.PermissionBanMembers, target); err != nil {
		return out, err
	}
	unlock, err := m.lock(g, req.TargetID)
	if err != nil {
		return out, err
	}
	defer unlock()

	now := m.now()
	if opts.Duration > 0 {
		out.Until = now.Add(opts.Duration)
	}
	if req.Notify && target != nil {
		out.Notified = m.notify(ctx, target, "banned", req.Reason, out.Until)
	}

	if err := g.Ban(ctx, req.TargetID, auditReason(req), opts.DeleteMessageDays); err != nil {
		return out, err
	}
	if opts.Duration > 0 {
		if _, err := m.repos.TempBans.Add(ctx, g.ID(), req.TargetID, out.Until); err != nil {
			return out, fmt.Errorf("ban applied but its expiry was not stored: %w", err)
		}
	}

	out.PunishmentID, err = m.record(ctx, g, req, model.PunishmentBan, now)
	if err != nil {
		return out, err
	}

	title := "Member banned"
	if opts.Duration > 0 {
		title = "Member temporarily banned"
	}
	m.events.Post(ctx, g, SettingMembershipChanges, m.actionEmbed(title, req, out))
	return out, nil
}

// Kick removes a member. The punishment record is optional.
func (m *Moderator) Kick(ctx context.Context, g platform.Guild, req ModerationRequest, logAsPunishment bool) (Outcome, error) {
	var out Outcome
	target, err := member(ctx, g, req.TargetID)
	if err != nil {
		return out, err
	}
	if target == nil {
		return out, fmt.Errorf("%w: user is not a member of this guild", platform.ErrInvalidArgument)
	}
	if err := CheckModeration(req.Actor, discordgo.PermissionKickMembers, target); err != nil {
		return out, err
	}
	unlock, err := m.lock(g, req.TargetID)
	if err != nil {
		return out, err
	}
	defer unlock()

	if req.Notify {
		out.Notified = m.notify(ctx, target, "kicked", req.Reason, time.Time{})
	}
	if err := target.Kick(ctx, auditReason(req)); err != nil {
		return out, err
	}

	if logAsPunishment {
		out.PunishmentID, err = m.record(ctx, g, req, model.PunishmentKick, m.now())
		if err != nil {
			return out, err
		}
	}
	m.events.Post(ctx, g, SettingMembershipChanges, m.actionEmbed("Member kicked", req, out))
	return out, nil
}

// Warn records a warning and always tells the member.
func (m *Moderator) Warn(ctx context.Context, g platform.Guild, req ModerationRequest) (Outcome, error) {
	var out Outcome
	if req.Reason == "" {
		return out, fmt.Errorf("%w: a warning needs a reason", ErrInvalidOption)
	}
	target, err := member(ctx, g, req.TargetID)
	if err != nil {
		return out, err
	}
	if target == nil {
		return out, fmt.Errorf("%w: user is not a member of this guild", platform.ErrInvalidArgument)
	}
	if err := CheckModeration(req.Actor, discordgo.PermissionModerateMembers, target); err != nil {
		return out, err
	}

	out.PunishmentID, err = m.record(ctx, g, req, model.PunishmentWarn, m.now())
	if err != nil {
		return out, err
	}
	out.Notified = m.notify(ctx, target, "warned", req.Reason, time.Time{})
	m.events.Post(ctx, g, SettingWarnings, m.actionEmbed("Member warned", req, out))
	return out, nil
}

func (m *Moderator) record(ctx context.Context, g platform.Guild, req ModerationRequest, kind string, at time.Time) (int64, error) {
	reason := null.String{}
	if req.Reason != "" {
		reason = null.StringFrom(req.Reason)
	}
	id, err := m.punishments.Add(ctx, punishments.Record{
		UserID:   req.TargetID,
		IssuerID: req.Actor.Member.UserID(),
		GuildID:  g.ID(),
		Type:     kind,
		Reason:   reason,
		Time:     at,
	})
	if err != nil {
		return 0, fmt.Errorf("action applied but not recorded: %w", err)
	}
	return id, nil
}

func (m *Moderator) notify(ctx context.Context, target platform.Member, verb, reason string, until time.Time) bool {
	fields := []*discordgo.MessageEmbedField{utils.Field("Reason", reason, false)}
	if !until.IsZero() {
		fields = append(fields, utils.Field("Until", fmt.Sprintf("<t:%d:f>", until.Unix()), false))
	}
	embed := utils.LogEmbed(utils.Warn, "You have been "+verb, fields...)

	if err := target.Send(ctx, platform.Message{Embed: embed}); err != nil {
		logger.WithError(err).WithField("user", target.UserID()).Info("Could not notify member")
		return false
	}
	return true
}

func (m *Moderator) actionEmbed(title string, req ModerationRequest, out Outcome) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		utils.Field("Member", utils.Mention(req.TargetID), true),
		utils.Field("Moderator", utils.Mention(req.Actor.Member.UserID()), true),
		utils.Field("Reason", req.Reason, false),
	}
	if out.PunishmentID != 0 {
		fields = append(fields, utils.Field("Punishment", fmt.Sprintf("#%d", out.PunishmentID), true))
	}
	if !out.Until.IsZero() {
		fields = append(fields, utils.Field("Until", fmt.Sprintf("<t:%d:f>", out.Until.Unix()), true))
	}
	logger.WithFields(logrus.Fields{"action": title, "user": req.TargetID, "by": req.Actor.Member.UserID()}).Info("Moderation action")
	return utils.LogEmbed(utils.Warn, title, fields...)
}

func auditReason(req ModerationRequest) string {
	if req.Reason == "" {
		return fmt.Sprintf("By %d", req.Actor.Member.UserID())
	}
	return fmt.Sprintf("By %d: %s", req.Actor.Member.UserID(), req.Reason)
}

// StatusText turns a command error into the short message shown to the
// invoking user.
func StatusText(err error) string {
	switch {
	case errors.Is(err, ErrMissingPermission):
		return "You do not have permission to use this command."
	case errors.Is(err, ErrHierarchyInsufficient):
		return "You cannot act on a member with an equal or higher role."
	case errors.Is(err, ErrActionInProgress):
		return "Another moderator is acting on this member right now."
	case errors.Is(err, ErrInvalidOption):
		return err.Error()
	case errors.Is(err, platform.ErrForbidden):
		return "I am not allowed to do that. Check my role and permissions."
	case errors.Is(err, platform.ErrInvalidArgument):
		return "That user or object could not be found."
	case errors.Is(err, platform.ErrTransport):
		return "Discord did not respond. Please try again."
	case errors.Is(err, database.ErrNotFound):
		return "Nothing found."
	case errors.Is(err, database.ErrConstraintViolation):
		return "That already exists."
	default:
		return "Something went wrong."
	}
}
