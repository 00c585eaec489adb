package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils"
	"discord-modbot/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/jonas747/when"
	"github.com/jonas747/when/rules"
	wcommon "github.com/jonas747/when/rules/common"
	"github.com/jonas747/when/rules/en"
	"github.com/tkuchiki/go-timezone"
	"github.com/volatiletech/null/v8"
)

const maxReminderDistance = 366 * 24 * time.Hour

// ReminderParser reads natural language dates like "tomorrow at 9am" or
// "in 2 hours".
type ReminderParser struct {
	w *when.Parser
}

func NewReminderParser() *ReminderParser {
	w := when.New(&rules.Options{
		Distance:     10,
		MatchByOrder: true})

	w.Add(
		en.Weekday(rules.Override),
		en.CasualDate(rules.Override),
		en.CasualTime(rules.Override),
		en.Deadline(rules.Override),
		en.ExactMonthDate(rules.Override),
	)
	w.Add(wcommon.All...)
	return &ReminderParser{w: w}
}

// Parse resolves text against now in loc and returns the instant in UTC.
// Plain durations such as "90m" are accepted too.
func (p *ReminderParser) Parse(text string, now time.Time, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if d, err := time.ParseDuration(text); err == nil {
		return p.check(now.Add(d), now)
	}

	result, err := p.w.Parse(text, now.In(loc))
	if err != nil || result == nil {
		return time.Time{}, fmt.Errorf("%w: could not understand %q as a date", ErrInvalidOption, text)
	}
	return p.check(result.Time, now)
}

func (p *ReminderParser) check(t, now time.Time) (time.Time, error) {
	t = t.UTC().Truncate(time.Second)
	if !t.After(now) {
		return time.Time{}, fmt.Errorf("%w: that time is in the past", ErrInvalidOption)
	}
	if t.Sub(now) > maxReminderDistance {
		return time.Time{}, fmt.Errorf("%w: reminders can be at most a year away", ErrInvalidOption)
	}
	return t, nil
}

// ReminderRequest holds the remind command options.
type ReminderRequest struct {
	CreatorID     int64
	GuildID       int64
	Content       string
	At            time.Time
	Public        bool
	RepeatMinutes int64
	Repeats       int64
}

// BuildReminder validates the request and picks the reminder type from the
// repeat period.
func BuildReminder(req ReminderRequest) (model.Reminder, error) {
	if strings.TrimSpace(req.Content) == "" {
		return model.Reminder{}, fmt.Errorf("%w: reminder content is empty", ErrInvalidOption)
	}
	if req.RepeatMinutes < 0 {
		return model.Reminder{}, fmt.Errorf("%w: repeat_minutes must be positive", ErrInvalidOption)
	}
	if req.Repeats == 0 || req.Repeats < model.InfiniteRepeats {
		return model.Reminder{}, fmt.Errorf("%w: repeats must be -1 or at least 1", ErrInvalidOption)
	}

	r := model.Reminder{
		CreatorID:    req.CreatorID,
		Content:      req.Content,
		ReminderDate: req.At,
		Public:       req.Public,
		ReminderType: model.ReminderAfter,
		RepeatsLeft:  1,
	}
	if req.GuildID != 0 {
		r.CreatorGuildID = null.Int64From(req.GuildID)
	}
	if req.RepeatMinutes == 0 {
		return r, nil
	}

	r.IntervalSeconds = null.Int64From(req.RepeatMinutes * 60)
	r.RepeatsLeft = req.Repeats
	switch period := time.Duration(req.RepeatMinutes) * time.Minute; {
	case period%(7*24*time.Hour) == 0:
		r.ReminderType = model.ReminderWeekday
	case period%(24*time.Hour) == 0:
		r.ReminderType = model.ReminderDay
	default:
		r.ReminderType = model.ReminderTime
	}
	return r, nil
}

func (h *handler) handleRemind(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	o := optionsOf(i)
	userID := platform.ParseID(i.Member.User.ID)

	tz, err := h.b.Repos.TimeZones.GetUserTimeZone(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("Failed to read time zone")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}
	loc, err := time.LoadLocation(tz.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	now := time.Now().UTC()
	at, err := h.reminders.Parse(o.string("when", ""), now, loc)
	if err != nil {
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}
	r, err := BuildReminder(ReminderRequest{
		CreatorID:     userID,
		GuildID:       platform.ParseID(i.GuildID),
		Content:       o.string("content", ""),
		At:            at,
		Public:        o.bool("public", false),
		RepeatMinutes: o.int("repeat_minutes", 0),
		Repeats:       o.int("repeats", 1),
	})
	if err != nil {
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}

	id, err := h.b.Repos.Reminders.Add(ctx, r)
	if err != nil {
		logger.WithError(err).Error("Failed to add reminder")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}

	msg := fmt.Sprintf("⏰ Reminder #%d set for <t:%d:f> (<t:%d:R>)", id, at.Unix(), at.Unix())
	if r.Public {
		utils.SendPublicResponse(s, i, msg)
		return
	}
	utils.SendSimpleResponse(s, i, msg)
}

// ResolveZone accepts an IANA name or a zone abbreviation.
func ResolveZone(name string) (*time.Location, error) {
	if loc, err := time.LoadLocation(name); err == nil && name != "" && name != "Local" {
		return loc, nil
	}
	names, err := timezone.GetTimezones(strings.ToUpper(name))
	if err == nil {
		for _, n := range names {
			if loc, err := time.LoadLocation(n); err == nil {
				return loc, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: unknown time zone %q", ErrInvalidOption, name)
}

func (h *handler) handleTimeZone(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	userID := platform.ParseID(i.Member.User.ID)
	zone := optionsOf(i).string("zone", "")

	if zone == "" {
		tz, err := h.b.Repos.TimeZones.GetUserTimeZone(ctx, userID)
		if err != nil {
			utils.SendErrorResponse(s, i, StatusText(err))
			return
		}
		utils.SendSimpleResponse(s, i, fmt.Sprintf("Your time zone is %s.", tz.TimeZone))
		return
	}

	loc, err := ResolveZone(zone)
	if err != nil {
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}
	if _, err := h.b.Repos.TimeZones.Set(ctx, userID, loc.String()); err != nil {
		logger.WithError(err).Error("Failed to set time zone")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ Time zone set to %s (now %s).", loc, time.Now().In(loc).Format("15:04")))
}

// joinReminder opts userID in to a public reminder created in guildID.
func (h *handler) joinReminder(ctx context.Context, guildID, userID, id int64) (model.Reminder, error) {
	r, err := h.b.Repos.Reminders.Get(ctx, id)
	if err != nil {
		return model.Reminder{}, err
	}
	if !r.Public || r.CreatorGuildID.Int64 != guildID {
		return model.Reminder{}, database.ErrNotFound
	}
	if r.CreatorID == userID {
		return model.Reminder{}, fmt.Errorf("%w: you created this reminder", ErrInvalidOption)
	}
	if _, err := h.b.Repos.Reminders.AddUser(ctx, id, userID); err != nil {
		if errors.Is(err, database.ErrConstraintViolation) {
			return model.Reminder{}, fmt.Errorf("%w: you already joined this reminder", ErrInvalidOption)
		}
		return model.Reminder{}, err
	}
	return r, nil
}

// deleteReminder lets the creator, or a member who can manage the guild the
// reminder was created in, delete it.
func (h *handler) deleteReminder(ctx context.Context, actor Actor, guildID, userID, id int64) error {
	r, err := h.b.Repos.Reminders.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.CreatorID != userID {
		if r.CreatorGuildID.Int64 != guildID {
			return database.ErrNotFound
		}
		if !actor.has(discordgo.PermissionManageGuild) {
			return ErrMissingPermission
		}
	}
	return h.b.Repos.Reminders.Delete(ctx, id)
}

// listReminders returns the user's own reminders followed by the guild's
// public reminders created by others.
func (h *handler) listReminders(ctx context.Context, guildID, userID int64) (own, public []model.Reminder, err error) {
	own, err = h.b.Repos.Reminders.ListByCreator(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	all, err := h.b.Repos.Reminders.ListPublic(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range all {
		if r.CreatorID != userID {
			public = append(public, r)
		}
	}
	return own, public, nil
}

func (h *handler) handleReminders(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	o := optionsOf(i)
	guildID := platform.ParseID(i.GuildID)
	userID := platform.ParseID(i.Member.User.ID)
	id := o.int("id", 0)

	action := o.string("action", "")
	if action != "list" && id == 0 {
		utils.SendErrorResponse(s, i, "A reminder id is required.")
		return
	}

	var err error
	switch action {
	case "list":
		own, public, err := h.listReminders(ctx, guildID, userID)
		if err != nil {
			logger.WithError(err).Error("Failed to list reminders")
			utils.SendErrorResponse(s, i, StatusText(err))
			return
		}
		utils.SendEmbedResponse(s, i, false, remindersEmbed(own, public))
		return

	case "join":
		var r model.Reminder
		if r, err = h.joinReminder(ctx, guildID, userID, id); err == nil {
			utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ You will get reminder #%d at <t:%d:f>.", id, r.ReminderDate.Unix()))
			return
		}

	case "leave":
		err = h.b.Repos.Reminders.RemoveUser(ctx, id, userID)
		if database.IsNotFound(err) {
			err = fmt.Errorf("%w: you have not joined reminder #%d", ErrInvalidOption, id)
		}
		if err == nil {
			utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ Left reminder #%d.", id))
			return
		}

	case "delete":
		actor := Actor{Permissions: i.Member.Permissions}
		if err = h.deleteReminder(ctx, actor, guildID, userID, id); err == nil {
			utils.SendSimpleResponse(s, i, fmt.Sprintf("✅ Reminder #%d deleted.", id))
			return
		}

	default:
		utils.SendErrorResponse(s, i, "Unknown action.")
		return
	}

	logger.WithError(err).WithField("reminder", id).Debug("Reminders command failed")
	utils.SendErrorResponse(s, i, StatusText(err))
}

// Each list shows at most this many reminders.
const maxReminderLines = 12

func remindersEmbed(own, public []model.Reminder) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Reminders",
		Color: utils.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			utils.Field("Yours", reminderLines(own), false),
			utils.Field("Public, use join to opt in", reminderLines(public), false),
		},
	}
}

func reminderLines(reminders []model.Reminder) string {
	if len(reminders) > maxReminderLines {
		reminders = reminders[:maxReminderLines]
	}
	lines := make([]string, 0, len(reminders))
	for _, r := range reminders {
		line := fmt.Sprintf("#%d <t:%d:R> %s", r.ID, r.ReminderDate.Unix(), truncate(r.Content, 60))
		if r.Repeating() {
			line += " 🔁"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
