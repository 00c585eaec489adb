package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"discord-modbot/model"
	"discord-modbot/platform"
	"discord-modbot/utils"
	"discord-modbot/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null/v8"
)

// verifiedCategory returns the guild's VERIFIED role category, creating it
// on first use.
func (h *handler) verifiedCategory(ctx context.Context, guildID int64) (int64, error) {
	c, err := h.b.Repos.RoleCategories.GetCategory(ctx, guildID, model.CategoryVerified)
	if err == nil {
		return c.ID, nil
	}
	if !database.IsNotFound(err) {
		return 0, err
	}
	return h.b.Repos.RoleCategories.AddCategory(ctx, guildID, model.CategoryVerified)
}

// addVerifiedRole binds roleID to the VERIFIED category and returns the
// binding id. Binding a role twice returns the existing binding.
func (h *handler) addVerifiedRole(ctx context.Context, guildID, roleID int64) (int64, error) {
	if roleID == 0 {
		return 0, fmt.Errorf("%w: a role is required", ErrInvalidOption)
	}
	roles, err := h.b.Repos.RoleCategories.RolesInCategory(ctx, guildID, model.CategoryVerified)
	if err != nil {
		return 0, err
	}
	for _, r := range roles {
		if r.RoleID == roleID {
			return r.ID, nil
		}
	}
	category, err := h.verifiedCategory(ctx, guildID)
	if err != nil {
		return 0, err
	}
	return h.b.Repos.RoleCategories.AddRole(ctx, category, roleID)
}

// removeVerifiedRole unbinds roleID. Passphrases granting it fall back to
// every verified role.
func (h *handler) removeVerifiedRole(ctx context.Context, guildID, roleID int64) error {
	roles, err := h.b.Repos.RoleCategories.RolesInCategory(ctx, guildID, model.CategoryVerified)
	if err != nil {
		return err
	}
	for _, r := range roles {
		if r.RoleID == roleID {
			return h.b.Repos.RoleCategories.DeleteRole(ctx, r.ID)
		}
	}
	return database.ErrNotFound
}

func (h *handler) addPassphrase(ctx context.Context, guildID int64, phrase string, roleID int64) (int64, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return 0, fmt.Errorf("%w: the passphrase is empty", ErrInvalidOption)
	}
	if _, err := h.b.Repos.Passphrases.Match(ctx, guildID, phrase); err == nil {
		return 0, fmt.Errorf("%w: that passphrase already exists", ErrInvalidOption)
	} else if !database.IsNotFound(err) {
		return 0, err
	}

	var binding null.Int64
	if roleID != 0 {
		id, err := h.addVerifiedRole(ctx, guildID, roleID)
		if err != nil {
			return 0, err
		}
		binding = null.Int64From(id)
	}
	return h.b.Repos.Passphrases.Add(ctx, guildID, phrase, binding)
}

// deletePassphrase deletes a passphrase of this guild only.
func (h *handler) deletePassphrase(ctx context.Context, guildID, id int64) error {
	phrases, err := h.b.Repos.Passphrases.List(ctx, guildID)
	if err != nil {
		return err
	}
	for _, p := range phrases {
		if p.ID == id {
			return h.b.Repos.Passphrases.Delete(ctx, id)
		}
	}
	return database.ErrNotFound
}

func (h *handler) addTemplate(ctx context.Context, guildID int64, content string, after time.Duration) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("%w: the message is empty", ErrInvalidOption)
	}
	return h.b.Repos.UnverifiedReminderMessages.Add(ctx, guildID, content, after)
}

// deleteTemplate deletes a nudge template of this guild only.
func (h *handler) deleteTemplate(ctx context.Context, guildID, id int64) error {
	templates, err := h.b.Repos.UnverifiedReminderMessages.List(ctx, guildID)
	if err != nil {
		return err
	}
	for _, t := range templates {
		if t.ID == id {
			return h.b.Repos.UnverifiedReminderMessages.Delete(ctx, id)
		}
	}
	return database.ErrNotFound
}

// verifyByPassphrase grants the verified roles to a member who typed one of
// the guild's passphrases in a verification channel. A passphrase without
// its own role grants every role of the VERIFIED category.
func (h *handler) verifyByPassphrase(ctx context.Context, g platform.Guild, channelID, userID int64, content string) bool {
	fields := logrus.Fields{"guild": g.ID(), "user": userID}

	ok, err := h.b.Repos.UtilityChannels.Is(ctx, g.ID(), channelID, model.PurposeVerification)
	if err != nil {
		logger.WithError(err).WithFields(fields).Error("Failed to check verification channel")
		return false
	}
	if !ok {
		return false
	}
	phrase, err := h.b.Repos.Passphrases.Match(ctx, g.ID(), strings.TrimSpace(content))
	if err != nil {
		if !database.IsNotFound(err) {
			logger.WithError(err).WithFields(fields).Error("Failed to match passphrase")
		}
		return false
	}

	var roles []int64
	if phrase.RoleID.Valid {
		binding, err := h.b.Repos.RoleCategories.GetRole(ctx, phrase.RoleID.Int64)
		if err != nil {
			logger.WithError(err).WithFields(fields).Error("Failed to load passphrase role")
			return false
		}
		roles = append(roles, binding.RoleID)
	} else {
		bindings, err := h.b.Repos.RoleCategories.RolesInCategory(ctx, g.ID(), model.CategoryVerified)
		if err != nil {
			logger.WithError(err).WithFields(fields).Error("Failed to load verified roles")
			return false
		}
		for _, b := range bindings {
			roles = append(roles, b.RoleID)
		}
	}
	if len(roles) == 0 {
		logger.WithFields(fields).Warn("Passphrase matched but the guild has no verified role")
		return false
	}

	m, err := g.Member(ctx, userID)
	if err != nil {
		logger.WithError(err).WithFields(fields).Warn("Failed to resolve verifying member")
		return false
	}
	for _, role := range roles {
		if err := m.AddRole(ctx, role); err != nil {
			logger.WithError(err).WithFields(fields).WithField("role", role).Warn("Failed to grant verified role")
			return false
		}
	}
	if err := h.b.Repos.UnverifiedReminderHistory.DeleteForUser(ctx, g.ID(), userID); err != nil {
		logger.WithError(err).WithFields(fields).Error("Failed to clear verification reminder history")
	}
	logger.WithFields(fields).Info("Member verified by passphrase")
	return true
}

func (h *handler) handleVerification(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	if !(Actor{Permissions: i.Member.Permissions}).has(discordgo.PermissionManageGuild) {
		utils.SendErrorResponse(s, i, StatusText(ErrMissingPermission))
		return
	}

	guildID := platform.ParseID(i.GuildID)
	o := optionsOf(i)
	repos := h.b.Repos

	var (
		msg string
		err error
	)
	switch o.string("action", "") {
	case "show":
		embed, err := h.verificationEmbed(ctx, guildID)
		if err != nil {
			logger.WithError(err).Error("Failed to load verification setup")
			utils.SendErrorResponse(s, i, StatusText(err))
			return
		}
		utils.SendEmbedResponse(s, i, false, embed)
		return

	case "role-add":
		_, err = h.addVerifiedRole(ctx, guildID, o.id("role"))
		msg = fmt.Sprintf("✅ %s now counts as verified.", utils.RoleMention(o.id("role")))

	case "role-remove":
		err = h.removeVerifiedRole(ctx, guildID, o.id("role"))
		msg = fmt.Sprintf("✅ %s no longer counts as verified.", utils.RoleMention(o.id("role")))

	case "template-add":
		var id int64
		after := time.Duration(o.int("minutes", 0)) * time.Minute
		id, err = h.addTemplate(ctx, guildID, o.string("text", ""), after)
		msg = fmt.Sprintf("✅ Nudge #%d is sent %s after joining.", id, after)

	case "template-delete":
		err = h.deleteTemplate(ctx, guildID, o.int("id", 0))
		msg = fmt.Sprintf("✅ Nudge #%d deleted.", o.int("id", 0))

	case "kick-set":
		hours := o.int("hours", 0)
		if hours <= 0 {
			err = fmt.Errorf("%w: hours is required", ErrInvalidOption)
			break
		}
		_, err = repos.UnverifiedKickRules.Set(ctx, guildID, time.Duration(hours)*time.Hour)
		msg = fmt.Sprintf("✅ Unverified members are kicked after %d hours.", hours)

	case "kick-clear":
		err = repos.UnverifiedKickRules.Delete(ctx, guildID)
		msg = "✅ Unverified members are no longer kicked."

	case "passphrase-add":
		var id int64
		id, err = h.addPassphrase(ctx, guildID, o.string("text", ""), o.id("role"))
		msg = fmt.Sprintf("✅ Passphrase #%d added.", id)

	case "passphrase-delete":
		err = h.deletePassphrase(ctx, guildID, o.int("id", 0))
		msg = fmt.Sprintf("✅ Passphrase #%d deleted.", o.int("id", 0))

	default:
		utils.SendErrorResponse(s, i, "Unknown action.")
		return
	}

	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Warn("Verification command failed")
		utils.SendErrorResponse(s, i, StatusText(err))
		return
	}
	utils.SendSimpleResponse(s, i, msg)
}

func (h *handler) verificationEmbed(ctx context.Context, guildID int64) (*discordgo.MessageEmbed, error) {
	repos := h.b.Repos
	roles, err := repos.RoleCategories.RolesInCategory(ctx, guildID, model.CategoryVerified)
	if err != nil {
		return nil, err
	}
	templates, err := repos.UnverifiedReminderMessages.List(ctx, guildID)
	if err != nil {
		return nil, err
	}
	phrases, err := repos.Passphrases.List(ctx, guildID)
	if err != nil {
		return nil, err
	}
	kick := "off"
	rule, err := repos.UnverifiedKickRules.Get(ctx, guildID)
	switch {
	case err == nil:
		kick = fmt.Sprintf("after %s", time.Duration(rule.TimedeltaSeconds)*time.Second)
	case !database.IsNotFound(err):
		return nil, err
	}

	roleNames := make(map[int64]string, len(roles))
	var roleLines []string
	for _, r := range roles {
		roleNames[r.ID] = utils.RoleMention(r.RoleID)
		roleLines = append(roleLines, utils.RoleMention(r.RoleID))
	}
	var templateLines []string
	for _, t := range templates {
		templateLines = append(templateLines, fmt.Sprintf("#%d after %s: %s",
			t.ID, time.Duration(t.TimedeltaSeconds)*time.Second, truncate(t.Content, 80)))
	}
	var phraseLines []string
	for _, p := range phrases {
		grants := "all verified roles"
		if p.RoleID.Valid {
			grants = roleNames[p.RoleID.Int64]
		}
		phraseLines = append(phraseLines, fmt.Sprintf("#%d ||%s|| grants %s", p.ID, p.Passphrase, grants))
	}

	return &discordgo.MessageEmbed{
		Title: "Verification",
		Color: utils.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			utils.Field("Verified roles", strings.Join(roleLines, " "), false),
			utils.Field("Nudges", strings.Join(templateLines, "\n"), false),
			utils.Field("Passphrases", strings.Join(phraseLines, "\n"), false),
			utils.Field("Kick unverified", kick, true),
		},
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
