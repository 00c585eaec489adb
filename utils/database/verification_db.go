package database

import (
	"context"
	"fmt"
	"time"

	"discord-modbot/model"
	"discord-modbot/utils"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"
)

// Passphrases verify members who type them, optionally granting a role.
type Passphrases struct {
	store *Store
}

func NewPassphrases(store *Store) *Passphrases {
	return &Passphrases{store: store}
}

// Add stores a passphrase; roleID refers to a guild_roles binding.
func (r *Passphrases) Add(ctx context.Context, guildID int64, passphrase string, roleID null.Int64) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO passphrases (guild_id, passphrase, role_id) VALUES (?, ?, ?)", guildID, passphrase, roleID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add passphrase: %w", err)
	}
	return id, nil
}

func (r *Passphrases) List(ctx context.Context, guildID int64) ([]model.Passphrase, error) {
	var phrases []model.Passphrase
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		phrases, err = selectAll(ctx, tx, model.PassphraseFromRow,
			"SELECT id, guild_id, passphrase, role_id FROM passphrases WHERE guild_id = ? ORDER BY id", guildID)
		return err
	})
	return phrases, err
}

// Match returns the guild's passphrase equal to text.
func (r *Passphrases) Match(ctx context.Context, guildID int64, text string) (model.Passphrase, error) {
	var p model.Passphrase
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		p, err = selectOne(ctx, tx, model.PassphraseFromRow,
			"SELECT id, guild_id, passphrase, role_id FROM passphrases WHERE guild_id = ? AND passphrase = ? ORDER BY id",
			guildID, text)
		return err
	})
	return p, err
}

func (r *Passphrases) Delete(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM passphrases WHERE id = ?", id)
	})
}

func (r *Passphrases) DeleteForGuild(ctx context.Context, guildID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM passphrases WHERE guild_id = ?", guildID)
		return err
	})
}

// VerificationQuestions stores the questions asked during verification and
// their accepted answers.
type VerificationQuestions struct {
	store *Store
}

func NewVerificationQuestions(store *Store) *VerificationQuestions {
	return &VerificationQuestions{store: store}
}

func (r *VerificationQuestions) Add(ctx context.Context, guildID int64, question string) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO verification_questions (guild_id, question) VALUES (?, ?)", guildID, question)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add verification question: %w", err)
	}
	return id, nil
}

func (r *VerificationQuestions) List(ctx context.Context, guildID int64) ([]model.VerificationQuestion, error) {
	var questions []model.VerificationQuestion
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		questions, err = selectAll(ctx, tx, model.VerificationQuestionFromRow,
			"SELECT id, guild_id, question FROM verification_questions WHERE guild_id = ? ORDER BY id", guildID)
		return err
	})
	return questions, err
}

// Delete removes a question and, by cascade, its answers.
func (r *VerificationQuestions) Delete(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM verification_questions WHERE id = ?", id)
	})
}

func (r *VerificationQuestions) DeleteForGuild(ctx context.Context, guildID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM verification_questions WHERE guild_id = ?", guildID)
		return err
	})
}

func (r *VerificationQuestions) AddAnswer(ctx context.Context, questionID int64, answer string) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO verification_answers (question_id, answer) VALUES (?, ?)", questionID, answer)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add answer to question %d: %w", questionID, err)
	}
	return id, nil
}

func (r *VerificationQuestions) Answers(ctx context.Context, questionID int64) ([]model.VerificationAnswer, error) {
	var answers []model.VerificationAnswer
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		answers, err = selectAll(ctx, tx, model.VerificationAnswerFromRow,
			"SELECT id, question_id, answer FROM verification_answers WHERE question_id = ? ORDER BY id", questionID)
		return err
	})
	return answers, err
}

// UnverifiedReminderMessages are the templates nudging unverified members.
type UnverifiedReminderMessages struct {
	store *Store
}

func NewUnverifiedReminderMessages(store *Store) *UnverifiedReminderMessages {
	return &UnverifiedReminderMessages{store: store}
}

func (r *UnverifiedReminderMessages) Add(ctx context.Context, guildID int64, content string, after time.Duration) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO unverified_reminder_messages (guild_id, content, timedelta_seconds) VALUES (?, ?, ?)",
			guildID, content, int64(after/time.Second))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add unverified reminder message: %w", err)
	}
	return id, nil
}

// List returns the guild's templates, earliest delay first.
func (r *UnverifiedReminderMessages) List(ctx context.Context, guildID int64) ([]model.UnverifiedReminderMessage, error) {
	var messages []model.UnverifiedReminderMessage
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		messages, err = selectAll(ctx, tx, model.UnverifiedReminderMessageFromRow,
			"SELECT id, guild_id, content, timedelta_seconds FROM unverified_reminder_messages WHERE guild_id = ? ORDER BY timedelta_seconds, id",
			guildID)
		return err
	})
	return messages, err
}

// Delete removes a template together with its delivery history.
func (r *UnverifiedReminderMessages) Delete(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM unverified_reminder_messages WHERE id = ?", id)
	})
}

// DeleteForGuild removes the guild's templates and their delivery history.
func (r *UnverifiedReminderMessages) DeleteForGuild(ctx context.Context, guildID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM unverified_reminder_messages WHERE guild_id = ?", guildID)
		return err
	})
}

// UnverifiedReminderHistory records which templates each user has received.
type UnverifiedReminderHistory struct {
	store *Store
}

func NewUnverifiedReminderHistory(store *Store) *UnverifiedReminderHistory {
	return &UnverifiedReminderHistory{store: store}
}

func (r *UnverifiedReminderHistory) Add(ctx context.Context, userID, messageID int64, at time.Time) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO unverified_reminder_history (user_id, reminder_message_id, time) VALUES (?, ?, ?)",
			userID, messageID, utils.EncodeTime(at))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record reminder %d for %d: %w", messageID, userID, err)
	}
	return id, nil
}

// Delivered reports whether the template was already sent to the user.
func (r *UnverifiedReminderHistory) Delivered(ctx context.Context, userID, messageID int64) (bool, error) {
	var n int
	err := r.store.View(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n,
			"SELECT COUNT(*) FROM unverified_reminder_history WHERE user_id = ? AND reminder_message_id = ?",
			userID, messageID)
	})
	return n > 0, err
}

// ListForUser returns the user's deliveries within the guild, oldest first.
func (r *UnverifiedReminderHistory) ListForUser(ctx context.Context, guildID, userID int64) ([]model.UnverifiedReminderHistory, error) {
	var history []model.UnverifiedReminderHistory
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		history, err = selectAll(ctx, tx, model.UnverifiedReminderHistoryFromRow, `
			SELECT id, user_id, reminder_message_id, time FROM unverified_reminder_history
			WHERE user_id = ? AND reminder_message_id IN
				(SELECT id FROM unverified_reminder_messages WHERE guild_id = ?)
			ORDER BY time, id`, userID, guildID)
		return err
	})
	return history, err
}

// DeleteForUser forgets the user's deliveries within the guild, e.g. after
// they verified or left.
func (r *UnverifiedReminderHistory) DeleteForUser(ctx context.Context, guildID, userID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM unverified_reminder_history
			WHERE user_id = ? AND reminder_message_id IN
				(SELECT id FROM unverified_reminder_messages WHERE guild_id = ?)`, userID, guildID)
		return err
	})
}

// DeleteForGuild forgets every delivery of the guild's templates.
func (r *UnverifiedReminderHistory) DeleteForGuild(ctx context.Context, guildID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM unverified_reminder_history
			WHERE reminder_message_id IN (SELECT id FROM unverified_reminder_messages WHERE guild_id = ?)`, guildID)
		return err
	})
}

// UnverifiedKickRules holds at most one kick rule per guild.
type UnverifiedKickRules struct {
	store *Store
}

func NewUnverifiedKickRules(store *Store) *UnverifiedKickRules {
	return &UnverifiedKickRules{store: store}
}

// Set creates or replaces the guild's kick rule.
func (r *UnverifiedKickRules) Set(ctx context.Context, guildID int64, after time.Duration) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO unverified_kick_rules (guild_id, timedelta_seconds) VALUES (?, ?)
			ON CONFLICT (guild_id) DO UPDATE SET timedelta_seconds = excluded.timedelta_seconds`,
			guildID, int64(after/time.Second)); err != nil {
			return err
		}
		return tx.GetContext(ctx, &id, "SELECT id FROM unverified_kick_rules WHERE guild_id = ?", guildID)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to set kick rule of guild %d: %w", guildID, err)
	}
	return id, nil
}

func (r *UnverifiedKickRules) Get(ctx context.Context, guildID int64) (model.UnverifiedKickRule, error) {
	var rule model.UnverifiedKickRule
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		rule, err = selectOne(ctx, tx, model.UnverifiedKickRuleFromRow,
			"SELECT id, guild_id, timedelta_seconds FROM unverified_kick_rules WHERE guild_id = ?", guildID)
		return err
	})
	return rule, err
}

func (r *UnverifiedKickRules) List(ctx context.Context) ([]model.UnverifiedKickRule, error) {
	var rules []model.UnverifiedKickRule
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		rules, err = selectAll(ctx, tx, model.UnverifiedKickRuleFromRow,
			"SELECT id, guild_id, timedelta_seconds FROM unverified_kick_rules ORDER BY id")
		return err
	})
	return rules, err
}

func (r *UnverifiedKickRules) Delete(ctx context.Context, guildID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM unverified_kick_rules WHERE guild_id = ?", guildID)
	})
}
