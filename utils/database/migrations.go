package database

import (
	"context"
	"fmt"

	"discord-modbot/utils"

	"github.com/jmoiron/sqlx"
)

// LatestVersion is the schema version the migration chain ends at.
const LatestVersion = 22

// Kinds of migration steps, shown by the upgrade tool.
const (
	StepBootstrap = "bootstrap"
	StepSchema    = "schema"
	StepRewrite   = "rewrite"
	StepSeed      = "seed"
	StepTrigger   = "trigger"
	StepTransform = "transform"
	StepNoop      = "no-op"
)

// DefaultSetting is a seeded setting with its global default value.
type DefaultSetting struct {
	Name  string
	Value string
}

// DefaultSettings are the log toggles seeded by the version 3 step, in
// insertion order.
var DefaultSettings = []DefaultSetting{
	{"log_edited_messages", "1"},
	{"log_deleted_messages", "1"},
	{"log_membership_changes", "1"},
	{"log_timeouts", "1"},
	{"log_warnings", "1"},
	{"log_name_changes", "0"},
	{"log_member_role_changes", "0"},
	{"log_avatar_changes", "0"},
	{"log_channel_changes", "0"},
	{"log_guild_role_changes", "0"},
	{"log_invites", "0"},
	{"log_message_reactions", "0"},
	{"log_webhook_changes", "0"},
}

type migrationStep struct {
	kind        string
	description string
	apply       func(ctx context.Context, tx *sqlx.Tx) error
}

// migrationSteps[v] upgrades the schema from version v to v+1.
var migrationSteps = []migrationStep{
	{StepBootstrap, "create base tables", createBaseTables},
	{StepSchema, "create settings tables", schema(
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			setting_value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS guild_settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id INTEGER NOT NULL,
			setting_id INTEGER NOT NULL REFERENCES settings(id),
			setting_value TEXT NOT NULL
		)`,
	)},
	{StepSeed, "seed log settings", seedDefaultSettings},
	{StepRewrite, "reminders: add creator guild and public flag", rewrite("reminders",
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			creator_id INTEGER NOT NULL,
			creator_guild_id INTEGER,
			content TEXT NOT NULL,
			reminder_date TEXT NOT NULL,
			public INTEGER NOT NULL DEFAULT 0
		)`,
		`INSERT INTO reminders (id, creator_id, creator_guild_id, content, reminder_date, public)
		 SELECT id, creator_id, NULL, content, reminder_date, 0 FROM reminders_backup`,
	)},
	{StepSchema, "create user reminders", schema(
		`CREATE TABLE IF NOT EXISTS user_reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			reminder_id INTEGER NOT NULL REFERENCES reminders(id) ON DELETE CASCADE,
			UNIQUE (user_id, reminder_id)
		)`,
	)},
	{StepRewrite, "reminders: add interval, type and repeats", rewrite("reminders",
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			creator_id INTEGER NOT NULL,
			creator_guild_id INTEGER,
			content TEXT NOT NULL,
			reminder_date TEXT NOT NULL,
			public INTEGER NOT NULL DEFAULT 0,
			interval_seconds INTEGER,
			reminder_type TEXT NOT NULL DEFAULT 'weekday'
				CHECK (reminder_type IN ('weekday', 'day', 'time', 'after')),
			repeats_left INTEGER NOT NULL DEFAULT 1
		)`,
		`INSERT INTO reminders (id, creator_id, creator_guild_id, content, reminder_date, public,
			interval_seconds, reminder_type, repeats_left)
		 SELECT id, creator_id, creator_guild_id, content, reminder_date, public, NULL, 'weekday', 1
		 FROM reminders_backup`,
	)},
	{StepRewrite, "utility channels: unique per purpose", rewrite("utility_channels",
		`CREATE TABLE IF NOT EXISTS utility_channels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			purpose TEXT NOT NULL,
			UNIQUE (channel_id, guild_id, purpose)
		)`,
		`INSERT OR IGNORE INTO utility_channels (id, channel_id, guild_id, purpose)
		 SELECT id, channel_id, guild_id, purpose FROM utility_channels_backup ORDER BY id`,
	)},
	{StepSchema, "create passphrases", schema(
		`CREATE TABLE IF NOT EXISTS passphrases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id INTEGER NOT NULL,
			passphrase TEXT NOT NULL,
			role_id INTEGER REFERENCES guild_roles(id)
		)`,
	)},
	{StepSchema, "create verification questions", schema(
		`CREATE TABLE IF NOT EXISTS verification_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id INTEGER NOT NULL,
			question TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS verification_answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question_id INTEGER NOT NULL REFERENCES verification_questions(id) ON DELETE CASCADE,
			answer TEXT NOT NULL
		)`,
	)},
	{StepSchema, "create unverified reminder messages", schema(
		`CREATE TABLE IF NOT EXISTS unverified_reminder_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			timedelta_seconds INTEGER NOT NULL
		)`,
	)},
	{StepSchema, "create unverified reminder history", schema(
		`CREATE TABLE IF NOT EXISTS unverified_reminder_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			reminder_message_id INTEGER NOT NULL
				REFERENCES unverified_reminder_messages(id) ON DELETE CASCADE,
			time TEXT NOT NULL
		)`,
	)},
	{StepSchema, "create unverified kick rules", schema(
		`CREATE TABLE IF NOT EXISTS unverified_kick_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id INTEGER NOT NULL UNIQUE,
			timedelta_seconds INTEGER NOT NULL
		)`,
	)},
	{StepSchema, "create time zones", schema(
		`CREATE TABLE IF NOT EXISTS time_zones (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL UNIQUE,
			time_zone TEXT NOT NULL
		)`,
	)},
	{StepSchema, "create experience", schema(
		`CREATE TABLE IF NOT EXISTS experience (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			server_id INTEGER NOT NULL,
			amount INTEGER NOT NULL DEFAULT 0,
			last_experience TEXT NOT NULL,
			UNIQUE (user_id, server_id)
		)`,
	)},
	{StepSchema, "create global names", schema(
		`CREATE TABLE IF NOT EXISTS global_names (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			time TEXT NOT NULL
		)`,
	)},
	{StepRewrite, "punishments: add deleted flag", rewrite("punishments",
		`CREATE TABLE IF NOT EXISTS punishments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			issuer_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			reason TEXT,
			time TEXT NOT NULL,
			deleted INTEGER NOT NULL DEFAULT 0
		)`,
		`INSERT INTO punishments (id, user_id, issuer_id, guild_id, type, reason, time, deleted)
		 SELECT id, user_id, issuer_id, guild_id, type, reason, time, 0 FROM punishments_backup`,
	)},
	{StepRewrite, "guild settings: unique per guild, cascade on setting delete", rewrite("guild_settings",
		`CREATE TABLE IF NOT EXISTS guild_settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id INTEGER NOT NULL,
			setting_id INTEGER NOT NULL REFERENCES settings(id) ON DELETE CASCADE,
			setting_value TEXT NOT NULL,
			UNIQUE (guild_id, setting_id)
		)`,
		`INSERT OR IGNORE INTO guild_settings (id, guild_id, setting_id, setting_value)
		 SELECT id, guild_id, setting_id, setting_value FROM guild_settings_backup
		 WHERE setting_id IN (SELECT id FROM settings)
		 ORDER BY id`,
	)},
	{StepTrigger, "clear passphrase roles when a role binding is deleted", schema(
		`CREATE TRIGGER IF NOT EXISTS guild_roles_clear_passphrases
		 BEFORE DELETE ON guild_roles
		 BEGIN
			UPDATE passphrases SET role_id = NULL WHERE role_id = OLD.id;
		 END`,
	)},
	{StepNoop, "reserved", noop},
	{StepSchema, "index history and schedule lookups", schema(
		`CREATE INDEX IF NOT EXISTS idx_usernames_user ON usernames(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_nicknames_user_guild ON nicknames(user_id, guild_id)`,
		`CREATE INDEX IF NOT EXISTS idx_global_names_user ON global_names(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_date ON reminders(reminder_date)`,
		`CREATE INDEX IF NOT EXISTS idx_temporary_bans_unban_date ON temporary_bans(unban_date)`,
	)},
	{StepRewrite, "punishments: textual subject and checked type", rewrite("punishments",
		`CREATE TABLE IF NOT EXISTS punishments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			issuer_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('BAN', 'KICK', 'TIMEOUT', 'WARN')),
			reason TEXT,
			time TEXT NOT NULL,
			deleted INTEGER NOT NULL DEFAULT 0
		)`,
		`INSERT INTO punishments (id, user_id, issuer_id, guild_id, type, reason, time, deleted)
		 SELECT id, CAST(user_id AS TEXT), issuer_id, guild_id, UPPER(type), reason, time, deleted
		 FROM punishments_backup`,
	)},
	{StepTransform, "punishments: hash subject identifiers", hashPunishmentSubjects},
}

func createBaseTables(ctx context.Context, tx *sqlx.Tx) error {
	return execAll(ctx, tx,
		`CREATE TABLE IF NOT EXISTS utility_channels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			purpose TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS guild_role_categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id INTEGER NOT NULL,
			category_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS guild_roles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL REFERENCES guild_role_categories(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			creator_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			reminder_date TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS temporary_bans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			unban_date TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS punishments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			issuer_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			reason TEXT,
			time TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS usernames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			time TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS nicknames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			time TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS left_members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			leave_date TEXT NOT NULL
		)`,
	)
}

func seedDefaultSettings(ctx context.Context, tx *sqlx.Tx) error {
	for _, s := range DefaultSettings {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (name, setting_value) VALUES (?, ?)", s.Name, s.Value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", s.Name, err)
		}
	}
	return nil
}

// hashPunishmentSubjects replaces every plaintext punishments.user_id with
// its digest. Rows that already hold a digest are left alone.
func hashPunishmentSubjects(ctx context.Context, tx *sqlx.Tx) error {
	type subject struct {
		ID     int64  `db:"id"`
		UserID string `db:"user_id"`
	}
	var subjects []subject
	if err := tx.SelectContext(ctx, &subjects, "SELECT id, user_id FROM punishments ORDER BY id"); err != nil {
		return fmt.Errorf("failed to read punishment subjects: %w", err)
	}

	for _, s := range subjects {
		if utils.IsDigest(s.UserID) {
			continue
		}
		if _, err := tx.ExecContext(ctx, "UPDATE punishments SET user_id = ? WHERE id = ?",
			utils.DigestString(s.UserID), s.ID); err != nil {
			return fmt.Errorf("failed to hash subject of punishment %d: %w", s.ID, err)
		}
	}
	logger.WithField("rows", len(subjects)).Info("Hashed punishment subjects")
	return nil
}

func noop(context.Context, *sqlx.Tx) error { return nil }

// schema returns a step that executes the given statements in order.
func schema(statements ...string) func(ctx context.Context, tx *sqlx.Tx) error {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		return execAll(ctx, tx, statements...)
	}
}

// rewrite returns a step that moves table aside, recreates it with
// createSQL, carries rows over with copySQL (reading from <table>_backup)
// and drops the backup.
func rewrite(table, createSQL, copySQL string) func(ctx context.Context, tx *sqlx.Tx) error {
	backup := table + "_backup"
	return func(ctx context.Context, tx *sqlx.Tx) error {
		return execAll(ctx, tx,
			"DROP TABLE IF EXISTS "+backup,
			"ALTER TABLE "+table+" RENAME TO "+backup,
			createSQL,
			copySQL,
			"DROP TABLE IF EXISTS "+backup,
		)
	}
}

func execAll(ctx context.Context, tx *sqlx.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
