package database

import (
	"context"
	"fmt"

	"discord-modbot/model"

	"github.com/jmoiron/sqlx"
)

// Settings manages the global settings table, which holds the default value
// of every recognized setting.
type Settings struct {
	store *Store
}

func NewSettings(store *Store) *Settings {
	return &Settings{store: store}
}

// Add registers a new setting with its default value and returns its id.
func (r *Settings) Add(ctx context.Context, name, defaultValue string) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx,
			"INSERT INTO settings (name, setting_value) VALUES (:name, :setting_value)",
			map[string]interface{}{"name": name, "setting_value": defaultValue})
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add setting %s: %w", name, err)
	}
	return id, nil
}

func (r *Settings) Get(ctx context.Context, id int64) (model.Setting, error) {
	var s model.Setting
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		s, err = selectOne(ctx, tx, model.SettingFromRow,
			"SELECT id, name, setting_value FROM settings WHERE id = ?", id)
		return err
	})
	return s, err
}

func (r *Settings) GetByName(ctx context.Context, name string) (model.Setting, error) {
	var s model.Setting
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		s, err = selectOne(ctx, tx, model.SettingFromRow,
			"SELECT id, name, setting_value FROM settings WHERE name = ?", name)
		return err
	})
	return s, err
}

// List returns every setting in insertion order.
func (r *Settings) List(ctx context.Context) ([]model.Setting, error) {
	var settings []model.Setting
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		settings, err = selectAll(ctx, tx, model.SettingFromRow,
			"SELECT id, name, setting_value FROM settings ORDER BY id")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

// SetDefault changes the global default of a setting. Existing guild
// overrides keep their values.
func (r *Settings) SetDefault(ctx context.Context, name, value string) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "UPDATE settings SET setting_value = ? WHERE name = ?", value, name)
	})
}

// Delete removes a setting together with every guild override of it.
func (r *Settings) Delete(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM settings WHERE id = ?", id)
	})
}

const guildSettingColumns = `gs.id, gs.guild_id, gs.setting_id, s.name, gs.setting_value
	FROM guild_settings gs JOIN settings s ON s.id = gs.setting_id`

// GuildSettings manages per-guild overrides of the global settings.
type GuildSettings struct {
	store *Store
}

func NewGuildSettings(store *Store) *GuildSettings {
	return &GuildSettings{store: store}
}

// InitializeGuildSettings copies every global setting the guild does not
// have yet, with its default value. It returns the number of rows added.
func (r *GuildSettings) InitializeGuildSettings(ctx context.Context, guildID int64) (int64, error) {
	var added int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO guild_settings (guild_id, setting_id, setting_value)
			SELECT ?, s.id, s.setting_value FROM settings s
			WHERE s.id NOT IN (SELECT setting_id FROM guild_settings WHERE guild_id = ?)
			ORDER BY s.id`, guildID, guildID)
		if err != nil {
			return err
		}
		added, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to initialize settings of guild %d: %w", guildID, err)
	}
	return added, nil
}

func (r *GuildSettings) Get(ctx context.Context, id int64) (model.GuildSetting, error) {
	var gs model.GuildSetting
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		gs, err = selectOne(ctx, tx, model.GuildSettingFromRow,
			"SELECT "+guildSettingColumns+" WHERE gs.id = ?", id)
		return err
	})
	return gs, err
}

func (r *GuildSettings) GetByName(ctx context.Context, guildID int64, name string) (model.GuildSetting, error) {
	var gs model.GuildSetting
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		gs, err = selectOne(ctx, tx, model.GuildSettingFromRow,
			"SELECT "+guildSettingColumns+" WHERE gs.guild_id = ? AND s.name = ?", guildID, name)
		return err
	})
	return gs, err
}

// Value returns the guild's value of a setting, falling back to the global
// default when the guild has no override.
func (r *GuildSettings) Value(ctx context.Context, guildID int64, name string) (string, error) {
	var value string
	err := r.store.View(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &value, `
			SELECT COALESCE(
				(SELECT gs.setting_value FROM guild_settings gs WHERE gs.guild_id = ? AND gs.setting_id = s.id),
				s.setting_value)
			FROM settings s WHERE s.name = ?`, guildID, name)
		if IsNotFound(err) {
			return ErrNotFound
		}
		return err
	})
	return value, err
}

// Enabled reports whether a toggle setting is on for the guild. Unknown
// settings are off.
func (r *GuildSettings) Enabled(ctx context.Context, guildID int64, name string) (bool, error) {
	value, err := r.Value(ctx, guildID, name)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// Set writes the guild's override of a setting, creating it when absent.
func (r *GuildSettings) Set(ctx context.Context, guildID int64, name, value string) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) error {
		var settingID int64
		if err := tx.GetContext(ctx, &settingID, "SELECT id FROM settings WHERE name = ?", name); err != nil {
			if IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO guild_settings (guild_id, setting_id, setting_value) VALUES (?, ?, ?)
			ON CONFLICT (guild_id, setting_id) DO UPDATE SET setting_value = excluded.setting_value`,
			guildID, settingID, value); err != nil {
			return err
		}
		return tx.GetContext(ctx, &id,
			"SELECT id FROM guild_settings WHERE guild_id = ? AND setting_id = ?", guildID, settingID)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to set %s for guild %d: %w", name, guildID, err)
	}
	return id, nil
}

// ResetToDefault copies the current default of the referenced setting back
// into the guild setting row.
func (r *GuildSettings) ResetToDefault(ctx context.Context, guildSettingID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, `
			UPDATE guild_settings
			SET setting_value = (SELECT s.setting_value FROM settings s WHERE s.id = guild_settings.setting_id)
			WHERE id = ?`, guildSettingID)
	})
}

// ResetToDefaultByName is ResetToDefault addressed by guild and setting name.
func (r *GuildSettings) ResetToDefaultByName(ctx context.Context, guildID int64, name string) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, `
			UPDATE guild_settings
			SET setting_value = (SELECT s.setting_value FROM settings s WHERE s.id = guild_settings.setting_id)
			WHERE guild_id = ? AND setting_id = (SELECT id FROM settings WHERE name = ?)`, guildID, name)
	})
}

// Search returns the guild's settings whose name contains keyword,
// case-sensitively, in insertion order.
func (r *GuildSettings) Search(ctx context.Context, guildID int64, keyword string) ([]model.GuildSetting, error) {
	var settings []model.GuildSetting
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		settings, err = selectAll(ctx, tx, model.GuildSettingFromRow,
			"SELECT "+guildSettingColumns+" WHERE gs.guild_id = ? AND instr(s.name, ?) > 0 ORDER BY gs.id",
			guildID, keyword)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search settings of guild %d: %w", guildID, err)
	}
	return settings, nil
}

// List returns every setting of the guild in insertion order.
func (r *GuildSettings) List(ctx context.Context, guildID int64) ([]model.GuildSetting, error) {
	var settings []model.GuildSetting
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		settings, err = selectAll(ctx, tx, model.GuildSettingFromRow,
			"SELECT "+guildSettingColumns+" WHERE gs.guild_id = ? ORDER BY gs.id", guildID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settings of guild %d: %w", guildID, err)
	}
	return settings, nil
}

// DeleteGuild drops every override of the guild.
func (r *GuildSettings) DeleteGuild(ctx context.Context, guildID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM guild_settings WHERE guild_id = ?", guildID)
		return err
	})
}
