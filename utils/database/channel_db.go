package database

import (
	"context"
	"fmt"

	"discord-modbot/model"

	"github.com/jmoiron/sqlx"
)

// UtilityChannels tags channels with a functional purpose.
type UtilityChannels struct {
	store *Store
}

func NewUtilityChannels(store *Store) *UtilityChannels {
	return &UtilityChannels{store: store}
}

// Add tags the channel with purpose. Tagging the same channel twice with the
// same purpose fails with ErrConstraintViolation.
func (r *UtilityChannels) Add(ctx context.Context, guildID, channelID int64, purpose string) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO utility_channels (channel_id, guild_id, purpose) VALUES (?, ?, ?)",
			channelID, guildID, purpose)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add %s channel %d: %w", purpose, channelID, err)
	}
	return id, nil
}

func (r *UtilityChannels) Remove(ctx context.Context, guildID, channelID int64, purpose string) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx,
			"DELETE FROM utility_channels WHERE channel_id = ? AND guild_id = ? AND purpose = ?",
			channelID, guildID, purpose)
	})
}

// ListByPurpose returns the guild's channels tagged with purpose.
func (r *UtilityChannels) ListByPurpose(ctx context.Context, guildID int64, purpose string) ([]model.UtilityChannel, error) {
	var channels []model.UtilityChannel
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		channels, err = selectAll(ctx, tx, model.UtilityChannelFromRow,
			"SELECT id, channel_id, guild_id, purpose FROM utility_channels WHERE guild_id = ? AND purpose = ? ORDER BY id",
			guildID, purpose)
		return err
	})
	return channels, err
}

func (r *UtilityChannels) List(ctx context.Context, guildID int64) ([]model.UtilityChannel, error) {
	var channels []model.UtilityChannel
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		channels, err = selectAll(ctx, tx, model.UtilityChannelFromRow,
			"SELECT id, channel_id, guild_id, purpose FROM utility_channels WHERE guild_id = ? ORDER BY id", guildID)
		return err
	})
	return channels, err
}

// DeleteForGuild untags every channel of the guild.
func (r *UtilityChannels) DeleteForGuild(ctx context.Context, guildID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM utility_channels WHERE guild_id = ?", guildID)
		return err
	})
}

// Is reports whether the channel carries purpose.
func (r *UtilityChannels) Is(ctx context.Context, guildID, channelID int64, purpose string) (bool, error) {
	var n int
	err := r.store.View(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n,
			"SELECT COUNT(*) FROM utility_channels WHERE channel_id = ? AND guild_id = ? AND purpose = ?",
			channelID, guildID, purpose)
	})
	return n > 0, err
}

// RoleCategories groups platform roles under named categories such as
// MODERATOR or VERIFIED.
type RoleCategories struct {
	store *Store
}

func NewRoleCategories(store *Store) *RoleCategories {
	return &RoleCategories{store: store}
}

func (r *RoleCategories) AddCategory(ctx context.Context, guildID int64, name string) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx,
			"INSERT INTO guild_role_categories (guild_id, category_name) VALUES (?, ?)", guildID, name)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add role category %s: %w", name, err)
	}
	return id, nil
}

func (r *RoleCategories) GetCategory(ctx context.Context, guildID int64, name string) (model.GuildRoleCategory, error) {
	var c model.GuildRoleCategory
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		c, err = selectOne(ctx, tx, model.GuildRoleCategoryFromRow,
			"SELECT id, guild_id, category_name FROM guild_role_categories WHERE guild_id = ? AND category_name = ? ORDER BY id",
			guildID, name)
		return err
	})
	return c, err
}

func (r *RoleCategories) ListCategories(ctx context.Context, guildID int64) ([]model.GuildRoleCategory, error) {
	var categories []model.GuildRoleCategory
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		categories, err = selectAll(ctx, tx, model.GuildRoleCategoryFromRow,
			"SELECT id, guild_id, category_name FROM guild_role_categories WHERE guild_id = ? ORDER BY id", guildID)
		return err
	})
	return categories, err
}

// DeleteCategory removes the category and, by cascade, its role bindings.
func (r *RoleCategories) DeleteCategory(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM guild_role_categories WHERE id = ?", id)
	})
}

// DeleteForGuild removes every category of the guild with its role bindings.
func (r *RoleCategories) DeleteForGuild(ctx context.Context, guildID int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM guild_role_categories WHERE guild_id = ?", guildID)
		return err
	})
}

// AddRole binds a platform role to a category.
func (r *RoleCategories) AddRole(ctx context.Context, categoryID, roleID int64) (int64, error) {
	var id int64
	err := r.store.Update(ctx, func(tx *sqlx.Tx) (err error) {
		id, err = insert(ctx, tx, "INSERT INTO guild_roles (role_id, category_id) VALUES (?, ?)", roleID, categoryID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add role %d to category %d: %w", roleID, categoryID, err)
	}
	return id, nil
}

// DeleteRole removes a role binding. Passphrases granting it lose their role.
func (r *RoleCategories) DeleteRole(ctx context.Context, id int64) error {
	return r.store.Update(ctx, func(tx *sqlx.Tx) error {
		return execAffecting(ctx, tx, "DELETE FROM guild_roles WHERE id = ?", id)
	})
}

func (r *RoleCategories) GetRole(ctx context.Context, id int64) (model.GuildRole, error) {
	var role model.GuildRole
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		role, err = selectOne(ctx, tx, model.GuildRoleFromRow,
			"SELECT id, role_id, category_id FROM guild_roles WHERE id = ?", id)
		return err
	})
	return role, err
}

// RolesInCategory returns the role bindings of the guild's category name.
func (r *RoleCategories) RolesInCategory(ctx context.Context, guildID int64, name string) ([]model.GuildRole, error) {
	var roles []model.GuildRole
	err := r.store.View(ctx, func(tx *sqlx.Tx) (err error) {
		roles, err = selectAll(ctx, tx, model.GuildRoleFromRow, `
			SELECT gr.id, gr.role_id, gr.category_id
			FROM guild_roles gr JOIN guild_role_categories c ON c.id = gr.category_id
			WHERE c.guild_id = ? AND c.category_name = ?
			ORDER BY gr.id`, guildID, name)
		return err
	})
	return roles, err
}
