package model

// Utility channel purposes.
const (
	PurposeLog          = "log"
	PurposeRules        = "rules"
	PurposeVerification = "verification"
)

// Role category names used by the bot itself.
const (
	CategoryModerator = "MODERATOR"
	CategoryAdmin     = "ADMIN"
	CategoryVerified  = "VERIFIED"
)

type UtilityChannel struct {
	ID        int64
	ChannelID int64
	GuildID   int64
	Purpose   string
}

type GuildRoleCategory struct {
	ID           int64
	GuildID      int64
	CategoryName string
}

// GuildRole binds a platform role to a role category.
type GuildRole struct {
	ID         int64
	RoleID     int64
	CategoryID int64
}

func UtilityChannelFromRow(row Row) (UtilityChannel, error) {
	r := newRowReader("utility_channels", row)
	c := UtilityChannel{
		ID:        r.int64("id"),
		ChannelID: r.int64("channel_id"),
		GuildID:   r.int64("guild_id"),
		Purpose:   r.string("purpose"),
	}
	return c, r.err
}

func GuildRoleCategoryFromRow(row Row) (GuildRoleCategory, error) {
	r := newRowReader("guild_role_categories", row)
	c := GuildRoleCategory{
		ID:           r.int64("id"),
		GuildID:      r.int64("guild_id"),
		CategoryName: r.string("category_name"),
	}
	return c, r.err
}

func GuildRoleFromRow(row Row) (GuildRole, error) {
	r := newRowReader("guild_roles", row)
	g := GuildRole{
		ID:         r.int64("id"),
		RoleID:     r.int64("role_id"),
		CategoryID: r.int64("category_id"),
	}
	return g, r.err
}
