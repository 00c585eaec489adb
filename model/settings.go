package model

// Setting is a recognized configuration key with its global default value.
type Setting struct {
	ID    int64
	Name  string
	Value string
}

// GuildSetting is a per-guild override of a Setting. Name is filled from the
// joined settings row.
type GuildSetting struct {
	ID        int64
	GuildID   int64
	SettingID int64
	Name      string
	Value     string
}

func SettingFromRow(row Row) (Setting, error) {
	r := newRowReader("settings", row)
	s := Setting{
		ID:    r.int64("id"),
		Name:  r.string("name"),
		Value: r.string("setting_value"),
	}
	return s, r.err
}

func GuildSettingFromRow(row Row) (GuildSetting, error) {
	r := newRowReader("guild_settings", row)
	gs := GuildSetting{
		ID:        r.int64("id"),
		GuildID:   r.int64("guild_id"),
		SettingID: r.int64("setting_id"),
		Name:      r.string("name"),
		Value:     r.string("setting_value"),
	}
	return gs, r.err
}

// Enabled reports whether a toggle-style setting is switched on.
func (gs GuildSetting) Enabled() bool {
	return gs.Value == "1"
}
