package database

import "discord-modbot/model"

// Repositories bundles every repository over one Store.
type Repositories struct {
	Settings                   *Settings
	GuildSettings              *GuildSettings
	RoleCategories             *RoleCategories
	UtilityChannels            *UtilityChannels
	Reminders                  *Reminders
	TempBans                   *TempBans
	Usernames                  *Usernames
	Nicknames                  *Nicknames
	GlobalNames                *GlobalNames
	LeftMembers                *LeftMembers
	Passphrases                *Passphrases
	VerificationQuestions      *VerificationQuestions
	UnverifiedReminderMessages *UnverifiedReminderMessages
	UnverifiedReminderHistory  *UnverifiedReminderHistory
	UnverifiedKickRules        *UnverifiedKickRules
	TimeZones                  *TimeZones
	Experience                 *Experience
}

func NewRepositories(store *Store, cfg *model.Config) *Repositories {
	return &Repositories{
		Settings:                   NewSettings(store),
		GuildSettings:              NewGuildSettings(store),
		RoleCategories:             NewRoleCategories(store),
		UtilityChannels:            NewUtilityChannels(store),
		Reminders:                  NewReminders(store),
		TempBans:                   NewTempBans(store),
		Usernames:                  NewUsernames(store, cfg.UsernameHistoryLimit()),
		Nicknames:                  NewNicknames(store, cfg.NicknameHistoryLimit()),
		GlobalNames:                NewGlobalNames(store, cfg.GlobalNameHistoryLimit()),
		LeftMembers:                NewLeftMembers(store),
		Passphrases:                NewPassphrases(store),
		VerificationQuestions:      NewVerificationQuestions(store),
		UnverifiedReminderMessages: NewUnverifiedReminderMessages(store),
		UnverifiedReminderHistory:  NewUnverifiedReminderHistory(store),
		UnverifiedKickRules:        NewUnverifiedKickRules(store),
		TimeZones:                  NewTimeZones(store),
		Experience:                 NewExperience(store),
	}
}
