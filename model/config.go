package model

import "time"

// MinSchedulerTick is the floor of the scheduler period.
const MinSchedulerTick = time.Minute

// DefaultHistoryLimit caps name histories when no limit is configured.
const DefaultHistoryLimit = 5

// Config is the immutable runtime configuration of the bot.
type Config struct {
	BotToken             string   `mapstructure:"-"`
	DBPath               string   `mapstructure:"db_path"`
	DebugGuildIDs        []string `mapstructure:"debug_guild_ids"`
	NicknameLimit        int      `mapstructure:"nickname_limit"`
	UsernameLimit        int      `mapstructure:"username_limit"`
	GlobalNameLimit      int      `mapstructure:"global_name_limit"`
	SchedulerTickSeconds int      `mapstructure:"scheduler_tick_seconds"`
	LogLevel             string   `mapstructure:"log_level"`
}

// SchedulerTick returns the configured sweep period, never below one minute.
func (c *Config) SchedulerTick() time.Duration {
	d := time.Duration(c.SchedulerTickSeconds) * time.Second
	if d < MinSchedulerTick {
		return MinSchedulerTick
	}
	return d
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultHistoryLimit
	}
	return n
}

func (c *Config) NicknameHistoryLimit() int   { return limitOrDefault(c.NicknameLimit) }
func (c *Config) UsernameHistoryLimit() int   { return limitOrDefault(c.UsernameLimit) }
func (c *Config) GlobalNameHistoryLimit() int { return limitOrDefault(c.GlobalNameLimit) }
