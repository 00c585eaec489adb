package config

import (
	"errors"
	"fmt"

	"discord-modbot/model"

	"github.com/spf13/viper"
)

var searchPaths = []string{"./data", "."}

// Load reads the optional config.{yaml,json,toml} from ./data or the
// working directory. The token is never read from a file and no environment
// variables are consulted.
func Load(token string) (*model.Config, error) {
	return LoadFrom(token, searchPaths...)
}

// LoadFrom is Load with explicit search directories.
func LoadFrom(token string, paths ...string) (*model.Config, error) {
	if token == "" {
		return nil, errors.New("bot token is required")
	}

	v := viper.New()
	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetDefault("db_path", "data/bot.db")
	v.SetDefault("debug_guild_ids", []string{})
	v.SetDefault("nickname_limit", model.DefaultHistoryLimit)
	v.SetDefault("username_limit", model.DefaultHistoryLimit)
	v.SetDefault("global_name_limit", model.DefaultHistoryLimit)
	v.SetDefault("scheduler_tick_seconds", int(model.MinSchedulerTick.Seconds()))
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.BotToken = token
	return cfg, nil
}
