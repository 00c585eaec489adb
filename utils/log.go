package utils

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("p", "utils")

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

// SetupLogging configures the global logrus logger from a level name.
func SetupLogging(level string) error {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: TimeLayout,
	})
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	return nil
}

// Field builds an embed field; empty values are shown as a dash.
func Field(name, value string, inline bool) *discordgo.MessageEmbedField {
	if value == "" {
		value = "-"
	}
	if len(value) > 1024 {
		value = value[:1021] + "..."
	}
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline}
}

// LogEmbed builds the embed posted to a guild's log channels.
func LogEmbed(level LogLevel, title string, fields ...*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     level.Color(),
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func Mention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

func ChannelMention(channelID int64) string {
	return fmt.Sprintf("<#%d>", channelID)
}

func RoleMention(roleID int64) string {
	return fmt.Sprintf("<@&%d>", roleID)
}
