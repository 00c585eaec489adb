package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"discord-modbot/bot"
	"discord-modbot/config"
	"discord-modbot/handlers"
	"discord-modbot/utils"
	"discord-modbot/utils/database"

	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <bot token>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}
	if err := utils.SetupLogging(cfg.LogLevel); err != nil {
		logrus.Fatalf("Error configuring logging: %v", err)
	}

	store, err := database.Open(cfg.DBPath)
	if err != nil {
		logrus.Fatalf("Error opening database: %v", err)
	}
	defer store.Close()

	if _, err := database.NewMigrator(store).Migrate(context.Background()); err != nil {
		logrus.Fatalf("Error migrating database: %v", err)
	}

	b, err := bot.New(cfg, store)
	if err != nil {
		logrus.Fatalf("Error creating bot: %v", err)
	}
	defer b.Close()

	handlers.Register(b)

	if err := b.Run(); err != nil {
		logrus.Errorf("Bot stopped: %v", err)
	}
}
