package bot

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Run opens the session, registers commands, starts the scheduler and
// blocks until the process is interrupted.
func (b *Bot) Run() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	if ids := b.GetConfig().DebugGuildIDs; len(ids) > 0 {
		for _, guildID := range ids {
			b.RefreshCommands(guildID)
		}
	} else {
		b.RefreshCommands("")
	}

	b.scheduler.Start()

	logger.Info("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	return nil
}
