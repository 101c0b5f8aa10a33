// ====================================
// File: cmd/register/main.go
// ====================================
// One-shot command registration: overwrites the application's global slash
// commands and exits. Run after deploying a build that changes the surface.
package main

import (
	"os"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/bot"
	"github.com/degenlabs/pnl-bot/internal/config"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	configPath := "configs/config.yml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.DiscordAppID == "" {
		logger.Fatal("discord_app_id is required to register commands")
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Fatal("Failed to create discord session", zap.Error(err))
	}

	registered, err := session.ApplicationCommandBulkOverwrite(cfg.DiscordAppID, "", bot.Commands)
	if err != nil {
		logger.Fatal("Failed to register commands", zap.Error(err))
	}

	for _, command := range registered {
		logger.Info("Registered command", zap.String("name", command.Name), zap.String("id", command.ID))
	}
}
