// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/blockchain"
	"github.com/degenlabs/pnl-bot/internal/bot"
	"github.com/degenlabs/pnl-bot/internal/config"
	"github.com/degenlabs/pnl-bot/internal/helius"
	"github.com/degenlabs/pnl-bot/internal/holders"
	"github.com/degenlabs/pnl-bot/internal/logger"
	"github.com/degenlabs/pnl-bot/internal/pnl"
	"github.com/degenlabs/pnl-bot/internal/pricing"
	"github.com/degenlabs/pnl-bot/internal/ratelimit"
	"github.com/degenlabs/pnl-bot/internal/render"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := "configs/config.yml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()
	log.Info("Starting PnL bot")

	limiter := ratelimit.NewBucket(ratelimit.Options{
		Capacity: cfg.RateCapacity,
		Refill:   cfg.RateRefill,
		Interval: time.Second,
	}, log.Logger)

	heliusClient := helius.NewClient(cfg.HeliusKey, limiter, log.Logger)

	solClient, err := blockchain.NewClient(cfg.SolanaRPCURL(), limiter, log.Logger)
	if err != nil {
		log.Fatal("Failed to create Solana client", zap.Error(err))
	}

	oracle := pricing.NewOracle(heliusClient, limiter, log.Logger)

	pnlService := pnl.NewService(pnl.ServiceConfig{
		Signatures:   solClient,
		Balances:     solClient,
		Transactions: heliusClient,
		Prices:       oracle,
		Logger:       log.Logger,
		PageSize:     cfg.PageSize,
		BatchSize:    cfg.BatchSize,
		Retries:      cfg.Retries,
		RetryDelay:   cfg.RetryDelay(),
	})

	holdersService := holders.NewService(heliusClient, heliusClient, log.Logger)
	renderer := render.NewRenderer(cfg.FontPath, log.Logger)
	handler := bot.NewHandler(pnlService, holdersService, renderer, log)

	runner, err := bot.NewRunner(cfg.DiscordToken, cfg.DiscordAppID, handler, log.WithComponent("bot"))
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}

	if cfg.DiscordAppID != "" {
		if err := runner.RegisterCommands(); err != nil {
			log.Fatal("Failed to register commands", zap.Error(err))
		}
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatal("Bot execution error", zap.Error(err))
	}
}
