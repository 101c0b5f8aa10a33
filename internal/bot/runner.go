// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Runner owns the Discord session lifecycle: open the gateway, register
// the interaction handler, and block until a shutdown signal.
type Runner struct {
	session    *discordgo.Session
	handler    *Handler
	appID      string
	logger     *zap.Logger
	shutdownCh chan os.Signal
}

func NewRunner(token, appID string, handler *Handler, logger *zap.Logger) (*Runner, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsNone

	return &Runner{
		session:    session,
		handler:    handler,
		appID:      appID,
		logger:     logger,
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

// RegisterCommands overwrites the application's global slash commands.
func (r *Runner) RegisterCommands() error {
	registered, err := r.session.ApplicationCommandBulkOverwrite(r.appID, "", Commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	r.logger.Info(fmt.Sprintf("📋 Registered %d slash commands", len(registered)))
	return nil
}

func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	shutdownCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.session.AddHandler(r.handler.HandleInteraction)
	r.session.AddHandler(func(_ *discordgo.Session, ready *discordgo.Ready) {
		r.logger.Info("🤖 Gateway ready",
			zap.String("username", ready.User.Username),
			zap.Int("guilds", len(ready.Guilds)))
	})

	if err := r.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway connection: %w", err)
	}
	r.logger.Info("🚀 Bot is running, press Ctrl+C to exit")

	select {
	case sig := <-r.shutdownCh:
		r.logger.Info("📡 Signal received: " + sig.String())
	case <-shutdownCtx.Done():
	}

	return r.Shutdown()
}

func (r *Runner) Shutdown() error {
	r.logger.Info("👋 Bot shutting down gracefully")

	if err := r.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}

	if err := r.logger.Sync(); err != nil {
		if !os.IsNotExist(err) &&
			err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: inappropriate ioctl for device" {
			fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
		}
	}
	return nil
}
