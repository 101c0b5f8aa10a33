// internal/bot/handler.go
package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/holders"
	"github.com/degenlabs/pnl-bot/internal/logger"
	"github.com/degenlabs/pnl-bot/internal/pnl"
)

// computeTimeout bounds one full aggregation run; deep wallets with long
// histories take many paginated round trips.
const computeTimeout = 5 * time.Minute

type PnLService interface {
	ComputePnL(ctx context.Context, wallet, mint solana.PublicKey) (*pnl.Report, error)
}

type HoldersService interface {
	Top(ctx context.Context, mint string, limit int) (*holders.Summary, error)
}

type CardRenderer interface {
	Card(report *pnl.Report) ([]byte, error)
}

// Handler routes slash-command interactions to the PnL and holders services.
type Handler struct {
	pnl     PnLService
	holders HoldersService
	render  CardRenderer
	logger  *logger.Logger
}

func NewHandler(pnlSvc PnLService, holdersSvc HoldersService, render CardRenderer, log *logger.Logger) *Handler {
	return &Handler{
		pnl:     pnlSvc,
		holders: holdersSvc,
		render:  render,
		logger:  log,
	}
}

// HandleInteraction is registered as the discordgo interaction handler.
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()

	log := h.logger.WithRequest(data.Name, interactionUserID(i))

	// Aggregation runs far past the 3-second interaction deadline, so every
	// command defers first and delivers through a followup.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Error("failed to defer interaction", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), computeTimeout)
	defer cancel()

	switch data.Name {
	case "pnl":
		h.handlePnL(ctx, s, i, data, log)
	case "topholders":
		h.handleTopHolders(ctx, s, i, data, log)
	default:
		h.followupText(s, i, "Unknown command.", log)
	}
}

func (h *Handler) handlePnL(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, log *zap.Logger) {
	defer h.logger.TrackPerformance("pnl_command")()

	req, err := parsePnLRequest(data)
	if err != nil {
		h.followupText(s, i, fmt.Sprintf("Invalid request: %v", err), log)
		return
	}

	log = log.With(zap.String("wallet", req.Wallet.String()), zap.String("mint", req.Mint.String()))
	log.Info("computing pnl")

	report, err := h.pnl.ComputePnL(ctx, req.Wallet, req.Mint)
	if err != nil {
		log.Error("pnl computation failed", zap.Error(err))
		h.followupText(s, i, "Could not compute PnL for that wallet right now. Please try again later.", log)
		return
	}

	card, err := h.render.Card(report)
	if err != nil {
		log.Error("card rendering failed", zap.Error(err))
		h.followupText(s, i, formatReportText(report), log)
		return
	}

	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Files: []*discordgo.File{{
			Name:        "pnl.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(card),
		}},
	})
	if err != nil {
		log.Error("failed to deliver report card", zap.Error(err))
	}
}

func (h *Handler) handleTopHolders(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, log *zap.Logger) {
	req, err := parseHoldersRequest(data)
	if err != nil {
		h.followupText(s, i, fmt.Sprintf("Invalid request: %v", err), log)
		return
	}

	summary, err := h.holders.Top(ctx, req.Mint, req.Limit)
	if err != nil {
		log.Error("holders lookup failed", zap.String("mint", req.Mint), zap.Error(err))
		h.followupText(s, i, "Could not fetch holders for that token right now. Please try again later.", log)
		return
	}

	h.followupText(s, i, formatHoldersMessage(summary), log)
}

func (h *Handler) followupText(s *discordgo.Session, i *discordgo.InteractionCreate, content string, log *zap.Logger) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content}); err != nil {
		log.Error("failed to send followup", zap.Error(err))
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return "unknown"
}

// formatReportText is the plain-text fallback when card rendering fails.
func formatReportText(report *pnl.Report) string {
	symbol := report.Symbol
	if symbol == "" {
		symbol = "UNKNOWN"
	}
	roi := "N/A"
	if report.ROIDefined {
		roi = fmt.Sprintf("%+.2f%%", report.ROI)
	}
	return fmt.Sprintf(
		"**%s PnL**\nBought: $%.2f\nSold: $%.2f\nHolding: $%.2f\nFees: $%.2f\nProfit: $%.2f\nROI: %s",
		symbol, report.SpentUSD, report.SoldUSD, report.HoldingUSD, report.FeesUSD, report.ProfitUSD, roi)
}

func formatHoldersMessage(summary *holders.Summary) string {
	var b strings.Builder

	title := summary.Mint
	if summary.Symbol != "" {
		title = summary.Symbol
	}
	fmt.Fprintf(&b, "**Top holders of %s**\n", title)

	for _, holder := range summary.Holders {
		fmt.Fprintf(&b, "%2d. `%s` — %s", holder.Rank, holder.Address, formatAmount(holder.Amount))
		if holder.Share > 0 {
			fmt.Fprintf(&b, " (%.2f%%)", holder.Share)
		}
		b.WriteString("\n")
	}

	if summary.TopShare > 0 {
		fmt.Fprintf(&b, "\nListed accounts hold %.2f%% of supply", summary.TopShare)
	}
	return b.String()
}

func formatAmount(amount float64) string {
	switch {
	case amount >= 1e9:
		return fmt.Sprintf("%.2fB", amount/1e9)
	case amount >= 1e6:
		return fmt.Sprintf("%.2fM", amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("%.2fK", amount/1e3)
	default:
		return fmt.Sprintf("%.2f", amount)
	}
}
