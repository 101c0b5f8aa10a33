// internal/bot/commands.go
package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gagliardetto/solana-go"
)

// Commands is the slash-command surface the bot registers on startup.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "pnl",
		Description: "Compute realized and unrealized PnL of a wallet for a token",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "wallet",
				Description: "Wallet address to analyze",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "contract",
				Description: "Token mint address",
				Required:    true,
			},
		},
	},
	{
		Name:        "topholders",
		Description: "List the largest holders of a token",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mint",
				Description: "Token mint address",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "limit",
				Description: "How many holders to list (default 10)",
				Required:    false,
			},
		},
	},
}

// pnlRequest is the validated input of a /pnl invocation.
type pnlRequest struct {
	Wallet solana.PublicKey
	Mint   solana.PublicKey
}

// holdersRequest is the validated input of a /topholders invocation.
type holdersRequest struct {
	Mint  string
	Limit int
}

const defaultHoldersLimit = 10

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		options[opt.Name] = opt
	}
	return options
}

func parsePnLRequest(data discordgo.ApplicationCommandInteractionData) (*pnlRequest, error) {
	options := optionMap(data)

	walletOpt, ok := options["wallet"]
	if !ok {
		return nil, fmt.Errorf("missing wallet option")
	}
	contractOpt, ok := options["contract"]
	if !ok {
		return nil, fmt.Errorf("missing contract option")
	}

	wallet, err := solana.PublicKeyFromBase58(walletOpt.StringValue())
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address %q: %w", walletOpt.StringValue(), err)
	}
	mint, err := solana.PublicKeyFromBase58(contractOpt.StringValue())
	if err != nil {
		return nil, fmt.Errorf("invalid token mint %q: %w", contractOpt.StringValue(), err)
	}

	return &pnlRequest{Wallet: wallet, Mint: mint}, nil
}

func parseHoldersRequest(data discordgo.ApplicationCommandInteractionData) (*holdersRequest, error) {
	options := optionMap(data)

	mintOpt, ok := options["mint"]
	if !ok {
		return nil, fmt.Errorf("missing mint option")
	}
	if _, err := solana.PublicKeyFromBase58(mintOpt.StringValue()); err != nil {
		return nil, fmt.Errorf("invalid token mint %q: %w", mintOpt.StringValue(), err)
	}

	req := &holdersRequest{Mint: mintOpt.StringValue(), Limit: defaultHoldersLimit}
	if limitOpt, ok := options["limit"]; ok {
		limit := int(limitOpt.IntValue())
		if limit > 0 && limit <= 20 {
			req.Limit = limit
		}
	}
	return req, nil
}
