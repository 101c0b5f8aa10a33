// internal/blockchain/client.go
package blockchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/ratelimit"
)

// SignatureSource is the narrow slice of the Solana RPC surface the
// pagination loop needs. Kept as an interface so tests can replay canned
// signature pages without a node.
type SignatureSource interface {
	GetSignaturesForAddress(
		ctx context.Context,
		wallet solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)
}

// BalanceSource reads the wallet's current UI-formatted holdings of a mint.
type BalanceSource interface {
	TokenBalance(ctx context.Context, wallet, mint solana.PublicKey) (float64, error)
}

// Client wraps a solana-go RPC client. Every call takes a token from the
// shared rate limiter before going out.
type Client struct {
	rpc     *rpc.Client
	limiter *ratelimit.Bucket
	logger  *zap.Logger
}

// NewClient creates a rate-limited Solana RPC client.
func NewClient(rpcURL string, limiter *ratelimit.Bucket, logger *zap.Logger) (*Client, error) {
	if rpcURL == "" {
		return nil, errors.New("empty RPC URL")
	}
	if _, err := url.Parse(rpcURL); err != nil {
		return nil, fmt.Errorf("invalid RPC URL: %w", err)
	}
	return &Client{
		rpc:     rpc.New(rpcURL),
		limiter: limiter,
		logger:  logger.With(zap.String("component", "blockchain")),
	}, nil
}

// GetSignaturesForAddress returns up to opts.Limit signatures for the wallet,
// newest first.
func (c *Client) GetSignaturesForAddress(
	ctx context.Context,
	wallet solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.rpc.GetSignaturesForAddressWithOpts(ctx, wallet, opts)
}

// tokenAccountData mirrors the jsonParsed token-account layout; only the
// UI amount is read.
type tokenAccountData struct {
	Parsed struct {
		Info struct {
			TokenAmount struct {
				UIAmount float64 `json:"uiAmount"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// TokenBalance returns the wallet's held quantity of mint, adjusted for
// decimals. A wallet with no token account for the mint holds zero.
func (c *Client) TokenBalance(ctx context.Context, wallet, mint solana.PublicKey) (float64, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return 0, err
	}

	res, err := c.rpc.GetTokenAccountsByOwner(ctx, wallet,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return 0, fmt.Errorf("getTokenAccountsByOwner failed for %s: %w", wallet, err)
	}
	if res == nil || len(res.Value) == 0 {
		return 0, nil
	}

	raw := res.Value[0].Account.Data.GetRawJSON()
	if raw == nil {
		return 0, fmt.Errorf("token account %s: no parsed data", res.Value[0].Pubkey)
	}

	var data tokenAccountData
	if err := json.Unmarshal(raw, &data); err != nil {
		return 0, fmt.Errorf("token account %s: %w", res.Value[0].Pubkey, err)
	}

	c.logger.Debug("token balance read",
		zap.String("wallet", wallet.String()),
		zap.String("mint", mint.String()),
		zap.Float64("ui_amount", data.Parsed.Info.TokenAmount.UIAmount))

	return data.Parsed.Info.TokenAmount.UIAmount, nil
}
