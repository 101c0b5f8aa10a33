// internal/holders/holders.go
package holders

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/helius"
)

// Holder is one entry of a top-holders listing.
type Holder struct {
	Rank    int
	Address string
	Amount  float64 // decimal-adjusted token amount
	Share   float64 // percent of total supply, 0 when supply is unknown
}

// Summary is the result of a top-holders lookup.
type Summary struct {
	Mint     string
	Symbol   string
	Supply   float64 // decimal-adjusted, 0 when unknown
	Holders  []Holder
	TopShare float64 // combined percent held by the listed accounts
}

type AccountSource interface {
	TokenLargestAccounts(ctx context.Context, mint string) ([]helius.LargestAccount, error)
}

type AssetSource interface {
	GetAsset(ctx context.Context, mint string) (*helius.Asset, error)
}

// Service resolves the largest token accounts of a mint and relates them
// to the total supply.
type Service struct {
	accounts AccountSource
	assets   AssetSource
	logger   *zap.Logger
}

func NewService(accounts AccountSource, assets AssetSource, logger *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		assets:   assets,
		logger:   logger.With(zap.String("component", "holders")),
	}
}

// Top returns up to limit holders ranked by balance. Metadata failures
// degrade the listing to amounts without supply shares.
func (s *Service) Top(ctx context.Context, mint string, limit int) (*Summary, error) {
	accounts, err := s.accounts.TokenLargestAccounts(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch largest accounts for %s: %w", mint, err)
	}
	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}

	summary := &Summary{Mint: mint}

	asset, err := s.assets.GetAsset(ctx, mint)
	if err != nil {
		s.logger.Warn("asset metadata unavailable, listing without supply shares",
			zap.String("mint", mint), zap.Error(err))
	} else {
		summary.Symbol = asset.Symbol
		if asset.Supply > 0 {
			summary.Supply = float64(asset.Supply) / math.Pow10(asset.Decimals)
		}
	}

	for i, account := range accounts {
		holder := Holder{
			Rank:    i + 1,
			Address: account.Address,
			Amount:  account.UIAmount,
		}
		if summary.Supply > 0 {
			holder.Share = holder.Amount / summary.Supply * 100
			summary.TopShare += holder.Share
		}
		summary.Holders = append(summary.Holders, holder)
	}

	return summary, nil
}
