// internal/pnl/service.go
package pnl

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/degenlabs/pnl-bot/internal/blockchain"
	"github.com/degenlabs/pnl-bot/internal/helius"
	"github.com/degenlabs/pnl-bot/internal/pricing"
)

// PriceSource is the oracle surface the pipeline consumes.
type PriceSource interface {
	QuoteSource
	SolPrice(ctx context.Context) pricing.Quote
}

// ServiceConfig wires the PnL service's collaborators.
type ServiceConfig struct {
	Signatures   blockchain.SignatureSource
	Balances     blockchain.BalanceSource
	Transactions TransactionSource
	Prices       PriceSource
	Logger       *zap.Logger

	PageSize   int
	BatchSize  int
	Retries    int
	RetryDelay time.Duration
}

// Service computes the profit and loss of one wallet/token pair from its
// full on-chain history. One call to ComputePnL is one atomic run: it either
// returns a complete report or an error, never a partial figure.
type Service struct {
	cfg    ServiceConfig
	logger *zap.Logger
}

// NewService creates the PnL service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		cfg:    cfg,
		logger: cfg.Logger.With(zap.String("component", "pnl")),
	}
}

// ComputePnL aggregates the wallet's entire signature history against the
// tracked mint and synthesizes the report. Price lookups degrade to zero
// internally; only unreachable signature or balance sources surface as an
// error, and accumulated totals are discarded with it.
func (s *Service) ComputePnL(ctx context.Context, wallet, mint solana.PublicKey) (*Report, error) {
	logger := s.logger.With(
		zap.String("wallet", wallet.String()),
		zap.String("mint", mint.String()))
	logger.Info("starting PnL computation")

	var (
		tracked, usdc, sol pricing.Quote
		balance            float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tracked = s.cfg.Prices.TokenQuote(gctx, mint.String())
		return nil
	})
	g.Go(func() error {
		usdc = s.cfg.Prices.TokenQuote(gctx, pricing.USDCMint)
		return nil
	})
	g.Go(func() error {
		sol = s.cfg.Prices.SolPrice(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		balance, err = s.cfg.Balances.TokenBalance(gctx, wallet, mint)
		if err != nil {
			return fmt.Errorf("failed to read token balance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	aggregator := NewAggregator(wallet.String(), mint.String(), tracked, usdc, sol.PricePerToken, s.cfg.Prices, s.logger)
	paginator := NewPaginator(s.cfg.Signatures, s.cfg.PageSize, s.cfg.Retries, s.cfg.RetryDelay, s.logger)
	fetcher := NewBatchFetcher(s.cfg.Transactions, s.cfg.BatchSize, s.logger)

	var before solana.Signature
	pages := 0
	for {
		page, err := paginator.NextPage(ctx, wallet, before)
		if err != nil {
			return nil, fmt.Errorf("signature history retrieval failed: %w", err)
		}
		if len(page) == 0 {
			break
		}
		pages++
		before = page[len(page)-1].Signature

		signatures := make([]string, len(page))
		for i, sig := range page {
			signatures[i] = sig.Signature.String()
		}

		err = fetcher.Fetch(ctx, signatures, func(txns []helius.Transaction) error {
			aggregator.Process(ctx, txns)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("transaction processing aborted: %w", err)
		}

		logger.Debug("page processed",
			zap.Int("page", pages),
			zap.Int("signatures", len(page)))
	}

	report := synthesize(aggregator.Totals(), balance, tracked, sol)
	logger.Info("PnL computation finished",
		zap.Int("pages", pages),
		zap.Float64("spent_usd", report.SpentUSD),
		zap.Float64("sold_usd", report.SoldUSD),
		zap.Float64("fees_usd", report.FeesUSD),
		zap.Float64("profit_usd", report.ProfitUSD),
		zap.Bool("roi_defined", report.ROIDefined))
	return report, nil
}

// synthesize folds the accumulated totals, the current holdings and the SOL
// spot price into the final report.
func synthesize(totals RunningTotals, balance float64, tracked, sol pricing.Quote) *Report {
	report := &Report{
		Symbol:     tracked.Symbol,
		SpentUSD:   totals.SpentUSD,
		SoldUSD:    totals.SoldUSD,
		FeesUSD:    totals.FeesUSD,
		HoldingUSD: balance * tracked.PricePerToken,
	}
	report.ProfitUSD = report.SoldUSD + report.HoldingUSD - report.SpentUSD - report.FeesUSD

	// A position acquired for nothing (airdrop) has no meaningful ROI.
	if report.SpentUSD > 0 {
		report.ROI = report.ProfitUSD / report.SpentUSD * 100
		report.ROIDefined = true
	}

	// Without a SOL spot price the SOL-denominated fields would be
	// non-finite; leave them zero and flagged instead.
	if sol.PricePerToken > 0 {
		report.SpentSOL = report.SpentUSD / sol.PricePerToken
		report.SoldSOL = report.SoldUSD / sol.PricePerToken
		report.FeesSOL = report.FeesUSD / sol.PricePerToken
		report.HoldingSOL = report.HoldingUSD / sol.PricePerToken
		report.ProfitSOL = report.ProfitUSD / sol.PricePerToken
		report.SolDenominated = true
	}
	return report
}
