// internal/pnl/classifier.go
package pnl

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/helius"
	"github.com/degenlabs/pnl-bot/internal/pricing"
)

// lamportsPerSOL converts a fee in the smallest native unit to whole SOL.
const lamportsPerSOL = 1e9

// QuoteSource resolves the priced metadata of a mint.
type QuoteSource interface {
	TokenQuote(ctx context.Context, mint string) pricing.Quote
}

// Aggregator classifies token-transfer line items against one wallet/token
// pair and accumulates running USD totals. One Aggregator serves exactly one
// run; the mint-quote cache inside it never outlives the run.
type Aggregator struct {
	wallet   string
	mint     string
	solPrice float64
	quotes   QuoteSource
	cache    *gocache.Cache
	totals   RunningTotals
	logger   *zap.Logger
}

// NewAggregator creates an aggregator for one run. The tracked token's quote
// and the USDC quote are seeded into the per-run cache up front so the two
// mints that dominate real histories never trigger a lookup per transfer.
func NewAggregator(
	wallet, mint string,
	tracked, usdc pricing.Quote,
	solPrice float64,
	quotes QuoteSource,
	logger *zap.Logger,
) *Aggregator {
	cache := gocache.New(gocache.NoExpiration, 0)
	cache.Set(mint, tracked, gocache.NoExpiration)
	cache.Set(pricing.USDCMint, usdc, gocache.NoExpiration)

	return &Aggregator{
		wallet:   wallet,
		mint:     mint,
		solPrice: solPrice,
		quotes:   quotes,
		cache:    cache,
		logger:   logger.With(zap.String("component", "classifier")),
	}
}

// Process classifies every transaction of a batch. Legs are resolved and
// added one at a time, so totals are complete the moment Process returns.
func (a *Aggregator) Process(ctx context.Context, txns []helius.Transaction) {
	for i := range txns {
		a.processTransaction(ctx, &txns[i])
	}
}

func (a *Aggregator) processTransaction(ctx context.Context, txn *helius.Transaction) {
	if txn.Failed() {
		return
	}
	if !a.touchesTrackedMint(txn) {
		return
	}
	if !a.touchesWallet(txn) {
		return
	}

	for _, transfer := range txn.TokenTransfers {
		fromWallet := transfer.FromUserAccount == a.wallet
		toWallet := transfer.ToUserAccount == a.wallet
		if !fromWallet && !toWallet {
			continue
		}
		// Movements of the tracked token itself are not cost or proceeds;
		// only the counter-asset legs of the same transaction are priced.
		if transfer.Mint == a.mint {
			continue
		}

		quote := a.quoteFor(ctx, transfer.Mint)
		legUSD := transfer.TokenAmount * quote.PricePerToken
		if fromWallet {
			a.totals.SpentUSD += legUSD
		} else {
			a.totals.SoldUSD += legUSD
		}

		a.logger.Debug("classified transfer leg",
			zap.String("signature", txn.Signature),
			zap.String("leg_mint", transfer.Mint),
			zap.Float64("amount", transfer.TokenAmount),
			zap.Float64("leg_usd", legUSD),
			zap.Bool("spend", fromWallet),
			zap.Bool("degraded_price", quote.Degraded))
	}

	a.totals.FeesUSD += float64(txn.Fee) / lamportsPerSOL * a.solPrice
}

// touchesTrackedMint reports whether any balance-change record of the
// transaction references the tracked mint.
func (a *Aggregator) touchesTrackedMint(txn *helius.Transaction) bool {
	for _, account := range txn.AccountData {
		for _, change := range account.TokenBalanceChanges {
			if change.Mint == a.mint {
				return true
			}
		}
	}
	return false
}

// touchesWallet reports whether the transaction carries a balance-change
// record for the tracked wallet.
func (a *Aggregator) touchesWallet(txn *helius.Transaction) bool {
	for _, account := range txn.AccountData {
		if account.Account == a.wallet {
			return true
		}
	}
	return false
}

// quoteFor returns the cached quote for a mint, resolving and caching it on
// first sight. Each distinct mint is looked up at most once per run, and a
// degraded lookup is cached too so a dead price feed is not hammered.
func (a *Aggregator) quoteFor(ctx context.Context, mint string) pricing.Quote {
	if cached, ok := a.cache.Get(mint); ok {
		return cached.(pricing.Quote)
	}
	quote := a.quotes.TokenQuote(ctx, mint)
	a.cache.Set(mint, quote, gocache.NoExpiration)
	return quote
}

// Totals returns the accumulated running totals.
func (a *Aggregator) Totals() RunningTotals {
	return a.totals
}
