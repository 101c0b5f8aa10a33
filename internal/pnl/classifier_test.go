package pnl

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/degenlabs/pnl-bot/internal/helius"
	"github.com/degenlabs/pnl-bot/internal/pricing"
)

const (
	wallet      = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	trackedMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	otherParty  = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	bonkMint    = "F9Lw3ki3hJ7PF9HQXsBzoY8GyE6sPoEZZdXJBsTTD2rk"
)

// countingQuotes serves quotes from a fixed map and records lookups.
type countingQuotes struct {
	quotes  map[string]pricing.Quote
	lookups map[string]int
}

func newCountingQuotes(quotes map[string]pricing.Quote) *countingQuotes {
	return &countingQuotes{quotes: quotes, lookups: make(map[string]int)}
}

func (c *countingQuotes) TokenQuote(_ context.Context, mint string) pricing.Quote {
	c.lookups[mint]++
	if q, ok := c.quotes[mint]; ok {
		return q
	}
	return pricing.Quote{Degraded: true, Reason: "no feed"}
}

func usd(price float64, symbol string) pricing.Quote {
	return pricing.Quote{TokenInfo: pricing.TokenInfo{PricePerToken: price, Decimals: 6, Symbol: symbol}}
}

// relevantTx builds a transaction that passes the tracked-mint and wallet
// gates, with the given transfers and fee.
func relevantTx(fee int64, transfers ...helius.TokenTransfer) helius.Transaction {
	return helius.Transaction{
		Signature:      "sig",
		Fee:            fee,
		TokenTransfers: transfers,
		AccountData: []helius.AccountData{
			{
				Account: wallet,
				TokenBalanceChanges: []helius.TokenBalanceChange{
					{Mint: trackedMint},
				},
			},
		},
	}
}

func newTestAggregator(t *testing.T, quotes *countingQuotes, solPrice float64) *Aggregator {
	t.Helper()
	return NewAggregator(wallet, trackedMint,
		usd(2.0, "MEME"), usd(1.0, "USDC"),
		solPrice, quotes, zaptest.NewLogger(t))
}

func TestAggregator_SpendAndSaleLegs(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{})
	a := newTestAggregator(t, quotes, 150)

	a.Process(context.Background(), []helius.Transaction{
		relevantTx(0,
			// Spend leg: wallet pays 5 USDC for the tracked token.
			helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: pricing.USDCMint, TokenAmount: 5},
			helius.TokenTransfer{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: trackedMint, TokenAmount: 1000},
		),
		relevantTx(0,
			// Sale leg: wallet receives 8 USDC for the tracked token.
			helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: trackedMint, TokenAmount: 1000},
			helius.TokenTransfer{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: pricing.USDCMint, TokenAmount: 8},
		),
	})

	totals := a.Totals()
	assert.InDelta(t, 5.0, totals.SpentUSD, 1e-9)
	assert.InDelta(t, 8.0, totals.SoldUSD, 1e-9)
	assert.Zero(t, quotes.lookups[pricing.USDCMint], "USDC quote is pre-seeded")
	assert.Zero(t, quotes.lookups[trackedMint], "tracked quote is pre-seeded")
}

func TestAggregator_TrackedMintLegsNeverPriced(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{})
	a := newTestAggregator(t, quotes, 0)

	a.Process(context.Background(), []helius.Transaction{
		relevantTx(0,
			helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: trackedMint, TokenAmount: 500},
			helius.TokenTransfer{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: trackedMint, TokenAmount: 100},
		),
	})

	totals := a.Totals()
	assert.Zero(t, totals.SpentUSD)
	assert.Zero(t, totals.SoldUSD)
}

func TestAggregator_MultipleLegsContributeIndependently(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{
		bonkMint: usd(0.5, "BONK"),
	})
	a := newTestAggregator(t, quotes, 0)

	// No per-transaction netting: a spend leg and a sale leg in the same
	// transaction both count.
	a.Process(context.Background(), []helius.Transaction{
		relevantTx(0,
			helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: pricing.USDCMint, TokenAmount: 3},
			helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: bonkMint, TokenAmount: 10},
			helius.TokenTransfer{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: bonkMint, TokenAmount: 4},
		),
	})

	totals := a.Totals()
	assert.InDelta(t, 3+10*0.5, totals.SpentUSD, 1e-9)
	assert.InDelta(t, 4*0.5, totals.SoldUSD, 1e-9)
}

func TestAggregator_FeeAccruesForEveryProcessedTransaction(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{})
	a := newTestAggregator(t, quotes, 150)

	// No qualifying transfer legs at all, fee still counts.
	a.Process(context.Background(), []helius.Transaction{relevantTx(5_000_000)})

	totals := a.Totals()
	assert.InDelta(t, 5_000_000.0/1e9*150, totals.FeesUSD, 1e-12)
	assert.Zero(t, totals.SpentUSD)
	assert.Zero(t, totals.SoldUSD)
}

func TestAggregator_SkipsFailedTransactions(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{})
	a := newTestAggregator(t, quotes, 150)

	failed := relevantTx(5_000_000,
		helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: pricing.USDCMint, TokenAmount: 5})
	raw := json.RawMessage(`{"InstructionError":[2,{"Custom":6000}]}`)
	failed.TransactionError = &raw

	a.Process(context.Background(), []helius.Transaction{failed})

	assert.Equal(t, RunningTotals{}, a.Totals())
}

func TestAggregator_SkipsTransactionsWithoutTrackedMint(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{})
	a := newTestAggregator(t, quotes, 150)

	a.Process(context.Background(), []helius.Transaction{{
		Fee: 5000,
		TokenTransfers: []helius.TokenTransfer{
			{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: pricing.USDCMint, TokenAmount: 5},
		},
		AccountData: []helius.AccountData{
			{Account: wallet, TokenBalanceChanges: []helius.TokenBalanceChange{{Mint: bonkMint}}},
		},
	}})

	assert.Equal(t, RunningTotals{}, a.Totals())
}

func TestAggregator_SkipsTransactionsWithoutWalletRecord(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{})
	a := newTestAggregator(t, quotes, 150)

	a.Process(context.Background(), []helius.Transaction{{
		Fee: 5000,
		AccountData: []helius.AccountData{
			{Account: otherParty, TokenBalanceChanges: []helius.TokenBalanceChange{{Mint: trackedMint}}},
		},
	}})

	assert.Equal(t, RunningTotals{}, a.Totals())
}

func TestAggregator_CounterAssetLookedUpOncePerRun(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{
		bonkMint: usd(0.5, "BONK"),
	})
	a := newTestAggregator(t, quotes, 0)

	txns := make([]helius.Transaction, 5)
	for i := range txns {
		txns[i] = relevantTx(0,
			helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: bonkMint, TokenAmount: 1})
	}
	a.Process(context.Background(), txns)

	assert.Equal(t, 1, quotes.lookups[bonkMint])
	assert.InDelta(t, 5*0.5, a.Totals().SpentUSD, 1e-9)
}

func TestAggregator_DegradedQuoteContributesZero(t *testing.T) {
	quotes := newCountingQuotes(map[string]pricing.Quote{}) // every lookup degrades
	a := newTestAggregator(t, quotes, 150)

	a.Process(context.Background(), []helius.Transaction{
		relevantTx(5000,
			helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: bonkMint, TokenAmount: 1000}),
		relevantTx(5000,
			helius.TokenTransfer{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: bonkMint, TokenAmount: 1000}),
	})

	totals := a.Totals()
	assert.Zero(t, totals.SpentUSD, "a leg without a price feed silently drops out of the totals")
	assert.InDelta(t, 2*5000.0/1e9*150, totals.FeesUSD, 1e-12, "the fee still accrues")
	assert.Equal(t, 1, quotes.lookups[bonkMint], "degraded lookups are cached, not repeated")
}
