// internal/pricing/oracle.go
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/helius"
	"github.com/degenlabs/pnl-bot/internal/ratelimit"
)

const (
	// SOLMint is the wrapped-SOL mint used as the price key for the native
	// currency.
	SOLMint = "So11111111111111111111111111111111111111112"
	// USDCMint is the stable-fiat proxy.
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	defaultJupiterURL = "https://api.jup.ag/price/v2"
	requestTimeout    = 10 * time.Second
)

// TokenInfo is the priced metadata of one mint.
type TokenInfo struct {
	PricePerToken float64
	Decimals      int
	Symbol        string
}

// Quote is a TokenInfo lookup result. A failed lookup degrades to a
// zero-valued quote instead of an error: the aggregation must still answer
// even when one obscure counter-asset has no price feed. Degraded carries
// the reason so callers (and tests) can tell a real zero price from a
// failed lookup.
type Quote struct {
	TokenInfo
	Degraded bool
	Reason   string
}

// AssetSource is the metadata/price lookup the oracle is built on.
type AssetSource interface {
	GetAsset(ctx context.Context, mint string) (*helius.Asset, error)
}

// Oracle resolves token quotes and the SOL spot price in USD terms.
type Oracle struct {
	assets     AssetSource
	limiter    *ratelimit.Bucket
	jupiterURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// Options overrides the Jupiter endpoint, used by tests.
type Options struct {
	JupiterURL string
}

// NewOracle creates a price oracle over the given asset source.
func NewOracle(assets AssetSource, limiter *ratelimit.Bucket, logger *zap.Logger, opts ...Options) *Oracle {
	jupiterURL := defaultJupiterURL
	if len(opts) > 0 && opts[0].JupiterURL != "" {
		jupiterURL = opts[0].JupiterURL
	}
	return &Oracle{
		assets:     assets,
		limiter:    limiter,
		jupiterURL: jupiterURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.With(zap.String("component", "pricing")),
	}
}

// TokenQuote looks up price, decimals and symbol for a mint. It never fails:
// on any error the quote degrades to zero with the reason recorded.
func (o *Oracle) TokenQuote(ctx context.Context, mint string) Quote {
	asset, err := o.assets.GetAsset(ctx, mint)
	if err != nil {
		o.logger.Warn("token info lookup degraded to zero",
			zap.String("mint", mint),
			zap.Error(err))
		return Quote{Degraded: true, Reason: err.Error()}
	}
	return Quote{TokenInfo: TokenInfo{
		PricePerToken: asset.PriceInfo.PricePerToken,
		Decimals:      asset.Decimals,
		Symbol:        asset.Symbol,
	}}
}

// jupiterResponse is the price/v2 payload; prices arrive as strings.
type jupiterResponse struct {
	Data map[string]struct {
		Price string `json:"price"`
	} `json:"data"`
}

// SolPrice returns the SOL spot price in USD, zero-degraded on failure.
func (o *Oracle) SolPrice(ctx context.Context) Quote {
	price, err := o.fetchJupiterPrice(ctx, SOLMint)
	if err != nil {
		o.logger.Warn("SOL price lookup degraded to zero", zap.Error(err))
		return Quote{TokenInfo: TokenInfo{Symbol: "SOL"}, Degraded: true, Reason: err.Error()}
	}
	return Quote{TokenInfo: TokenInfo{PricePerToken: price, Decimals: 9, Symbol: "SOL"}}
}

func (o *Oracle) fetchJupiterPrice(ctx context.Context, mint string) (float64, error) {
	if err := o.limiter.Acquire(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s?ids=%s", o.jupiterURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price endpoint returned status %d", resp.StatusCode)
	}

	var out jupiterResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}

	entry, ok := out.Data[mint]
	if !ok {
		return 0, fmt.Errorf("no price entry for %s", mint)
	}
	price, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed price %q for %s: %w", entry.Price, mint, err)
	}
	return price, nil
}
