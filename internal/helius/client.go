// internal/helius/client.go
package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/ratelimit"
)

const (
	defaultRPCURL = "https://mainnet.helius-rpc.com/"
	defaultAPIURL = "https://api.helius.xyz"

	requestTimeout = 15 * time.Second
)

// StatusError is returned when Helius answers with a non-2xx status. Callers
// that treat bad batches as skippable match on this type.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("helius returned status %d: %s", e.Status, e.Body)
}

// Client talks to the Helius JSON-RPC endpoint and the enhanced-transactions
// REST API. Every request first takes a token from the shared rate limiter.
type Client struct {
	apiKey     string
	rpcURL     string
	apiURL     string
	httpClient *http.Client
	limiter    *ratelimit.Bucket
	logger     *zap.Logger
}

// Options overrides endpoints, used by tests to point at a local server.
type Options struct {
	RPCURL string
	APIURL string
}

// NewClient creates a Helius client gated by the given rate limiter.
func NewClient(apiKey string, limiter *ratelimit.Bucket, logger *zap.Logger, opts ...Options) *Client {
	rpcURL := defaultRPCURL
	apiURL := defaultAPIURL
	if len(opts) > 0 {
		if opts[0].RPCURL != "" {
			rpcURL = opts[0].RPCURL
		}
		if opts[0].APIURL != "" {
			apiURL = opts[0].APIURL
		}
	}
	return &Client{
		apiKey:     apiKey,
		rpcURL:     rpcURL,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    limiter,
		logger:     logger.With(zap.String("component", "helius")),
	}
}

// Transactions fetches parsed detail for up to 100 signatures in one call.
func (c *Client) Transactions(ctx context.Context, signatures []string) ([]Transaction, error) {
	if len(signatures) == 0 {
		return nil, nil
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string][]string{"transactions": signatures})
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch request: %w", err)
	}

	url := fmt.Sprintf("%s/v0/transactions?api-key=%s", c.apiURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var txns []Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txns); err != nil {
		return nil, fmt.Errorf("failed to decode batch response: %w", err)
	}
	return txns, nil
}

// GetAsset looks up token metadata and spot price for a mint via the DAS
// getAsset method.
func (c *Client) GetAsset(ctx context.Context, mint string) (*Asset, error) {
	var out getAssetResponse
	err := c.rpcCall(ctx, "getAsset", map[string]string{"id": mint}, &out)
	if err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("getAsset %s: rpc error %d: %s", mint, out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return nil, fmt.Errorf("getAsset %s: empty result", mint)
	}
	return &out.Result.TokenInfo, nil
}

// TokenLargestAccounts returns the 20 largest token accounts of a mint.
func (c *Client) TokenLargestAccounts(ctx context.Context, mint string) ([]LargestAccount, error) {
	var out largestAccountsResponse
	err := c.rpcCall(ctx, "getTokenLargestAccounts", []string{mint}, &out)
	if err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("getTokenLargestAccounts %s: rpc error %d: %s", mint, out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return nil, fmt.Errorf("getTokenLargestAccounts %s: empty result", mint)
	}
	return out.Result.Value, nil
}

func (c *Client) rpcCall(ctx context.Context, method string, params interface{}, result interface{}) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s?api-key=%s", c.rpcURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("rpc call completed",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}
