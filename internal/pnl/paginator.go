// internal/pnl/paginator.go
package pnl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/blockchain"
)

const (
	// DefaultPageSize is the signature count requested per page.
	DefaultPageSize = 500
	// DefaultMaxAttempts bounds the short-page retries per page.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the base of the linear backoff between attempts.
	DefaultRetryDelay = time.Second
)

// errShortPage marks a page that came back smaller than requested. The
// upstream indexer intermittently truncates pages without erroring, so a
// short page is retried rather than trusted.
var errShortPage = errors.New("short signature page")

// Paginator walks a wallet's signature history newest-first. Only an empty
// page means the history is exhausted; a short-but-nonempty page is retried
// up to the attempt ceiling with linear backoff, keeping the longest page
// seen, and the best page is returned once the ceiling is reached. Bounded
// latency is preferred over a guarantee against truncated pages here.
type Paginator struct {
	source      blockchain.SignatureSource
	pageSize    int
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewPaginator creates a paginator over the given signature source.
// Non-positive settings fall back to the defaults.
func NewPaginator(source blockchain.SignatureSource, pageSize, maxAttempts int, retryDelay time.Duration, logger *zap.Logger) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Paginator{
		source:      source,
		pageSize:    pageSize,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger.With(zap.String("component", "paginator")),
	}
}

// linearBackOff waits attempt × delay between tries.
type linearBackOff struct {
	delay   time.Duration
	attempt int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.attempt++
	return time.Duration(l.attempt) * l.delay
}

func (l *linearBackOff) Reset() { l.attempt = 0 }

// NextPage returns up to pageSize signatures older than before, newest
// first. A zero before cursor starts from the newest history. An error is
// returned only when every attempt failed and no page was seen at all.
func (p *Paginator) NextPage(ctx context.Context, wallet solana.PublicKey, before solana.Signature) ([]*rpc.TransactionSignature, error) {
	var best []*rpc.TransactionSignature
	attempt := 0

	operation := func() ([]*rpc.TransactionSignature, error) {
		attempt++
		opts := &rpc.GetSignaturesForAddressOpts{Limit: &p.pageSize}
		if before != (solana.Signature{}) {
			opts.Before = before
		}

		page, err := p.source.GetSignaturesForAddress(ctx, wallet, opts)
		if err != nil {
			p.logger.Warn("signature page fetch failed",
				zap.String("wallet", wallet.String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return nil, err
		}

		switch {
		case len(page) >= p.pageSize:
			return page, nil
		case len(page) == 0 && len(best) == 0:
			// End of history.
			return page, nil
		default:
			if len(page) > len(best) {
				best = page
			}
			p.logger.Warn("received short signature page, retrying",
				zap.String("wallet", wallet.String()),
				zap.Int("received", len(page)),
				zap.Int("requested", p.pageSize),
				zap.Int("attempt", attempt))
			return nil, errShortPage
		}
	}

	page, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&linearBackOff{delay: p.retryDelay}),
		backoff.WithMaxTries(uint(p.maxAttempts)))
	if err != nil {
		// The ceiling was reached; a short page seen along the way still
		// wins over the trailing failure. errShortPage can only surface
		// here with best populated, so it never escapes as an error.
		if len(best) > 0 {
			p.logger.Warn("returning best page after retry ceiling",
				zap.String("wallet", wallet.String()),
				zap.Int("size", len(best)))
			return best, nil
		}
		return nil, fmt.Errorf("failed to fetch signatures for %s: %w", wallet, err)
	}
	return page, nil
}
