// internal/pnl/fetcher.go
package pnl

import (
	"context"

	"go.uber.org/zap"

	"github.com/degenlabs/pnl-bot/internal/helius"
)

// DefaultBatchSize is the Helius enhanced-transactions batch limit.
const DefaultBatchSize = 100

// TransactionSource fetches parsed transaction detail for a batch of
// signatures.
type TransactionSource interface {
	Transactions(ctx context.Context, signatures []string) ([]helius.Transaction, error)
}

// BatchFetcher partitions a page of signatures into batches and feeds each
// batch, in the order supplied, to a handler. A batch that fails to fetch is
// skipped with a warning; totals are commutative, so a dropped batch only
// costs accuracy, never correctness of what remains.
type BatchFetcher struct {
	source    TransactionSource
	batchSize int
	logger    *zap.Logger
}

// NewBatchFetcher creates a fetcher with the given batch size (capped to the
// provider limit).
func NewBatchFetcher(source TransactionSource, batchSize int, logger *zap.Logger) *BatchFetcher {
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}
	return &BatchFetcher{
		source:    source,
		batchSize: batchSize,
		logger:    logger.With(zap.String("component", "fetcher")),
	}
}

// Fetch retrieves detail for all signatures and hands each batch to handle.
// Only context cancellation and handler errors abort the walk.
func (f *BatchFetcher) Fetch(ctx context.Context, signatures []string, handle func(txns []helius.Transaction) error) error {
	for start := 0; start < len(signatures); start += f.batchSize {
		end := start + f.batchSize
		if end > len(signatures) {
			end = len(signatures)
		}
		chunk := signatures[start:end]

		txns, err := f.source.Transactions(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn("skipping transaction batch",
				zap.Int("size", len(chunk)),
				zap.String("first_signature", chunk[0]),
				zap.Error(err))
			continue
		}

		if err := handle(txns); err != nil {
			return err
		}
	}
	return nil
}
