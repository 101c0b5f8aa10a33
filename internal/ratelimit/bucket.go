// internal/ratelimit/bucket.go
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Bucket is a token bucket shared by every outbound call to the chain-data
// provider. It throttles call rate, not in-flight concurrency: callers block
// in Acquire until a token is available, then proceed without holding any
// lock for the duration of their call.
//
// The bucket is safe for concurrent use within a single process. It is not
// designed for cross-process sharing.
type Bucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	refill   float64       // tokens added per interval
	interval time.Duration // refill interval
	poll     time.Duration // wait between availability checks
	last     time.Time
	clock    Clock
	logger   *zap.Logger
}

// Options configures a Bucket.
type Options struct {
	Capacity     int
	Refill       int
	Interval     time.Duration
	PollInterval time.Duration
	Clock        Clock
}

// DefaultOptions matches the Helius free-tier budget: 10 requests burst,
// refilled at 10 per second.
func DefaultOptions() Options {
	return Options{
		Capacity:     10,
		Refill:       10,
		Interval:     time.Second,
		PollInterval: 50 * time.Millisecond,
	}
}

// NewBucket creates a token bucket starting full.
func NewBucket(opts Options, logger *zap.Logger) *Bucket {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultOptions().Capacity
	}
	if opts.Refill <= 0 {
		opts.Refill = DefaultOptions().Refill
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &Bucket{
		capacity: float64(opts.Capacity),
		tokens:   float64(opts.Capacity),
		refill:   float64(opts.Refill),
		interval: opts.Interval,
		poll:     opts.PollInterval,
		last:     clock.Now(),
		clock:    clock,
		logger:   logger.With(zap.String("component", "ratelimit")),
	}
}

// Acquire blocks until one token is available and consumes it. It polls the
// bucket at the configured interval; the only way it returns early is the
// context being canceled.
func (b *Bucket) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.tryAcquire() {
			return nil
		}
		b.clock.Sleep(b.poll)
	}
}

func (b *Bucket) tryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	b.logger.Debug("rate limit reached, waiting for refill",
		zap.Float64("tokens", b.tokens),
		zap.Duration("poll", b.poll))
	return false
}

// advance credits tokens for the wall-clock time elapsed since the last
// check. Must be called with the mutex held.
func (b *Bucket) advance() {
	now := b.clock.Now()
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}
	b.last = now
	b.tokens += b.refill * float64(elapsed) / float64(b.interval)
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// Available reports the token count after crediting elapsed time. Intended
// for diagnostics and tests.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.tokens
}
