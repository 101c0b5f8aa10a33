// internal/ratelimit/clock.go
package ratelimit

import "time"

// Clock abstracts wall-clock reads and sleeping so the bucket can be
// driven by a fake clock in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns a Clock backed by the real time package.
func SystemClock() Clock { return systemClock{} }
