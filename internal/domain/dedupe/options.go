// Package dedupe suppresses repeated e-mail deliveries of the same result.
package dedupe

import "time"

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of keys to keep in memory.
// If maxSize > 0: bounded mode, the oldest key is evicted first.
// If maxSize <= 0: unbounded mode (no eviction by size).
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithTTL sets how long a key is remembered. Zero keeps keys until they
// are evicted by size.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if ttl >= 0 {
			d.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *inMemoryDeduper) {
		if now != nil {
			d.now = now
		}
	}
}
