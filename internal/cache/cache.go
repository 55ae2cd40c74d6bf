// Package cache memoizes normalized series between requests. Entries are
// JSON encoded so every backend hands back an independent copy.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache: key not found")

// Service is the cache contract shared by all backends
type Service interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Key builds the memoization key. Every parameter that changes the
// returned series is part of it, the timestamp field included.
func Key(symbol, period, interval, timestampField string) string {
	return strings.Join([]string{strings.ToUpper(symbol), period, interval, timestampField}, "|")
}
