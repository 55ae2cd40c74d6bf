package cache

import (
	"context"
	"time"
)

// Layered reads through a memory L1 to a shared L2 and writes through both
type Layered struct {
	l1         *Memory
	l2         Service
	promoteTTL time.Duration
}

// NewLayered stacks l1 over l2. Entries promoted from l2 live in l1 for
// promoteTTL.
func NewLayered(l1 *Memory, l2 Service, promoteTTL time.Duration) *Layered {
	return &Layered{l1: l1, l2: l2, promoteTTL: promoteTTL}
}

// Set writes L2 first, then L1
func (c *Layered) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.l1.Set(ctx, key, value, ttl)
}

// Get tries L1, then L2, promoting L2 hits into L1
func (c *Layered) Get(ctx context.Context, key string, dest any) error {
	if err := c.l1.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := c.l2.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = c.l1.Set(ctx, key, dest, c.promoteTTL)
	return nil
}

// Delete removes keys from both layers
func (c *Layered) Delete(ctx context.Context, keys ...string) error {
	_ = c.l1.Delete(ctx, keys...)
	return c.l2.Delete(ctx, keys...)
}

// Close closes both layers
func (c *Layered) Close() error {
	_ = c.l1.Close()
	return c.l2.Close()
}
