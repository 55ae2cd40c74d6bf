package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type item struct {
	data      []byte
	expiresAt time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Memory is a bounded in-process cache. When full, the oldest inserted key
// is evicted.
type Memory struct {
	items   map[string]item
	order   []string // insertion order, oldest first
	maxSize int
	mu      sync.Mutex
	now     func() time.Time
}

// MemoryOption configures a Memory cache
type MemoryOption func(*Memory)

// WithMaxSize bounds the number of entries
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// NewMemory creates a memory cache holding up to 128 entries by default
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:   make(map[string]item),
		maxSize: 128,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set stores value under key; ttl <= 0 never expires
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it := item{data: data}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}

	if _, ok := m.items[key]; ok {
		m.removeOrder(key)
	} else if len(m.items) >= m.maxSize && len(m.order) > 0 {
		oldest := m.order[0]
		delete(m.items, oldest)
		m.order = m.order[1:]
	}

	m.items[key] = it
	m.order = append(m.order, key)
	return nil
}

// Get decodes the value under key into dest
func (m *Memory) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	it, ok := m.items[key]
	if ok && it.expired(m.now()) {
		delete(m.items, key)
		m.removeOrder(key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(it.data, dest)
}

// Delete removes keys
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		if _, ok := m.items[k]; ok {
			delete(m.items, k)
			m.removeOrder(k)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close drops every entry
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]item)
	m.order = nil
	return nil
}

func (m *Memory) removeOrder(key string) {
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
