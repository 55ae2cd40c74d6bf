package collector

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/finadict/internal/core"
)

// mockCollector for testing
type mockCollector struct {
	name string
}

func (m *mockCollector) Name() string { return m.name }
func (m *mockCollector) SupportedKinds() []core.MarketKind {
	return []core.MarketKind{core.KindEquity}
}
func (m *mockCollector) FetchMeta(ctx context.Context, symbol string) (*Meta, error) {
	return &Meta{Symbol: symbol, Currency: "USD"}, nil
}
func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (*History, error) {
	return &History{}, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockCollector{name: "mock"}
	r.Register(mock)

	c, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered collector")
	}

	if c.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", c.Name())
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "b"})
	r.Register(&mockCollector{name: "a"})

	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected [a b], got %v", names)
	}
}

func TestRegistry_MustGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "yahoo"})

	if _, err := r.MustGet("yahoo"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := r.MustGet("polygon"); err == nil {
		t.Error("expected error for unknown provider")
	}
}
