package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "TCS.NS|120d|1d|Date", Key("tcs.ns", "120d", "1d", "Date"))
	assert.NotEqual(t, Key("X", "60d", "60m", "Datetime"), Key("X", "60d", "60m", "Date"))
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	in := payload{Symbol: "TCS.NS", Closes: []float64{1, 2, 3}}
	require.NoError(t, m.Set(ctx, "k", in, time.Minute))

	var out payload
	require.NoError(t, m.Get(ctx, "k", &out))
	assert.Equal(t, in, out)

	// Returned values are copies.
	out.Closes[0] = 99
	var again payload
	require.NoError(t, m.Get(ctx, "k", &again))
	assert.Equal(t, 1.0, again.Closes[0])

	assert.ErrorIs(t, m.Get(ctx, "missing", &out), ErrCacheMiss)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "short", 1, time.Second))
	require.NoError(t, m.Set(ctx, "forever", 2, 0))

	now = now.Add(2 * time.Second)

	var v int
	assert.ErrorIs(t, m.Get(ctx, "short", &v), ErrCacheMiss)
	require.NoError(t, m.Get(ctx, "forever", &v))
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithMaxSize(2))

	require.NoError(t, m.Set(ctx, "a", 1, 0))
	require.NoError(t, m.Set(ctx, "b", 2, 0))
	// Rewriting a refreshes its position.
	require.NoError(t, m.Set(ctx, "a", 10, 0))
	require.NoError(t, m.Set(ctx, "c", 3, 0))

	var v int
	assert.ErrorIs(t, m.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, m.Get(ctx, "a", &v))
	assert.Equal(t, 10, v)
	require.NoError(t, m.Get(ctx, "c", &v))
	assert.Equal(t, 2, m.Len())
}

func TestMemory_DeleteAndClose(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "a", 1, 0))
	require.NoError(t, m.Set(ctx, "b", 2, 0))

	require.NoError(t, m.Delete(ctx, "a", "nope"))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Close())
	assert.Equal(t, 0, m.Len())
}

func TestLayered(t *testing.T) {
	ctx := context.Background()
	l1, l2 := NewMemory(), NewMemory()
	c := NewLayered(l1, l2, time.Minute)

	require.NoError(t, c.Set(ctx, "k", payload{Symbol: "A"}, time.Minute))
	assert.Equal(t, 1, l1.Len())
	assert.Equal(t, 1, l2.Len())

	// L2-only entries are promoted on read.
	require.NoError(t, l2.Set(ctx, "only-l2", payload{Symbol: "B"}, 0))
	var out payload
	require.NoError(t, c.Get(ctx, "only-l2", &out))
	assert.Equal(t, "B", out.Symbol)
	assert.Equal(t, 2, l1.Len())

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrCacheMiss)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("FINADICT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FINADICT_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	r, err := NewRedis(ctx, WithRedisAddr(addr), WithRedisPrefix("finadict-test"))
	require.NoError(t, err)
	defer r.Close()

	key := Key("TEST", "1d", "1d", "Date")
	require.NoError(t, r.Set(ctx, key, payload{Symbol: "TEST"}, time.Minute))

	var out payload
	require.NoError(t, r.Get(ctx, key, &out))
	assert.Equal(t, "TEST", out.Symbol)

	require.NoError(t, r.Delete(ctx, key))
	assert.ErrorIs(t, r.Get(ctx, key, &out), ErrCacheMiss)
}

func TestRedis_WrapKey(t *testing.T) {
	assert.Equal(t, "p:k", (&Redis{prefix: "p"}).wrapKey("k"))
	assert.Equal(t, "k", (&Redis{}).wrapKey("k"))
}
