package metering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(interval time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	c := NewCache(interval)
	c.nowFunc = clock.Now
	c.ClearAll()

	return c, clock
}

func TestCache_StartsExpired(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	require.NoError(t, c.Set(KindCPUMem, "guest01", 1))

	// Set never extends the lifetime, so the entry is invisible once the
	// initial expiration has passed.
	clock.Advance(time.Nanosecond)

	_, ok := c.Get(KindCPUMem, "guest01")
	assert.False(t, ok)
}

func TestCache_RefreshAndExpire(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	require.NoError(t, c.Refresh(KindCPUMem, map[string]any{"guest01": "a", "Guest02": "b"}))

	v, ok := c.Get(KindCPUMem, "GUEST01")
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = c.Get(KindCPUMem, "guest02")
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = c.Get(KindVNICs, "guest01")
	assert.False(t, ok, "kinds are independent")

	clock.Advance(time.Minute)
	_, ok = c.Get(KindCPUMem, "guest01")
	assert.True(t, ok, "still valid at the expiration instant")

	clock.Advance(time.Second)
	_, ok = c.Get(KindCPUMem, "guest01")
	assert.False(t, ok)
}

func TestCache_RefreshReplacesData(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	require.NoError(t, c.Refresh(KindVNICs, map[string]any{"a": 1}))
	require.NoError(t, c.Refresh(KindVNICs, map[string]any{"b": 2}))

	_, ok := c.Get(KindVNICs, "a")
	assert.False(t, ok)

	_, ok = c.Get(KindVNICs, "b")
	assert.True(t, ok)
}

func TestCache_SetDeleteClear(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	require.NoError(t, c.Refresh(KindCPUMem, map[string]any{"a": 1}))
	require.NoError(t, c.Set(KindCPUMem, "b", 2))

	v, ok := c.Get(KindCPUMem, "b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	require.NoError(t, c.Delete(KindCPUMem, "a"))
	require.NoError(t, c.Delete(KindCPUMem, "absent"))

	_, ok = c.Get(KindCPUMem, "a")
	assert.False(t, ok)

	require.NoError(t, c.Clear(KindCPUMem))

	_, ok = c.Get(KindCPUMem, "b")
	assert.False(t, ok)
}

func TestCache_ClearAllExpires(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	require.NoError(t, c.Refresh(KindCPUMem, map[string]any{"a": 1}))
	c.ClearAll()
	require.NoError(t, c.Set(KindCPUMem, "a", 1))
	clock.Advance(time.Second)

	_, ok := c.Get(KindCPUMem, "a")
	assert.False(t, ok)
}

func TestCache_UnknownKind(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	assert.ErrorIs(t, c.Set("disk", "a", 1), ErrUnknownKind)
	assert.ErrorIs(t, c.Delete("disk", "a"), ErrUnknownKind)
	assert.ErrorIs(t, c.Clear("disk"), ErrUnknownKind)
	assert.ErrorIs(t, c.Refresh("disk", nil), ErrUnknownKind)

	_, ok := c.Get("disk", "a")
	assert.False(t, ok)
}
