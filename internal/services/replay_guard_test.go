package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReplayGuard_FirstSeen(t *testing.T) {
	ctx := context.Background()
	guard := NewMemoryReplayGuard(time.Hour, time.Hour)
	defer guard.Stop()

	first, err := guard.FirstSeen(ctx, "ws_CO_1:0")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := guard.FirstSeen(ctx, "ws_CO_1:0")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := guard.FirstSeen(ctx, "ws_CO_1:1032")
	require.NoError(t, err)
	assert.True(t, other)
	assert.Equal(t, 2, guard.Len())
}

func TestMemoryReplayGuard_Expiry(t *testing.T) {
	ctx := context.Background()
	guard := NewMemoryReplayGuard(time.Minute, time.Hour)
	defer guard.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return now }

	first, _ := guard.FirstSeen(ctx, "ws_CO_1:0")
	assert.True(t, first)

	now = now.Add(2 * time.Minute)
	guard.cleanup()
	assert.Equal(t, 0, guard.Len())

	again, _ := guard.FirstSeen(ctx, "ws_CO_1:0")
	assert.True(t, again)
}

func TestNewReplayGuard_FallsBackWithoutRedis(t *testing.T) {
	guard := NewReplayGuard(nil, time.Hour)
	mem, ok := guard.(*MemoryReplayGuard)
	require.True(t, ok)
	mem.Stop()
	mem.Stop()
}

func TestMemoryReplayGuard_Forget(t *testing.T) {
	ctx := context.Background()
	guard := NewMemoryReplayGuard(time.Hour, time.Hour)
	defer guard.Stop()

	first, _ := guard.FirstSeen(ctx, "ws_CO_1:0")
	assert.True(t, first)

	require.NoError(t, guard.Forget(ctx, "ws_CO_1:0"))
	assert.Equal(t, 0, guard.Len())

	again, _ := guard.FirstSeen(ctx, "ws_CO_1:0")
	assert.True(t, again)
}
