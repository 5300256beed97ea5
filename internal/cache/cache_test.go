package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-progress/internal/model"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(DefaultExpiration, DefaultCleanupInterval, zerolog.Nop())

	_, ok, err := c.Get(ctx, "report:latest")
	require.NoError(t, err)
	require.False(t, ok)

	want := &model.Report{RunID: "abc"}
	require.NoError(t, c.Set(ctx, "report:latest", want, 0))

	got, ok, err := c.Get(ctx, "report:latest")
	require.NoError(t, err)
	require.True(t, ok)
	require.Same(t, want, got)

	require.NoError(t, c.Delete(ctx, "report:latest"))
	_, ok, _ = c.Get(ctx, "report:latest")
	require.False(t, ok)
}

func TestMemoryCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, time.Minute, zerolog.Nop())

	require.NoError(t, c.Set(ctx, "k", &model.Report{}, 10*time.Millisecond))
	require.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, "k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryCache_Flush(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, time.Minute, zerolog.Nop())

	require.NoError(t, c.Set(ctx, "k", &model.Report{RunID: "x"}, 0))
	c.Flush()
	_, ok, _ := c.Get(ctx, "k")
	require.False(t, ok)
}

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string) (*model.Report, bool, error) {
	return nil, false, f.err
}

func (f failingCache) Set(context.Context, string, *model.Report, time.Duration) error {
	return f.err
}

func (f failingCache) Delete(context.Context, ...string) error { return f.err }

func TestLayered_FillsLocalFromShared(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryCache(0, time.Minute, zerolog.Nop())
	shared := NewMemoryCache(0, time.Minute, zerolog.Nop())
	c := NewLayered(local, shared, time.Minute, zerolog.Nop())

	want := &model.Report{RunID: "abc"}
	require.NoError(t, shared.Set(ctx, "report:abc", want, 0))

	got, ok, err := c.Get(ctx, "report:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", got.RunID)

	fromLocal, ok, _ := local.Get(ctx, "report:abc")
	require.True(t, ok)
	require.Same(t, want, fromLocal)
}

func TestLayered_SetWritesBoth(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryCache(0, time.Minute, zerolog.Nop())
	shared := NewMemoryCache(0, time.Minute, zerolog.Nop())
	c := NewLayered(local, shared, time.Minute, zerolog.Nop())

	require.NoError(t, c.Set(ctx, "k", &model.Report{RunID: "k"}, 0))
	_, ok, _ := local.Get(ctx, "k")
	require.True(t, ok)
	_, ok, _ = shared.Get(ctx, "k")
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ = local.Get(ctx, "k")
	require.False(t, ok)
	_, ok, _ = shared.Get(ctx, "k")
	require.False(t, ok)
}

func TestLayered_SharedErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	c := NewLayered(NewMemoryCache(0, time.Minute, zerolog.Nop()), failingCache{err: boom}, time.Minute, zerolog.Nop())

	_, ok, err := c.Get(ctx, "k")
	require.False(t, ok)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, c.Set(ctx, "k", &model.Report{}, 0), boom)
}

func TestLayered_VolatileKeyRereadsShared(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryCache(0, time.Minute, zerolog.Nop())
	shared := NewMemoryCache(0, time.Minute, zerolog.Nop())
	c := NewLayered(local, shared, time.Hour, zerolog.Nop()).
		Volatile("report:latest", 200*time.Millisecond)

	require.NoError(t, c.Set(ctx, "report:latest", &model.Report{RunID: "first"}, 0))
	require.NoError(t, c.Set(ctx, "report:first", &model.Report{RunID: "first"}, 0))

	// Another process publishes a newer run to the shared layer only.
	require.NoError(t, shared.Set(ctx, "report:latest", &model.Report{RunID: "second"}, 0))

	got, ok, err := c.Get(ctx, "report:latest")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "first", got.RunID)

	require.Eventually(t, func() bool {
		got, ok, err := c.Get(ctx, "report:latest")
		return err == nil && ok && got.RunID == "second"
	}, 2*time.Second, 20*time.Millisecond)

	// Other keys keep the long local TTL.
	_, ok, _ = local.Get(ctx, "report:first")
	require.True(t, ok)
}

func TestLayered_TTLFor(t *testing.T) {
	c := NewLayered(nil, nil, time.Hour, zerolog.Nop()).Volatile("v", time.Second)

	require.Equal(t, time.Hour, c.ttlFor("k", 0))
	require.Equal(t, time.Minute, c.ttlFor("k", time.Minute))
	require.Equal(t, time.Second, c.ttlFor("v", 0))
	require.Equal(t, time.Second, c.ttlFor("v", time.Minute))
	require.Equal(t, 10*time.Millisecond, c.ttlFor("v", 10*time.Millisecond))
}
