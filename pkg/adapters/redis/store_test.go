package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/domain"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	_, client := setup(t)
	store := NewStore(client)
	ctx := context.Background()

	state := domain.SessionState{"q": "go", "exact": "on"}
	require.NoError(t, store.Save(ctx, "s-1", state))

	loaded, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestStore_MissingSession(t *testing.T) {
	_, client := setup(t)
	store := NewStore(client)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_TTLExpires(t *testing.T) {
	mr, client := setup(t)
	store := NewStore(client, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s", domain.SessionState{}))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_DeleteAndList(t *testing.T) {
	_, client := setup(t)
	store := NewStore(client, WithStorePrefix("app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.SessionState{}))
	require.NoError(t, store.Save(ctx, "b", domain.SessionState{}))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestLocker_MutualExclusion(t *testing.T) {
	_, client := setup(t)
	locker := NewLocker(client, "app:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s-1", time.Minute)
	require.NoError(t, err)

	// second acquisition times out while the first is held
	shortCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "s-1", time.Minute)
	assert.ErrorIs(t, err, ErrLockAcquire)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "s-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}
