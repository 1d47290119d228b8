package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/domain"
)

func TestStore_IsolatesCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	state := domain.SessionState{"q": "one"}
	require.NoError(t, store.Save(ctx, "s", state))

	// mutating the original must not reach the store
	state["q"] = "two"
	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "one", loaded["q"])

	// mutating the loaded copy must not reach the store either
	loaded["q"] = "three"
	again, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "one", again["q"])
}

func TestStore_MissingAndDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Load(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "s", domain.SessionState{}))
	require.NoError(t, store.Delete(ctx, "s"))
	_, err = store.Load(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
