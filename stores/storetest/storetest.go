// Package storetest holds the behavior every core.KVStore must share.
package storetest

import (
	"context"
	"testing"

	"artisan-canvas/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a store against the core.KVStore contract.
func Run(t *testing.T, store core.KVStore) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "auth/missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "auth/one", []byte(`{"isLoggedIn":true}`)))

		got, err := store.Get(ctx, "auth/one")
		require.NoError(t, err)
		assert.Equal(t, `{"isLoggedIn":true}`, string(got))
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "auth/two", []byte("a")))
		require.NoError(t, store.Put(ctx, "auth/two", []byte("b")))

		got, err := store.Get(ctx, "auth/two")
		require.NoError(t, err)
		assert.Equal(t, "b", string(got))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "auth/three", []byte("x")))
		require.NoError(t, store.Delete(ctx, "auth/three"))

		_, err := store.Get(ctx, "auth/three")
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.NoError(t, store.Delete(ctx, "auth/three"), "deleting a missing key is not an error")
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, key := range []string{"", "../escape", "auth//x", "auth/.."} {
			assert.Error(t, store.Put(ctx, key, []byte("x")), key)
		}
	})
}
