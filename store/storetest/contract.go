// Package storetest provides the behaviour every store.Store backend must
// share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/parley/store"
)

// RunContract exercises s against the store.Store contract. s must start
// empty.
func RunContract(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		_, err = s.Load(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "slot1", []byte(`{"turn":1}`)))
		data, err := s.Load(ctx, "slot1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"turn":1}`, string(data))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "slot1", []byte(`{"turn":2}`)))
		data, err := s.Load(ctx, "slot1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"turn":2}`, string(data))
	})

	t.Run("list sorted", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "autosave", []byte(`{}`)))
		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"autosave", "slot1"}, names)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "autosave"))
		_, err := s.Load(ctx, "autosave")
		assert.ErrorIs(t, err, store.ErrNotFound)

		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"slot1"}, names)

		assert.ErrorIs(t, s.Delete(ctx, "autosave"), store.ErrNotFound)
	})

	t.Run("invalid names", func(t *testing.T) {
		for _, name := range []string{"", "../escape", "a/b", "with space"} {
			assert.ErrorIs(t, s.Save(ctx, name, []byte(`{}`)), store.ErrInvalidName, "name %q", name)
			_, err := s.Load(ctx, name)
			assert.ErrorIs(t, err, store.ErrInvalidName, "name %q", name)
		}
	})
}
