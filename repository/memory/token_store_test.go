package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/dashboard/domain"
)

func TestTokenStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore("tab-1")

	_, err := store.Get(ctx, domain.TokenKey)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	require.NoError(t, store.Set(ctx, domain.TokenKey, "abc"))
	got, err := store.Get(ctx, domain.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, store.Delete(ctx, domain.TokenKey))
	_, err = store.Get(ctx, domain.TokenKey)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestTokenStore_EventsDescribeChanges(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore("tab-1")
	sub := store.Subscribe(ctx)
	defer sub.Close()

	require.NoError(t, store.Set(ctx, domain.TokenKey, "a"))
	require.NoError(t, store.Set(ctx, domain.TokenKey, "b"))
	require.NoError(t, store.Delete(ctx, domain.TokenKey))
	require.NoError(t, store.Delete(ctx, domain.TokenKey))

	first := <-sub.C
	assert.Equal(t, "", first.OldValue)
	assert.Equal(t, "a", first.NewValue)
	assert.Equal(t, "tab-1", first.Source)

	second := <-sub.C
	assert.Equal(t, "a", second.OldValue)
	assert.Equal(t, "b", second.NewValue)

	removed := <-sub.C
	assert.Equal(t, "b", removed.OldValue)
	assert.Empty(t, removed.NewValue)

	// Deleting an absent key is silent.
	assert.Len(t, sub.C, 0)
}
