package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "cart:guest")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "cart:guest", []byte(`{"version":1}`)))
	value, err := store.Get(ctx, "cart:guest")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(value))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "cart:guest"))
	assert.NoError(t, store.Delete(ctx, "cart:guest"))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	stored, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(stored))

	stored[1] = 'y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestRecordKey_Format(t *testing.T) {
	assert.Equal(t, "cart:guest", RecordKey("guest"))
	assert.Equal(t, "cart:identity:u1", RecordKey("identity:u1"))
}
