package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "value"))
	require.NoError(t, store.Set("i", int64(42)))
	require.NoError(t, store.Set("f", 0.5))
	require.NoError(t, store.Set("b", true))

	assert.Equal(t, "value", store.GetString("s"))
	assert.Equal(t, 42, store.GetInt("i"))
	assert.InDelta(t, 42.0, store.GetFloat("i"), 1e-9)
	assert.InDelta(t, 0.5, store.GetFloat("f"), 1e-9)
	assert.True(t, store.GetBool("b"))

	assert.Empty(t, store.GetString("i"))
	assert.Zero(t, store.GetInt("missing"))
	assert.False(t, store.GetBool("s"))
}

func TestConfigStore_Save(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Save())
	require.NoError(t, store.Save())

	assert.Equal(t, 2, store.Saves())
	assert.Equal(t, ":memory:", store.Path())
}
