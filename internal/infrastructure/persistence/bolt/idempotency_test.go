package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idem.db")

	s, err := Open(path)
	require.NoError(t, err)

	_, found, err := s.Lookup(ctx, 1, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, 1, "k1", 42))
	// 第一次的结果不会被覆盖
	require.NoError(t, s.Save(ctx, 1, "k1", 43))

	id, found, err := s.Lookup(ctx, 1, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint(42), id)

	// key按用户隔离
	_, found, err = s.Lookup(ctx, 2, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	t.Run("重启后仍然有效", func(t *testing.T) {
		require.NoError(t, s.Close())
		reopened, err := Open(path)
		require.NoError(t, err)
		defer reopened.Close()

		id, found, err := reopened.Lookup(ctx, 1, "k1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint(42), id)
	})
}
