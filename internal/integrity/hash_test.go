package integrity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashStableForSameContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	h1, err := Hash(path)
	require.NoError(t, err)
	h2, err := Hash(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestBaselineChangedDetectsMutation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	base, err := Record(path)
	require.NoError(t, err)

	changed, _, err := base.Changed(path)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte("v2-different-length"), 0o644))
	changed, cur, err := base.Changed(path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, base.Hash, cur.Hash)
}

func TestHashLargerThanChunkSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	data := make([]byte, ChunkSize*3+17)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))

	h, err := Hash(path)
	require.NoError(t, err)
	assert.Len(t, h, 64) // blake2b-256 hex digest
}
