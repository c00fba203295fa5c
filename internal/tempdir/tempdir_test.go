package tempdir

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirIsCreatedOnce(t *testing.T) {
	reset()
	defer reset()

	a, err := Dir()
	require.NoError(t, err)
	b, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	info, err := os.Stat(a)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCleanupRemovesDir(t *testing.T) {
	reset()
	defer reset()

	d, err := Dir()
	require.NoError(t, err)

	Cleanup()

	_, statErr := os.Stat(d)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanupBeforeDirIsNoop(t *testing.T) {
	reset()
	defer reset()
	assert.NotPanics(t, Cleanup)
}
