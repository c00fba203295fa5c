package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	d := Default()
	assert.Equal(t, 1.0, d.WaitSeconds)
	assert.True(t, d.UseTemporary)
	assert.True(t, d.CheckHash)
	assert.False(t, d.Backup)
	assert.Equal(t, time.Duration(0), d.MaxLockTime())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), d)
}

func TestLoadOverridesSelectively(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protectedfile.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
wait = 2.5
max_lock_time = 30
backup = true
`), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, d.WaitSeconds)
	assert.Equal(t, 30*time.Second, d.MaxLockTime())
	assert.True(t, d.Backup)
	assert.True(t, d.CheckHash, "omitted fields keep the built-in default")
}
