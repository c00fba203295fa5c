package lockrecord

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolasavic/protectedfile/internal/identity"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.lock")
	id := identity.New()
	rec := FromIdentity(id, 123.5)

	require.NoError(t, Write(path, rec))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.True(t, got.Matches(id))
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.lock"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadEmptyIsUnparseable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.lock")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Read(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestReadGarbageIsUnparseable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.lock")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Read(path)
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestExpired(t *testing.T) {
	assert.False(t, Record{FreeAfter: NoExpiry}.Expired(1000))
	assert.False(t, Record{FreeAfter: 0}.Expired(1000))
	assert.False(t, Record{FreeAfter: 2000}.Expired(1000))
	assert.True(t, Record{FreeAfter: 500}.Expired(1000))
}

func TestSyncDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.lock")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	assert.NoError(t, SyncDir(path))
}

func TestMatches(t *testing.T) {
	id := identity.Identity{PID: 1, Host: "h", Nonce: 9}
	rec := FromIdentity(id, NoExpiry)
	assert.True(t, rec.Matches(id))
	assert.False(t, rec.Matches(identity.Identity{PID: 2, Host: "h", Nonce: 9}))
}
