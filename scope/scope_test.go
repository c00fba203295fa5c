package scope

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpenCreateThenReadWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")

	s, err := Open(target, ModeCreate, WithWait(5*time.Millisecond))
	require.NoError(t, err)
	_, err = s.Stream().WriteString("hello")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = os.Stat(target + ".lock")
	assert.True(t, os.IsNotExist(err), "lockfile must be released")
}

func TestOpenCreateFailsIfExists(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	writeFile(t, target, "existing")

	_, err := Open(target, ModeCreate)
	assert.ErrorIs(t, err, ErrFileExists)
}

func TestOpenReadFailsIfMissing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "missing.txt")

	_, err := Open(target, ModeRead)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestOpenReadWriteShadowsAndPublishes(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	writeFile(t, target, "original")

	s, err := Open(target, ModeReadWrite, WithWait(5*time.Millisecond))
	require.NoError(t, err)

	// While held, the on-disk target is untouched; edits land in the shadow.
	_, err = s.Stream().Seek(0, 2)
	require.NoError(t, err)
	_, err = s.Stream().WriteString("-edited")
	require.NoError(t, err)
	onDisk, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(onDisk))

	require.NoError(t, s.Close())

	final, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original-edited", string(final))
}

func TestWithoutTemporaryWritesDirectly(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	writeFile(t, target, "original")

	s, err := Open(target, ModeReadWrite, WithWait(5*time.Millisecond), WithoutTemporary(), WithoutHashCheck())
	require.NoError(t, err)
	_, err = s.Stream().Seek(0, 0)
	require.NoError(t, err)
	_, err = s.Stream().WriteString("OVERWRITTEN")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "OVERWRITTEN", string(got))
}

func TestBackupDuringLockSnapshotsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	writeFile(t, target, "original")

	s, err := Open(target, ModeReadWrite, WithWait(5*time.Millisecond), WithBackupDuringLock(false))
	require.NoError(t, err)
	_, err = os.Stat(target + ".backup")
	assert.NoError(t, err, "backup snapshot should exist while held")

	require.NoError(t, s.Close())

	_, err = os.Stat(target + ".backup")
	assert.True(t, os.IsNotExist(err), "backup should be cleaned up when not kept")
}

func TestConcurrentOpensSerialize(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "counter.txt")
	writeFile(t, target, "0")

	const workers = 8
	var wg sync.WaitGroup
	var failures int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s, err := Open(target, ModeReadWrite, WithContext(ctx), WithWait(5*time.Millisecond), WithoutHashCheck())
			if err != nil {
				atomic.AddInt32(&failures, 1)
				return
			}
			data, _ := os.ReadFile(s.Stream().Name())
			n := len(data)
			_, _ = s.Stream().WriteAt([]byte{'x'}, int64(n))
			if err := s.Close(); err != nil {
				atomic.AddInt32(&failures, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), failures)
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, workers, len(got)-1) // "0" plus one 'x' per worker
}

func TestForceBreakClearsLockfile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	writeFile(t, target, "original")

	s, err := Open(target, ModeReadWrite, WithWait(5*time.Millisecond), WithMaxLockTime(time.Hour))
	require.NoError(t, err)
	t.Cleanup(func() { s.Release() })

	require.NoError(t, ForceBreak(target))
	_, err = os.Stat(target + ".lock")
	assert.True(t, os.IsNotExist(err))
}

func TestDoRunsAndCloses(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")

	err := Do(target, ModeCreate, func(s *Scope) error {
		_, err := s.Stream().WriteString("via-do")
		return err
	}, WithWait(5*time.Millisecond))
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "via-do", string(got))
}

func TestRecoveredErrorUnwraps(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	writeFile(t, target, "original")

	s, err := Open(target, ModeReadWrite, WithWait(5*time.Millisecond), WithoutTemporary())
	require.NoError(t, err)

	// Simulate the lockfile being reclaimed out from under us.
	require.NoError(t, os.Remove(target+".lock"))

	closeErr := s.Close()
	require.Error(t, closeErr)
	var recovered *RecoveredError
	require.True(t, errors.As(closeErr, &recovered))
	assert.ErrorIs(t, recovered, ErrOwnershipLost)
}
