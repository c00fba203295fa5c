// Package integrity hashes target files so a scope can detect whether
// anything mutated them while it held the lock.
package integrity

import (
	"encoding/hex"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// ChunkSize is the read buffer size for hashing, matching §4.5's
// "chunked at 128 KiB".
const ChunkSize = 128 * 1024

// Baseline is the pre-scope snapshot recorded at Enter.
type Baseline struct {
	Size int64
	Hash string
}

// Hash computes a BLAKE2b-256 hex digest of path's contents, reading in
// ChunkSize pieces so hashing a large file doesn't require loading it
// whole into memory. BLAKE2b is keyless here — the hash is a corruption
// detector, not a MAC, so no key material is involved.
func Hash(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is scope-internal
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum), nil
}

// Record captures the baseline (size, hash) for path. Size is stored for
// diagnostics only — per §4.5, only the hash decides corruption.
func Record(path string) (Baseline, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Baseline{}, err
	}
	sum, err := Hash(path)
	if err != nil {
		return Baseline{}, err
	}
	return Baseline{Size: info.Size(), Hash: sum}, nil
}

// Changed reports whether path's current hash differs from baseline.
func (b Baseline) Changed(path string) (bool, Baseline, error) {
	cur, err := Record(path)
	if err != nil {
		return false, Baseline{}, err
	}
	return cur.Hash != b.Hash, cur, nil
}
