package scope

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolasavic/protectedfile/internal/pathabs"
)

// fakeRemotePath is a minimal in-memory pathabs.Path stand-in, used to
// exercise ForceBreak's remote branch without a real object-storage
// backend.
type fakeRemotePath struct {
	uri      string
	siblings map[string]*fakeRemotePath
	unlinked bool
}

func newFakeRemotePath(uri string) *fakeRemotePath {
	return &fakeRemotePath{uri: uri, siblings: map[string]*fakeRemotePath{}}
}

func (p *fakeRemotePath) Resolve() (string, error)      { return p.uri, nil }
func (p *fakeRemotePath) Exists() (bool, error)          { return true, nil }
func (p *fakeRemotePath) IsFile() (bool, error)          { return true, nil }
func (p *fakeRemotePath) Stat() (os.FileInfo, error)     { return nil, nil }
func (p *fakeRemotePath) CopyTo(dst string) error        { return nil }
func (p *fakeRemotePath) MoveTo(dst string) error        { return nil }
func (p *fakeRemotePath) Rename(dst string) error        { return nil }
func (p *fakeRemotePath) Touch() error                   { return nil }
func (p *fakeRemotePath) Unlink() error                  { p.unlinked = true; return nil }

func (p *fakeRemotePath) SiblingPath(ref string) pathabs.Path {
	sib, ok := p.siblings[ref]
	if !ok {
		sib = newFakeRemotePath(ref)
		p.siblings[ref] = sib
	}
	return sib
}

func TestForceBreakRemoteUnlinksLockSibling(t *testing.T) {
	target := newFakeRemotePath("s3://bucket/target.txt")

	err := ForceBreak("s3://bucket/target.txt", WithRemotePath(target))
	require.NoError(t, err)

	lock, ok := target.siblings["s3://bucket/target.txt.lock"]
	require.True(t, ok, "ForceBreak must address the .lock sibling")
	assert.True(t, lock.unlinked)
}
