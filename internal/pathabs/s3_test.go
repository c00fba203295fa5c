package pathabs

import (
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitS3URI(t *testing.T) {
	bucket, key, err := splitS3URI("s3://my-bucket/path/to/object.txt")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/object.txt", key)
}

func TestSplitS3URIRejectsNonS3Scheme(t *testing.T) {
	_, _, err := splitS3URI("/local/path")
	assert.Error(t, err)
}

func TestSplitS3URIRejectsMissingKey(t *testing.T) {
	_, _, err := splitS3URI("s3://bucket-only")
	assert.Error(t, err)
}

type fakeAPIError struct{ code string }

func (e fakeAPIError) Error() string     { return e.code }
func (e fakeAPIError) ErrorCode() string { return e.code }
func (e fakeAPIError) ErrorMessage() string {
	return e.code
}
func (e fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fakeAPIError{code: "NoSuchKey"}))
	assert.True(t, isNotFound(fakeAPIError{code: "NotFound"}))
	assert.False(t, isNotFound(fakeAPIError{code: "AccessDenied"}))
}

func TestIsAccessDenied(t *testing.T) {
	assert.True(t, IsAccessDenied(fakeAPIError{code: "AccessDenied"}))
	assert.False(t, IsAccessDenied(fakeAPIError{code: "NotFound"}))
}

func TestS3PathSiblingPath(t *testing.T) {
	p := &S3Path{bucket: "b", key: "target.txt"}
	sib := p.SiblingPath("s3://b/target.txt.lock")
	require.NotNil(t, sib)
	s3sib, ok := sib.(*S3Path)
	require.True(t, ok)
	assert.Equal(t, "b", s3sib.bucket)
	assert.Equal(t, "target.txt.lock", s3sib.key)
}

func TestS3PathResolve(t *testing.T) {
	p := &S3Path{bucket: "b", key: "k"}
	got, err := p.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "s3://b/k", got)
}
