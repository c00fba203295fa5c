package pathabs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Path is the remote object-storage variant of Path referenced in §6
// and expanded on in DESIGN.md's "Domain stack" section. Object storage
// has no O_EXCL primitive and can return transient permission errors that
// a local filesystem never would, which is exactly the case §4.2 item 4
// exists for.
type S3Path struct {
	client   *s3.Client
	bucket   string
	key      string
	elevated *s3.Client // optional client built from out-of-band credentials
}

// NewS3Path parses an "s3://bucket/key" URL and builds a Path backed by
// the default client and, if elevated is non-nil, a second client used
// only by TouchWithElevatedCredentials.
func NewS3Path(ctx context.Context, uri string, elevated aws.CredentialsProvider) (*S3Path, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return nil, err
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	p := &S3Path{client: s3.NewFromConfig(cfg), bucket: bucket, key: key}
	if elevated != nil {
		elevatedCfg := cfg.Copy()
		elevatedCfg.Credentials = elevated
		p.elevated = s3.NewFromConfig(elevatedCfg)
	}
	return p, nil
}

func splitS3URI(uri string) (bucket, key string, err error) {
	const prefix = "s3://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", errors.New("pathabs: not an s3:// uri")
	}
	rest := strings.TrimPrefix(uri, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("pathabs: s3 uri must be s3://bucket/key")
	}
	return parts[0], parts[1], nil
}

func (p *S3Path) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func (p *S3Path) Resolve() (string, error) {
	return "s3://" + p.bucket + "/" + p.key, nil
}

func (p *S3Path) Exists() (bool, error) {
	ctx, cancel := p.ctx()
	defer cancel()
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &p.bucket, Key: &p.key})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (p *S3Path) IsFile() (bool, error) {
	// Object storage has no directories in the POSIX sense; any object
	// that exists is a "file" for our purposes.
	return p.Exists()
}

func (p *S3Path) Stat() (os.FileInfo, error) {
	return nil, errors.New("pathabs: Stat is not supported for s3 paths; use Exists/head metadata")
}

func (p *S3Path) CopyTo(dst string) error {
	dstBucket, dstKey, err := splitS3URI(dst)
	if err != nil {
		return err
	}
	ctx, cancel := p.ctx()
	defer cancel()
	source := p.bucket + "/" + p.key
	_, err = p.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     &dstBucket,
		Key:        &dstKey,
		CopySource: &source,
	})
	return err
}

func (p *S3Path) MoveTo(dst string) error {
	if err := p.CopyTo(dst); err != nil {
		return err
	}
	return p.Unlink()
}

func (p *S3Path) Rename(dst string) error {
	return p.MoveTo(dst)
}

func (p *S3Path) Unlink() error {
	ctx, cancel := p.ctx()
	defer cancel()
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &p.bucket, Key: &p.key})
	return err
}

func (p *S3Path) Touch() error {
	ctx, cancel := p.ctx()
	defer cancel()
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &p.bucket,
		Key:    &p.key,
		Body:   bytes.NewReader(nil),
	})
	return err
}

// TouchWithElevatedCredentials retries the zero-length PutObject using a
// second, operator-supplied credential provider. This is the concrete
// instance of §4.2 item 4's "out-of-band credentials" fallback: the
// primary chain returned AccessDenied, so the caller-supplied elevated
// chain gets one attempt before the core gives up and reports a fatal
// PermissionDenied.
func (p *S3Path) TouchWithElevatedCredentials() error {
	if p.elevated == nil {
		return errors.New("pathabs: no elevated credentials configured")
	}
	ctx, cancel := p.ctx()
	defer cancel()
	_, err := p.elevated.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &p.bucket,
		Key:    &p.key,
		Body:   bytes.NewReader(nil),
	})
	return err
}

// WriteBody uploads data as the object's full contents, overwriting
// whatever was there. Used where no local source file exists to drive
// CopyObject — e.g. publishing a freshly built lockfile record.
func (p *S3Path) WriteBody(data []byte) error {
	ctx, cancel := p.ctx()
	defer cancel()
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &p.bucket,
		Key:    &p.key,
		Body:   bytes.NewReader(data),
	})
	return err
}

// ReadBody downloads the full object body.
func (p *S3Path) ReadBody() ([]byte, error) {
	ctx, cancel := p.ctx()
	defer cancel()
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &p.bucket, Key: &p.key})
	if err != nil {
		return nil, err
	}
	defer func() { _ = out.Body.Close() }()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SiblingPath addresses another "s3://bucket/key" object via the same
// clients, e.g. the ".lock" key next to this object.
func (p *S3Path) SiblingPath(ref string) Path {
	bucket, key, err := splitS3URI(ref)
	if err != nil {
		return nil
	}
	return &S3Path{client: p.client, bucket: bucket, key: key, elevated: p.elevated}
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

// IsAccessDenied reports whether err is an S3 AccessDenied API error —
// the trigger condition for the §4.2 item 4 permission-variant fallback.
func IsAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "AccessDenied"
	}
	return false
}
