package manifest

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// BlobPublisher uploads the packaged manifest and returns the storage
// confirmation token.
type BlobPublisher interface {
	Upload(ctx context.Context, body io.Reader) (string, error)
}

// S3Publisher publishes the manifest archive to the configured bucket.
type S3Publisher struct {
	uploader *manager.Uploader
	bucket   string
	key      string
}

// NewS3Publisher builds a publisher targeting bucket/prefix/filename.
func NewS3Publisher(client manager.UploadAPIClient, bucket, prefix, filename string) *S3Publisher {
	return &S3Publisher{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		key:      path.Join(prefix, filename),
	}
}

var _ BlobPublisher = (*S3Publisher)(nil)

// Upload streams the archive to the object store with owner-full-control
// semantics, returning the ETag on success.
func (p *S3Publisher) Upload(ctx context.Context, body io.Reader) (string, error) {
	out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key),
		Body:   body,
		ACL:    types.ObjectCannedACLBucketOwnerFullControl,
	})
	if err != nil {
		return "", fmt.Errorf("upload manifest: %w", err)
	}
	return aws.ToString(out.ETag), nil
}
