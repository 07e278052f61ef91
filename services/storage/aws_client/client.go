package aws_client

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/internal/tracing"
)

// ObjectClient is the subset of S3 used for card images.
type ObjectClient interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string, public bool) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}

type s3Client struct {
	api        *s3.S3
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

func NewS3Client(config *aws.Config) (ObjectClient, error) {
	s, err := session.NewSession(config)
	if err != nil {
		return nil, errors.Wrap(err, "create aws session")
	}
	return &s3Client{
		api:        s3.New(s),
		uploader:   s3manager.NewUploader(s),
		downloader: s3manager.NewDownloader(s),
	}, nil
}

// NewR2Client targets a Cloudflare R2 account through its S3-compatible endpoint.
func NewR2Client(accountID, accessKeyID, accessKeySecret string) (ObjectClient, error) {
	return NewS3Client(&aws.Config{
		Endpoint:         aws.String("https://" + accountID + ".r2.cloudflarestorage.com"),
		Region:           aws.String("auto"),
		Credentials:      credentials.NewStaticCredentials(accessKeyID, accessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
}

func (c *s3Client) Put(ctx context.Context, bucket, key string, data []byte, contentType string, public bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3Client.Put")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("bucket", bucket, "key", key, "size", len(data))

	input := &s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if public {
		input.ACL = aws.String("public-read")
	}

	if _, err := c.uploader.UploadWithContext(ctx, input); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (c *s3Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3Client.Get")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	buffer := &aws.WriteAtBuffer{}
	_, err := c.downloader.DownloadWithContext(ctx, buffer, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (c *s3Client) Delete(ctx context.Context, bucket, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3Client.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	_, err := c.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
