package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/internal/utils"
	"github.com/customeros/cardstack/services/storage/aws_client"
)

const cardImagePrefix = "cards"

type cardImageStorage struct {
	client    aws_client.ObjectClient
	bucket    string
	cdnDomain string
}

func NewCardImageStorage(client aws_client.ObjectClient, bucket, cdnDomain string) interfaces.StorageService {
	return &cardImageStorage{
		client:    client,
		bucket:    bucket,
		cdnDomain: cdnDomain,
	}
}

// NewR2CardImageStorage returns nil when R2 credentials are not configured; card images are then not kept.
func NewR2CardImageStorage(cfg *config.R2StorageConfig) (interfaces.StorageService, error) {
	if cfg == nil || !cfg.Enabled() {
		return nil, nil
	}
	client, err := aws_client.NewR2Client(cfg.AccountID, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}
	return NewCardImageStorage(client, cfg.CardImageBucket, cfg.CDNDomain), nil
}

// CardImageKey builds cards/<tenant>/<id>.<ext> for an uploaded card photo.
func CardImageKey(tenant, contentType string) string {
	return path.Join(cardImagePrefix, tenant, fmt.Sprintf("%s.%s", utils.GenerateNanoID(21), utils.GetFileExtensionFromContentType(contentType)))
}

func (s *cardImageStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CardImageStorage.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if len(data) == 0 {
		return errors.New("empty object")
	}
	if err := s.client.Put(ctx, s.bucket, key, data, contentType, s.cdnDomain != ""); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "upload %s", key)
	}
	return nil
}

func (s *cardImageStorage) Download(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CardImageStorage.Download")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	data, err := s.client.Get(ctx, s.bucket, key)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "download %s", key)
	}
	return data, nil
}

func (s *cardImageStorage) Delete(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CardImageStorage.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := s.client.Delete(ctx, s.bucket, key); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// GetPublicURL is empty when no CDN domain fronts the bucket.
func (s *cardImageStorage) GetPublicURL(key string) string {
	if s.cdnDomain == "" {
		return ""
	}
	return "https://" + s.cdnDomain + "/" + key
}
