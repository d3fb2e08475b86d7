package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kurin/blazer/b2"
)

// B2Service implements ContentStore on Backblaze B2.
type B2Service struct {
	client     *b2.Client
	bucketName string
	bucket     *b2.Bucket
}

var _ ContentStore = (*B2Service)(nil)

func NewB2Service(ctx context.Context, keyID, applicationKey, bucketName string) (*B2Service, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &B2Service{
		client:     client,
		bucketName: bucketName,
		bucket:     bucket,
	}, nil
}

func (s *B2Service) Write(ctx context.Context, locator string, r io.Reader) (int64, error) {
	obj := s.bucket.Object(locator)
	writer := obj.NewWriter(ctx)

	written, err := io.Copy(writer, r)
	if err != nil {
		writer.Close()
		return 0, fmt.Errorf("failed to upload object to B2: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to close B2 writer: %w", err)
	}
	return written, nil
}

func (s *B2Service) Read(ctx context.Context, locator string) (io.ReadCloser, error) {
	return s.bucket.Object(locator).NewReader(ctx), nil
}

func (s *B2Service) Delete(ctx context.Context, locator string) error {
	if err := s.bucket.Object(locator).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object from B2: %w", err)
	}
	return nil
}

func (s *B2Service) Size(ctx context.Context, locator string) (int64, error) {
	attrs, err := s.bucket.Object(locator).Attrs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to stat object in B2: %w", err)
	}
	return attrs.Size, nil
}

// SignedURL generates an auth URL for private buckets.
func (s *B2Service) SignedURL(ctx context.Context, locator string, expiry time.Duration) (string, error) {
	urlObj, err := s.bucket.Object(locator).AuthURL(ctx, expiry, "GET")
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return urlObj.String(), nil
}
