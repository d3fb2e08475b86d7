package services

import (
	"context"
	"io"
	"time"
)

// ContentStore is the external collaborator that holds raw file bytes. The
// tree engine only moves locators around; the bytes never pass through it
// except on upload/download streaming.
type ContentStore interface {
	Write(ctx context.Context, locator string, r io.Reader) (int64, error)
	Read(ctx context.Context, locator string) (io.ReadCloser, error)
	Delete(ctx context.Context, locator string) error
	Size(ctx context.Context, locator string) (int64, error)
	// SignedURL returns a time-limited download URL for the object.
	SignedURL(ctx context.Context, locator string, expiry time.Duration) (string, error)
}
