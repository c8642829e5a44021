// Package storage holds object-storage backends for receipt attachments.
package storage

import (
	"context"
	"io"
	"time"
)

// ReceiptRepository defines the interface for receipt object storage.
// Upload returns the stored object path; access goes through presigned
// URLs because the bucket stays private.
type ReceiptRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	PresignURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
