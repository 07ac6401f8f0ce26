package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the object-storage backend for banner and avatar
// images. A nil uploader means uploads are disabled for the deployment.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	// GetPublicURL returns the CDN-facing URL for a stored key.
	GetPublicURL(key string) string
}
