/*
Package storage provides the object storage service behind chat attachments.

Clients upload and download attachment bytes directly against S3-compatible
storage through short-lived presigned URLs; the chat core only ever handles
object keys (attachment references).
*/
package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the settings required to reach the storage backend.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ContentType   string
	ContentLength int64
}

// Service is the public interface of the attachment storage backend.
type Service interface {
	// PresignUpload generates a time-limited URL for uploading an object.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a time-limited URL for downloading an object.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Upload writes an object directly from the server, for server-originated
	// content that never passes through a presigned client upload.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// Stat returns metadata for the object, or an error when it is absent.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// Delete removes the object with the given key.
	Delete(ctx context.Context, key string) error
}

// NewService builds the concrete storage implementation for the given
// configuration. Only S3-compatible backends are supported.
func NewService(cfg ServiceConfig) (Service, error) {
	return newObjectStore(cfg)
}
