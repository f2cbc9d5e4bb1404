package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"mingle/internal/pkg/logx"
)

// objectStore implements Service against S3-compatible storage.
type objectStore struct {
	cfg      ServiceConfig
	client   *s3.Client
	uploader *manager.Uploader
}

// newObjectStore initializes the S3 client with a custom endpoint so that
// MinIO-style compatible backends work alongside AWS itself.
func newObjectStore(cfg ServiceConfig) (*objectStore, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize storage client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &objectStore{
		cfg:      cfg,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// PresignUpload generates a presigned PUT URL bound to the declared MIME type
// and size, so the client cannot upload something other than what it declared.
func (s *objectStore) PresignUpload(
	ctx context.Context,
	key string,
	mimeType string,
	fileSize int64,
	duration time.Duration,
) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	presignInput := &s3.PutObjectInput{
		Bucket:        &s.cfg.S3BucketName,
		Key:           &key,
		ContentType:   &mimeType,
		ContentLength: &fileSize,
	}

	resp, err := presignClient.PresignPutObject(
		ctx,
		presignInput,
		s3.WithPresignExpires(duration),
	)

	if err != nil {
		logx.Error(err, "Failed to generate presigned upload URL", "key", key)
		return "", errors.New("failed to generate presigned upload URL")
	}

	return resp.URL, nil
}

// PresignDownload generates a presigned GET URL for the object key.
func (s *objectStore) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	presignInput := &s3.GetObjectInput{
		Bucket: &s.cfg.S3BucketName,
		Key:    &key,
	}

	resp, err := presignClient.PresignGetObject(ctx, presignInput, s3.WithPresignExpires(duration))
	if err != nil {
		logx.Error(err, "Failed to generate presigned download URL", "key", key)
		return "", errors.New("failed to generate presigned download URL")
	}

	return resp.URL, nil
}

// Upload writes an object directly using the SDK's multipart-capable uploader.
func (s *objectStore) Upload(ctx context.Context, key string, mimeType string, body io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.cfg.S3BucketName,
		Key:         &key,
		ContentType: &mimeType,
		Body:        body,
	})

	if err != nil {
		logx.Error(err, "Direct upload failed", "key", key)
		return errors.New("failed to upload object")
	}

	return nil
}

// Stat returns metadata for the object, distinguishing a missing object from
// other backend failures.
func (s *objectStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.cfg.S3BucketName,
		Key:    &key,
	})

	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ObjectInfo{}, errors.New("object not found")
		}
		logx.Error(err, "Failed to stat object", "key", key)
		return ObjectInfo{}, errors.New("failed to fetch object metadata")
	}

	info := ObjectInfo{}
	if resp.ContentType != nil {
		info.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		info.ContentLength = *resp.ContentLength
	}

	return info, nil
}

// Delete removes the object with the given key.
func (s *objectStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.S3BucketName,
		Key:    &key,
	})

	if err != nil {
		logx.Error(err, "Delete failed", "key", key)
		return errors.New("failed to delete object")
	}

	return nil
}
