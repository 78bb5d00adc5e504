package store

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/blueprinthub/gateway/internal/config"
)

// Objects fetches artifact source images from the configured bucket.
type Objects struct {
	client *minio.Client
	bucket string
}

// NewObjects returns nil when no object storage endpoint is configured;
// persisted vision jobs then fail per item with a clear error.
func NewObjects(cfg *config.Config) (*Objects, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage client: %w", err)
	}
	return &Objects{client: client, bucket: cfg.MinioBucket}, nil
}

// Fetch reads the full object for an artifact's source image.
func (o *Objects) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	if o == nil {
		return nil, "", fmt.Errorf("object storage is not configured")
	}

	obj, err := o.client.GetObject(ctx, o.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat object %s: %w", key, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read object %s: %w", key, err)
	}
	return data, stat.ContentType, nil
}
