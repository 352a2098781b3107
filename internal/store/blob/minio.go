package blob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"dubber/internal/models"
	"dubber/internal/store"
)

var _ store.BlobStore = (*MinioStore)(nil)

// MinioConfig holds connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinioStore writes uploads to a single bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	now    func() time.Time

	bucketMu sync.Mutex
	bucketOK bool
}

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("storage endpoint cannot be empty")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket cannot be empty")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

// ensureBucket creates the bucket on first use. A failure is retried on the
// next call.
func (m *MinioStore) ensureBucket(ctx context.Context) error {
	m.bucketMu.Lock()
	defer m.bucketMu.Unlock()
	if m.bucketOK {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", m.bucket, err)
		}
		log.WithField("bucket", m.bucket).Info("Created storage bucket")
	}
	m.bucketOK = true
	return nil
}

// Store uploads obj and returns its object key.
func (m *MinioStore) Store(ctx context.Context, obj store.BlobObject) (string, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return "", models.DependencyError(models.CodeUploadError, "blob store", err)
	}
	key := newObjectKey(obj.Name, m.now())
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := obj.Size
	if size <= 0 {
		size = -1
	}
	if _, err := m.client.PutObject(ctx, m.bucket, key, obj.Body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", models.DependencyError(models.CodeUploadError, "blob store", fmt.Errorf("put %s: %w", key, err))
	}
	log.WithFields(log.Fields{"bucket": m.bucket, "key": key, "size": obj.Size}).Info("Stored upload")
	return key, nil
}

// PresignedURL returns a time-limited GET URL for key.
func (m *MinioStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ttl, nil)
	if err != nil {
		return "", models.DependencyError(models.CodeDownloadError, "blob store", fmt.Errorf("presign %s: %w", key, err))
	}
	return u.String(), nil
}

// Ping checks that the bucket is reachable.
func (m *MinioStore) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}
