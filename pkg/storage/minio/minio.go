package minio

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/feichai0017/meeting-ingest/config"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
	"github.com/feichai0017/meeting-ingest/pkg/storage/object"
)

type MinioSource struct {
	client     *minio.Client
	bucketName string
	logger     logger.Logger
}

// New connects to MinIO and checks that the bucket exists. The bucket is
// never created: the source is read-only.
func New(ctx context.Context, log logger.Logger, minioConfig config.MinioConfig) (*MinioSource, error) {
	client, err := minio.New(minioConfig.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioConfig.AccessKey, minioConfig.SecretKey, ""),
		Secure: minioConfig.UseSSL,
		Region: minioConfig.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, minioConfig.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", minioConfig.BucketName)
	}

	return NewWithClient(log, client, minioConfig.BucketName), nil
}

func NewWithClient(log logger.Logger, client *minio.Client, bucketName string) *MinioSource {
	return &MinioSource{
		client:     client,
		bucketName: bucketName,
		logger:     log.Named("minio"),
	}
}

// Stat implements storage.Source.
func (m *MinioSource) Stat(ctx context.Context, key string) (object.Info, error) {
	info, err := m.client.StatObject(ctx, m.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return object.Info{}, m.wrap("stat", key, err)
	}

	return object.Info{
		Key:          key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// Get implements storage.Source.
func (m *MinioSource) Get(ctx context.Context, key string, limit int64) ([]byte, error) {
	start := time.Now()

	obj, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.wrap("get", key, err)
	}
	defer obj.Close()

	data, err := object.ReadLimited(obj, limit)
	if err != nil {
		return nil, m.wrap("get", key, err)
	}

	m.logger.Debug("Fetched object",
		logger.String("bucket", m.bucketName),
		logger.String("key", key),
		logger.Int("bytes", len(data)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

func (m *MinioSource) wrap(op, key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: minio://%s/%s", object.ErrNotFound, m.bucketName, key)
	}

	m.logger.Error("MinIO request failed",
		logger.String("op", op),
		logger.String("bucket", m.bucketName),
		logger.String("key", key),
		logger.Error(err),
	)
	return fmt.Errorf("failed to %s object: %w", op, err)
}
