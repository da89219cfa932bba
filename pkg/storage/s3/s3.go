package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/feichai0017/meeting-ingest/config"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
	"github.com/feichai0017/meeting-ingest/pkg/storage/object"
)

// API is the subset of the S3 client the source uses.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Source struct {
	client     API
	bucketName string
	logger     logger.Logger
}

// New connects to the configured bucket and verifies it exists.
func New(ctx context.Context, log logger.Logger, s3Config config.S3Config) (*S3Source, error) {
	log.Info("S3 Configuration",
		logger.String("bucket", s3Config.BucketName),
		logger.String("region", s3Config.Region),
		logger.String("endpoint", s3Config.Endpoint),
	)

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3Config.Region),
	}
	if s3Config.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s3Config.AccessKey,
			s3Config.SecretKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3Config.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3Config.Endpoint)
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s3Config.BucketName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify bucket existence: %w", err)
	}

	return NewWithClient(log, client, s3Config.BucketName), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(log logger.Logger, client API, bucketName string) *S3Source {
	return &S3Source{
		client:     client,
		bucketName: bucketName,
		logger:     log.Named("s3"),
	}
}

func (s *S3Source) Stat(ctx context.Context, key string) (object.Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return object.Info{}, s.wrap("stat", key, err)
	}

	return object.Info{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3Source) Get(ctx context.Context, key string, limit int64) ([]byte, error) {
	start := time.Now()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap("get", key, err)
	}
	defer out.Body.Close()

	data, err := object.ReadLimited(out.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}

	s.logger.Debug("Fetched object",
		logger.String("bucket", s.bucketName),
		logger.String("key", key),
		logger.Int("bytes", len(data)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

func (s *S3Source) wrap(op, key string, err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: s3://%s/%s", object.ErrNotFound, s.bucketName, key)
	}

	s.logger.Error("S3 request failed",
		logger.String("op", op),
		logger.String("bucket", s.bucketName),
		logger.String("key", key),
		logger.Error(err),
	)
	return fmt.Errorf("failed to %s object: %w", op, err)
}
