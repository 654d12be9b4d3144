package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectAPI is the subset of the S3 client used by s3Store.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client    objectAPI
	bucket    string
	prefix    string
	publicURL string
	logger    zerolog.Logger
}

// S3Options configures NewS3Store.
type S3Options struct {
	Bucket string
	Region string
	Prefix string
	// PublicURL overrides the virtual-hosted bucket URL (e.g. a CDN origin).
	PublicURL string
}

// NewS3Store creates an S3-backed store using the default AWS credential chain.
func NewS3Store(ctx context.Context, opts S3Options, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-store").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	logger.Info().
		Str("bucket", opts.Bucket).
		Str("region", opts.Region).
		Msg("S3 store initialised")

	return newS3Store(s3.NewFromConfig(cfg), opts.Bucket, opts.Prefix, publicURL, logger), nil
}

func newS3Store(client objectAPI, bucket, prefix, publicURL string, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		publicURL: publicURL,
		logger:    logger,
	}
}

func (s *s3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	objectKey := s.prefix + key

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", objectKey).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, objectKey, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", objectKey).
		Int("bytes", len(data)).
		Msg("object stored in S3")

	return joinURL(s.publicURL, objectKey), nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	objectKey := s.prefix + key

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3 (bucket=%s, key=%s): %w", s.bucket, objectKey, err)
	}
	return nil
}
