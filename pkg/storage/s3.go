package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appconfig "github.com/richxcame/rider-client/pkg/config"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

// S3Storage stores attachments in AWS S3 or any S3 compatible store. With a
// URL expiry configured, objects stay private and GetURL hands out presigned links.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
	urlExpiry time.Duration
	logger    *zap.Logger
}

// NewS3Storage builds a client for cfg.Bucket
func NewS3Storage(ctx context.Context, cfg appconfig.StorageConfig, log *zap.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("report media bucket is not configured")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// MinIO and friends
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		baseURL:   publicBaseURL(cfg),
		urlExpiry: cfg.URLExpiry,
		logger:    logger.OrNop(log),
	}, nil
}

func publicBaseURL(cfg appconfig.StorageConfig) string {
	switch {
	case cfg.BaseURL != "":
		return strings.TrimRight(cfg.BaseURL, "/")
	case cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Upload stores one attachment
func (s *S3Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error) {
	in := &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               reader,
		ContentLength:      aws.Int64(size),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String("inline"),
	}
	if s.urlExpiry > 0 {
		in.ACL = types.ObjectCannedACLPrivate
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	s.logger.Debug("report attachment uploaded", zap.String("key", key), zap.Int64("size", size))

	url, err := s.url(ctx, key)
	if err != nil {
		return nil, err
	}
	return &UploadResult{Key: key, URL: url, Size: size, MimeType: contentType, UploadedAt: time.Now()}, nil
}

// Delete removes an attachment
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// GetURL returns a link for key; presigned when the bucket is private.
func (s *S3Storage) GetURL(key string) string {
	url, err := s.url(context.Background(), key)
	if err != nil {
		s.logger.Warn("failed to presign attachment url", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

func (s *S3Storage) url(ctx context.Context, key string) (string, error) {
	if s.urlExpiry <= 0 {
		return fmt.Sprintf("%s/%s", s.baseURL, key), nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}
