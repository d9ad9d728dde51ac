package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"raisevoice/internal/config"
)

// MaxImageSize caps a single uploaded photo at 5 MB.
const MaxImageSize = 5 << 20

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ErrUnsupportedType is returned for uploads that are not jpeg, png or webp.
var ErrUnsupportedType = fmt.Errorf("unsupported image type")

// ErrImageTooLarge is returned for uploads over MaxImageSize.
var ErrImageTooLarge = fmt.Errorf("image exceeds maximum size")

// S3Store hosts issue photos in an S3-compatible bucket.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store builds an S3 client from static credentials; a non-empty Endpoint
// points it at an S3-compatible host such as MinIO.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(cfg.Region),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload stores one photo and returns its public URL and object key.
func (s *S3Store) Upload(ctx context.Context, data []byte, contentType string) (url, key string, err error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	if len(data) > MaxImageSize {
		return "", "", ErrImageTooLarge
	}

	now := time.Now().UTC()
	key = fmt.Sprintf("issues/%04d/%02d/%02d/%s%s",
		now.Year(), now.Month(), now.Day(), uuid.New().String(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.publicBaseURL + "/" + key, key, nil
}

// Delete removes one hosted object.
func (s *S3Store) Delete(ctx context.Context, objectKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// KeyFromURL maps a public image URL back to its object key, or "" when the
// URL does not point into this store.
func (s *S3Store) KeyFromURL(url string) string {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
