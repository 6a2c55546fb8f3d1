// Package s3store implements storage.ObjectStore on AWS S3 (or any
// S3-compatible endpoint) using aws-sdk-go-v2.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithy "github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/storage"
)

const defaultOpTimeout = 30 * time.Second

// API is the subset of *s3.Client used by Store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Presigner is the subset of *s3.PresignClient used by Store.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store implements storage.ObjectStore backed by a single bucket.
type Store struct {
	client    API
	presigner Presigner
	bucket    string
	timeout   time.Duration
	logger    zerolog.Logger
}

// New builds the long-lived S3 client from configuration.
// The returned Store is shared by all requests for the process lifetime.
func New(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) (*Store, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("s3: region, credentials and bucket are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info().
		Str("region", cfg.Region).
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Msg("S3 client initialized")

	return NewWithClient(client, s3.NewPresignClient(client), cfg.Bucket, cfg.OperationTimeout, logger), nil
}

// NewWithClient wires a Store around an existing client.
func NewWithClient(client API, presigner Presigner, bucket string, timeout time.Duration, logger zerolog.Logger) *Store {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &Store{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		timeout:   timeout,
		logger:    logger.With().Str("component", "s3store").Logger(),
	}
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// PutObject implements storage.ObjectStore.
func (s *Store) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3: put object %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("size", len(data)).Msg("object stored")
	return nil
}

// GetObject implements storage.ObjectStore.
func (s *Store) GetObject(ctx context.Context, key string) (*storage.Object, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("s3: get object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: read object %s: %w", key, err)
	}

	return &storage.Object{
		Data:        data,
		ContentType: aws.ToString(resp.ContentType),
		Size:        int64(len(data)),
	}, nil
}

// DeleteObject implements storage.ObjectStore.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: delete object %s: %w", key, err)
	}
	return nil
}

// HeadObject implements storage.ObjectStore.
func (s *Store) HeadObject(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return storage.ErrObjectNotFound
		}
		return fmt.Errorf("s3: head object %s: %w", key, err)
	}
	return nil
}

// PrefixExists implements storage.ObjectStore.
func (s *Store) PrefixExists(ctx context.Context, prefix string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("s3: list %s: %w", prefix, err)
	}

	return aws.ToInt32(resp.KeyCount) > 0 || len(resp.Contents) > 0, nil
}

// PresignGet implements storage.ObjectStore.
func (s *Store) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3: presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= s.timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// isNotFound separates "the key does not exist" from permission, network and
// other store failures.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	if status, ok := httpStatusCode(err); ok {
		return status == http.StatusNotFound
	}
	return false
}

func httpStatusCode(err error) (int, bool) {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode(), true
	}
	return 0, false
}

// Ensure Store implements storage.ObjectStore.
var _ storage.ObjectStore = (*Store)(nil)
