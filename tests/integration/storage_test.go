// Package integration provides end-to-end tests for Faculty Files against a
// live S3-compatible endpoint (AWS or MinIO).
package integration

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/metrics"
	"github.com/prn-tf/faculty-files/internal/service"
	"github.com/prn-tf/faculty-files/internal/storage/s3store"
)

// getTestConfig reads the S3 settings for integration tests.
// Tests are skipped unless FACULTY_IT_S3_BUCKET is set.
func getTestConfig(t *testing.T) config.S3Config {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	bucket := os.Getenv("FACULTY_IT_S3_BUCKET")
	if bucket == "" {
		t.Skip("FACULTY_IT_S3_BUCKET not set")
	}

	return config.S3Config{
		Region:           getEnv("FACULTY_IT_S3_REGION", "us-east-1"),
		AccessKeyID:      getEnv("FACULTY_IT_S3_ACCESS_KEY_ID", "minioadmin"),
		SecretAccessKey:  getEnv("FACULTY_IT_S3_SECRET_ACCESS_KEY", "minioadmin"),
		Bucket:           bucket,
		Endpoint:         os.Getenv("FACULTY_IT_S3_ENDPOINT"),
		UsePathStyle:     os.Getenv("FACULTY_IT_S3_ENDPOINT") != "",
		SignedURLExpiry:  300,
		OperationTimeout: 30 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newS3Client creates a raw client used to seed and clean up folders.
func newS3Client(t *testing.T, cfg config.S3Config) *s3.Client {
	t.Helper()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	require.NoError(t, err)

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
}

// seedFolder creates a placeholder so the folder passes the existence check.
func seedFolder(t *testing.T, client *s3.Client, bucket, folder string) {
	t.Helper()
	ctx := context.Background()

	key := "upload/" + folder + "/.keep"
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(""),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	})
}

func newStorageService(t *testing.T, cfg config.S3Config) *service.StorageService {
	t.Helper()

	store, err := s3store.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	return service.NewStorageService(store, cfg.DefaultExpiry(), metrics.New(), zerolog.Nop())
}

// TestStorageRoundTrip uploads, probes, signs, downloads and deletes a file.
func TestStorageRoundTrip(t *testing.T) {
	cfg := getTestConfig(t)
	client := newS3Client(t, cfg)
	svc := newStorageService(t, cfg)
	ctx := context.Background()

	folder := "it_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	seedFolder(t, client, cfg.Bucket, folder)

	pattern, err := domain.BuildPattern(domain.PatternFields{
		PatternType:   int(domain.PatternUserRecord),
		UserID:        1,
		RecordID:      69603,
		FolderName:    folder,
		FileExtension: "pdf",
	})
	require.NoError(t, err)

	payload := []byte("faculty integration payload")
	var virtualPath string

	t.Run("Upload", func(t *testing.T) {
		result := svc.Upload(ctx, payload, pattern, "")
		require.True(t, result.Success, result.Message)
		require.Equal(t, "upload/"+folder+"/1_69603.pdf", result.VirtualPath)
		virtualPath = result.VirtualPath
	})

	t.Run("CheckExists", func(t *testing.T) {
		require.True(t, svc.CheckFolderExists(ctx, folder).Exists)
		require.True(t, svc.CheckObjectExists(ctx, virtualPath).Exists)
	})

	t.Run("Download", func(t *testing.T) {
		result := svc.Download(ctx, virtualPath)
		require.True(t, result.Success, result.Message)
		require.Equal(t, payload, result.Data)
		require.Equal(t, "application/pdf", result.ContentType)
	})

	t.Run("SignedURL", func(t *testing.T) {
		result := svc.SignedURL(ctx, virtualPath, time.Minute)
		require.True(t, result.Success, result.Message)

		resp, err := http.Get(result.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, payload, body)
	})

	t.Run("Delete", func(t *testing.T) {
		result := svc.Delete(ctx, virtualPath)
		require.True(t, result.Success, result.Message)
		require.False(t, svc.CheckObjectExists(ctx, virtualPath).Exists)
	})

	t.Run("Download_NotFound", func(t *testing.T) {
		result := svc.Download(ctx, virtualPath)
		require.False(t, result.Success)
	})
}

// TestUploadMissingFolder checks that uploads never create folders.
func TestUploadMissingFolder(t *testing.T) {
	cfg := getTestConfig(t)
	svc := newStorageService(t, cfg)

	pattern, err := domain.BuildPattern(domain.PatternFields{
		PatternType:   int(domain.PatternRecord),
		RecordID:      42,
		FolderName:    "it_missing_" + strconv.FormatInt(time.Now().UnixNano(), 36),
		FileExtension: "pdf",
	})
	require.NoError(t, err)

	result := svc.Upload(context.Background(), []byte("x"), pattern, "")
	require.False(t, result.Success)
}
