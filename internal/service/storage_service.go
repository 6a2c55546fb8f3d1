// Package service provides business logic services for Faculty Files.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/metrics"
	"github.com/prn-tf/faculty-files/internal/storage"
)

// Storage operation names used in logs and metrics.
const (
	OpUpload       = "upload"
	OpDownload     = "download"
	OpDelete       = "delete"
	OpSignedURL    = "signed_url"
	OpFolderExists = "folder_exists"
	OpObjectExists = "object_exists"
)

const (
	// DefaultSignedURLExpiry is used when neither the caller nor the
	// configuration gives a lifetime.
	DefaultSignedURLExpiry = time.Hour

	// MaxSignedURLExpiry is the longest lifetime S3 accepts for SigV4 URLs.
	MaxSignedURLExpiry = 7 * 24 * time.Hour
)

// Result messages.
const (
	MsgNotConfigured  = "S3 is not configured. Set region, access key, secret key and bucket name."
	MsgObjectNotFound = "Object not found in S3"
	MsgUploaded       = "File uploaded successfully"
	MsgDownloaded     = "File downloaded successfully"
	MsgDeleted        = "File deleted successfully"
	MsgSigned         = "Signed URL generated successfully"
	MsgFolderExists   = "Folder exists"
	MsgObjectExists   = "Object exists"
)

// StorageService performs validated, fail-soft operations on the object
// store. No method returns an error; every outcome is carried in the result.
type StorageService struct {
	store         storage.ObjectStore
	defaultExpiry time.Duration
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

// NewStorageService creates a new StorageService.
// A nil store means S3 is not configured and every operation short-circuits.
func NewStorageService(
	store storage.ObjectStore,
	defaultExpiry time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *StorageService {
	if defaultExpiry <= 0 {
		defaultExpiry = DefaultSignedURLExpiry
	}
	return &StorageService{
		store:         store,
		defaultExpiry: defaultExpiry,
		metrics:       m,
		logger:        logger.With().Str("service", "storage").Logger(),
		now:           time.Now,
	}
}

// =============================================================================
// Result Structs
// =============================================================================

// UploadResult is the outcome of an upload.
type UploadResult struct {
	Success     bool   `json:"success"`
	VirtualPath string `json:"virtualPath,omitempty"`
	Message     string `json:"message"`
}

// DownloadResult is the outcome of a download.
type DownloadResult struct {
	Success     bool   `json:"success"`
	Data        []byte `json:"-"`
	ContentType string `json:"contentType,omitempty"`
	Message     string `json:"message"`
}

// DeleteResult is the outcome of a delete.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SignedURLResult is the outcome of a signed URL request.
type SignedURLResult struct {
	Success   bool       `json:"success"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Message   string     `json:"message"`
}

// ExistsResult is the outcome of an existence probe.
type ExistsResult struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message"`
}

// IsConfigured reports whether an object store is available.
func (s *StorageService) IsConfigured() bool {
	return s.store != nil
}

// DefaultExpiry returns the signed URL lifetime used when the caller gives none.
func (s *StorageService) DefaultExpiry() time.Duration {
	return s.defaultExpiry
}

// =============================================================================
// Operations
// =============================================================================

// Upload stores data under the virtual path generated from pattern.
// An empty contentType is inferred from the extension.
func (s *StorageService) Upload(ctx context.Context, data []byte, pattern domain.FilePattern, contentType string) UploadResult {
	start := time.Now()

	if !s.IsConfigured() {
		s.observe(OpUpload, metrics.OutcomeDisabled, start)
		return UploadResult{Message: MsgNotConfigured}
	}

	virtualPath, err := storage.GenerateVirtualPath(pattern)
	if err != nil {
		s.observe(OpUpload, metrics.OutcomeInvalid, start)
		return UploadResult{Message: fmt.Sprintf("Invalid file pattern: %v", err)}
	}

	logger := s.logger.With().Str("virtual_path", virtualPath).Logger()

	if !storage.ValidateVirtualPath(virtualPath) {
		s.observe(OpUpload, metrics.OutcomeInvalid, start)
		return UploadResult{VirtualPath: virtualPath, Message: invalidPathMessage(virtualPath)}
	}

	if ok, msg, outcome := s.requireFolder(ctx, virtualPath); !ok {
		s.observe(OpUpload, outcome, start)
		return UploadResult{Message: msg}
	}

	if contentType == "" {
		contentType = storage.ContentTypeFor(virtualPath)
	}

	if err := s.store.PutObject(ctx, virtualPath, data, contentType); err != nil {
		logger.Error().Err(err).Msg("Failed to upload file to S3")
		s.observe(OpUpload, metrics.OutcomeError, start)
		return UploadResult{Message: "Failed to upload file to S3"}
	}

	s.metrics.RecordBytes("in", len(data))
	s.observe(OpUpload, metrics.OutcomeSuccess, start)

	logger.Info().
		Int("size", len(data)).
		Str("content_type", contentType).
		Msg("File uploaded")

	return UploadResult{Success: true, VirtualPath: virtualPath, Message: MsgUploaded}
}

// Download reads the whole object at virtualPath.
func (s *StorageService) Download(ctx context.Context, virtualPath string) DownloadResult {
	start := time.Now()

	if !s.IsConfigured() {
		s.observe(OpDownload, metrics.OutcomeDisabled, start)
		return DownloadResult{Message: MsgNotConfigured}
	}
	if !storage.ValidateVirtualPath(virtualPath) {
		s.observe(OpDownload, metrics.OutcomeInvalid, start)
		return DownloadResult{Message: invalidPathMessage(virtualPath)}
	}
	if ok, msg, outcome := s.requireFolder(ctx, virtualPath); !ok {
		s.observe(OpDownload, outcome, start)
		return DownloadResult{Message: msg}
	}

	obj, err := s.store.GetObject(ctx, virtualPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.observe(OpDownload, metrics.OutcomeNotFound, start)
			return DownloadResult{Message: MsgObjectNotFound}
		}
		s.logger.Error().Err(err).Str("virtual_path", virtualPath).Msg("Failed to download file from S3")
		s.observe(OpDownload, metrics.OutcomeError, start)
		return DownloadResult{Message: "Failed to download file from S3"}
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeFor(virtualPath)
	}

	s.metrics.RecordBytes("out", len(obj.Data))
	s.observe(OpDownload, metrics.OutcomeSuccess, start)

	return DownloadResult{
		Success:     true,
		Data:        obj.Data,
		ContentType: contentType,
		Message:     MsgDownloaded,
	}
}

// Delete removes the object at virtualPath. The folder must exist; the
// object need not, since store deletes are idempotent.
func (s *StorageService) Delete(ctx context.Context, virtualPath string) DeleteResult {
	start := time.Now()

	if !s.IsConfigured() {
		s.observe(OpDelete, metrics.OutcomeDisabled, start)
		return DeleteResult{Message: MsgNotConfigured}
	}
	if !storage.ValidateVirtualPath(virtualPath) {
		s.observe(OpDelete, metrics.OutcomeInvalid, start)
		return DeleteResult{Message: invalidPathMessage(virtualPath)}
	}
	if ok, msg, outcome := s.requireFolder(ctx, virtualPath); !ok {
		s.observe(OpDelete, outcome, start)
		return DeleteResult{Message: msg}
	}

	if err := s.store.DeleteObject(ctx, virtualPath); err != nil {
		s.logger.Error().Err(err).Str("virtual_path", virtualPath).Msg("Failed to delete file from S3")
		s.observe(OpDelete, metrics.OutcomeError, start)
		return DeleteResult{Message: "Failed to delete file from S3"}
	}

	s.observe(OpDelete, metrics.OutcomeSuccess, start)
	s.logger.Info().Str("virtual_path", virtualPath).Msg("File deleted")

	return DeleteResult{Success: true, Message: MsgDeleted}
}

// SignedURL issues a time-limited download URL for an existing object.
// expiresIn <= 0 selects the configured default.
func (s *StorageService) SignedURL(ctx context.Context, virtualPath string, expiresIn time.Duration) SignedURLResult {
	start := time.Now()

	if !s.IsConfigured() {
		s.observe(OpSignedURL, metrics.OutcomeDisabled, start)
		return SignedURLResult{Message: MsgNotConfigured}
	}
	if expiresIn <= 0 {
		expiresIn = s.defaultExpiry
	}
	if expiresIn > MaxSignedURLExpiry {
		s.observe(OpSignedURL, metrics.OutcomeInvalid, start)
		return SignedURLResult{Message: "expiresIn must not exceed 7 days"}
	}
	if !storage.ValidateVirtualPath(virtualPath) {
		s.observe(OpSignedURL, metrics.OutcomeInvalid, start)
		return SignedURLResult{Message: invalidPathMessage(virtualPath)}
	}
	if ok, msg, outcome := s.requireFolder(ctx, virtualPath); !ok {
		s.observe(OpSignedURL, outcome, start)
		return SignedURLResult{Message: msg}
	}

	// Never sign a URL for an object that is not there.
	if err := s.store.HeadObject(ctx, virtualPath); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.observe(OpSignedURL, metrics.OutcomeNotFound, start)
			return SignedURLResult{Message: MsgObjectNotFound}
		}
		s.logger.Error().Err(err).Str("virtual_path", virtualPath).Msg("Failed to check object in S3")
		s.observe(OpSignedURL, metrics.OutcomeError, start)
		return SignedURLResult{Message: "Failed to check object in S3"}
	}

	issuedAt := s.now()
	url, err := s.store.PresignGet(ctx, virtualPath, expiresIn)
	if err != nil {
		s.logger.Error().Err(err).Str("virtual_path", virtualPath).Msg("Failed to generate signed URL")
		s.observe(OpSignedURL, metrics.OutcomeError, start)
		return SignedURLResult{Message: "Failed to generate signed URL"}
	}

	expiresAt := issuedAt.Add(expiresIn).UTC()
	s.observe(OpSignedURL, metrics.OutcomeSuccess, start)

	return SignedURLResult{
		Success:   true,
		URL:       url,
		ExpiresAt: &expiresAt,
		Message:   MsgSigned,
	}
}

// CheckFolderExists reports whether at least one object lives under folder.
// folder may be a bare name ("dept_events") or a prefix ("upload/dept_events/").
func (s *StorageService) CheckFolderExists(ctx context.Context, folder string) ExistsResult {
	start := time.Now()

	if !s.IsConfigured() {
		s.observe(OpFolderExists, metrics.OutcomeDisabled, start)
		return ExistsResult{Message: MsgNotConfigured}
	}

	prefix, err := storage.NormalizeFolder(folder)
	if err != nil {
		s.observe(OpFolderExists, metrics.OutcomeInvalid, start)
		return ExistsResult{Message: fmt.Sprintf("Invalid folder: %s", folder)}
	}

	exists, err := s.store.PrefixExists(ctx, prefix)
	if err != nil {
		s.logger.Error().Err(err).Str("prefix", prefix).Msg("Failed to check folder in S3")
		s.observe(OpFolderExists, metrics.OutcomeError, start)
		return ExistsResult{Message: "Failed to check folder in S3"}
	}

	if !exists {
		s.observe(OpFolderExists, metrics.OutcomeFolderMissing, start)
		return ExistsResult{Message: folderMissingMessage(prefix)}
	}

	s.observe(OpFolderExists, metrics.OutcomeSuccess, start)
	return ExistsResult{Exists: true, Message: MsgFolderExists}
}

// CheckObjectExists reports whether the object at virtualPath exists.
// It does not check the folder first.
func (s *StorageService) CheckObjectExists(ctx context.Context, virtualPath string) ExistsResult {
	start := time.Now()

	if !s.IsConfigured() {
		s.observe(OpObjectExists, metrics.OutcomeDisabled, start)
		return ExistsResult{Message: MsgNotConfigured}
	}
	if !storage.ValidateVirtualPath(virtualPath) {
		s.observe(OpObjectExists, metrics.OutcomeInvalid, start)
		return ExistsResult{Message: invalidPathMessage(virtualPath)}
	}

	if err := s.store.HeadObject(ctx, virtualPath); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.observe(OpObjectExists, metrics.OutcomeNotFound, start)
			return ExistsResult{Message: MsgObjectNotFound}
		}
		s.logger.Error().Err(err).Str("virtual_path", virtualPath).Msg("Failed to check object in S3")
		s.observe(OpObjectExists, metrics.OutcomeError, start)
		return ExistsResult{Message: "Failed to check object in S3"}
	}

	s.observe(OpObjectExists, metrics.OutcomeSuccess, start)
	return ExistsResult{Exists: true, Message: MsgObjectExists}
}

// =============================================================================
// Helpers
// =============================================================================

// requireFolder runs the folder precondition for a validated virtual path.
// It returns the failure message and metrics outcome when the check fails.
func (s *StorageService) requireFolder(ctx context.Context, virtualPath string) (bool, string, string) {
	prefix := storage.FolderPrefix(virtualPath)

	exists, err := s.store.PrefixExists(ctx, prefix)
	if err != nil {
		s.logger.Error().Err(err).Str("prefix", prefix).Msg("Failed to check folder in S3")
		return false, "Failed to check folder in S3", metrics.OutcomeError
	}
	if !exists {
		s.logger.Warn().Str("prefix", prefix).Msg("Folder does not exist in S3")
		return false, folderMissingMessage(prefix), metrics.OutcomeFolderMissing
	}
	return true, "", ""
}

func (s *StorageService) observe(op, outcome string, start time.Time) {
	s.metrics.RecordStorageOperation(op, outcome, time.Since(start))
}

func invalidPathMessage(virtualPath string) string {
	return "Invalid virtual path: " + virtualPath
}

func folderMissingMessage(prefix string) string {
	return "Folder does not exist in S3: " + prefix
}
