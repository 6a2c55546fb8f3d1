package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/activity"
	"github.com/prn-tf/faculty-files/internal/auth"
	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/holding"
	"github.com/prn-tf/faculty-files/internal/lock"
)

// holdingLockTTL outlives any single upload, store timeouts included.
const holdingLockTTL = 5 * time.Minute

// HoldingStore is the part of the holding area uploads read from.
type HoldingStore interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Remove(ctx context.Context, name string) error
}

// ActivityBinder records completed operations in the background.
type ActivityBinder interface {
	Bind(op activity.Operation) bool
}

// Actor is everything known about the caller of a request.
type Actor struct {
	// Identity is the session identity resolved by the HTTP layer, if any.
	Identity *auth.Identity

	// SessionToken is the raw token, resolved later when Identity is nil.
	SessionToken string

	// UserID is the userId from the request body.
	UserID *int64
}

// UploadRequest is an upload from either inline base64 or the holding area.
type UploadRequest struct {
	// FileBase64 is the file content, optionally as a data URI.
	FileBase64 string

	// FileName names a file previously placed in the holding area.
	FileName string

	// Pattern selects and fills the naming pattern.
	Pattern domain.PatternFields

	// ContentType overrides the type inferred from the extension.
	ContentType string

	Actor Actor
}

// DeleteRequest removes one object.
type DeleteRequest struct {
	VirtualPath string
	Actor       Actor
}

// UploadService adapts inbound requests to StorageService and records
// activity for successful uploads and deletes.
type UploadService struct {
	storage *StorageService
	holding HoldingStore
	locker  lock.Locker
	binder  ActivityBinder
	logger  zerolog.Logger
}

// NewUploadService creates a new UploadService. holding, locker and binder may be nil.
func NewUploadService(storage *StorageService, holding HoldingStore, locker lock.Locker, binder ActivityBinder, logger zerolog.Logger) *UploadService {
	return &UploadService{
		storage: storage,
		holding: holding,
		locker:  locker,
		binder:  binder,
		logger:  logger.With().Str("service", "upload").Logger(),
	}
}

// Upload stores the request's file under the virtual path of its pattern.
// Once the request names exactly one source, a holding file is claimed and
// released whatever the outcome; a file claimed by another upload is left alone.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) UploadResult {
	hasBase64 := strings.TrimSpace(req.FileBase64) != ""
	hasFileName := strings.TrimSpace(req.FileName) != ""

	// A malformed request never touches the holding area.
	switch {
	case !hasBase64 && !hasFileName:
		return UploadResult{Message: ErrNoFileSource.Error()}
	case hasBase64 && hasFileName:
		return UploadResult{Message: ErrAmbiguousFileSource.Error()}
	}

	if hasFileName {
		if !s.claim(ctx, req.FileName) {
			return UploadResult{Message: "Holding file is busy: " + req.FileName}
		}
		defer s.release(req.FileName)
	}

	if !s.storage.IsConfigured() {
		return UploadResult{Message: MsgNotConfigured}
	}

	pattern, err := domain.BuildPattern(req.Pattern)
	if err != nil {
		return UploadResult{Message: fmt.Sprintf("Invalid file pattern: %v", err)}
	}

	var data []byte
	if hasBase64 {
		data, err = decodeBase64(req.FileBase64)
	} else {
		data, err = s.readHolding(ctx, req.FileName)
	}
	if err != nil {
		return UploadResult{Message: uploadSourceMessage(err, req.FileName)}
	}
	if len(data) == 0 {
		return UploadResult{Message: ErrEmptyFile.Error()}
	}

	result := s.storage.Upload(ctx, data, pattern, req.ContentType)
	if result.Success {
		s.bind(domain.ActionUpload, result.VirtualPath, req.Actor)
	}
	return result
}

// Delete removes the object and records the delete.
func (s *UploadService) Delete(ctx context.Context, req DeleteRequest) DeleteResult {
	result := s.storage.Delete(ctx, req.VirtualPath)
	if result.Success {
		s.bind(domain.ActionDelete, req.VirtualPath, req.Actor)
	}
	return result
}

func (s *UploadService) bind(action domain.ActivityAction, virtualPath string, actor Actor) {
	if s.binder == nil {
		return
	}
	s.binder.Bind(activity.Operation{
		Action:       action,
		VirtualPath:  virtualPath,
		Identity:     actor.Identity,
		SessionToken: actor.SessionToken,
		UserID:       actor.UserID,
	})
}

func (s *UploadService) readHolding(ctx context.Context, name string) ([]byte, error) {
	if s.holding == nil {
		return nil, ErrHoldingUnavailable
	}
	return s.holding.Read(ctx, name)
}

// claim takes the per-file lock so only one upload consumes a holding file.
func (s *UploadService) claim(ctx context.Context, name string) bool {
	if s.locker == nil {
		return true
	}
	acquired, err := s.locker.Acquire(ctx, lock.Keys.HoldingFile(name), holdingLockTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("file_name", name).Msg("failed to lock holding file")
		return false
	}
	if !acquired {
		s.logger.Info().Err(ErrHoldingBusy).Str("file_name", name).Msg("holding file claimed by another upload")
	}
	return acquired
}

// release removes a holding file and drops its lock. It runs on a fresh
// context so that a cancelled request still cleans up.
func (s *UploadService) release(name string) {
	ctx := context.Background()
	if s.holding != nil {
		if err := s.holding.Remove(ctx, name); err != nil {
			s.logger.Warn().Err(err).Str("file_name", name).Msg("failed to release holding file")
		}
	}
	if s.locker != nil {
		if _, err := s.locker.Release(ctx, lock.Keys.HoldingFile(name)); err != nil {
			s.logger.Warn().Err(err).Str("file_name", name).Msg("failed to unlock holding file")
		}
	}
}

// decodeBase64 accepts plain base64 or a "data:<mime>;base64," URI.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 || !strings.HasSuffix(s[:idx], ";base64") {
			return nil, ErrInvalidBase64
		}
		s = s[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return data, nil
}

func uploadSourceMessage(err error, fileName string) string {
	switch {
	case errors.Is(err, holding.ErrNotFound), errors.Is(err, holding.ErrInvalidName):
		return "Holding file not found: " + fileName
	case errors.Is(err, ErrInvalidBase64):
		return ErrInvalidBase64.Error()
	case errors.Is(err, ErrHoldingUnavailable):
		return ErrHoldingUnavailable.Error()
	default:
		return "Failed to read holding file"
	}
}
