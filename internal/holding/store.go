// Package holding implements the temporary area that receives client-side
// uploads before they are transferred to the object store.
//
// Files are named by the server; clients only ever see and send back those
// names. Anything not released after a transfer is removed by the Janitor.
package holding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

var (
	// ErrInvalidName indicates a holding file name that the store did not issue.
	ErrInvalidName = errors.New("invalid holding file name")

	// ErrNotFound indicates the holding file does not exist.
	ErrNotFound = errors.New("holding file not found")

	// ErrTooLarge indicates the file exceeds the configured size limit.
	ErrTooLarge = errors.New("holding file too large")

	// ErrEmpty indicates a zero-byte upload.
	ErrEmpty = errors.New("holding file is empty")
)

var (
	namePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[A-Za-z0-9]{1,8})?$`)
	extPattern  = regexp.MustCompile(`^\.[A-Za-z0-9]{1,8}$`)
)

// Store keeps holding files in a single flat directory of an afero.Fs.
type Store struct {
	fs      afero.Fs
	dir     string
	maxSize int64
	now     func() time.Time
	logger  zerolog.Logger
}

// NewStore creates the holding directory if needed.
func NewStore(fs afero.Fs, dir string, maxSize int64, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("holding directory is required")
	}
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create holding directory: %w", err)
	}

	return &Store{
		fs:      fs,
		dir:     dir,
		maxSize: maxSize,
		now:     time.Now,
		logger:  logger.With().Str("service", "holding").Logger(),
	}, nil
}

// ValidateName reports whether name could have been issued by Put.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Put writes r to a new holding file and returns its name. The extension of
// originalName is kept when it is safe.
func (s *Store) Put(ctx context.Context, r io.Reader, originalName string) (string, error) {
	name := uuid.NewString()
	if ext := filepath.Ext(originalName); extPattern.MatchString(ext) {
		name += strings.ToLower(ext)
	}

	f, err := s.fs.OpenFile(s.path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create holding file: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("failed to write holding file: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("failed to close holding file: %w", closeErr)
	case s.maxSize > 0 && n > s.maxSize:
		err = fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxSize)
	case n == 0:
		err = ErrEmpty
	}
	if err != nil {
		_ = s.fs.Remove(s.path(name))
		return "", err
	}

	s.logger.Debug().Str("name", name).Int64("size", n).Msg("holding file stored")
	return name, nil
}

// Read returns the content of a holding file.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read holding file: %w", err)
	}
	return data, nil
}

// Remove deletes a holding file. A missing file is not an error.
func (s *Store) Remove(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if err := s.fs.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove holding file: %w", err)
	}
	return nil
}

// Sweep removes holding files older than maxAge and returns how many were
// removed and how many remain. Entries the store did not issue are left alone.
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) (removed, remaining int, err error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list holding directory: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, remaining, ctx.Err()
		}
		if entry.IsDir() || ValidateName(entry.Name()) != nil {
			continue
		}
		if entry.ModTime().After(cutoff) {
			remaining++
			continue
		}
		if err := s.fs.Remove(s.path(entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("name", entry.Name()).Msg("failed to remove abandoned holding file")
			remaining++
			continue
		}
		removed++
	}

	return removed, remaining, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}
