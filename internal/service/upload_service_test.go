package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/faculty-files/internal/activity"
	"github.com/prn-tf/faculty-files/internal/auth"
	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/holding"
	"github.com/prn-tf/faculty-files/internal/lock"
)

// =============================================================================
// Mocks
// =============================================================================

type mockHoldingStore struct {
	mock.Mock
}

func (m *mockHoldingStore) Read(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockHoldingStore) Remove(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

type mockBinder struct {
	mock.Mock
}

func (m *mockBinder) Bind(op activity.Operation) bool {
	args := m.Called(op)
	return args.Bool(0)
}

func newTestUploadService() (*UploadService, *mockObjectStore, *mockHoldingStore, *mockBinder) {
	storageSvc, store, _ := newTestStorageService()
	hold := new(mockHoldingStore)
	binder := new(mockBinder)
	return NewUploadService(storageSvc, hold, lock.NewMemoryLocker(), binder, zerolog.Nop()), store, hold, binder
}

func pattern1Fields() domain.PatternFields {
	return domain.PatternFields{
		PatternType:   1,
		UserID:        1,
		RecordID:      69603,
		FolderName:    "research_papers",
		FileExtension: "pdf",
	}
}

// =============================================================================
// Test Cases
// =============================================================================

func TestUploadService_Base64(t *testing.T) {
	svc, store, hold, binder := newTestUploadService()
	ctx := context.Background()
	content := []byte("%PDF-1.7 body")
	userID := int64(1)

	store.On("PrefixExists", mock.Anything, "upload/research_papers/").Return(true, nil)
	store.On("PutObject", mock.Anything, "upload/research_papers/1_69603.pdf", content, "application/pdf").Return(nil)
	binder.On("Bind", activity.Operation{
		Action:      domain.ActionUpload,
		VirtualPath: "upload/research_papers/1_69603.pdf",
		UserID:      &userID,
	}).Return(true)

	result := svc.Upload(ctx, UploadRequest{
		FileBase64: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(content),
		Pattern:    pattern1Fields(),
		Actor:      Actor{UserID: &userID},
	})

	require.True(t, result.Success, result.Message)
	require.Equal(t, "upload/research_papers/1_69603.pdf", result.VirtualPath)
	store.AssertExpectations(t)
	binder.AssertExpectations(t)
	hold.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestUploadService_HoldingFile(t *testing.T) {
	svc, store, hold, binder := newTestUploadService()
	ctx := context.Background()
	content := []byte{0xff, 0xd8, 0xff}
	name := "0b3c1a52-7a2f-4b8e-9c1d-2e3f4a5b6c7d.jpg"
	identity := &auth.Identity{UserID: 9, UserType: "faculty"}

	hold.On("Read", mock.Anything, name).Return(content, nil)
	hold.On("Remove", mock.Anything, name).Return(nil).Once()
	store.On("PrefixExists", mock.Anything, "upload/dept_events/").Return(true, nil)
	store.On("PutObject", mock.Anything, "upload/dept_events/42.jpg", content, "image/jpeg").Return(nil)
	binder.On("Bind", mock.MatchedBy(func(op activity.Operation) bool {
		return op.Action == domain.ActionUpload && op.Identity == identity && op.SessionToken == "tok"
	})).Return(true)

	result := svc.Upload(ctx, UploadRequest{
		FileName: name,
		Pattern: domain.PatternFields{
			PatternType:   4,
			RecordID:      42,
			FolderName:    "dept_events",
			FileExtension: ".jpg",
		},
		Actor: Actor{Identity: identity, SessionToken: "tok"},
	})

	require.True(t, result.Success, result.Message)
	hold.AssertExpectations(t)
	binder.AssertExpectations(t)
}

func TestUploadService_HoldingFileBusy(t *testing.T) {
	svc, store, hold, binder := newTestUploadService()
	ctx := context.Background()
	name := "0b3c1a52-7a2f-4b8e-9c1d-2e3f4a5b6c7d.pdf"

	ok, err := svc.locker.Acquire(ctx, lock.Keys.HoldingFile(name), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	result := svc.Upload(ctx, UploadRequest{
		FileName: name,
		Pattern: domain.PatternFields{
			PatternType:   4,
			RecordID:      7,
			FolderName:    "dept_events",
			FileExtension: ".pdf",
		},
	})

	require.False(t, result.Success)
	require.Equal(t, "Holding file is busy: "+name, result.Message)

	// The other owner still has the file.
	hold.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
	hold.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	binder.AssertNotCalled(t, "Bind", mock.Anything)
}

func TestUploadService_HoldingReleasedOnFailure(t *testing.T) {
	svc, store, hold, binder := newTestUploadService()
	ctx := context.Background()
	name := "0b3c1a52-7a2f-4b8e-9c1d-2e3f4a5b6c7d.pdf"

	hold.On("Read", mock.Anything, name).Return([]byte("data"), nil)
	hold.On("Remove", mock.Anything, name).Return(errors.New("permission denied")).Once()
	store.On("PrefixExists", mock.Anything, "upload/dept_events/").Return(false, nil)

	result := svc.Upload(ctx, UploadRequest{
		FileName: name,
		Pattern: domain.PatternFields{
			PatternType:   4,
			RecordID:      7,
			FolderName:    "dept_events",
			FileExtension: ".pdf",
		},
	})

	require.False(t, result.Success)
	require.Equal(t, "Folder does not exist in S3: upload/dept_events/", result.Message)
	hold.AssertExpectations(t)
	store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	binder.AssertNotCalled(t, "Bind", mock.Anything)
}

func TestUploadService_RequestErrors(t *testing.T) {
	tests := []struct {
		name        string
		req         UploadRequest
		holdingErr  error
		wantMessage string
	}{
		{
			name:        "no source",
			req:         UploadRequest{Pattern: pattern1Fields()},
			wantMessage: ErrNoFileSource.Error(),
		},
		{
			name:        "both sources",
			req:         UploadRequest{FileBase64: "eA==", FileName: "0b3c1a52-7a2f-4b8e-9c1d-2e3f4a5b6c7d", Pattern: pattern1Fields()},
			wantMessage: ErrAmbiguousFileSource.Error(),
		},
		{
			name:        "invalid pattern type",
			req:         UploadRequest{FileBase64: "eA==", Pattern: domain.PatternFields{PatternType: 9, FolderName: "x", FileExtension: "pdf"}},
			wantMessage: "Invalid file pattern: invalid pattern type 9: must be between 1 and 6",
		},
		{
			name:        "bad base64",
			req:         UploadRequest{FileBase64: "!!!not base64", Pattern: pattern1Fields()},
			wantMessage: ErrInvalidBase64.Error(),
		},
		{
			name:        "data uri without base64",
			req:         UploadRequest{FileBase64: "data:text/plain,hello", Pattern: pattern1Fields()},
			wantMessage: ErrInvalidBase64.Error(),
		},
		{
			name:        "missing holding file",
			req:         UploadRequest{FileName: "0b3c1a52-7a2f-4b8e-9c1d-2e3f4a5b6c7d", Pattern: pattern1Fields()},
			holdingErr:  holding.ErrNotFound,
			wantMessage: "Holding file not found: 0b3c1a52-7a2f-4b8e-9c1d-2e3f4a5b6c7d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, hold, binder := newTestUploadService()

			ambiguous := tt.req.FileName != "" && tt.req.FileBase64 != ""
			if tt.req.FileName != "" && !ambiguous {
				hold.On("Remove", mock.Anything, tt.req.FileName).Return(nil).Once()
				if tt.holdingErr != nil {
					hold.On("Read", mock.Anything, tt.req.FileName).Return(nil, tt.holdingErr)
				}
			}

			result := svc.Upload(context.Background(), tt.req)

			require.False(t, result.Success)
			require.Equal(t, tt.wantMessage, result.Message)
			hold.AssertExpectations(t)
			if ambiguous {
				hold.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
			}
			store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			binder.AssertNotCalled(t, "Bind", mock.Anything)
		})
	}
}

func TestUploadService_AmbiguousRequestKeepsHoldingFile(t *testing.T) {
	storageSvc, store, _ := newTestStorageService()
	ctx := context.Background()
	content := []byte("%PDF-1.7 staged")

	hold, err := holding.NewStore(afero.NewMemMapFs(), "/holding", 1024, zerolog.Nop())
	require.NoError(t, err)
	svc := NewUploadService(storageSvc, hold, lock.NewMemoryLocker(), nil, zerolog.Nop())

	name, err := hold.Put(ctx, bytes.NewReader(content), "report.pdf")
	require.NoError(t, err)

	fields := domain.PatternFields{
		PatternType:   4,
		RecordID:      7,
		FolderName:    "dept_events",
		FileExtension: ".pdf",
	}

	result := svc.Upload(ctx, UploadRequest{FileBase64: "eA==", FileName: name, Pattern: fields})
	require.False(t, result.Success)
	require.Equal(t, ErrAmbiguousFileSource.Error(), result.Message)

	staged, err := hold.Read(ctx, name)
	require.NoError(t, err)
	require.Equal(t, content, staged)

	// The corrected retry consumes the file.
	store.On("PrefixExists", mock.Anything, "upload/dept_events/").Return(true, nil)
	store.On("PutObject", mock.Anything, "upload/dept_events/7.pdf", content, "application/pdf").Return(nil)

	result = svc.Upload(ctx, UploadRequest{FileName: name, Pattern: fields})
	require.True(t, result.Success, result.Message)

	_, err = hold.Read(ctx, name)
	require.ErrorIs(t, err, holding.ErrNotFound)
}

func TestUploadService_Delete(t *testing.T) {
	t.Run("success is recorded", func(t *testing.T) {
		svc, store, _, binder := newTestUploadService()
		path := "upload/dept_events/42.pdf"

		store.On("PrefixExists", mock.Anything, "upload/dept_events/").Return(true, nil)
		store.On("DeleteObject", mock.Anything, path).Return(nil)
		binder.On("Bind", activity.Operation{Action: domain.ActionDelete, VirtualPath: path, SessionToken: "tok"}).Return(true)

		result := svc.Delete(context.Background(), DeleteRequest{VirtualPath: path, Actor: Actor{SessionToken: "tok"}})
		require.True(t, result.Success)
		binder.AssertExpectations(t)
	})

	t.Run("failure is not recorded", func(t *testing.T) {
		svc, store, _, binder := newTestUploadService()

		store.On("PrefixExists", mock.Anything, "upload/missing/").Return(false, nil)

		result := svc.Delete(context.Background(), DeleteRequest{VirtualPath: "upload/missing/42.pdf"})
		require.False(t, result.Success)
		binder.AssertNotCalled(t, "Bind", mock.Anything)
	})
}

func TestUploadService_WithoutBinderOrHolding(t *testing.T) {
	storageSvc, store, _ := newTestStorageService()
	svc := NewUploadService(storageSvc, nil, nil, nil, zerolog.Nop())

	result := svc.Upload(context.Background(), UploadRequest{FileName: "0b3c1a52-7a2f-4b8e-9c1d-2e3f4a5b6c7d", Pattern: pattern1Fields()})
	require.False(t, result.Success)
	require.Equal(t, ErrHoldingUnavailable.Error(), result.Message)

	store.On("PrefixExists", mock.Anything, "upload/research_papers/").Return(true, nil)
	store.On("PutObject", mock.Anything, "upload/research_papers/1_69603.pdf", []byte("x"), "application/pdf").Return(nil)
	result = svc.Upload(context.Background(), UploadRequest{FileBase64: "eA==", Pattern: pattern1Fields()})
	require.True(t, result.Success)
}

func TestDecodeBase64(t *testing.T) {
	data, err := decodeBase64("aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	data, err = decodeBase64("aGVsbG8")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	data, err = decodeBase64("data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	_, err = decodeBase64("data:image/jpeg;base64")
	require.ErrorIs(t, err, ErrInvalidBase64)
}
