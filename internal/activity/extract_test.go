package activity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractEntityID(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		wantOK        bool
		wantID        int64
		wantShape     Shape
		wantTimestamp bool
	}{
		{name: "user record", path: "upload/research_papers/1_69603.pdf", wantOK: true, wantID: 69603, wantShape: ShapeUserRecord},
		{name: "record only", path: "upload/dept_events/42.pdf", wantOK: true, wantID: 42, wantShape: ShapeRecord},
		{name: "uppercase extension", path: "upload/dept_events/42.PDF", wantOK: true, wantID: 42, wantShape: ShapeRecord},
		{name: "user timestamp", path: "upload/profile/john_1700000000000.jpg", wantOK: true, wantID: 1700000000000, wantShape: ShapeUserTimestamp, wantTimestamp: true},
		{name: "user record with timestamp", path: "upload/awards/5_1700000000000.pdf", wantOK: true, wantID: 1700000000000, wantShape: ShapeUserRecord, wantTimestamp: true},
		{name: "threshold is a timestamp", path: "upload/x/1000000000.pdf", wantOK: true, wantID: 1_000_000_000, wantShape: ShapeRecord, wantTimestamp: true},
		{name: "just below threshold", path: "upload/x/999999999.pdf", wantOK: true, wantID: 999_999_999, wantShape: ShapeRecord},
		// Pattern 3 names are read as userRecord; the file number wins.
		{name: "record file number", path: "upload/patents/_7_2.pdf", wantOK: true, wantID: 2, wantShape: ShapeUserRecord},
		{name: "email", path: "upload/cv/john@uni.edu.pdf"},
		{name: "metric suffix", path: "upload/journals/1_2_citations.pdf"},
		{name: "user folder", path: "upload/profile/3_photos.jpg"},
		{name: "overflow", path: "upload/x/99999999999999999999.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ExtractEntityID(tt.path)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			require.Equal(t, tt.wantID, ref.ID)
			require.Equal(t, tt.wantShape, ref.Shape)
			require.Equal(t, tt.wantTimestamp, ref.Timestamp)
		})
	}
}
