package storage

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/faculty-files/internal/domain"
)

func loc(folder, ext string) domain.Location {
	return domain.Location{FolderName: folder, FileExtension: ext}
}

func TestGenerateFileName(t *testing.T) {
	tests := []struct {
		name    string
		pattern domain.FilePattern
		want    string
	}{
		{"pattern 1", domain.UserRecordPattern{Location: loc("papers", ".pdf"), UserID: 1, RecordID: 69603}, "1_69603.pdf"},
		{"pattern 2", domain.EmailPattern{Location: loc("profiles", "jpg"), Email: "a.b@uni.edu"}, "a.b@uni.edu.jpg"},
		{"pattern 3", domain.RecordFilePattern{Location: loc("attachments", ".pdf"), RecordID: 7, FileNum: 2}, "_7_2.pdf"},
		{"pattern 4", domain.RecordPattern{Location: loc("dept_events", ".pdf"), RecordID: 42}, "42.pdf"},
		{"pattern 5", domain.UserRecordMetricPattern{Location: loc("metrics", ".pdf"), UserID: 3, RecordID: 9, MetricName: "citations"}, "3_9_citations.pdf"},
		{"pattern 6", domain.UserFolderPattern{Location: loc("qualitative", ".jpeg"), UserID: 12}, "12_qualitative.jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateFileName(tt.pattern)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateVirtualPath_Pattern1(t *testing.T) {
	for _, ids := range [][2]int64{{1, 1}, {1, 69603}, {250, 4}, {99999, 1700000000123}} {
		p := domain.UserRecordPattern{Location: loc("research_papers", ".pdf"), UserID: ids[0], RecordID: ids[1]}

		name, err := GenerateFileName(p)
		require.NoError(t, err)
		path, err := GenerateVirtualPath(p)
		require.NoError(t, err)

		require.Equal(t, strconv.FormatInt(ids[0], 10)+"_"+strconv.FormatInt(ids[1], 10)+".pdf", name)
		require.Equal(t, "upload/research_papers/"+name, path)
	}
}

func TestGenerateFileName_Errors(t *testing.T) {
	tests := []struct {
		name      string
		pattern   domain.FilePattern
		wantField string
	}{
		{"1 without userId", domain.UserRecordPattern{Location: loc("f", ".pdf"), RecordID: 1}, "userId"},
		{"1 without recordId", domain.UserRecordPattern{Location: loc("f", ".pdf"), UserID: 1}, "recordId"},
		{"2 without email", domain.EmailPattern{Location: loc("f", ".pdf"), Email: "  "}, "email"},
		{"3 without recordId", domain.RecordFilePattern{Location: loc("f", ".pdf"), FileNum: 1}, "recordId"},
		{"3 without fileNum", domain.RecordFilePattern{Location: loc("f", ".pdf"), RecordID: 1}, "fileNum"},
		{"4 without recordId", domain.RecordPattern{Location: loc("f", ".pdf")}, "recordId"},
		{"5 without userId", domain.UserRecordMetricPattern{Location: loc("f", ".pdf"), RecordID: 1, MetricName: "m"}, "userId"},
		{"5 without recordId", domain.UserRecordMetricPattern{Location: loc("f", ".pdf"), UserID: 1, MetricName: "m"}, "recordId"},
		{"5 without metricName", domain.UserRecordMetricPattern{Location: loc("f", ".pdf"), UserID: 1, RecordID: 1}, "metricName"},
		{"6 without userId", domain.UserFolderPattern{Location: loc("f", ".pdf")}, "userId"},
		{"6 without folderName", domain.UserFolderPattern{Location: loc("", ".pdf"), UserID: 1}, "folderName"},
		{"missing extension", domain.RecordPattern{Location: loc("f", "."), RecordID: 1}, "fileExtension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := GenerateFileName(tt.pattern)
			require.Empty(t, name)
			require.ErrorIs(t, err, domain.ErrMissingField)

			var mfe *domain.MissingFieldError
			require.ErrorAs(t, err, &mfe)
			require.Equal(t, tt.wantField, mfe.Field)
			require.Equal(t, tt.pattern.Type(), mfe.Pattern)

			path, err := GenerateVirtualPath(tt.pattern)
			require.Error(t, err)
			require.Empty(t, path)
		})
	}

	t.Run("nil pattern", func(t *testing.T) {
		_, err := GenerateFileName(nil)
		require.ErrorIs(t, err, domain.ErrInvalidPattern)
	})
}

func TestValidateVirtualPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"upload/research_papers/1_69603.pdf", true},
		{"upload/dept events/42.JPG", true},
		{"upload/profiles/jane.doe@uni.edu.jpeg", true},
		{"upload/attachments/_7_2.pdf", true},
		{"upload/x/a%20b.pdf", true},
		{"research_papers/1.pdf", false},
		{"/upload/papers/1.pdf", false},
		{"upload/../secret.pdf", false},
		{"upload/papers/..pdf", false},
		{"upload//1.pdf", false},
		{"upload/papers//1.pdf", false},
		{"upload/papers/1.png", false},
		{"upload/papers/1", false},
		{"upload/papers/.pdf", false},
		{"upload/pa.pers/1.pdf", false},
		{"upload/papers/sub/1.pdf", false},
		{"upload/papers/1;rm.pdf", false},
		{"upload/papers/", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, ValidateVirtualPath(tt.path))
		})
	}
}

func TestValidateVirtualPath_GeneratedPathsRoundTrip(t *testing.T) {
	patterns := []domain.FilePattern{
		domain.UserRecordPattern{Location: loc("research_papers", "pdf"), UserID: 1, RecordID: 2},
		domain.EmailPattern{Location: loc("profiles", ".JPG"), Email: "x_y-z@dept.uni.edu"},
		domain.RecordFilePattern{Location: loc("attachments", ".pdf"), RecordID: 10, FileNum: 3},
		domain.RecordPattern{Location: loc("dept events", ".jpeg"), RecordID: 4},
		domain.UserRecordMetricPattern{Location: loc("metrics", ".pdf"), UserID: 5, RecordID: 6, MetricName: "h-index"},
		domain.UserFolderPattern{Location: loc("teaching_notes", ".pdf"), UserID: 8},
	}

	for _, p := range patterns {
		path, err := GenerateVirtualPath(p)
		require.NoError(t, err)
		require.True(t, ValidateVirtualPath(path), path)

		folder, _, err := SplitVirtualPath(path)
		require.NoError(t, err)
		require.Equal(t, p.Folder(), folder)
		require.Equal(t, folder, FolderName(path))
	}
}

func TestFolderHelpers(t *testing.T) {
	require.Equal(t, "upload/dept_events/", FolderPrefix("upload/dept_events/42.pdf"))
	require.Equal(t, "dept_events", FolderName("upload/dept_events/42.pdf"))

	for _, in := range []string{"dept_events", "upload/dept_events", "upload/dept_events/", " dept_events "} {
		got, err := NormalizeFolder(in)
		require.NoError(t, err, in)
		require.Equal(t, "upload/dept_events/", got)
	}

	for _, in := range []string{"", "upload/", "../x", "a/b"} {
		_, err := NormalizeFolder(in)
		require.ErrorIs(t, err, ErrInvalidPath, in)
	}
}

func TestContentTypeFor(t *testing.T) {
	require.Equal(t, ContentTypePDF, ContentTypeFor("upload/a/1.pdf"))
	require.Equal(t, ContentTypePDF, ContentTypeFor("upload/a/1.PDF"))
	require.Equal(t, ContentTypeJPEG, ContentTypeFor("upload/a/1.jpg"))
	require.Equal(t, ContentTypeJPEG, ContentTypeFor("upload/a/1.jpeg"))
	require.Equal(t, ContentTypeDefault, ContentTypeFor("upload/a/1.bin"))
}
