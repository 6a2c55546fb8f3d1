package domain

import (
	"strconv"
	"strings"
)

// PatternType identifies one of the six file naming patterns.
type PatternType int

const (
	// PatternUserRecord names files {userId}_{recordId}.
	PatternUserRecord PatternType = 1

	// PatternEmail names files {email}.
	PatternEmail PatternType = 2

	// PatternRecordFile names files _{recordId}_{fileNum}.
	PatternRecordFile PatternType = 3

	// PatternRecord names files {recordId}.
	PatternRecord PatternType = 4

	// PatternUserRecordMetric names files {userId}_{recordId}_{metricName}.
	PatternUserRecordMetric PatternType = 5

	// PatternUserFolder names files {userId}_{folderName}.
	PatternUserFolder PatternType = 6
)

// Valid returns true if the pattern type is one of the known patterns.
func (t PatternType) Valid() bool {
	return t >= PatternUserRecord && t <= PatternUserFolder
}

// FilePattern is the identifying metadata of a stored file.
// The set of implementations is closed; use the variant types below.
type FilePattern interface {
	// Type returns the pattern discriminant.
	Type() PatternType

	// Folder returns the logical folder inside the bucket.
	Folder() string

	// Extension returns the file extension including the leading dot.
	Extension() string

	// Stem returns the file name without extension.
	// It fails with a MissingFieldError when a required field is empty.
	Stem() (string, error)

	sealed()
}

// Location is shared by every pattern variant.
type Location struct {
	FolderName    string
	FileExtension string
}

// Folder returns the logical folder name.
func (l Location) Folder() string { return l.FolderName }

// Extension returns the extension with a leading dot.
func (l Location) Extension() string { return NormalizeExtension(l.FileExtension) }

func (l Location) validate(p PatternType) error {
	if strings.TrimSpace(l.FolderName) == "" {
		return missing(p, "folderName")
	}
	if strings.Trim(strings.TrimSpace(l.FileExtension), ".") == "" {
		return missing(p, "fileExtension")
	}
	return nil
}

func (Location) sealed() {}

// UserRecordPattern is pattern 1: {userId}_{recordId}.
type UserRecordPattern struct {
	Location
	UserID   int64
	RecordID int64
}

// Type implements FilePattern.
func (UserRecordPattern) Type() PatternType { return PatternUserRecord }

// Stem implements FilePattern.
func (p UserRecordPattern) Stem() (string, error) {
	if p.UserID <= 0 {
		return "", missing(PatternUserRecord, "userId")
	}
	if p.RecordID <= 0 {
		return "", missing(PatternUserRecord, "recordId")
	}
	if err := p.validate(PatternUserRecord); err != nil {
		return "", err
	}
	return itoa(p.UserID) + "_" + itoa(p.RecordID), nil
}

// EmailPattern is pattern 2: {email}.
type EmailPattern struct {
	Location
	Email string
}

// Type implements FilePattern.
func (EmailPattern) Type() PatternType { return PatternEmail }

// Stem implements FilePattern.
func (p EmailPattern) Stem() (string, error) {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return "", missing(PatternEmail, "email")
	}
	if err := p.validate(PatternEmail); err != nil {
		return "", err
	}
	return email, nil
}

// RecordFilePattern is pattern 3: _{recordId}_{fileNum}.
type RecordFilePattern struct {
	Location
	RecordID int64
	FileNum  int64
}

// Type implements FilePattern.
func (RecordFilePattern) Type() PatternType { return PatternRecordFile }

// Stem implements FilePattern.
func (p RecordFilePattern) Stem() (string, error) {
	if p.RecordID <= 0 {
		return "", missing(PatternRecordFile, "recordId")
	}
	if p.FileNum <= 0 {
		return "", missing(PatternRecordFile, "fileNum")
	}
	if err := p.validate(PatternRecordFile); err != nil {
		return "", err
	}
	return "_" + itoa(p.RecordID) + "_" + itoa(p.FileNum), nil
}

// RecordPattern is pattern 4: {recordId}.
type RecordPattern struct {
	Location
	RecordID int64
}

// Type implements FilePattern.
func (RecordPattern) Type() PatternType { return PatternRecord }

// Stem implements FilePattern.
func (p RecordPattern) Stem() (string, error) {
	if p.RecordID <= 0 {
		return "", missing(PatternRecord, "recordId")
	}
	if err := p.validate(PatternRecord); err != nil {
		return "", err
	}
	return itoa(p.RecordID), nil
}

// UserRecordMetricPattern is pattern 5: {userId}_{recordId}_{metricName}.
type UserRecordMetricPattern struct {
	Location
	UserID     int64
	RecordID   int64
	MetricName string
}

// Type implements FilePattern.
func (UserRecordMetricPattern) Type() PatternType { return PatternUserRecordMetric }

// Stem implements FilePattern.
func (p UserRecordMetricPattern) Stem() (string, error) {
	if p.UserID <= 0 {
		return "", missing(PatternUserRecordMetric, "userId")
	}
	if p.RecordID <= 0 {
		return "", missing(PatternUserRecordMetric, "recordId")
	}
	metric := strings.TrimSpace(p.MetricName)
	if metric == "" {
		return "", missing(PatternUserRecordMetric, "metricName")
	}
	if err := p.validate(PatternUserRecordMetric); err != nil {
		return "", err
	}
	return itoa(p.UserID) + "_" + itoa(p.RecordID) + "_" + metric, nil
}

// UserFolderPattern is pattern 6: {userId}_{folderName}.
type UserFolderPattern struct {
	Location
	UserID int64
}

// Type implements FilePattern.
func (UserFolderPattern) Type() PatternType { return PatternUserFolder }

// Stem implements FilePattern.
func (p UserFolderPattern) Stem() (string, error) {
	if p.UserID <= 0 {
		return "", missing(PatternUserFolder, "userId")
	}
	if err := p.validate(PatternUserFolder); err != nil {
		return "", err
	}
	return itoa(p.UserID) + "_" + strings.TrimSpace(p.FolderName), nil
}

// PatternFields is the loosely-typed form a transport receives.
// BuildPattern turns it into exactly one FilePattern variant.
type PatternFields struct {
	PatternType   int
	UserID        int64
	RecordID      int64
	FileNum       int64
	Email         string
	MetricName    string
	FolderName    string
	FileExtension string
}

// BuildPattern constructs the variant named by f.PatternType and fails fast
// when a field required by that variant is missing.
func BuildPattern(f PatternFields) (FilePattern, error) {
	loc := Location{
		FolderName:    strings.TrimSpace(f.FolderName),
		FileExtension: strings.TrimSpace(f.FileExtension),
	}

	var p FilePattern
	switch PatternType(f.PatternType) {
	case PatternUserRecord:
		p = UserRecordPattern{Location: loc, UserID: f.UserID, RecordID: f.RecordID}
	case PatternEmail:
		p = EmailPattern{Location: loc, Email: f.Email}
	case PatternRecordFile:
		p = RecordFilePattern{Location: loc, RecordID: f.RecordID, FileNum: f.FileNum}
	case PatternRecord:
		p = RecordPattern{Location: loc, RecordID: f.RecordID}
	case PatternUserRecordMetric:
		p = UserRecordMetricPattern{Location: loc, UserID: f.UserID, RecordID: f.RecordID, MetricName: f.MetricName}
	case PatternUserFolder:
		p = UserFolderPattern{Location: loc, UserID: f.UserID}
	default:
		return nil, &InvalidPatternError{Type: f.PatternType}
	}

	if _, err := p.Stem(); err != nil {
		return nil, err
	}
	return p, nil
}

// NormalizeExtension returns ext with exactly one leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.TrimLeft(strings.TrimSpace(ext), ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
