// Package storage defines the virtual path scheme and the object store
// interface used by Faculty Files.
package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/prn-tf/faculty-files/internal/domain"
)

// RootPrefix is the first segment of every virtual path.
const RootPrefix = "upload/"

// Content types inferred from the file extension.
const (
	ContentTypePDF     = "application/pdf"
	ContentTypeJPEG    = "image/jpeg"
	ContentTypeDefault = "application/octet-stream"
)

var (
	// folderPattern allows alphanumerics, underscore, hyphen and whitespace.
	folderPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\s]+$`)

	// fileNamePattern additionally allows dots, @ and % (e-mail based names).
	fileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\s.@%]+$`)

	// allowedExtensions is the upload whitelist, compared case-insensitively.
	allowedExtensions = map[string]bool{
		"pdf":  true,
		"jpg":  true,
		"jpeg": true,
	}
)

// GenerateFileName returns the deterministic file name for a pattern.
//
// Example:
//
//	UserRecordPattern{UserID: 1, RecordID: 69603, FileExtension: ".pdf"}
//	result: "1_69603.pdf"
func GenerateFileName(p domain.FilePattern) (string, error) {
	if p == nil {
		return "", &domain.InvalidPatternError{}
	}
	if !p.Type().Valid() {
		return "", &domain.InvalidPatternError{Type: int(p.Type())}
	}

	stem, err := p.Stem()
	if err != nil {
		return "", err
	}

	return stem + p.Extension(), nil
}

// GenerateVirtualPath returns the storage key for a pattern.
//
// Example:
//
//	folder: "research_papers", file: "1_69603.pdf"
//	result: "upload/research_papers/1_69603.pdf"
func GenerateVirtualPath(p domain.FilePattern) (string, error) {
	name, err := GenerateFileName(p)
	if err != nil {
		return "", err
	}
	return RootPrefix + strings.TrimSpace(p.Folder()) + "/" + name, nil
}

// ValidateVirtualPath reports whether p is a safe, well-formed virtual path.
// Paths read back from the database go through here as well, so this does
// not assume the path came from GenerateVirtualPath.
func ValidateVirtualPath(p string) bool {
	_, _, err := SplitVirtualPath(p)
	return err == nil
}

// SplitVirtualPath validates p and returns its folder and file name.
func SplitVirtualPath(p string) (folder, fileName string, err error) {
	if !strings.HasPrefix(p, RootPrefix) {
		return "", "", fmt.Errorf("%w: must start with %q", ErrInvalidPath, RootPrefix)
	}
	if strings.Contains(p, "..") {
		return "", "", fmt.Errorf("%w: contains '..'", ErrInvalidPath)
	}
	if strings.Contains(p, "//") {
		return "", "", fmt.Errorf("%w: contains '//'", ErrInvalidPath)
	}

	rest := strings.TrimPrefix(p, RootPrefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expected %s{folder}/{file}", ErrInvalidPath, RootPrefix)
	}
	folder, fileName = parts[0], parts[1]

	if !folderPattern.MatchString(folder) {
		return "", "", fmt.Errorf("%w: invalid folder name %q", ErrInvalidPath, folder)
	}
	if !fileNamePattern.MatchString(fileName) {
		return "", "", fmt.Errorf("%w: invalid file name %q", ErrInvalidPath, fileName)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if !allowedExtensions[ext] {
		return "", "", fmt.Errorf("%w: extension %q is not allowed", ErrInvalidPath, ext)
	}
	if strings.TrimSuffix(fileName, path.Ext(fileName)) == "" {
		return "", "", fmt.Errorf("%w: empty file name", ErrInvalidPath)
	}

	return folder, fileName, nil
}

// FolderPrefix returns the "upload/{folder}/" prefix of a virtual path.
// The path is not validated.
func FolderPrefix(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return RootPrefix
	}
	return p[:idx+1]
}

// NormalizeFolder turns "dept", "upload/dept" or "upload/dept/" into
// the canonical "upload/dept/" prefix.
func NormalizeFolder(folder string) (string, error) {
	name := strings.TrimSpace(folder)
	name = strings.TrimPrefix(name, RootPrefix)
	name = strings.Trim(name, "/")
	if name == "" || !folderPattern.MatchString(name) {
		return "", fmt.Errorf("%w: invalid folder %q", ErrInvalidPath, folder)
	}
	return RootPrefix + name + "/", nil
}

// FolderName returns the bare folder segment of a virtual path.
func FolderName(p string) string {
	prefix := strings.TrimSuffix(FolderPrefix(p), "/")
	return strings.TrimPrefix(prefix, RootPrefix)
}

// ContentTypeFor infers the content type from the file extension.
func ContentTypeFor(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return ContentTypePDF
	case ".jpg", ".jpeg":
		return ContentTypeJPEG
	default:
		return ContentTypeDefault
	}
}
