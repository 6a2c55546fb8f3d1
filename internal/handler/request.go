package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// flexInt accepts a JSON number or a numeric string. null and "" decode to 0.
type flexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = 0
			return nil
		}
	}

	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*f = flexInt(v)
		return nil
	}

	// Integral floats such as 7.0 or 1e3.
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) >= math.MaxInt64 {
		return fmt.Errorf("%q is not an integer", raw)
	}
	*f = flexInt(v)
	return nil
}

// s3Request is the union of every /api/s3/{action} body.
type s3Request struct {
	// upload
	FileBase64    string  `json:"fileBase64"`
	FileName      string  `json:"fileName"`
	PatternType   flexInt `json:"patternType"`
	UserID        flexInt `json:"userId"`
	RecordID      flexInt `json:"recordId"`
	FileNum       flexInt `json:"fileNum"`
	Email         string  `json:"email"`
	MetricName    string  `json:"metricName"`
	FolderName    string  `json:"folderName"`
	FileExtension string  `json:"fileExtension"`
	ContentType   string  `json:"contentType"`

	// download, delete, get-signed-url
	VirtualPath string  `json:"virtualPath"`
	ExpiresIn   flexInt `json:"expiresIn"`
}

func (r *s3Request) userID() *int64 {
	if r.UserID <= 0 {
		return nil
	}
	id := int64(r.UserID)
	return &id
}
