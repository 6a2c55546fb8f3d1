// Package activity writes best-effort audit entries for storage operations.
//
// The entity an operation touched is recovered from the file name alone, and
// entries are written off the request path by a Dispatcher so that a slow or
// failing database never affects the storage response.
package activity

import (
	"path"
	"regexp"
	"strconv"

	"github.com/prn-tf/faculty-files/internal/domain"
)

// Shape names the file name form an entity ID was recovered from.
type Shape string

const (
	// ShapeUserRecord is "{userId}_{recordId}.ext".
	ShapeUserRecord Shape = "userRecord"

	// ShapeUserTimestamp is "..._{id}.ext".
	ShapeUserTimestamp Shape = "userTimestamp"

	// ShapeRecord is "{recordId}.ext".
	ShapeRecord Shape = "record"
)

// EntityRef is an entity ID recovered from a file name.
type EntityRef struct {
	ID    int64
	Shape Shape

	// Timestamp is set when ID is a creation-time placeholder rather than a
	// real record ID. Such operations are not logged.
	Timestamp bool
}

type shapeMatcher struct {
	shape Shape
	re    *regexp.Regexp
	group int
}

// Tried in order; the first match wins. userRecord is unanchored, so
// "_7_2.pdf" (record 7, file 2) is read as entity 2.
var shapes = []shapeMatcher{
	{shape: ShapeUserRecord, re: regexp.MustCompile(`(\d+)_(\d+)\.[A-Za-z0-9]+$`), group: 2},
	{shape: ShapeUserTimestamp, re: regexp.MustCompile(`_(\d+)\.[A-Za-z0-9]+$`), group: 1},
	{shape: ShapeRecord, re: regexp.MustCompile(`^(\d+)\.[A-Za-z0-9]+$`), group: 1},
}

// ExtractEntityID recovers the record ID from the file name of virtualPath.
// It reports false when no shape matches.
func ExtractEntityID(virtualPath string) (EntityRef, bool) {
	name := path.Base(virtualPath)

	for _, s := range shapes {
		m := s.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[s.group], 10, 64)
		if err != nil {
			// Out of int64 range.
			return EntityRef{}, false
		}
		return EntityRef{
			ID:        id,
			Shape:     s.shape,
			Timestamp: id >= domain.TimestampThreshold,
		}, true
	}

	return EntityRef{}, false
}
