// Package validate holds the pure input validators used by every domain
// operation: identifiers, dates, enum names and tag lists. All functions are
// side-effect free; callers decide whether a missing optional field is
// skipped or treated as an error.
package validate

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/libris/internal/apperr"
)

// TagDelimiter separates tags in their storage form. Tags containing it are
// rejected before normalization.
const TagDelimiter = ","

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// ParseID accepts only the canonical 8-4-4-4-12 hexadecimal form.
func ParseID(s string) (uuid.UUID, error) {
	if !isCanonicalID(s) {
		return uuid.Nil, apperr.Format(
			"invalid identifier %q: expected the 8-4-4-4-12 hexadecimal form, e.g. %q",
			s, "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.Format(
			"invalid identifier %q: expected the 8-4-4-4-12 hexadecimal form, e.g. %q",
			s, "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")
	}
	return id, nil
}

// isCanonicalID rejects the alternative encodings uuid.Parse tolerates
// (braces, urn prefix, bare hex).
func isCanonicalID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if !isHexDigit(r) {
				return false
			}
		}
	}
	return true
}

func isHexDigit(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

// ParseDate accepts YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Format(
			"invalid date %q: expected YYYY-MM-DD, e.g. %q", s, "2023-05-14")
	}
	return t, nil
}

// ParseDateTime accepts YYYY-MM-DD HH:mm or plain YYYY-MM-DD. Borrowing
// timestamps carry a time of day, the rest of the catalog does not.
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(dateTimeLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Format(
		"invalid date %q: expected YYYY-MM-DD or YYYY-MM-DD HH:mm, e.g. %q",
		s, "2023-05-14 16:30")
}

// ParseEnum matches value against the enum's declared names, case sensitive.
func ParseEnum(name, value string, allowed []string) (string, error) {
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", apperr.Format("invalid %s %q: allowed values are %s",
		name, value, strings.Join(allowed, ", "))
}

// NormalizeTags lower-cases the tags and joins them into the storage form.
// A tag containing the delimiter cannot be stored unambiguously and fails.
func NormalizeTags(tags []string) (string, error) {
	for _, tag := range tags {
		if strings.Contains(tag, TagDelimiter) {
			return "", apperr.Format(
				"invalid tag %q: tags must not contain %q", tag, TagDelimiter)
		}
	}
	if len(tags) == 1 {
		return strings.ToLower(tags[0]), nil
	}
	lowered := make([]string, len(tags))
	for i, tag := range tags {
		lowered[i] = strings.ToLower(tag)
	}
	return strings.Join(lowered, TagDelimiter), nil
}

// SplitTags is the inverse of NormalizeTags for the storage form.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, TagDelimiter)
}
