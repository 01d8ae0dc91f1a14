package identity

import (
	"path"
	"path/filepath"
	"strings"
)

// LabelSeparator joins hierarchical label segments (state/county/city/person).
const LabelSeparator = "/"

// missingSegment stands in for a blank path segment.
const missingSegment = "NA"

func allowedLabelRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '_', r == '.', r == '-':
		return true
	}
	return false
}

// SanitizeSegment trims a label segment and replaces every character outside
// [A-Za-z0-9 _.-] with '_', one per rune, so "José" and "Jose" stay distinct.
func SanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return missingSegment
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if allowedLabelRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// BuildLabel joins sanitized segments into an identity label.
// Two images of the same person under the same path collapse to one label,
// while same-named persons under different paths stay distinct.
func BuildLabel(segments ...string) (string, error) {
	if len(segments) == 0 {
		return "", ErrEmptyLabel
	}
	clean := make([]string, len(segments))
	for i, s := range segments {
		clean[i] = SanitizeSegment(s)
	}
	return strings.Join(clean, LabelSeparator), nil
}

// LabelFromPath derives a label from an image path relative to a dataset root,
// e.g. "Texas/Harris/Houston/John Doe.jpg" -> "Texas/Harris/Houston/John Doe".
func LabelFromPath(rel string) (string, error) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.TrimSuffix(rel, path.Ext(rel))

	var segments []string
	for _, s := range strings.Split(rel, "/") {
		if s == "" || s == "." {
			continue
		}
		segments = append(segments, s)
	}
	return BuildLabel(segments...)
}
