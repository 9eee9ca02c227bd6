package vcs

import "strings"

// ValidateRef rejects references that could be mistaken for command options.
// It returns the trimmed reference.
func ValidateRef(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if strings.HasPrefix(trimmed, "-") {
		return "", RejectedRef(ref, "references cannot start with '-': "+ref)
	}
	return trimmed, nil
}

// RangeSpec is a parsed "from..to" or "from...to" expression.
type RangeSpec struct {
	From     string
	To       string
	ThreeDot bool
}

// SplitRange parses ref as a two-dot or three-dot range. ok is false when ref
// is a single reference or does not split into exactly two sides.
func SplitRange(ref string) (spec RangeSpec, ok bool) {
	ref = strings.TrimSpace(ref)
	sep := ".."
	if strings.Contains(ref, "...") {
		sep = "..."
	} else if !strings.Contains(ref, "..") {
		return RangeSpec{}, false
	}
	parts := strings.Split(ref, sep)
	if len(parts) != 2 {
		return RangeSpec{}, false
	}
	return RangeSpec{
		From:     strings.TrimSpace(parts[0]),
		To:       strings.TrimSpace(parts[1]),
		ThreeDot: sep == "...",
	}, true
}
