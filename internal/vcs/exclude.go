package vcs

import "strings"

// excludedFiles are dependency lock files matched by exact basename.
var excludedFiles = map[string]struct{}{
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"Cargo.lock":        {},
	"go.sum":            {},
}

// excludedPatterns are matched as substrings of the full slash-separated path.
var excludedPatterns = []string{
	"node_modules/",
	"vendor/",
}

// ShouldExcludePath reports whether diff output for path is suppressed.
func ShouldExcludePath(path string) bool {
	if path == "" {
		return false
	}
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	if _, ok := excludedFiles[base]; ok {
		return true
	}
	for _, pattern := range excludedPatterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
