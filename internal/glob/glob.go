// Package glob matches slash-separated paths against include/exclude
// patterns with `**` support.
package glob

import (
	"path"
	"path/filepath"
	"strings"
)

// MatchesGlob checks if a file path matches any of the include patterns
// and does not match any of the exclude patterns.
func MatchesGlob(filePath string, includePatterns []string, excludePatterns []string) bool {
	if len(includePatterns) == 0 {
		return false
	}

	filePath = normalize(filePath)

	// Check exclude first
	for _, pattern := range excludePatterns {
		if Match(pattern, filePath) {
			return false
		}
	}

	for _, pattern := range includePatterns {
		if Match(pattern, filePath) {
			return true
		}
	}

	return false
}

// Match reports whether filePath matches pattern. `**` spans any number of
// directories (including none); other segments use path.Match syntax.
// A pattern without a slash matches against the base name only, so
// "*.svelte.d.ts" behaves like "**/*.svelte.d.ts".
func Match(pattern, filePath string) bool {
	pattern = normalize(pattern)
	filePath = normalize(filePath)
	if pattern == "" {
		return false
	}
	if !strings.Contains(pattern, "/") && pattern != "**" {
		ok, _ := path.Match(pattern, path.Base(filePath))
		return ok
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(filePath, "/"))
}

func matchSegments(pattern, parts []string) bool {
	for len(pattern) > 0 {
		seg := pattern[0]
		if seg == "**" {
			// Collapse runs of ** and try every split point.
			rest := pattern[1:]
			for len(rest) > 0 && rest[0] == "**" {
				rest = rest[1:]
			}
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		if ok, _ := path.Match(seg, parts[0]); !ok {
			return false
		}
		pattern, parts = pattern[1:], parts[1:]
	}
	return len(parts) == 0
}

func normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(p, "/")
}
