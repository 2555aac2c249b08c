package scanner

import (
	"path/filepath"
	"strings"
)

// IgnorePattern is a single gitignore-style pattern. Supported syntax:
// leading ! for negation, trailing / for directory patterns, leading / to
// anchor at the scan root, * ? [...] within a segment, and ** across
// segments.
type IgnorePattern struct {
	pattern    string
	isNegation bool
	isDir      bool
	isAnchored bool
	segments   []string
}

// ParseIgnorePattern parses a gitignore-style pattern string.
func ParseIgnorePattern(pattern string) IgnorePattern {
	p := IgnorePattern{pattern: pattern}

	if strings.HasPrefix(pattern, "!") {
		p.isNegation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.isDir = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		p.isAnchored = true
		pattern = pattern[1:]
	}
	p.segments = strings.Split(pattern, "/")
	return p
}

// IsNegation returns true if this pattern starts with !.
func (p IgnorePattern) IsNegation() bool { return p.isNegation }

// Match reports whether the relative slash-separated path matches. For a
// directory pattern any path inside the directory matches; an unanchored
// pattern may match starting at any depth.
func (p IgnorePattern) Match(path string) bool {
	pathSegs := strings.Split(filepath.ToSlash(path), "/")

	if p.isAnchored {
		return p.matchFrom(p.segments, pathSegs)
	}
	for start := 0; start < len(pathSegs); start++ {
		if p.matchFrom(p.segments, pathSegs[start:]) {
			return true
		}
	}
	return false
}

// matchFrom matches pattern segments against the front of path segments.
func (p IgnorePattern) matchFrom(patSegs, pathSegs []string) bool {
	if len(patSegs) == 0 {
		// Pattern exhausted. A directory pattern swallows anything
		// beneath it; a file pattern must consume the whole path.
		return p.isDir || len(pathSegs) == 0
	}

	if patSegs[0] == "**" {
		for i := 0; i <= len(pathSegs); i++ {
			if p.matchFrom(patSegs[1:], pathSegs[i:]) {
				return true
			}
		}
		return false
	}

	if len(pathSegs) == 0 {
		return false
	}
	ok, err := filepath.Match(strings.ToLower(patSegs[0]), strings.ToLower(pathSegs[0]))
	if err != nil || !ok {
		return false
	}
	return p.matchFrom(patSegs[1:], pathSegs[1:])
}
