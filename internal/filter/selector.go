package filter

import (
	"path/filepath"
	"strings"
)

// SkipReason explains why Selector.Select rejected a file.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipExcludedName
	SkipExtension
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "selected"
	case SkipExcludedName:
		return "excluded name"
	case SkipExtension:
		return "extension not selected"
	default:
		return "unknown"
	}
}

// Selector picks files by extension and excludes exact file names.
type Selector struct {
	exts  map[string]struct{}
	names map[string]struct{}
}

// NewSelector builds a selector. Extensions are compared lowercase with a
// leading dot; excluded names are compared exactly.
func NewSelector(extensions, excludedNames []string) *Selector {
	s := &Selector{
		exts:  make(map[string]struct{}, len(extensions)),
		names: make(map[string]struct{}, len(excludedNames)),
	}
	for _, e := range extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		s.exts[e] = struct{}{}
	}
	for _, n := range excludedNames {
		s.names[n] = struct{}{}
	}
	return s
}

// Select returns the normalized extension of name when it should be backed
// up, or the reason it is skipped.
func (s *Selector) Select(name string) (string, SkipReason) {
	if _, excluded := s.names[name]; excluded {
		return "", SkipExcludedName
	}
	ext := Extension(name)
	if _, ok := s.exts[ext]; !ok || ext == "" {
		return "", SkipExtension
	}
	return ext, SkipNone
}

// Extension returns the lowercased extension of a file name. Leading dots
// belong to the name, so ".txt" and "..pdf" have no extension while
// ".notes.txt" has ".txt".
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimLeft(name, ".")))
}
