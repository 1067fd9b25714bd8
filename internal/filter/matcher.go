// Package filter decides which directories are descended into and which
// files are selected for backup.
package filter

import (
	"path/filepath"
	"strings"
)

// DefaultExcludes names OS/user configuration caches and cloud-sync folders
// that are never backed up. Matching is a case-insensitive substring test
// against the full directory path.
var DefaultExcludes = []string{
	"AppData",
	"Application Data",
	"Local Settings",
	"LocalSettings",
	".config",
	".cache",
	"OneDrive",
	"Dropbox",
	"Google Drive",
	"iCloud Drive",
}

// ReasonBackupRoot is reported by Matcher.Reason for directories pruned
// because they lie inside the backup being written.
const ReasonBackupRoot = "backup root"

// Matcher prunes directory descent. It is safe for concurrent use once built.
type Matcher struct {
	patterns   []string // original spelling, built-ins first
	lowered    []string
	backupRoot string // absolute and clean; empty disables the check
}

// NewMatcher builds a matcher from the built-in catalogue plus userPatterns.
// Blank user patterns are ignored. An empty backupRoot disables the
// self-copy check.
func NewMatcher(userPatterns []string, backupRoot string) *Matcher {
	m := &Matcher{}
	for _, p := range append(append([]string(nil), DefaultExcludes...), userPatterns...) {
		if strings.TrimSpace(p) == "" {
			continue
		}
		m.patterns = append(m.patterns, p)
		m.lowered = append(m.lowered, strings.ToLower(p))
	}
	if backupRoot != "" {
		m.backupRoot = absClean(backupRoot)
	}
	return m
}

// ShouldDescend reports whether parentDir/childName should be traversed.
func (m *Matcher) ShouldDescend(parentDir, childName string) bool {
	_, pruned := m.Reason(parentDir, childName)
	return !pruned
}

// Reason returns the rule that prunes parentDir/childName, and whether it is
// pruned at all. The rule is the matching pattern text or ReasonBackupRoot.
func (m *Matcher) Reason(parentDir, childName string) (string, bool) {
	full := filepath.Join(parentDir, childName)
	lower := strings.ToLower(full)
	for i, p := range m.lowered {
		if strings.Contains(lower, p) {
			return m.patterns[i], true
		}
	}
	if m.backupRoot != "" && within(m.backupRoot, absClean(full)) {
		return ReasonBackupRoot, true
	}
	return "", false
}

// ShouldDescend is the stateless form of Matcher.ShouldDescend.
func ShouldDescend(parentDir, childName, backupRoot string, userPatterns []string) bool {
	return NewMatcher(userPatterns, backupRoot).ShouldDescend(parentDir, childName)
}

// within reports whether path equals root or is nested under it. Both must
// be absolute and clean.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
