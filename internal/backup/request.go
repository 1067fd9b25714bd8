// Package backup defines the backup request, its validation and the error
// kinds shared by the engine and its drivers.
package backup

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// DefaultExtensions is the extension set offered when the user selects none.
var DefaultExtensions = []string{".pdf", ".xlsx", ".docx", ".jpg", ".png", ".mp4", ".mp3", ".txt"}

// Request describes one backup run. It is treated as immutable once validated.
type Request struct {
	SourceRoot          string
	DestinationRoot     string
	Extensions          []string // normalized: ".ext", lowercase, unique
	ExcludedDirPatterns []string // case-insensitive substrings of directory paths
	ExcludedFileNames   []string // exact, case-sensitive base names
}

// NormalizeExtension lowercases ext and ensures a leading dot.
// "PDF", "pdf" and ".Pdf" all become ".pdf".
func NormalizeExtension(ext string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(ext))
	if e == "" || e == "." {
		return "", configErrorf("", "empty extension %q", ext)
	}
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	if strings.ContainsAny(e[1:], `./\`) {
		return "", configErrorf("extensions are a single suffix such as .pdf", "invalid extension %q", ext)
	}
	return e, nil
}

// NormalizeExtensions normalizes every entry and drops duplicates, keeping
// first-seen order.
func NormalizeExtensions(exts []string) ([]string, error) {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, raw := range exts {
		e, err := NormalizeExtension(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

// ParseList splits comma separated user input into trimmed, non-empty items.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the request and returns a normalized copy with absolute
// paths. It never touches the filesystem beyond stat calls. Every error it
// returns is marked ErrConfiguration.
func (r Request) Validate() (Request, error) {
	out := Request{
		ExcludedDirPatterns: compact(r.ExcludedDirPatterns, true),
		ExcludedFileNames:   compact(r.ExcludedFileNames, false),
	}

	exts, err := NormalizeExtensions(r.Extensions)
	if err != nil {
		return Request{}, err
	}
	if len(exts) == 0 {
		return Request{}, configErrorf("select at least one extension, e.g. --ext pdf", "no extensions selected")
	}
	out.Extensions = exts

	if strings.TrimSpace(r.SourceRoot) == "" {
		return Request{}, configErrorf("", "source directory is required")
	}
	src, err := filepath.Abs(r.SourceRoot)
	if err != nil {
		return Request{}, errors.Mark(errors.Wrapf(err, "resolve source %s", r.SourceRoot), ErrConfiguration)
	}
	info, err := os.Stat(src)
	if err != nil {
		return Request{}, configErrorf("", "source %s: %v", src, err)
	}
	if !info.IsDir() {
		return Request{}, configErrorf("", "source %s is not a directory", src)
	}
	out.SourceRoot = src

	if strings.TrimSpace(r.DestinationRoot) == "" {
		return Request{}, configErrorf("pass a destination or set defaults.destination in the config file",
			"destination directory is required")
	}
	dst, err := filepath.Abs(r.DestinationRoot)
	if err != nil {
		return Request{}, errors.Mark(errors.Wrapf(err, "resolve destination %s", r.DestinationRoot), ErrConfiguration)
	}
	writable, err := writableDir(dst)
	if err != nil {
		return Request{}, err
	}
	if err := unix.Access(writable, unix.W_OK); err != nil {
		return Request{}, configErrorf("", "destination %s is not writable: %v", writable, err)
	}
	out.DestinationRoot = dst

	return out, nil
}

// writableDir returns the directory that must accept new entries for dst to
// be usable: dst itself when it exists, otherwise its parent.
func writableDir(dst string) (string, error) {
	info, err := os.Stat(dst)
	switch {
	case err == nil && info.IsDir():
		return dst, nil
	case err == nil:
		return "", configErrorf("", "destination %s is not a directory", dst)
	case !errors.Is(err, os.ErrNotExist):
		return "", configErrorf("", "destination %s: %v", dst, err)
	}

	parent := filepath.Dir(dst)
	pinfo, err := os.Stat(parent)
	if err != nil || !pinfo.IsDir() {
		return "", configErrorf("create the parent directory first",
			"destination parent %s does not exist", parent)
	}
	return parent, nil
}

// compact drops empty entries. File names are exact matches, so only
// patterns are trimmed.
func compact(in []string, trim bool) []string {
	var out []string
	for _, s := range in {
		if trim {
			s = strings.TrimSpace(s)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
