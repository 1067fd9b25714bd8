package filter

import (
	"bufio"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// LoadPatterns reads exclusion patterns from a file, one per line.
// Blank lines and lines starting with # are skipped. Surrounding whitespace
// is trimmed; the rest of the line is the pattern verbatim.
func LoadPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open exclude file")
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read exclude file %s", path)
	}
	return patterns, nil
}
