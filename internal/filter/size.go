package filter

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	// Longest first so "MB" wins over "B".
	{"KB", 1 << 10}, {"MB", 1 << 20}, {"GB", 1 << 30}, {"TB", 1 << 40},
	{"K", 1 << 10}, {"M", 1 << 20}, {"G", 1 << 30}, {"T", 1 << 40},
	{"B", 1},
}

// ParseSize parses a human-readable size such as "512", "100K", "1.5G" or
// "100MB" into bytes. Units are powers of 1024 and case-insensitive.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size string")
	}

	upper := strings.ToUpper(s)
	num, mult := upper, int64(1)
	for _, u := range sizeSuffixes {
		if strings.HasSuffix(upper, u.suffix) {
			num, mult = strings.TrimSpace(upper[:len(upper)-len(u.suffix)]), u.mult
			break
		}
	}
	if num == "" {
		return 0, errors.Newf("invalid size: %q", s)
	}

	if n, err := strconv.ParseInt(num, 10, 64); err == nil {
		if n < 0 {
			return 0, errors.Newf("negative size: %q", s)
		}
		return n * mult, nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return 0, errors.Newf("invalid size: %q", s)
	}
	return int64(f * float64(mult)), nil
}
