package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/bamsammich/backupdata/internal/platform"
)

// copier copies single files into place through a temporary sibling so an
// interrupted copy never leaves a truncated file under its final name.
type copier struct {
	preserve bool          // mode and atime/mtime
	limiter  *rate.Limiter // nil = unthrottled kernel fast path
}

// copyFile copies srcPath to dstPath, replacing dstPath if it exists, and
// reports the bytes written and the copy method used.
func (c *copier) copyFile(ctx context.Context, srcPath, dstPath string) (platform.CopyResult, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return platform.CopyResult{}, errors.Wrap(err, "open source")
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return platform.CopyResult{}, errors.Wrap(err, "stat source")
	}
	if !info.Mode().IsRegular() {
		return platform.CopyResult{}, errors.Newf("%s is no longer a regular file", srcPath)
	}

	dir := filepath.Dir(dstPath)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(dstPath), uuid.New().String()[:8]))

	defer os.Remove(tmpPath) //nolint:errcheck // no-op once renamed

	perm := os.FileMode(0o666) // umask applies
	if c.preserve {
		perm = 0o600 // widened to the source mode before rename
	}
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return platform.CopyResult{}, errors.Wrapf(err, "create tmp %s", tmpPath)
	}

	res, err := c.copyData(ctx, src, tmp, info.Size())
	if err != nil {
		tmp.Close()
		return res, errors.Wrap(err, "copy data")
	}

	if c.preserve {
		//nolint:gosec // G115: fd values are small non-negative integers
		if err := unix.Fchmod(int(tmp.Fd()), uint32(info.Mode().Perm())); err != nil {
			tmp.Close()
			return res, errors.Wrapf(err, "chmod %s", tmpPath)
		}
	}

	if err := tmp.Close(); err != nil {
		return res, errors.Wrapf(err, "close tmp %s", tmpPath)
	}

	if c.preserve {
		if err := setTimes(tmpPath, accessTime(info), info.ModTime()); err != nil {
			return res, err
		}
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		return res, errors.Wrapf(err, "rename %s -> %s", tmpPath, dstPath)
	}
	return res, nil
}

func (c *copier) copyData(ctx context.Context, src, dst *os.File, size int64) (platform.CopyResult, error) {
	if c.limiter == nil {
		return platform.CopyFile(platform.CopyFileParams{Src: src, Dst: dst, Size: size})
	}

	bufp := platform.Buffer()
	defer platform.PutBuffer(bufp)
	n, err := io.CopyBuffer(struct{ io.Writer }{dst}, newRateLimitedReader(ctx, src, c.limiter), *bufp)
	return platform.CopyResult{BytesWritten: n, Method: platform.ReadWrite}, err
}

func setTimes(path string, atime, mtime time.Time) error {
	times := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	if err := unix.UtimesNano(path, times); err != nil {
		return errors.Wrapf(err, "set times on %s", path)
	}
	return nil
}
