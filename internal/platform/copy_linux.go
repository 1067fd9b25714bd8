//go:build linux

package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

// CopyFile tries the most efficient copy method available on Linux,
// falling through on unsupported/cross-device errors. Each strategy resumes
// where the previous one stopped.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	preallocate(params.Dst, params.Size)

	result, err := copyFileRange(params)
	if err == nil || !isFallbackErr(err) {
		return result, err
	}

	written := result.BytesWritten
	result, err = copySendfile(params, written)
	if err == nil || !isFallbackErr(err) {
		return result, err
	}

	return copyReadWrite(params, result.BytesWritten)
}

//nolint:gosec // G115: fd values are small non-negative integers
func copyFileRange(params CopyFileParams) (CopyResult, error) {
	srcFd, dstFd := int(params.Src.Fd()), int(params.Dst.Fd())

	var total int64
	for remaining := params.Size; remaining > 0; {
		n, err := unix.CopyFileRange(srcFd, nil, dstFd, nil, int(min(remaining, 1<<30)), 0)
		if err != nil {
			return CopyResult{BytesWritten: total, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}
	return CopyResult{BytesWritten: total, Method: CopyFileRange}, nil
}

//nolint:gosec // G115: fd values are small non-negative integers
func copySendfile(params CopyFileParams, written int64) (CopyResult, error) {
	srcFd, dstFd := int(params.Src.Fd()), int(params.Dst.Fd())

	total := written
	for remaining := params.Size - written; remaining > 0; {
		n, err := unix.Sendfile(dstFd, srcFd, nil, int(min(remaining, 1<<30)))
		if err != nil {
			return CopyResult{BytesWritten: total, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}
	return CopyResult{BytesWritten: total, Method: Sendfile}, nil
}

// isFallbackErr reports whether err should move on to the next strategy.
func isFallbackErr(err error) bool {
	for _, target := range []error{unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.ENOTSUP, unix.EOPNOTSUPP} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
