//go:build !linux

package platform

// CopyFile uses read/write outside Linux.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	preallocate(params.Dst, params.Size)
	return copyReadWrite(params, 0)
}
