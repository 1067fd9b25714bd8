package platform

import (
	"io"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// Buffer borrows a pooled copy buffer. Callers must hand it back with
// PutBuffer.
func Buffer() *[]byte { return bufPool.Get().(*[]byte) } //nolint:forcetypeassert // pool only holds *[]byte

// PutBuffer returns a buffer obtained from Buffer.
func PutBuffer(b *[]byte) { bufPool.Put(b) }

// copyReadWrite streams the remaining source bytes through a pooled buffer.
// written is what earlier strategies already transferred; both files are
// positioned at that offset.
func copyReadWrite(params CopyFileParams, written int64) (CopyResult, error) {
	bufp := Buffer()
	defer PutBuffer(bufp)

	n, err := io.CopyBuffer(onlyWriter{params.Dst}, onlyReader{params.Src}, *bufp)
	return CopyResult{BytesWritten: written + n, Method: ReadWrite}, err
}

// onlyReader and onlyWriter hide *os.File's ReaderFrom/WriterTo so
// io.CopyBuffer really uses the pooled buffer.
type onlyReader struct{ r io.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

type onlyWriter struct{ w io.Writer }

func (o onlyWriter) Write(p []byte) (int, error) { return o.w.Write(p) }
