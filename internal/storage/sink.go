package storage

import "io"

// OffsetWriter is an append-only sink that knows the absolute position of
// the next byte.
type OffsetWriter struct {
	w      io.Writer
	offset int64
}

func NewOffsetWriter(w io.Writer) *OffsetWriter {
	return &OffsetWriter{w: w}
}

func (w *OffsetWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.offset += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

func (w *OffsetWriter) Offset() int64 { return w.offset }
