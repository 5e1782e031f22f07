package podio

import (
	"fmt"
	"io"
)

// BytesWriter is an io.Writer that writes to a pre-allocated byte slice.
// It will not grow the slice's capacity. If a write exceeds the available space,
// it writes as much as it can and returns io.ErrShortWrite.
//
// The cursor can be moved anywhere inside the slice; Bytes covers everything
// up to the furthest position ever reached.
type BytesWriter struct {
	B  []byte // destination slice
	N  int    // current write position
	hi int
}

// NewBytesWriter creates a new BytesWriter.
func NewBytesWriter(p []byte) *BytesWriter {
	return &BytesWriter{B: p[:cap(p)]}
}

// Close does nothing.
func (w *BytesWriter) Close() error {
	return nil
}

func (w *BytesWriter) advance(n int) {
	w.N += n
	w.hi = max(w.hi, w.N)
}

// Write implements the io.Writer interface.
func (w *BytesWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if w.N >= len(w.B) {
		return 0, io.ErrShortWrite
	}
	n := copy(w.B[w.N:], p)
	w.advance(n)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// WriteString implements the io.StringWriter interface for efficiency.
func (w *BytesWriter) WriteString(s string) (int, error) {
	if len(s) == 0 {
		return 0, nil
	}
	if w.N >= len(w.B) {
		return 0, io.ErrShortWrite
	}
	n := copy(w.B[w.N:], s)
	w.advance(n)
	if n < len(s) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// WriteByte implements the io.ByteWriter interface for efficiency.
func (w *BytesWriter) WriteByte(c byte) error {
	if w.N >= len(w.B) {
		return io.ErrShortWrite
	}
	w.B[w.N] = c
	w.advance(1)
	return nil
}

func (w *BytesWriter) Tell() (int64, error) { return int64(w.N), nil }

// SeekForward zero-fills the next n bytes.
func (w *BytesWriter) SeekForward(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative forward seek %d", ErrInvalidSeek, n)
	}
	if n > int64(w.Available()) {
		written := w.Available()
		clear(w.B[w.N:])
		w.advance(written)
		return int64(written), io.ErrShortWrite
	}
	clear(w.B[w.N : w.N+int(n)])
	w.advance(int(n))
	return n, nil
}

func (w *BytesWriter) SeekBackward(n int64) (int64, error) {
	if n < 0 || n > int64(w.N) {
		return 0, fmt.Errorf("%w: cannot move back %d bytes from %d", ErrInvalidSeek, n, w.N)
	}
	w.N -= int(n)
	return n, nil
}

func (w *BytesWriter) SeekAbsolute(pos int64) (int64, error) { return w.Seek(pos, io.SeekStart) }
func (w *BytesWriter) SeekEnd(offset int64) (int64, error)   { return w.Seek(offset, io.SeekEnd) }
func (w *BytesWriter) SeekRewind() error                     { w.N = 0; return nil }

// Seek implements the io.Seeker interface. The end is the end of the slice.
func (w *BytesWriter) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.N) + offset
	case io.SeekEnd:
		abs = int64(len(w.B)) + offset
	default:
		return 0, ErrInvalidWhence
	}
	if abs < 0 || abs > int64(len(w.B)) {
		return int64(w.N), fmt.Errorf("%w: %d outside [0, %d]", ErrInvalidSeek, abs, len(w.B))
	}
	w.N = int(abs)
	w.hi = max(w.hi, w.N)
	return abs, nil
}

// Flush do nothing
func (w *BytesWriter) Flush() error { return nil }

// Reset allows the underlying byte slice to be reused.
func (w *BytesWriter) Reset() { w.N, w.hi = 0, 0 }

// Len returns the number of bytes written.
func (w *BytesWriter) Len() int { return w.hi }

// Size returns the capacity of the underlying byte slice.
func (w *BytesWriter) Size() int { return len(w.B) }

// Available returns the number of bytes available for writing.
func (w *BytesWriter) Available() int { return len(w.B) - w.N }

// Bytes returns a slice view of the written data.
func (w *BytesWriter) Bytes() []byte { return w.B[:w.hi] }
