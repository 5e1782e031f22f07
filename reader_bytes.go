package podio

import (
	"fmt"
	"io"
)

// BytesReader is an io.Reader that reads from a pre-allocated byte slice
// and offers every seek capability natively.
type BytesReader struct {
	B []byte // source slice
	N int    // current read position
}

// NewBytesReader creates a new BytesReader.
func NewBytesReader(b []byte) *BytesReader {
	return &BytesReader{B: b}
}

// Close does nothing.
func (r *BytesReader) Close() error {
	return nil
}

// Read implements the [io.Reader] interface.
func (r *BytesReader) Read(p []byte) (int, error) {
	if r.N >= len(r.B) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, r.B[r.N:])
	r.N += n
	return n, nil
}

// ReadByte implements the [io.ByteReader] interface.
func (r *BytesReader) ReadByte() (byte, error) {
	if r.N >= len(r.B) {
		return 0, io.EOF
	}
	b := r.B[r.N]
	r.N++
	return b, nil
}

// WriteTo implements the [io.WriterTo] interface for efficiency.
func (r *BytesReader) WriteTo(w io.Writer) (int64, error) {
	if r.N >= len(r.B) {
		return 0, nil
	}
	b := r.B[r.N:]
	n, err := w.Write(b)
	if n < 0 || n > len(b) {
		return 0, ErrInvalidWrite
	}
	r.N += n
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

func (r *BytesReader) Tell() (int64, error) { return int64(r.N), nil }

// SeekForward skips up to n bytes, stopping at the end of the slice.
func (r *BytesReader) SeekForward(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative forward seek %d", ErrInvalidSeek, n)
	}
	n = min(n, int64(r.Available()))
	r.N += int(n)
	return n, nil
}

// SeekBackward moves back n bytes. Going before the start is an error.
func (r *BytesReader) SeekBackward(n int64) (int64, error) {
	if n < 0 || n > int64(r.N) {
		return 0, fmt.Errorf("%w: cannot move back %d bytes from %d", ErrInvalidSeek, n, r.N)
	}
	r.N -= int(n)
	return n, nil
}

func (r *BytesReader) SeekAbsolute(pos int64) (int64, error) { return r.Seek(pos, io.SeekStart) }
func (r *BytesReader) SeekEnd(offset int64) (int64, error)   { return r.Seek(offset, io.SeekEnd) }
func (r *BytesReader) SeekRewind() error                     { r.N = 0; return nil }

// Seek implements the [io.Seeker] interface.
func (r *BytesReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(r.N) + offset
	case io.SeekEnd:
		abs = int64(len(r.B)) + offset
	default:
		return 0, ErrInvalidWhence
	}

	if abs < 0 {
		return 0, ErrInvalidSeek
	}

	r.N = int(abs)
	return abs, nil
}

// Reset allows the underlying byte slice to be reused.
func (r *BytesReader) Reset() {
	r.N = 0
}

// Len returns the number of bytes read.
func (r *BytesReader) Len() int {
	return r.N
}

// Size returns the size of the underlying byte slice.
func (r *BytesReader) Size() int {
	return len(r.B)
}

// Available returns the number of bytes available for reading.
func (r *BytesReader) Available() int {
	length := len(r.B) - r.N
	if length <= 0 {
		return 0
	}
	return length
}
