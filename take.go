package podio

import (
	"fmt"
	"io"
)

// Take limits how far a stream may advance. Reads, writes and forward seeks
// are capped to the remaining budget, and the budget shrinks by the amount
// each call actually completed.
type Take[S any] struct {
	inner S
	limit int64
}

// NewTake wraps s with a budget of limit bytes.
func NewTake[S any](s S, limit int64) *Take[S] {
	if limit < 0 {
		limit = 0
	}
	return &Take[S]{inner: s, limit: limit}
}

// Remaining returns the bytes left in the budget.
func (t *Take[S]) Remaining() int64 { return t.limit }

// Unwrap returns the inner stream.
func (t *Take[S]) Unwrap() S { return t.inner }

// Read reads at most Remaining bytes. An exhausted budget reads as io.EOF.
func (t *Take[S]) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if t.limit <= 0 {
		return 0, io.EOF
	}
	r, ok := any(t.inner).(io.Reader)
	if !ok {
		return 0, ErrNotReadable
	}
	n := min(int64(len(p)), t.limit)
	read, err := r.Read(p[:n])
	if read < 0 || int64(read) > n {
		return 0, ErrInvalidRead
	}
	t.limit -= int64(read)
	return read, err
}

// Write writes at most Remaining bytes. Input that does not fit is reported
// with io.ErrShortWrite.
func (t *Take[S]) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if t.limit <= 0 {
		return 0, io.ErrShortWrite
	}
	w, ok := any(t.inner).(io.Writer)
	if !ok {
		return 0, ErrNotWritable
	}
	n := min(int64(len(p)), t.limit)
	written, err := w.Write(p[:n])
	if written < 0 || int64(written) > n {
		return 0, ErrInvalidWrite
	}
	t.limit -= int64(written)
	if err == nil && written < len(p) {
		err = io.ErrShortWrite
	}
	return written, err
}

// SeekForward skips at most Remaining bytes. An exhausted budget skips
// nothing and is not an error.
func (t *Take[S]) SeekForward(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative forward seek %d", ErrInvalidSeek, n)
	}
	n = min(n, t.limit)
	if n == 0 {
		return 0, nil
	}
	moved, err := SeekForward(t.inner, n)
	t.limit -= moved
	return moved, err
}

// Tell returns the position of the inner stream.
func (t *Take[S]) Tell() (int64, error) { return Tell(t.inner) }

// Close closes the underlying stream if it implements io.Closer.
func (t *Take[S]) Close() error {
	if c, ok := any(t.inner).(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Seek implements forward-only io.Seeker semantics.
func (t *Take[S]) Seek(offset int64, whence int) (int64, error) {
	return Seek(t, offset, whence)
}

// WriteTo implements the io.WriterTo interface, copying what is left of the
// budget to w.
func (t *Take[S]) WriteTo(w io.Writer) (n int64, err error) {
	bufPtr := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufPtr)
	buf := *bufPtr

	for {
		read, er := t.Read(buf)
		if read > 0 {
			written, ew := w.Write(buf[0:read])
			n += int64(written)
			if ew != nil {
				err = ew
				break
			}
			if read != written {
				err = io.ErrShortWrite
				break
			}
		}
		if er != nil {
			if er != io.EOF && !IsInterrupted(er) {
				err = er
				break
			}
			if er == io.EOF {
				break
			}
		}
	}
	return n, err
}

// Capabilities reports Tell and forward seeking when the inner stream has them.
// Backward and absolute movement would escape the budget, so they are never offered.
func (t *Take[S]) Capabilities() Capability {
	return CapabilitiesOf(t.inner) & (CanTell | CanSeekForward)
}
