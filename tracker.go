package podio

import (
	"io"
)

// Tracker adds Tell to any stream by counting the bytes that pass through
// it. Reads, writes and forward seeks advance the counter, backward seeks
// decrease it, rewinds reset it and absolute or end seeks set it to the
// position the inner stream reports.
//
// The count starts at zero, so positions are relative to where the stream
// was when it was wrapped.
type Tracker[S any] struct {
	inner S
	pos   int64
}

// NewTracker wraps s with a counter starting at zero.
func NewTracker[S any](s S) *Tracker[S] {
	return &Tracker[S]{inner: s}
}

// Unwrap returns the inner stream.
func (t *Tracker[S]) Unwrap() S { return t.inner }

func (t *Tracker[S]) Read(p []byte) (int, error) {
	r, ok := any(t.inner).(io.Reader)
	if !ok {
		return 0, ErrNotReadable
	}
	n, err := r.Read(p)
	t.pos += int64(n)
	return n, err
}

func (t *Tracker[S]) Write(p []byte) (int, error) {
	w, ok := any(t.inner).(io.Writer)
	if !ok {
		return 0, ErrNotWritable
	}
	n, err := w.Write(p)
	t.pos += int64(n)
	return n, err
}

// Close closes the underlying stream if it implements io.Closer.
func (t *Tracker[S]) Close() error {
	if c, ok := any(t.inner).(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Tell returns the number of bytes the stream advanced since it was wrapped.
func (t *Tracker[S]) Tell() (int64, error) { return t.pos, nil }

func (t *Tracker[S]) SeekForward(n int64) (int64, error) {
	moved, err := SeekForward(t.inner, n)
	t.pos += moved
	return moved, err
}

func (t *Tracker[S]) SeekBackward(n int64) (int64, error) {
	moved, err := SeekBackward(t.inner, n)
	t.pos -= moved
	return moved, err
}

func (t *Tracker[S]) SeekAbsolute(pos int64) (int64, error) {
	p, err := SeekAbsolute(t.inner, pos)
	if err != nil {
		return t.pos, err
	}
	t.pos = p
	return p, nil
}

func (t *Tracker[S]) SeekEnd(offset int64) (int64, error) {
	p, err := SeekEnd(t.inner, offset)
	if err != nil {
		return t.pos, err
	}
	t.pos = p
	return p, nil
}

func (t *Tracker[S]) SeekRewind() error {
	if err := SeekRewind(t.inner); err != nil {
		return err
	}
	t.pos = 0
	return nil
}

// Seek implements the io.Seeker interface on top of the forwarded capabilities.
func (t *Tracker[S]) Seek(offset int64, whence int) (int64, error) {
	return Seek(t, offset, whence)
}

// Capabilities reports Tell plus whatever the inner stream offers.
func (t *Tracker[S]) Capabilities() Capability {
	return CapabilitiesOf(t.inner) | CanTell
}
