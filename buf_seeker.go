package podio

import (
	"fmt"
	"io"
)

const minBufSeekerSize = 16

// BufSeeker is a buffered reader that keeps the last fill around so that
// short seeks in either direction are served from memory. Only buf[0:w] is
// valid and r is the read cursor inside it. A seek that stays within
// [0, w] moves the cursor; anything else drops the buffer and is delegated
// to the inner stream.
type BufSeeker[R io.Reader] struct {
	inner R
	buf   []byte
	r, w  int
	err   error // pending error from the last fill
}

// NewBufSeeker returns a BufSeeker with a buffer of BUFFER_SIZE bytes.
func NewBufSeeker[R io.Reader](inner R) *BufSeeker[R] {
	return NewBufSeekerSize(inner, BUFFER_SIZE)
}

// NewBufSeekerSize returns a BufSeeker whose buffer has at least size bytes.
func NewBufSeekerSize[R io.Reader](inner R, size int) *BufSeeker[R] {
	if size < minBufSeekerSize {
		size = minBufSeekerSize
	}
	return &BufSeeker[R]{inner: inner, buf: make([]byte, size)}
}

// Buffered returns the number of bytes that can be read without touching
// the inner stream.
func (b *BufSeeker[R]) Buffered() int { return b.w - b.r }

// Size returns the size of the buffer.
func (b *BufSeeker[R]) Size() int { return len(b.buf) }

// Unwrap returns the inner stream. Buffered bytes are lost.
func (b *BufSeeker[R]) Unwrap() R { return b.inner }

func (b *BufSeeker[R]) invalidate() {
	b.r, b.w = 0, 0
	b.err = nil
}

func (b *BufSeeker[R]) readErr() error {
	err := b.err
	b.err = nil
	return err
}

// Read implements the io.Reader interface. A request at least as large as
// the buffer bypasses it when nothing is buffered.
func (b *BufSeeker[R]) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.r == b.w {
		if b.err != nil {
			return 0, b.readErr()
		}
		if len(p) >= len(b.buf) {
			b.r, b.w = 0, 0
			return b.inner.Read(p)
		}
		n, err := b.inner.Read(b.buf)
		if n < 0 || n > len(b.buf) {
			return 0, ErrInvalidRead
		}
		b.r, b.w = 0, n
		b.err = err
		if n == 0 {
			return 0, b.readErr()
		}
	}
	n := copy(p, b.buf[b.r:b.w])
	b.r += n
	return n, nil
}

// ReadByte implements the io.ByteReader interface.
func (b *BufSeeker[R]) ReadByte() (byte, error) {
	var p [1]byte
	for {
		n, err := b.Read(p[:])
		if n == 1 {
			return p[0], nil
		}
		if err != nil && !IsInterrupted(err) {
			return 0, err
		}
	}
}

// Close closes the underlying reader if it implements io.Closer.
func (b *BufSeeker[R]) Close() error {
	b.invalidate()
	if c, ok := any(b.inner).(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Tell returns the logical position, i.e. the inner position minus the
// bytes still waiting in the buffer.
func (b *BufSeeker[R]) Tell() (int64, error) {
	pos, err := Tell(b.inner)
	if err != nil {
		return 0, err
	}
	return pos - int64(b.w-b.r), nil
}

// SeekForward skips n bytes, from the buffer when possible. Without a
// forward capability on the inner stream the rest is read and discarded.
func (b *BufSeeker[R]) SeekForward(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative forward seek %d", ErrInvalidSeek, n)
	}
	avail := int64(b.w - b.r)
	if n <= avail {
		b.r += int(n)
		return n, nil
	}
	b.invalidate()
	if CapabilitiesOf(b.inner).Has(CanSeekForward) {
		moved, err := SeekForward(b.inner, n-avail)
		return avail + moved, err
	}
	skipped, err := Discard(b.inner, n-avail)
	if err == io.EOF {
		err = nil
	}
	return avail + skipped, err
}

// SeekBackward moves back n bytes, within the buffer when possible.
func (b *BufSeeker[R]) SeekBackward(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative backward seek %d", ErrInvalidSeek, n)
	}
	if n <= int64(b.r) {
		b.r -= int(n)
		return n, nil
	}
	if !CapabilitiesOf(b.inner).Has(CanSeekBackward) {
		return 0, unsupported("seek backward", b.inner)
	}
	unread := int64(b.w - b.r)
	b.invalidate()
	moved, err := SeekBackward(b.inner, n+unread)
	return max(moved-unread, 0), err
}

// SeekAbsolute moves to pos, within the buffer when the target is inside
// the valid window.
func (b *BufSeeker[R]) SeekAbsolute(pos int64) (int64, error) {
	if pos < 0 {
		return 0, fmt.Errorf("%w: negative position %d", ErrInvalidSeek, pos)
	}
	if b.w > 0 && CapabilitiesOf(b.inner).Has(CanTell) {
		cur, err := b.Tell()
		if err != nil {
			return 0, err
		}
		if delta := pos - cur; delta >= -int64(b.r) && delta <= int64(b.w-b.r) {
			b.r += int(delta)
			return pos, nil
		}
	}
	if !CapabilitiesOf(b.inner).Has(CanSeekAbsolute) {
		return 0, unsupported("seek absolute", b.inner)
	}
	b.invalidate()
	return SeekAbsolute(b.inner, pos)
}

// SeekEnd always goes to the inner stream.
func (b *BufSeeker[R]) SeekEnd(offset int64) (int64, error) {
	if !CapabilitiesOf(b.inner).Has(CanSeekEnd) {
		return 0, unsupported("seek end", b.inner)
	}
	b.invalidate()
	return SeekEnd(b.inner, offset)
}

// SeekRewind always goes to the inner stream.
func (b *BufSeeker[R]) SeekRewind() error {
	if !CapabilitiesOf(b.inner).Has(CanRewind) {
		return unsupported("rewind", b.inner)
	}
	b.invalidate()
	return SeekRewind(b.inner)
}

// Seek implements the io.Seeker interface.
func (b *BufSeeker[R]) Seek(offset int64, whence int) (int64, error) {
	return Seek(b, offset, whence)
}

// Capabilities reports the inner capabilities plus forward seeking, which
// falls back to discarding reads.
func (b *BufSeeker[R]) Capabilities() Capability {
	return CapabilitiesOf(b.inner) | CanSeekForward
}
