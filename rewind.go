package podio

import (
	"fmt"
	"io"
)

// RewindForwarder is the minimum RewindAbsolute needs from its inner stream.
type RewindForwarder interface {
	Teller
	ForwardSeeker
	Rewinder
}

// RewindAbsolute synthesizes absolute seeking from Tell, SeekForward and
// SeekRewind. Moving backwards costs a rewind plus a forward seek over the
// whole distance from the start, which is the usual price for compressed or
// encrypted streams.
type RewindAbsolute[S RewindForwarder] struct {
	inner S
}

// NewRewindAbsolute wraps s.
func NewRewindAbsolute[S RewindForwarder](s S) *RewindAbsolute[S] {
	return &RewindAbsolute[S]{inner: s}
}

// Unwrap returns the inner stream.
func (s *RewindAbsolute[S]) Unwrap() S { return s.inner }

// SeekAbsolute moves to pos. Zero is a plain rewind, a position behind the
// current one rewinds and skips forward, anything else skips the delta.
func (s *RewindAbsolute[S]) SeekAbsolute(pos int64) (int64, error) {
	if pos < 0 {
		return 0, fmt.Errorf("%w: negative position %d", ErrInvalidSeek, pos)
	}
	if pos == 0 {
		return 0, s.inner.SeekRewind()
	}
	cur, err := s.inner.Tell()
	if err != nil {
		return 0, err
	}
	if pos < cur {
		if err := s.inner.SeekRewind(); err != nil {
			return 0, err
		}
		cur = 0
	}
	if pos == cur {
		return cur, nil
	}
	moved, err := s.inner.SeekForward(pos - cur)
	return cur + moved, err
}

func (s *RewindAbsolute[S]) Read(p []byte) (int, error) {
	if r, ok := any(s.inner).(io.Reader); ok {
		return r.Read(p)
	}
	return 0, ErrNotReadable
}

func (s *RewindAbsolute[S]) Write(p []byte) (int, error) {
	if w, ok := any(s.inner).(io.Writer); ok {
		return w.Write(p)
	}
	return 0, ErrNotWritable
}

// Close closes the underlying stream if it implements io.Closer.
func (s *RewindAbsolute[S]) Close() error {
	if c, ok := any(s.inner).(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *RewindAbsolute[S]) Tell() (int64, error)                { return s.inner.Tell() }
func (s *RewindAbsolute[S]) SeekForward(n int64) (int64, error)  { return s.inner.SeekForward(n) }
func (s *RewindAbsolute[S]) SeekRewind() error                   { return s.inner.SeekRewind() }
func (s *RewindAbsolute[S]) SeekBackward(n int64) (int64, error) { return SeekBackward(s.inner, n) }
func (s *RewindAbsolute[S]) SeekEnd(off int64) (int64, error)    { return SeekEnd(s.inner, off) }

// Seek implements the io.Seeker interface on top of the synthesized capabilities.
func (s *RewindAbsolute[S]) Seek(offset int64, whence int) (int64, error) {
	return Seek(s, offset, whence)
}

// Capabilities adds absolute seeking when the inner stream really offers
// the three capabilities it is built from.
func (s *RewindAbsolute[S]) Capabilities() Capability {
	caps := CapabilitiesOf(s.inner)
	if caps.Has(CanTell | CanSeekForward | CanRewind) {
		caps |= CanSeekAbsolute
	}
	return caps
}
