package podio

import (
	"io"
)

// ReadForward wraps an io.Reader, adding a forward seek capability that
// is simulated by reading and discarding data. Every other capability of the
// inner reader is forwarded unchanged.
type ReadForward struct {
	r io.Reader
}

// NewReadForward wraps r so it can seek forward.
func NewReadForward(r io.Reader) *ReadForward {
	if r == nil {
		panic("podio: NewReadForward called with a nil io.Reader")
	}
	return &ReadForward{r: r}
}

// Unwrap returns the inner reader.
func (s *ReadForward) Unwrap() io.Reader { return s.r }

// Read implements the io.Reader interface.
func (s *ReadForward) Read(p []byte) (int, error) { return s.r.Read(p) }

// Close closes the underlying reader if it implements io.Closer.
func (s *ReadForward) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SeekForward discards up to n bytes. Reaching the end of the stream yields
// a short count, not an error.
func (s *ReadForward) SeekForward(n int64) (int64, error) {
	skipped, err := Discard(s.r, n)
	if err == io.EOF {
		err = nil
	}
	return skipped, err
}

func (s *ReadForward) Tell() (int64, error)                { return Tell(s.r) }
func (s *ReadForward) SeekBackward(n int64) (int64, error) { return SeekBackward(s.r, n) }
func (s *ReadForward) SeekAbsolute(p int64) (int64, error) { return SeekAbsolute(s.r, p) }
func (s *ReadForward) SeekEnd(off int64) (int64, error)    { return SeekEnd(s.r, off) }
func (s *ReadForward) SeekRewind() error                   { return SeekRewind(s.r) }

// Seek implements the io.Seeker interface on top of the forwarded capabilities.
func (s *ReadForward) Seek(offset int64, whence int) (int64, error) {
	return Seek(s, offset, whence)
}

// Capabilities reports forward seeking plus whatever the inner reader offers.
func (s *ReadForward) Capabilities() Capability {
	return CapabilitiesOf(s.r) | CanSeekForward
}

// WriteForward wraps an io.Writer, adding a forward seek capability that
// is simulated by writing zero bytes.
type WriteForward struct {
	w io.Writer
}

// NewWriteForward wraps w so it can seek forward.
func NewWriteForward(w io.Writer) *WriteForward {
	if w == nil {
		panic("podio: NewWriteForward called with a nil io.Writer")
	}
	return &WriteForward{w: w}
}

// Unwrap returns the inner writer.
func (s *WriteForward) Unwrap() io.Writer { return s.w }

// Write implements the io.Writer interface.
func (s *WriteForward) Write(p []byte) (int, error) { return s.w.Write(p) }

// Flush flushes the underlying writer if it supports it.
func (s *WriteForward) Flush() error {
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close closes the underlying writer if it implements io.Closer.
func (s *WriteForward) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SeekForward writes n zero bytes.
func (s *WriteForward) SeekForward(n int64) (int64, error) { return WriteZeros(s.w, n) }

func (s *WriteForward) Tell() (int64, error)                { return Tell(s.w) }
func (s *WriteForward) SeekBackward(n int64) (int64, error) { return SeekBackward(s.w, n) }
func (s *WriteForward) SeekAbsolute(p int64) (int64, error) { return SeekAbsolute(s.w, p) }
func (s *WriteForward) SeekEnd(off int64) (int64, error)    { return SeekEnd(s.w, off) }
func (s *WriteForward) SeekRewind() error                   { return SeekRewind(s.w) }

// Seek implements the io.Seeker interface on top of the forwarded capabilities.
func (s *WriteForward) Seek(offset int64, whence int) (int64, error) {
	return Seek(s, offset, whence)
}

// Capabilities reports forward seeking plus whatever the inner writer offers.
func (s *WriteForward) Capabilities() Capability {
	return CapabilitiesOf(s.w) | CanSeekForward
}
