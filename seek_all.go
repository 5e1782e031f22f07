package podio

import "io"

// SeekAll splits a full io.Seeker into the six individual capabilities.
type SeekAll struct {
	s io.Seeker
}

// NewSeekAll wraps s.
func NewSeekAll(s io.Seeker) *SeekAll {
	if s == nil {
		panic("podio: NewSeekAll called with a nil io.Seeker")
	}
	return &SeekAll{s: s}
}

// Unwrap returns the inner seeker.
func (a *SeekAll) Unwrap() io.Seeker { return a.s }

func (a *SeekAll) Read(p []byte) (int, error) {
	if r, ok := a.s.(io.Reader); ok {
		return r.Read(p)
	}
	return 0, ErrNotReadable
}

func (a *SeekAll) Write(p []byte) (int, error) {
	if w, ok := a.s.(io.Writer); ok {
		return w.Write(p)
	}
	return 0, ErrNotWritable
}

// Close closes the underlying seeker if it implements io.Closer.
func (a *SeekAll) Close() error {
	if c, ok := a.s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *SeekAll) Tell() (int64, error) { return a.s.Seek(0, io.SeekCurrent) }

func (a *SeekAll) SeekForward(n int64) (int64, error) {
	if n < 0 {
		return 0, ErrInvalidSeek
	}
	if _, err := a.s.Seek(n, io.SeekCurrent); err != nil {
		return 0, err
	}
	return n, nil
}

func (a *SeekAll) SeekBackward(n int64) (int64, error) {
	if n < 0 {
		return 0, ErrInvalidSeek
	}
	if _, err := a.s.Seek(-n, io.SeekCurrent); err != nil {
		return 0, err
	}
	return n, nil
}

func (a *SeekAll) SeekAbsolute(pos int64) (int64, error) { return a.s.Seek(pos, io.SeekStart) }
func (a *SeekAll) SeekEnd(offset int64) (int64, error)   { return a.s.Seek(offset, io.SeekEnd) }

func (a *SeekAll) SeekRewind() error {
	_, err := a.s.Seek(0, io.SeekStart)
	return err
}

// Seek implements the io.Seeker interface.
func (a *SeekAll) Seek(offset int64, whence int) (int64, error) { return a.s.Seek(offset, whence) }

func (a *SeekAll) Capabilities() Capability { return CanSeekAll }
