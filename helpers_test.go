package podio

import (
	"bytes"
	"io"
)

// onlyReader hides every method of the wrapped reader but Read.
type onlyReader struct{ r io.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

func newOnlyReader(s string) onlyReader { return onlyReader{r: bytes.NewReader([]byte(s))} }

// countingReader counts calls reaching the inner reader.
type countingReader struct {
	*bytes.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.Reader.Read(p)
}

// rewindReader can only read and restart from the beginning.
type rewindReader struct {
	data    []byte
	pos     int
	rewinds int
}

func (r *rewindReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *rewindReader) SeekRewind() error {
	r.pos = 0
	r.rewinds++
	return nil
}

// interruptingReader fails every other call with ErrInterrupted and
// returns at most two bytes per successful call.
type interruptingReader struct {
	r     io.Reader
	calls int
}

func (i *interruptingReader) Read(p []byte) (int, error) {
	i.calls++
	if i.calls%2 == 1 {
		return 0, ErrInterrupted
	}
	if len(p) > 2 {
		p = p[:2]
	}
	return i.r.Read(p)
}

func digits(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + i%10)
	}
	return b
}
