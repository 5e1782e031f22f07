package podio

import (
	"fmt"
	"io"
)

// PeekableReader is a reader that allows peeking ahead at the underlying data stream.
// It keeps Tell and SeekForward of the inner reader working by accounting
// for the bytes held in the peek buffer.
type PeekableReader struct {
	R io.Reader // The underlying reader.
	B []byte    // The buffer for peeked data.
}

// PeekReader returns a PeekableReader. If the given reader is already a
// PeekableReader, it is returned directly.
func PeekReader(r io.Reader) *PeekableReader {
	if pr, ok := r.(*PeekableReader); ok {
		return pr
	}
	return &PeekableReader{R: r}
}

// Peek returns the next n bytes without advancing the reader. Fewer bytes
// come back only together with the error that stopped the fill.
func (r *PeekableReader) Peek(n int) ([]byte, error) {
	if len(r.B) >= n {
		return r.B[:n], nil
	}

	i := len(r.B)
	r.B = append(r.B, make([]byte, n-i)...)

	var err error
	for i < n {
		read, er := r.R.Read(r.B[i:])
		i += read
		if er != nil {
			if IsInterrupted(er) {
				continue
			}
			err = er
			break
		}
	}
	r.B = r.B[:i]
	return r.B, err
}

// AtEOF reports whether the reader has no more data, without consuming any.
func (r *PeekableReader) AtEOF() (bool, error) {
	b, err := r.Peek(1)
	if len(b) > 0 {
		return false, nil
	}
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// Close closes the underlying reader if it implements io.Closer.
func (r *PeekableReader) Close() error {
	if c, ok := r.R.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Read reads data into p. It first reads from the peeked buffer and then
// from the underlying reader if necessary.
func (r *PeekableReader) Read(p []byte) (n int, err error) {
	n = copy(p, r.B)
	if len(p) <= len(r.B) {
		r.B = r.B[n:]
		return n, nil
	}
	r.B = nil
	if n > 0 {
		// Serve the peeked bytes alone rather than blocking on the inner reader.
		return n, nil
	}
	return r.R.Read(p)
}

// Tell returns the logical position of the reader.
func (r *PeekableReader) Tell() (int64, error) {
	pos, err := Tell(r.R)
	if err != nil {
		return 0, err
	}
	return pos - int64(len(r.B)), nil
}

// SeekForward skips peeked bytes first, then moves the inner reader.
func (r *PeekableReader) SeekForward(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative forward seek %d", ErrInvalidSeek, n)
	}
	if n <= int64(len(r.B)) {
		r.B = r.B[n:]
		return n, nil
	}
	buffered := int64(len(r.B))
	r.B = nil
	var (
		moved int64
		err   error
	)
	if CapabilitiesOf(r.R).Has(CanSeekForward) {
		moved, err = SeekForward(r.R, n-buffered)
	} else {
		moved, err = Discard(r.R, n-buffered)
		if err == io.EOF {
			err = nil
		}
	}
	return buffered + moved, err
}

// Capabilities reports Tell when the inner reader has it. Forward seeking
// is always available.
func (r *PeekableReader) Capabilities() Capability {
	return CapabilitiesOf(r.R)&CanTell | CanSeekForward
}

// WriteTo writes data to w. It first writes the peeked buffer and then
// copies from the underlying reader.
func (r *PeekableReader) WriteTo(w io.Writer) (n int64, err error) {
	if len(r.B) > 0 {
		written, err := w.Write(r.B)
		n = int64(written)
		r.B = r.B[written:]
		if err != nil {
			return n, err
		}
		if len(r.B) > 0 {
			return n, io.ErrShortWrite
		}
	}

	if wt, ok := r.R.(io.WriterTo); ok {
		m, err := wt.WriteTo(w)
		return n + m, err
	}
	if rf, ok := w.(io.ReaderFrom); ok {
		m, err := rf.ReadFrom(r.R)
		return n + m, err
	}

	bufPtr := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufPtr)
	buf := *bufPtr

	for {
		read, er := r.R.Read(buf)
		if read > 0 {
			written, ew := w.Write(buf[0:read])
			n += int64(written)
			if ew != nil {
				err = ew
				break
			}
			if read != written {
				err = io.ErrShortWrite
				r.B = make([]byte, read-written)
				copy(r.B, buf[written:read])
				break
			}
		}
		if er != nil {
			if IsInterrupted(er) {
				continue
			}
			if er != io.EOF {
				err = er
			}
			break
		}
	}

	return n, err
}
