package podio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"

	"golang.org/x/exp/constraints"
)

const BUFFER_SIZE = 4096

var (
	empty   [BUFFER_SIZE]byte
	discard [BUFFER_SIZE]byte
)

const chunkSize = 32 * 1024

var (
	// scratchPool holds buffers for terminator-delimited reads.
	scratchPool = sync.Pool{New: func() any { return bytes.NewBuffer(make([]byte, 0, 256)) }}

	// chunkPool holds copy buffers, sized like io.Copy's.
	chunkPool = sync.Pool{New: func() any {
		b := make([]byte, chunkSize)
		return &b
	}}
)

// Zero is an io.Reader that reads an infinite stream of zero bytes.
var Zero io.Reader = zero{}

type zero struct{}

func (z zero) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func Ptr[T any](v T) *T { return &v } // ptr is a helper function to create a pointer to a value, making test setup cleaner.

// IsInterrupted reports whether err asks the caller to retry the call.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, syscall.EINTR)
}

// Discard reads and drops up to n bytes from r. Unlike io.CopyN it retries
// interrupted reads. It returns io.EOF together with the short count when r
// ends first.
func Discard(r io.Reader, n int64) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 {
		return 0, ErrDiscardNegative
	}
	var skipped int64
	for skipped < n {
		chunk := min(n-skipped, BUFFER_SIZE)
		read, err := r.Read(discard[:chunk])
		if read < 0 || int64(read) > chunk {
			return skipped, ErrInvalidRead
		}
		skipped += int64(read)
		if err != nil {
			if IsInterrupted(err) {
				continue
			}
			return skipped, err
		}
	}
	return skipped, nil
}

// WriteZeros writes n zero bytes to w, retrying interrupted writes.
func WriteZeros(w io.Writer, n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative padding %d", ErrInvalidSeek, n)
	}
	var written int64
	for written < n {
		chunk := min(n-written, BUFFER_SIZE)
		wrote, err := w.Write(empty[:chunk])
		if wrote < 0 || int64(wrote) > chunk {
			return written, ErrInvalidWrite
		}
		written += int64(wrote)
		if err != nil {
			if IsInterrupted(err) {
				continue
			}
			return written, err
		}
		if wrote == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Roundup rounds n up to the nearest multiple of align. Any align >= 1 is
// accepted, not only powers of two.
func Roundup[T constraints.Integer](n, align T) T {
	if align <= 1 {
		return n
	}
	if rem := n % align; rem != 0 {
		return n + align - rem
	}
	return n
}

// Align moves s forward to the next multiple of n and returns the new
// position. s must offer Tell and SeekForward. An already aligned stream is
// not touched.
func Align(s any, n int64) (int64, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: alignment %d", ErrInvalidSeek, n)
	}
	pos, err := Tell(s)
	if err != nil {
		return 0, err
	}
	target := Roundup(pos, n)
	if target == pos {
		return pos, nil
	}
	moved, err := SeekForward(s, target-pos)
	if err != nil {
		return pos + moved, err
	}
	if moved < target-pos {
		return pos + moved, io.ErrUnexpectedEOF
	}
	return target, nil
}

// ReadExactEOF fills buf from r, retrying interrupted reads, and returns how
// many bytes were read before the stream ended. A clean end-of-stream is not
// an error.
func ReadExactEOF(r io.Reader, buf []byte) (int, error) {
	var filled int
	for filled < len(buf) {
		n, err := r.Read(buf[filled:])
		if n < 0 || n > len(buf)-filled {
			return filled, ErrInvalidRead
		}
		filled += n
		if err != nil {
			if IsInterrupted(err) {
				continue
			}
			if err == io.EOF {
				return filled, nil
			}
			return filled, err
		}
	}
	return filled, nil
}

// ReadExact fills buf from r. A stream that ends early yields io.ErrUnexpectedEOF.
func ReadExact(r io.Reader, buf []byte) error {
	n, err := ReadExactEOF(r, buf)
	if err != nil {
		return err
	}
	if n < len(buf) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// MAX_PADDING defines the maximum number of trailing bytes to check.
// This prevents an Out-Of-Memory error if a parsing bug leaves a large
// amount of data in the reader. Anything larger is considered a protocol error.
const MAX_PADDING = 1024 // 1KB

// CheckTrailingNotZeros verifies that any remaining bytes in a reader are all zero.
func CheckTrailingNotZeros(r io.Reader) error {
	if reader, ok := r.(*BytesReader); ok && reader.Available() == 0 {
		return nil
	}

	lr := &io.LimitedReader{R: r, N: MAX_PADDING + 1}
	trailing, err := io.ReadAll(lr)
	if err != nil {
		return err
	}
	if len(trailing) > MAX_PADDING {
		return fmt.Errorf("%w: exceeds maximum expected size of %d bytes", ErrTrailingData, MAX_PADDING)
	}
	for i, b := range trailing {
		if b != 0 {
			return fmt.Errorf("%w: found non-zero byte 0x%02x at offset %d", ErrTrailingData, b, i)
		}
	}
	return nil
}

// ReadUntilNul reads bytes from r up to and excluding a nul byte. found
// reports whether the terminator was seen before the end of the stream. Bytes
// are pulled one at a time so nothing past the terminator is consumed.
func ReadUntilNul(r io.Reader) (data []byte, found bool, err error) {
	buf := scratchPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer scratchPool.Put(buf)

	if br, ok := r.(io.ByteReader); ok {
		for {
			b, err := br.ReadByte()
			if err != nil {
				if IsInterrupted(err) {
					continue
				}
				if err == io.EOF {
					break
				}
				return nil, false, err
			}
			if b == 0 {
				found = true
				break
			}
			buf.WriteByte(b)
		}
	} else {
		var p [1]byte
		for {
			n, err := r.Read(p[:])
			if n > 0 {
				if p[0] == 0 {
					found = true
					break
				}
				buf.WriteByte(p[0])
			}
			if err != nil {
				if IsInterrupted(err) {
					continue
				}
				if err == io.EOF {
					break
				}
				return nil, false, err
			}
		}
	}

	return bytes.Clone(buf.Bytes()), found, nil
}
