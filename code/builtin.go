package code

import (
	"bytes"
	"io"
	"slices"
	"unicode/utf8"

	"github.com/oy3o/podio"
	"github.com/pkg/errors"
)

// StringOptions configures String. Without Len a String extends to the end
// of the stream, which usually means the end of an enclosing limit.
type StringOptions struct {
	Len *int
}

// String is UTF-8 text without terminator or length prefix.
type String string

func (s *String) Encode(w io.Writer) error { return s.EncodeWith(w, StringOptions{}) }
func (s *String) Decode(r io.Reader) error { return s.DecodeWith(r, StringOptions{}) }

func (s *String) EncodeWith(w io.Writer, opts StringOptions) error {
	if opts.Len != nil && *opts.Len != len(*s) {
		return errors.Wrapf(ErrInvalidEncoding, "string of %d bytes, length is %d", len(*s), *opts.Len)
	}
	_, err := io.WriteString(w, string(*s))
	return err
}

func (s *String) DecodeWith(r io.Reader, opts StringOptions) error {
	b, err := readLen(r, opts.Len)
	if err != nil {
		return err
	}
	if !utf8.Valid(b) {
		return errors.Wrap(ErrInvalidEncoding, "string is not valid UTF-8")
	}
	*s = String(b)
	return nil
}

// CStringOptions configures CString. With RequireNul a missing terminator is
// io.ErrUnexpectedEOF; otherwise the end of the stream also ends the string.
type CStringOptions struct {
	RequireNul bool
}

// CString is nul-terminated UTF-8 text.
type CString string

func (s *CString) Encode(w io.Writer) error { return s.EncodeWith(w, CStringOptions{}) }
func (s *CString) Decode(r io.Reader) error { return s.DecodeWith(r, CStringOptions{}) }

func (s *CString) EncodeWith(w io.Writer, _ CStringOptions) error {
	if bytes.IndexByte([]byte(*s), 0) >= 0 {
		return errors.Wrap(ErrInvalidEncoding, "string contains a nul byte")
	}
	if _, err := io.WriteString(w, string(*s)); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// DecodeWith reads up to the terminator, which is consumed but not stored.
// Nothing past the terminator is read.
func (s *CString) DecodeWith(r io.Reader, opts CStringOptions) error {
	b, found, err := podio.ReadUntilNul(r)
	if err != nil {
		return err
	}
	if !found && opts.RequireNul {
		return errors.Wrap(io.ErrUnexpectedEOF, "missing nul terminator")
	}
	if !utf8.Valid(b) {
		return errors.Wrap(ErrInvalidEncoding, "string is not valid UTF-8")
	}
	*s = CString(b)
	return nil
}

// BytesOptions configures Bytes. Without Len, Bytes extends to the end of
// the stream.
type BytesOptions struct {
	Len *int
}

// Bytes is raw binary data.
type Bytes []byte

func (b *Bytes) Encode(w io.Writer) error { return b.EncodeWith(w, BytesOptions{}) }
func (b *Bytes) Decode(r io.Reader) error { return b.DecodeWith(r, BytesOptions{}) }

func (b *Bytes) EncodeWith(w io.Writer, opts BytesOptions) error {
	if opts.Len != nil && *opts.Len != len(*b) {
		return errors.Wrapf(ErrInvalidEncoding, "%d bytes, length is %d", len(*b), *opts.Len)
	}
	_, err := w.Write(*b)
	return err
}

func (b *Bytes) DecodeWith(r io.Reader, opts BytesOptions) error {
	data, err := readLen(r, opts.Len)
	if err != nil {
		return err
	}
	*b = data
	return nil
}

func readLen(r io.Reader, n *int) ([]byte, error) {
	if n == nil {
		return io.ReadAll(r)
	}
	if *n < 0 {
		return nil, errors.Wrapf(ErrInvalidDirective, "negative length %d", *n)
	}
	// Lengths come from the input, so memory grows with the data actually
	// read.
	buf := make([]byte, 0, min(*n, maxPrealloc))
	for len(buf) < *n {
		start := len(buf)
		k := min(*n-start, maxPrealloc)
		buf = slices.Grow(buf, k)[:start+k]
		if err := podio.ReadExact(r, buf[start:]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// maxPrealloc bounds what is allocated ahead of reading.
const maxPrealloc = 64 << 10
