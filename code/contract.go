// Package code is the field-coding engine: the Encoder/Decoder contract,
// the built-in codings and an interpreter that runs per-field directives
// (align, skip, limit, cond/default, consume, assert) around each field.
package code

import (
	"bytes"
	"encoding"
	"io"

	"github.com/oy3o/podio"
)

// Encoder writes a value to a stream.
type Encoder interface {
	Encode(w io.Writer) error
}

// Decoder reads a value from a stream. Implementations use pointer receivers.
type Decoder interface {
	Decode(r io.Reader) error
}

// Coder is a value that can be both encoded and decoded.
type Coder interface {
	Encoder
	Decoder
}

// OptionsEncoder encodes with per-call options, e.g. a length computed from
// a sibling field.
type OptionsEncoder[O any] interface {
	EncodeWith(w io.Writer, opts O) error
}

// OptionsDecoder decodes with per-call options.
type OptionsDecoder[O any] interface {
	DecodeWith(r io.Reader, opts O) error
}

// Validator is called on a whole value after it has been decoded.
type Validator interface {
	Validate() error
}

// None is the options type of codings that take no options.
type None struct{}

// Sizer is an interface for types that can report their binary size.
// This is useful for pre-allocating buffers before encoding.
type Sizer interface {
	// Size returns the size of the type in bytes when binary encoded.
	Size() int
}

// Marshaler defines the slice and stream oriented encoding methods of a
// self-sizing codec such as pod.Fixed.
type Marshaler interface {
	encoding.BinaryMarshaler
	io.WriterTo

	// MarshalTo encodes into a pre-allocated buffer, returning
	// io.ErrShortWrite if the buffer is too small.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler defines the core methods for decoding a byte stream into an object.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler
	io.ReaderFrom
}

// Codec aggregates all binary serialization and deserialization interfaces.
// A type implementing Codec is a complete, self-sizing binary encoder/decoder.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
	Coder
}

// EncodeBytes encodes v into a new byte slice.
func EncodeBytes(v Encoder) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode decodes v from r and runs its Validator, if any.
func Decode(r io.Reader, v Decoder) error {
	if err := v.Decode(r); err != nil {
		return err
	}
	return validate(v)
}

func validate(v any) error {
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}

// DecodeBytes decodes v from data. Trailing bytes are ignored.
func DecodeBytes(data []byte, v Decoder) error {
	return Decode(podio.NewBytesReader(data), v)
}

// UnmarshalExact decodes v from data and rejects anything but zero padding
// after the encoded value.
func UnmarshalExact(data []byte, v Decoder) error {
	r := podio.NewBytesReader(data)
	if err := Decode(r, v); err != nil {
		return err
	}
	return podio.CheckTrailingNotZeros(r)
}
