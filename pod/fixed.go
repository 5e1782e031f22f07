package pod

import (
	"fmt"
	"io"

	"github.com/oy3o/podio"
)

// Fixed provides a complete binary codec for any Pod type, eliminating
// boilerplate for simple data structures. The wire encoding is the one
// described by the type's Layout.
//
// Constraint: Payload MUST be Pod; every method panics otherwise.
type Fixed[Payload any] struct {
	Payload Payload
}

// Size returns the fixed wire size of the payload in bytes.
// The layout is cached, so no reflection happens after the first call.
func (c *Fixed[Payload]) Size() int {
	return mustLayout[Payload]().Size
}

// MarshalBinary implements the standard `encoding.BinaryMarshaler` interface.
// Note: This method allocates a new byte slice. For performance-critical paths,
// use `MarshalTo` or `WriteTo` instead.
func (c *Fixed[Payload]) MarshalBinary() ([]byte, error) {
	return Marshal(&c.Payload), nil
}

// UnmarshalBinary implements the standard `encoding.BinaryUnmarshaler` interface.
// Bytes past the payload must be zero.
func (c *Fixed[Payload]) UnmarshalBinary(data []byte) error {
	size := c.Size()
	if len(data) < size {
		return fmt.Errorf("%w: expected %d bytes, got %d", podio.ErrTruncatedData, size, len(data))
	}
	Unmarshal(data[:size], &c.Payload)
	for i, b := range data[size:] {
		if b != 0 {
			return fmt.Errorf("%w: found non-zero byte 0x%02x at offset %d", podio.ErrTrailingData, b, size+i)
		}
	}
	return nil
}

// ReadFrom implements `io.ReaderFrom` for reading directly from a stream into the payload.
func (c *Fixed[Payload]) ReadFrom(r io.Reader) (int64, error) {
	if err := Read(r, &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

// WriteTo implements `io.WriterTo` for writing directly to a stream.
func (c *Fixed[Payload]) WriteTo(w io.Writer) (int64, error) {
	if err := Write(w, &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

// MarshalTo marshals the payload into the provided slice `p`.
// This is the most performant marshalling option as it avoids memory allocation.
func (c *Fixed[Payload]) MarshalTo(p []byte) (int, error) {
	size := c.Size()
	if len(p) < size {
		return 0, io.ErrShortWrite
	}
	MarshalTo(p[:size], &c.Payload)
	return size, nil
}

// Encode writes the payload; it makes Fixed usable as a field coding.
func (c *Fixed[Payload]) Encode(w io.Writer) error { return Write(w, &c.Payload) }

// Decode reads the payload.
func (c *Fixed[Payload]) Decode(r io.Reader) error { return Read(r, &c.Payload) }
