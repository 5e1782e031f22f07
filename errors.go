package podio

import "errors"

var (
	// ErrUnsupportedSeek indicates a capability the stream cannot honor, e.g. a
	// backward seek on a forward-only adapter.
	ErrUnsupportedSeek = errors.New("podio: seek capability not supported by stream")

	// ErrInvalidSeek indicates a seek was attempted to invalid position.
	ErrInvalidSeek = errors.New("podio: seek to a invalid position")

	// ErrInvalidWhence indicates that an invalid 'whence' parameter was provided to a Seek operation.
	ErrInvalidWhence = errors.New("podio: unsupported whence")

	// ErrInterrupted may be returned by a Reader or Writer to signal that the call
	// was interrupted before making progress. ReadExact and the adapters retry it.
	ErrInterrupted = errors.New("podio: operation interrupted")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative) count from Write.
	ErrInvalidWrite = errors.New("podio: writer returned invalid count from Write")

	// ErrInvalidRead indicates that an io.Reader returned an invalid (negative or outbound) count from Read.
	ErrInvalidRead = errors.New("podio: reader returned invalid count from Read")

	// ErrDiscardNegative indicates a Discard operation was attempted with a negative byte count.
	ErrDiscardNegative = errors.New("podio: cannot discard negative number of bytes")
)

var (
	// ErrNotReadable indicates a Read on a wrapper whose inner stream is not an io.Reader.
	ErrNotReadable = errors.New("podio: inner stream is not readable")

	// ErrNotWritable indicates a Write on a wrapper whose inner stream is not an io.Writer.
	ErrNotWritable = errors.New("podio: inner stream is not writable")

	// ErrTrailingData is returned by CheckTrailingNotZeros when non-zero bytes are found
	// after the expected end of the data structure, indicating a potential parsing error or malformed data.
	ErrTrailingData = errors.New("podio: non-zero trailing data found after decoding")

	// ErrTruncatedData indicates that an encoding produced or consumed fewer bytes than its fixed size.
	ErrTruncatedData = errors.New("podio: data is truncated")
)
