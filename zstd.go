package podio

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdReader decompresses a zstd stream. Decompressed data cannot be
// addressed directly, so it offers Tell, SeekForward by decompressing and
// discarding, and SeekRewind by restarting the decoder from the beginning of
// the source. Wrap it in RewindAbsolute for absolute seeks.
type ZstdReader struct {
	src   io.ReadSeeker
	dec   *zstd.Decoder
	start int64 // offset of the compressed stream in src
	pos   int64
}

// NewZstdReader starts decompressing src at its current offset.
func NewZstdReader(src io.ReadSeeker, opts ...zstd.DOption) (*ZstdReader, error) {
	start, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(src, opts...)
	if err != nil {
		return nil, err
	}
	return &ZstdReader{src: src, dec: dec, start: start}, nil
}

// Read implements the io.Reader interface.
func (z *ZstdReader) Read(p []byte) (int, error) {
	n, err := z.dec.Read(p)
	z.pos += int64(n)
	return n, err
}

// Tell returns the offset in the decompressed data.
func (z *ZstdReader) Tell() (int64, error) { return z.pos, nil }

// SeekForward decompresses and discards up to n bytes.
func (z *ZstdReader) SeekForward(n int64) (int64, error) {
	skipped, err := Discard(z, n)
	if err == io.EOF {
		err = nil
	}
	return skipped, err
}

// SeekRewind restarts decompression from the beginning.
func (z *ZstdReader) SeekRewind() error {
	if _, err := z.src.Seek(z.start, io.SeekStart); err != nil {
		return err
	}
	if err := z.dec.Reset(z.src); err != nil {
		return err
	}
	z.pos = 0
	return nil
}

// Close releases the decoder and closes the source if it is an io.Closer.
func (z *ZstdReader) Close() error {
	z.dec.Close()
	if c, ok := z.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (z *ZstdReader) Capabilities() Capability {
	return CanTell | CanSeekForward | CanRewind
}
