package podio

import (
	"fmt"
	"io"
)

// Region restricts a stream to the absolute window [start, end). Positions
// seen through the Region are relative to start, reads and writes are cut
// off at end and no seek ever moves the inner stream outside the window.
//
// The inner stream must offer Tell. Movements are carried out with the
// cheapest capability available: forward and backward seeks when the
// current position is known, absolute seeks otherwise. A Region over a
// write-only stream lifted with WriteForward and Tracker can therefore only
// move forward.
type Region[S any] struct {
	inner      S
	start, end int64

	pos   int64 // absolute position of inner, valid when known
	known bool
}

// NewRegion restricts s to [start, end). It panics when the bounds are
// inverted.
func NewRegion[S any](s S, start, end int64) *Region[S] {
	if start < 0 || end < start {
		panic(fmt.Sprintf("podio: invalid region [%d, %d)", start, end))
	}
	return &Region[S]{inner: s, start: start, end: end}
}

// Bounds returns the absolute window of the region.
func (g *Region[S]) Bounds() (start, end int64) { return g.start, g.end }

// Unwrap returns the inner stream.
func (g *Region[S]) Unwrap() S { return g.inner }

// Len returns the size of the window.
func (g *Region[S]) Len() int64 { return g.end - g.start }

// moveTo positions the inner stream at the absolute offset target.
func (g *Region[S]) moveTo(target int64) error {
	caps := CapabilitiesOf(g.inner)
	switch {
	case g.known && target == g.pos:
		return nil
	case g.known && target > g.pos && caps.Has(CanSeekForward):
		moved, err := SeekForward(g.inner, target-g.pos)
		g.pos += moved
		return err
	case g.known && target < g.pos && caps.Has(CanSeekBackward):
		moved, err := SeekBackward(g.inner, g.pos-target)
		g.pos -= moved
		return err
	}
	p, err := SeekAbsolute(g.inner, target)
	if err != nil {
		g.known = false
		return err
	}
	g.pos, g.known = p, true
	return nil
}

// position returns the position relative to start, pulling the inner stream
// back into the window first if it was left outside.
func (g *Region[S]) position() (int64, error) {
	if !g.known {
		p, err := Tell(g.inner)
		if err != nil {
			return 0, err
		}
		g.pos, g.known = p, true
	}
	switch {
	case g.pos < g.start:
		if err := g.moveTo(g.start); err != nil {
			return 0, err
		}
	case g.pos > g.end:
		if err := g.moveTo(g.end); err != nil {
			return 0, err
		}
	}
	return g.pos - g.start, nil
}

// Read reads at most up to the end of the window. At the boundary it
// returns (0, io.EOF).
func (g *Region[S]) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r, ok := any(g.inner).(io.Reader)
	if !ok {
		return 0, ErrNotReadable
	}
	if _, err := g.position(); err != nil {
		return 0, err
	}
	n := min(int64(len(p)), g.end-g.pos)
	if n <= 0 {
		return 0, io.EOF
	}
	read, err := r.Read(p[:n])
	g.pos += int64(read)
	return read, err
}

// Write writes at most up to the end of the window. A write that had to be
// cut returns the written count with io.ErrShortWrite.
func (g *Region[S]) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w, ok := any(g.inner).(io.Writer)
	if !ok {
		return 0, ErrNotWritable
	}
	if _, err := g.position(); err != nil {
		return 0, err
	}
	n := min(int64(len(p)), g.end-g.pos)
	if n <= 0 {
		return 0, io.ErrShortWrite
	}
	written, err := w.Write(p[:n])
	g.pos += int64(written)
	if err == nil && written < len(p) {
		err = io.ErrShortWrite
	}
	return written, err
}

// Close closes the underlying stream if it implements io.Closer.
func (g *Region[S]) Close() error {
	if c, ok := any(g.inner).(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Tell returns the position relative to start.
func (g *Region[S]) Tell() (int64, error) { return g.position() }

// SeekForward moves forward by n bytes, stopping at the end of the window.
func (g *Region[S]) SeekForward(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative forward seek %d", ErrInvalidSeek, n)
	}
	if _, err := g.position(); err != nil {
		return 0, err
	}
	before := g.pos
	target := before + min(n, g.end-before)
	err := g.moveTo(target)
	return g.pos - before, err
}

// SeekBackward moves back by n bytes, stopping at the start of the window.
func (g *Region[S]) SeekBackward(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative backward seek %d", ErrInvalidSeek, n)
	}
	if _, err := g.position(); err != nil {
		return 0, err
	}
	before := g.pos
	target := before - min(n, before-g.start)
	err := g.moveTo(target)
	return before - g.pos, err
}

// SeekAbsolute moves to start+pos, clamped to the window, and returns the
// new relative position.
func (g *Region[S]) SeekAbsolute(pos int64) (int64, error) {
	if pos < 0 {
		return 0, fmt.Errorf("%w: negative position %d", ErrInvalidSeek, pos)
	}
	target := g.start + min(pos, g.end-g.start)
	if err := g.moveTo(target); err != nil {
		return 0, err
	}
	return g.pos - g.start, nil
}

// SeekEnd moves to end+offset, clamped to the window, and returns the new
// relative position.
func (g *Region[S]) SeekEnd(offset int64) (int64, error) {
	target := max(g.start, min(g.end, g.end+offset))
	if err := g.moveTo(target); err != nil {
		return 0, err
	}
	return g.pos - g.start, nil
}

// SeekRewind moves back to the start of the window.
func (g *Region[S]) SeekRewind() error { return g.moveTo(g.start) }

// Seek implements the io.Seeker interface relative to the window.
func (g *Region[S]) Seek(offset int64, whence int) (int64, error) {
	return Seek(g, offset, whence)
}

// Capabilities reports what the region can honor given its inner stream.
// Without Tell on the inner stream nothing works, so the set is empty.
func (g *Region[S]) Capabilities() Capability {
	inner := CapabilitiesOf(g.inner)
	if !inner.Has(CanTell) {
		return 0
	}
	caps := CanTell
	forward := inner.Has(CanSeekForward) || inner.Has(CanSeekAbsolute)
	backward := inner.Has(CanSeekBackward) || inner.Has(CanSeekAbsolute)
	if forward {
		caps |= CanSeekForward
	}
	if backward {
		caps |= CanSeekBackward
	}
	if forward && backward {
		caps |= CanSeekAbsolute | CanSeekEnd | CanRewind
	}
	return caps
}
