package podio

import (
	"fmt"
	"io"
	"strings"
)

// Teller exposes the current position in the stream without changing it.
type Teller interface {
	// Tell returns the current absolute position in the stream.
	Tell() (int64, error)
}

// ForwardSeeker is a limited form of seeking that only moves forward.
type ForwardSeeker interface {
	// SeekForward advances the stream by up to n bytes and returns the number
	// of bytes actually skipped. Read-backed streams may skip fewer bytes only
	// when they reach end-of-stream.
	SeekForward(n int64) (int64, error)
}

// BackwardSeeker is a limited form of seeking that only moves backward.
type BackwardSeeker interface {
	// SeekBackward moves the stream back by n bytes and returns the number of
	// bytes reversed by.
	SeekBackward(n int64) (int64, error)
}

// AbsoluteSeeker seeks to a position measured from the start of the stream.
type AbsoluteSeeker interface {
	// SeekAbsolute moves to pos and returns the new position.
	SeekAbsolute(pos int64) (int64, error)
}

// EndSeeker seeks to an offset from the end of the stream.
type EndSeeker interface {
	// SeekEnd moves to end-of-stream plus offset and returns the new position.
	SeekEnd(offset int64) (int64, error)
}

// Rewinder is a limited form of seeking that can only restart from the beginning.
// Compressed and cipher streams are typical examples.
type Rewinder interface {
	// SeekRewind moves back to the logical start of the stream.
	SeekRewind() error
}

// FullSeeker is the conjunction of all six capabilities, i.e. full random access.
type FullSeeker interface {
	Teller
	ForwardSeeker
	BackwardSeeker
	AbsoluteSeeker
	EndSeeker
	Rewinder
}

// Capability is a set of seek capabilities.
type Capability uint8

const (
	CanTell Capability = 1 << iota
	CanSeekForward
	CanSeekBackward
	CanSeekAbsolute
	CanSeekEnd
	CanRewind

	CanSeekAll = CanTell | CanSeekForward | CanSeekBackward | CanSeekAbsolute | CanSeekEnd | CanRewind
)

// Has reports whether c contains every capability in o.
func (c Capability) Has(o Capability) bool { return c&o == o }

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	names := []string{"tell", "forward", "backward", "absolute", "end", "rewind"}
	var parts []string
	for i, name := range names {
		if c&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// CapabilityReporter is implemented by adapters whose method set is wider than
// what they can honor, because they forward capabilities of an inner stream.
type CapabilityReporter interface {
	Capabilities() Capability
}

// CapabilitiesOf returns the capabilities s can honor. Reporters are trusted;
// otherwise an io.Seeker supports everything and any other stream supports
// the capability interfaces it implements.
func CapabilitiesOf(s any) Capability {
	if cr, ok := s.(CapabilityReporter); ok {
		return cr.Capabilities()
	}
	if _, ok := s.(io.Seeker); ok {
		return CanSeekAll
	}
	var c Capability
	if _, ok := s.(Teller); ok {
		c |= CanTell
	}
	if _, ok := s.(ForwardSeeker); ok {
		c |= CanSeekForward
	}
	if _, ok := s.(BackwardSeeker); ok {
		c |= CanSeekBackward
	}
	if _, ok := s.(AbsoluteSeeker); ok {
		c |= CanSeekAbsolute
	}
	if _, ok := s.(EndSeeker); ok {
		c |= CanSeekEnd
	}
	if _, ok := s.(Rewinder); ok {
		c |= CanRewind
	}
	return c
}

func unsupported(op string, s any) error {
	return fmt.Errorf("%w: %s on %T", ErrUnsupportedSeek, op, s)
}

// Tell returns the position of s using whichever capability it offers.
func Tell(s any) (int64, error) {
	if !CapabilitiesOf(s).Has(CanTell) {
		return 0, unsupported("tell", s)
	}
	if t, ok := s.(Teller); ok {
		return t.Tell()
	}
	if sk, ok := s.(io.Seeker); ok {
		return sk.Seek(0, io.SeekCurrent)
	}
	return 0, unsupported("tell", s)
}

// SeekForward advances s by n bytes.
func SeekForward(s any, n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative forward seek %d", ErrInvalidSeek, n)
	}
	if !CapabilitiesOf(s).Has(CanSeekForward) {
		return 0, unsupported("seek forward", s)
	}
	if f, ok := s.(ForwardSeeker); ok {
		return f.SeekForward(n)
	}
	if sk, ok := s.(io.Seeker); ok {
		if _, err := sk.Seek(n, io.SeekCurrent); err != nil {
			return 0, err
		}
		return n, nil
	}
	return 0, unsupported("seek forward", s)
}

// SeekBackward moves s back by n bytes.
func SeekBackward(s any, n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative backward seek %d", ErrInvalidSeek, n)
	}
	if !CapabilitiesOf(s).Has(CanSeekBackward) {
		return 0, unsupported("seek backward", s)
	}
	if b, ok := s.(BackwardSeeker); ok {
		return b.SeekBackward(n)
	}
	if sk, ok := s.(io.Seeker); ok {
		if _, err := sk.Seek(-n, io.SeekCurrent); err != nil {
			return 0, err
		}
		return n, nil
	}
	return 0, unsupported("seek backward", s)
}

// SeekAbsolute moves s to pos.
func SeekAbsolute(s any, pos int64) (int64, error) {
	if pos < 0 {
		return 0, fmt.Errorf("%w: negative position %d", ErrInvalidSeek, pos)
	}
	if !CapabilitiesOf(s).Has(CanSeekAbsolute) {
		return 0, unsupported("seek absolute", s)
	}
	if a, ok := s.(AbsoluteSeeker); ok {
		return a.SeekAbsolute(pos)
	}
	if sk, ok := s.(io.Seeker); ok {
		return sk.Seek(pos, io.SeekStart)
	}
	return 0, unsupported("seek absolute", s)
}

// SeekEnd moves s to its end plus offset.
func SeekEnd(s any, offset int64) (int64, error) {
	if !CapabilitiesOf(s).Has(CanSeekEnd) {
		return 0, unsupported("seek end", s)
	}
	if e, ok := s.(EndSeeker); ok {
		return e.SeekEnd(offset)
	}
	if sk, ok := s.(io.Seeker); ok {
		return sk.Seek(offset, io.SeekEnd)
	}
	return 0, unsupported("seek end", s)
}

// SeekRewind moves s back to its logical start.
func SeekRewind(s any) error {
	if !CapabilitiesOf(s).Has(CanRewind) {
		return unsupported("rewind", s)
	}
	if r, ok := s.(Rewinder); ok {
		return r.SeekRewind()
	}
	if sk, ok := s.(io.Seeker); ok {
		_, err := sk.Seek(0, io.SeekStart)
		return err
	}
	return unsupported("rewind", s)
}

// Seek implements io.Seeker semantics on top of the individual capabilities of s.
//
//   - io.SeekStart dispatches to SeekAbsolute.
//   - a positive io.SeekCurrent offset dispatches to SeekForward, or to
//     Tell + SeekAbsolute when forward seeking is unsupported.
//   - a negative io.SeekCurrent offset dispatches to SeekBackward, or to
//     Tell + SeekAbsolute when backward seeking is unsupported.
//   - a zero io.SeekCurrent offset is Tell.
//   - io.SeekEnd dispatches to SeekEnd.
//
// Types implementing io.Seeker through Seek must implement the capability
// method for every capability they report.
func Seek(s any, offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		return SeekAbsolute(s, offset)
	case io.SeekCurrent:
		caps := CapabilitiesOf(s)
		switch {
		case offset == 0:
			return Tell(s)
		case offset > 0 && caps.Has(CanSeekForward):
			if _, err := SeekForward(s, offset); err != nil {
				return 0, err
			}
			return Tell(s)
		case offset < 0 && caps.Has(CanSeekBackward):
			if _, err := SeekBackward(s, -offset); err != nil {
				return 0, err
			}
			return Tell(s)
		}
		pos, err := Tell(s)
		if err != nil {
			return 0, err
		}
		if pos+offset < 0 {
			return pos, fmt.Errorf("%w: %d before start of stream", ErrInvalidSeek, pos+offset)
		}
		return SeekAbsolute(s, pos+offset)
	case io.SeekEnd:
		return SeekEnd(s, offset)
	default:
		return 0, fmt.Errorf("%w: value %d is not supported", ErrInvalidWhence, whence)
	}
}
