package code

import (
	"io"

	"github.com/oy3o/podio"
	"github.com/oy3o/podio/pod"
	"github.com/pkg/errors"
)

// Field is one field of a composite value: how to code it and the
// directives that surround it in each direction.
type Field[T any] struct {
	Name string
	Enc  Directives[T]
	Dec  Directives[T]

	Encode func(w io.Writer, v *T) error
	Decode func(r io.Reader, v *T) error
}

// With returns f with d as the directives of both directions.
func (f Field[T]) With(d Directives[T]) Field[T] {
	f.Enc, f.Dec = d, d
	return f
}

// PodField codes a Pod field through its layout.
func PodField[T, F any](name string, get func(v *T) *F) Field[T] {
	return Field[T]{
		Name:   name,
		Encode: func(w io.Writer, v *T) error { return pod.Write(w, get(v)) },
		Decode: func(r io.Reader, v *T) error { return pod.Read(r, get(v)) },
	}
}

// CoderField codes a field whose address implements Coder.
func CoderField[T, F any, PF interface {
	*F
	Coder
}](name string, get func(v *T) *F) Field[T] {
	return Field[T]{
		Name:   name,
		Encode: func(w io.Writer, v *T) error { return PF(get(v)).Encode(w) },
		Decode: func(r io.Reader, v *T) error { return Decode(r, PF(get(v))) },
	}
}

// OptionsField codes a field with options computed from the value.
func OptionsField[T, F, O any, PF interface {
	*F
	OptionsEncoder[O]
	OptionsDecoder[O]
}](name string, get func(v *T) *F, opts func(v *T) (O, error)) Field[T] {
	return Field[T]{
		Name: name,
		Encode: func(w io.Writer, v *T) error {
			o, err := opts(v)
			if err != nil {
				return err
			}
			return PF(get(v)).EncodeWith(w, o)
		},
		Decode: func(r io.Reader, v *T) error {
			o, err := opts(v)
			if err != nil {
				return err
			}
			f := PF(get(v))
			if err := f.DecodeWith(r, o); err != nil {
				return err
			}
			return validate(f)
		},
	}
}

// Struct codes a composite value field by field. It is the runtime behind
// both hand-written field tables and the schema front ends.
type Struct[T any] struct {
	Fields []Field[T]

	// Validate runs after every field has been decoded. The value's own
	// Validator is left to whoever decodes it: Decode, a parent field or a
	// container element.
	Validate func(v *T) error

	// Reset prepares v for decoding. Nil assigns the zero value.
	Reset func(v *T)
}

// Encode writes v. Alignment is relative to the first byte written by this
// call.
func (s *Struct[T]) Encode(w io.Writer, v *T) error {
	t := podio.NewTracker(podio.NewWriteForward(w))
	for i := range s.Fields {
		f := &s.Fields[i]
		if err := encodeField(t, f, v); err != nil {
			return errors.Wrapf(err, "encode field %s", f.Name)
		}
	}
	return nil
}

// Decode resets v and reads it field by field. Alignment is relative to the
// position of r when Decode is called.
func (s *Struct[T]) Decode(r io.Reader, v *T) error {
	if s.Reset != nil {
		s.Reset(v)
	} else {
		var zero T
		*v = zero
	}

	// A plain io.Seeker moves past the end without reporting it, so only
	// native forward seekers are used as they are.
	src := r
	if _, ok := r.(podio.ForwardSeeker); !ok || !podio.CapabilitiesOf(r).Has(podio.CanSeekForward) {
		src = podio.NewReadForward(r)
	}
	t := podio.NewTracker(src)
	for i := range s.Fields {
		f := &s.Fields[i]
		if err := decodeField(t, f, v); err != nil {
			return errors.Wrapf(err, "decode field %s", f.Name)
		}
	}

	if s.Validate != nil {
		return s.Validate(v)
	}
	return nil
}

// stream is what the engine needs from its position-tracking wrapper.
type stream interface {
	podio.Teller
	podio.ForwardSeeker
}

func stage[T any](s stream, d *Directives[T], v *T) error {
	for _, m := range d.Moves {
		n, err := m.N(v)
		if err != nil {
			return errors.Wrap(err, m.Kind.String())
		}
		if n < 0 {
			return errors.Wrapf(ErrInvalidDirective, "%s %d", m.Kind, n)
		}
		switch m.Kind {
		case MoveAlign:
			if n == 0 {
				return errors.Wrap(ErrInvalidDirective, "align 0")
			}
			if _, err := podio.Align(s, n); err != nil {
				return errors.Wrapf(err, "align %d", n)
			}
		case MoveSkip:
			moved, err := s.SeekForward(n)
			if err != nil {
				return errors.Wrapf(err, "skip %d", n)
			}
			if moved < n {
				return errors.Wrapf(io.ErrUnexpectedEOF, "skip %d", n)
			}
		}
	}
	return nil
}

func limit[T any](d *Directives[T], v *T) (int64, bool, error) {
	if d.Limit == nil {
		return 0, false, nil
	}
	n, err := d.Limit(v)
	if err != nil {
		return 0, false, errors.Wrap(err, "limit")
	}
	if n < 0 {
		return 0, false, errors.Wrapf(ErrInvalidDirective, "limit %d", n)
	}
	return n, true, nil
}

func cond[T any](d *Directives[T], v *T) (bool, error) {
	if d.Cond == nil {
		return true, nil
	}
	ok, err := d.Cond(v)
	if err != nil {
		return false, errors.Wrap(err, "cond")
	}
	return ok, nil
}

func check[T any](f *Field[T], d *Directives[T], v *T) error {
	if d.Assert == nil {
		return nil
	}
	ok, err := d.Assert(v)
	if err != nil {
		return errors.Wrap(err, "assert")
	}
	if !ok {
		return &AssertionError{Field: f.Name, Expr: d.AssertText}
	}
	return nil
}

func encodeField[T any, S interface {
	stream
	io.Writer
}](t S, f *Field[T], v *T) error {
	d := &f.Enc
	if d.Never {
		return nil
	}
	present, err := cond(d, v)
	if err != nil {
		return err
	}
	if present {
		if err := check(f, d, v); err != nil {
			return err
		}
	}
	if err := stage(t, d, v); err != nil {
		return err
	}
	n, limited, err := limit(d, v)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	if !limited {
		return f.Encode(t, v)
	}

	take := podio.NewTake(t, n)
	if err := f.Encode(take, v); err != nil {
		return err
	}
	if d.Consume {
		if rem := take.Remaining(); rem > 0 {
			if _, err := take.SeekForward(rem); err != nil {
				return errors.Wrap(err, "consume")
			}
		}
	}
	return nil
}

func decodeField[T any, S interface {
	stream
	io.Reader
}](t S, f *Field[T], v *T) error {
	d := &f.Dec
	if d.Never {
		return assignDefault(d, v)
	}
	if err := stage(t, d, v); err != nil {
		return err
	}
	n, limited, err := limit(d, v)
	if err != nil {
		return err
	}
	present, err := cond(d, v)
	if err != nil {
		return err
	}
	if !present {
		return assignDefault(d, v)
	}

	if !limited {
		if err := f.Decode(t, v); err != nil {
			return err
		}
		return check(f, d, v)
	}

	take := podio.NewTake(t, n)
	if err := f.Decode(take, v); err != nil {
		return err
	}
	if d.Consume {
		if rem := take.Remaining(); rem > 0 {
			moved, err := take.SeekForward(rem)
			if err != nil {
				return errors.Wrap(err, "consume")
			}
			if moved < rem {
				return errors.Wrapf(io.ErrUnexpectedEOF, "consume %d", rem)
			}
		}
	}
	return check(f, d, v)
}

func assignDefault[T any](d *Directives[T], v *T) error {
	if d.Default == nil {
		return nil
	}
	return errors.Wrap(d.Default(v), "default")
}
