package code

import (
	"io"

	"github.com/oy3o/podio"
	"github.com/pkg/errors"
)

// SliceOptions configures Slice. Len fixes the element count; without it
// elements are decoded until the stream ends. Elem is handed to every
// element that accepts options.
type SliceOptions[O any] struct {
	Len  *int
	Elem O
}

// Slice is a sequence of elements with no count prefix.
type Slice[T Coder, O any] struct {
	Items []T
}

// List is a Slice whose elements take no options.
type List[T Coder] = Slice[T, None]

// Len returns the number of elements.
func (l *Slice[T, O]) Len() int { return len(l.Items) }

func (l *Slice[T, O]) Encode(w io.Writer) error {
	var opts SliceOptions[O]
	return l.EncodeWith(w, opts)
}

func (l *Slice[T, O]) Decode(r io.Reader) error {
	var opts SliceOptions[O]
	return l.DecodeWith(r, opts)
}

func (l *Slice[T, O]) EncodeWith(w io.Writer, opts SliceOptions[O]) error {
	if opts.Len != nil && *opts.Len != len(l.Items) {
		return errors.Wrapf(ErrInvalidEncoding, "%d elements, length is %d", len(l.Items), *opts.Len)
	}
	for i, item := range l.Items {
		var err error
		if oe, ok := any(item).(OptionsEncoder[O]); ok {
			err = oe.EncodeWith(w, opts.Elem)
		} else {
			err = item.Encode(w)
		}
		if err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

// DecodeWith reads exactly *opts.Len elements, or, without a length, reads
// elements until the stream ends cleanly between two of them.
func (l *Slice[T, O]) DecodeWith(r io.Reader, opts SliceOptions[O]) error {
	l.Items = l.Items[:0]
	if opts.Len != nil {
		if *opts.Len < 0 {
			return errors.Wrapf(ErrInvalidDirective, "negative length %d", *opts.Len)
		}
		for i := range *opts.Len {
			if err := l.decodeOne(r, opts.Elem); err != nil {
				return errors.Wrapf(unexpected(err), "element %d", i)
			}
		}
		return nil
	}

	pr := podio.PeekReader(r)
	for i := 0; ; i++ {
		eof, err := pr.AtEOF()
		if err != nil {
			return err
		}
		if eof {
			return nil
		}
		if err := l.decodeOne(pr, opts.Elem); err != nil {
			return errors.Wrapf(unexpected(err), "element %d", i)
		}
	}
}

func (l *Slice[T, O]) decodeOne(r io.Reader, opts O) error {
	item := newElem[T]()
	var err error
	if od, ok := any(item).(OptionsDecoder[O]); ok {
		if err = od.DecodeWith(r, opts); err == nil {
			err = validate(item)
		}
	} else {
		err = Decode(r, item)
	}
	if err != nil {
		return err
	}
	l.Items = append(l.Items, item)
	return nil
}

// unexpected turns a bare io.EOF inside an element into io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
