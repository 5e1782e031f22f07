package code

import (
	"io"
	"reflect"
)

// Option is a value that may be absent. An absent value encodes to nothing;
// decoding always produces a present value, so Option is normally paired
// with a cond directive that decides whether the bytes are there.
type Option[T Coder] struct {
	Value T
}

// Some returns a present Option.
func Some[T Coder](v T) Option[T] { return Option[T]{Value: v} }

// IsSome reports whether the value is present.
func (o *Option[T]) IsSome() bool { return !isNil(o.Value) }

func (o *Option[T]) Encode(w io.Writer) error {
	if isNil(o.Value) {
		return nil
	}
	return o.Value.Encode(w)
}

func (o *Option[T]) Decode(r io.Reader) error {
	o.Value = newElem[T]()
	return Decode(r, o.Value)
}

// newElem creates a new instance of the concrete type T for decoding into.
// Pointer types get a fresh pointee.
func newElem[T any]() T {
	var item T
	elemType := reflect.TypeOf(item)
	if elemType == nil {
		return item
	}
	if elemType.Kind() == reflect.Ptr {
		return reflect.New(elemType.Elem()).Interface().(T)
	}
	return item
}

func isNil[T any](v T) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
