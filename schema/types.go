package schema

import (
	"io"
	"reflect"
	"strings"

	"github.com/oy3o/podio"
	"github.com/oy3o/podio/code"
	"github.com/oy3o/podio/pod"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// typeCoder codes one dynamic value of a schema type. n is the field's len
// or count option; nil leaves the value unbounded.
type typeCoder interface {
	encode(w io.Writer, v any, n *int) error
	decode(r io.Reader, n *int) (any, error)
}

type number interface {
	constraints.Integer | constraints.Float
}

// prim codes a number through the Pod word W that holds it on the wire.
type prim[W any, T number] struct {
	get func(w *W) T
	set func(w *W, v T)
}

func (p prim[W, T]) decode(r io.Reader, _ *int) (any, error) {
	var w W
	if err := pod.Read(r, &w); err != nil {
		return nil, err
	}
	return widen(p.get(&w)), nil
}

func (p prim[W, T]) encode(w io.Writer, v any, _ *int) error {
	x, err := narrow[T](v)
	if err != nil {
		return err
	}
	var word W
	p.set(&word, x)
	return pod.Write(w, &word)
}

func byteWord[T int8 | uint8]() typeCoder {
	return prim[T, T]{
		get: func(w *T) T { return *w },
		set: func(w *T, v T) { *w = v },
	}
}

func word16[O pod.Order, T pod.Word16]() typeCoder {
	return prim[pod.Endian16[O, T], T]{
		get: func(w *pod.Endian16[O, T]) T { return w.Get() },
		set: func(w *pod.Endian16[O, T], v T) { w.Set(v) },
	}
}

func word32[O pod.Order, T pod.Word32]() typeCoder {
	return prim[pod.Endian32[O, T], T]{
		get: func(w *pod.Endian32[O, T]) T { return w.Get() },
		set: func(w *pod.Endian32[O, T], v T) { w.Set(v) },
	}
}

func word64[O pod.Order, T pod.Word64]() typeCoder {
	return prim[pod.Endian64[O, T], T]{
		get: func(w *pod.Endian64[O, T]) T { return w.Get() },
		set: func(w *pod.Endian64[O, T], v T) { w.Set(v) },
	}
}

var prims = map[string]typeCoder{
	"u8": byteWord[uint8](),
	"i8": byteWord[int8](),

	"u16le": word16[pod.Little, uint16](),
	"u16be": word16[pod.Big, uint16](),
	"i16le": word16[pod.Little, int16](),
	"i16be": word16[pod.Big, int16](),

	"u32le": word32[pod.Little, uint32](),
	"u32be": word32[pod.Big, uint32](),
	"i32le": word32[pod.Little, int32](),
	"i32be": word32[pod.Big, int32](),
	"f32le": word32[pod.Little, float32](),
	"f32be": word32[pod.Big, float32](),

	"u64le": word64[pod.Little, uint64](),
	"u64be": word64[pod.Big, uint64](),
	"i64le": word64[pod.Little, int64](),
	"i64be": word64[pod.Big, int64](),
	"f64le": word64[pod.Little, float64](),
	"f64be": word64[pod.Big, float64](),
}

var half = 0.5

func isFloat[T number]() bool { return T(half) != 0 }

// widen stores decoded numbers as int64, uint64 or float64.
func widen[T number](v T) any {
	switch {
	case isFloat[T]():
		return float64(v)
	case T(0)-1 < 0:
		return int64(v)
	}
	return uint64(v)
}

// narrow converts a record value to T, rejecting values T cannot hold.
func narrow[T number](v any) (T, error) {
	var out T
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		out = T(n)
		if !isFloat[T]() && int64(out) != n {
			return out, errors.Wrapf(code.ErrInvalidEncoding, "%d out of range", n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		out = T(n)
		if !isFloat[T]() && uint64(out) != n {
			return out, errors.Wrapf(code.ErrInvalidEncoding, "%d out of range", n)
		}
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		out = T(f)
		if !isFloat[T]() && float64(out) != f {
			return out, errors.Wrapf(code.ErrInvalidEncoding, "%v is not an integer in range", f)
		}
	default:
		return out, errors.Wrapf(code.ErrInvalidEncoding, "%T is not a number", v)
	}
	return out, nil
}

type stringType struct{}

func (stringType) encode(w io.Writer, v any, n *int) error {
	s, err := text(v)
	if err != nil {
		return err
	}
	cs := code.String(s)
	return cs.EncodeWith(w, code.StringOptions{Len: n})
}

func (stringType) decode(r io.Reader, n *int) (any, error) {
	var s code.String
	err := s.DecodeWith(r, code.StringOptions{Len: n})
	return string(s), err
}

type cstringType struct{ requireNul bool }

func (cstringType) encode(w io.Writer, v any, _ *int) error {
	s, err := text(v)
	if err != nil {
		return err
	}
	cs := code.CString(s)
	return cs.Encode(w)
}

func (t cstringType) decode(r io.Reader, _ *int) (any, error) {
	var s code.CString
	err := s.DecodeWith(r, code.CStringOptions{RequireNul: t.requireNul})
	return string(s), err
}

type bytesType struct{}

func (bytesType) encode(w io.Writer, v any, n *int) error {
	var b code.Bytes
	switch x := v.(type) {
	case []byte:
		b = x
	case string:
		b = code.Bytes(x)
	case []any:
		b = make(code.Bytes, len(x))
		for i, e := range x {
			c, err := narrow[uint8](e)
			if err != nil {
				return errors.WithMessagef(err, "byte %d", i)
			}
			b[i] = c
		}
	default:
		return errors.Wrapf(code.ErrInvalidEncoding, "%T is not bytes", v)
	}
	return b.EncodeWith(w, code.BytesOptions{Len: n})
}

func (bytesType) decode(r io.Reader, n *int) (any, error) {
	var b code.Bytes
	err := b.DecodeWith(r, code.BytesOptions{Len: n})
	return []byte(b), err
}

// recordType codes a nested record, resolved by name when used so records
// may refer to ones declared later.
type recordType struct {
	s    *Schema
	name string
}

func (t recordType) encode(w io.Writer, v any, _ *int) error {
	rec, ok := v.(*Record)
	if !ok {
		return errors.Wrapf(code.ErrInvalidEncoding, "%T is not a %s record", v, t.name)
	}
	return t.s.byName[t.name].Encode(w, rec)
}

func (t recordType) decode(r io.Reader, _ *int) (any, error) {
	return t.s.byName[t.name].Decode(r)
}

// arrayType is a sequence without a count prefix: exactly n elements when
// a count is given, otherwise elements until the stream ends.
type arrayType struct{ elem typeCoder }

func (t arrayType) encode(w io.Writer, v any, n *int) error {
	items, ok := v.([]any)
	if !ok {
		return errors.Wrapf(code.ErrInvalidEncoding, "%T is not a list", v)
	}
	if n != nil && *n != len(items) {
		return errors.Wrapf(code.ErrInvalidEncoding, "%d elements, count is %d", len(items), *n)
	}
	for i, item := range items {
		if err := t.elem.encode(w, item, nil); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

func (t arrayType) decode(r io.Reader, n *int) (any, error) {
	if n != nil {
		items := make([]any, 0, min(*n, maxPrealloc))
		for i := range *n {
			item, err := t.elem.decode(r, nil)
			if err != nil {
				return nil, errors.Wrapf(unexpected(err), "element %d", i)
			}
			items = append(items, item)
		}
		return items, nil
	}

	items := []any{}
	pr := podio.PeekReader(r)
	for i := 0; ; i++ {
		eof, err := pr.AtEOF()
		if err != nil {
			return nil, err
		}
		if eof {
			return items, nil
		}
		item, err := t.elem.decode(pr, nil)
		if err != nil {
			return nil, errors.Wrapf(unexpected(err), "element %d", i)
		}
		items = append(items, item)
	}
}

func text(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return "", errors.Wrapf(code.ErrInvalidEncoding, "%T is not text", v)
}

// maxPrealloc bounds the capacity reserved from a count read off the wire.
const maxPrealloc = 4096

// typeKind tells which options a type accepts.
type typeKind uint8

const (
	kindFixed typeKind = iota
	kindSized          // accepts len
	kindArray          // accepts count
)

// resolve parses a type name from a schema document.
func (s *Schema) resolve(name string) (typeCoder, typeKind, error) {
	name = strings.TrimSpace(name)
	if p, ok := prims[name]; ok {
		return p, kindFixed, nil
	}
	switch name {
	case "string":
		return stringType{}, kindSized, nil
	case "bytes":
		return bytesType{}, kindSized, nil
	case "cstring":
		return cstringType{}, kindFixed, nil
	case "cstring!":
		return cstringType{requireNul: true}, kindFixed, nil
	}
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		elem, _, err := s.resolve(name[1 : len(name)-1])
		if err != nil {
			return nil, 0, err
		}
		return arrayType{elem: elem}, kindArray, nil
	}
	if _, ok := s.byName[name]; ok {
		return recordType{s: s, name: name}, kindFixed, nil
	}
	return nil, 0, errors.Wrapf(ErrSchema, "unknown type %q", name)
}
