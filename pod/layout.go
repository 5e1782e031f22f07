// Package pod describes fixed-layout ("plain old data") types and moves them
// between memory and their wire encoding.
//
// A Pod type contains only fixed-size integers, floats, arrays and structs of
// those. Its wire encoding is the concatenation of its leaf values in
// declaration order with no padding; bare multi-byte numbers keep the native
// byte order, so use the endian primitives (Le32, Be16, ...) for a portable
// format. A Pod type whose memory layout has neither padding nor alignment
// requirement is Packed and can be viewed in place over a byte slice.
package pod

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"unsafe"

	"github.com/oy3o/podio"
	"github.com/puzpuzpuz/xsync/v4"
)

// ErrNotPod is returned for types that cannot be encoded by copying memory.
var ErrNotPod = errors.New("pod: type is not plain old data")

// Field describes one top-level field of a Pod struct.
type Field struct {
	Name      string
	Type      reflect.Type
	Offset    int // offset in the wire encoding
	MemOffset int // offset in memory
	Size      int // size in the wire encoding
}

// Layout is the cached description of a Pod type.
type Layout struct {
	Type    reflect.Type
	Size    int // wire size, the sum of all leaf sizes
	MemSize int
	Align   int
	Fields  []Field

	runs []run
}

// run is a contiguous memory segment copied as-is to the wire.
type run struct {
	mem, size int
}

// Unaligned reports whether the type has an alignment requirement of 1.
func (l *Layout) Unaligned() bool { return l.Align == 1 }

// Packed reports whether the memory image of the type is its wire encoding.
func (l *Layout) Packed() bool { return l.Align == 1 && l.MemSize == l.Size }

type layoutEntry struct {
	layout *Layout
	err    error
}

// layouts avoids walking a type with reflection on every call.
var layouts = xsync.NewMap[reflect.Type, layoutEntry]()

// LayoutOf returns the layout of t, or an error wrapping ErrNotPod.
func LayoutOf(t reflect.Type) (*Layout, error) {
	if e, ok := layouts.Load(t); ok {
		return e.layout, e.err
	}
	l, err := build(t)
	e, _ := layouts.LoadOrStore(t, layoutEntry{layout: l, err: err})
	return e.layout, e.err
}

// LayoutFor returns the layout of T.
func LayoutFor[T any]() (*Layout, error) {
	return LayoutOf(reflect.TypeFor[T]())
}

func mustLayout[T any]() *Layout {
	l, err := LayoutFor[T]()
	if err != nil {
		panic(err)
	}
	return l
}

// IsPod reports whether T can be encoded by copying memory.
func IsPod[T any]() bool {
	_, err := LayoutFor[T]()
	return err == nil
}

// IsUnaligned reports whether T has an alignment requirement of 1.
func IsUnaligned[T any]() bool {
	return reflect.TypeFor[T]().Align() == 1
}

// IsPacked reports whether T is Pod, Unaligned and free of padding.
func IsPacked[T any]() bool {
	l, err := LayoutFor[T]()
	return err == nil && l.Packed()
}

// Size returns the wire size of T. It panics if T is not Pod.
func Size[T any]() int { return mustLayout[T]().Size }

func build(t reflect.Type) (*Layout, error) {
	l := &Layout{Type: t, MemSize: int(t.Size()), Align: t.Align()}
	if err := walk(t, t, 0, &l.runs); err != nil {
		return nil, err
	}
	for _, r := range l.runs {
		l.Size += r.size
	}
	if t.Kind() == reflect.Struct {
		wire := 0
		for i := range t.NumField() {
			f := t.Field(i)
			fl, err := LayoutOf(f.Type)
			if err != nil {
				return nil, err
			}
			l.Fields = append(l.Fields, Field{
				Name:      f.Name,
				Type:      f.Type,
				Offset:    wire,
				MemOffset: int(f.Offset),
				Size:      fl.Size,
			})
			wire += fl.Size
		}
	}
	return l, nil
}

func walk(root, t reflect.Type, base int, runs *[]run) error {
	switch t.Kind() {
	case reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		appendRun(runs, base, int(t.Size()))
	case reflect.Array:
		elem := t.Elem()
		var elemRuns []run
		if err := walk(root, elem, 0, &elemRuns); err != nil {
			return err
		}
		if len(elemRuns) == 1 && elemRuns[0].size == int(elem.Size()) {
			appendRun(runs, base, t.Len()*int(elem.Size()))
			return nil
		}
		for i := range t.Len() {
			for _, r := range elemRuns {
				appendRun(runs, base+i*int(elem.Size())+r.mem, r.size)
			}
		}
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if err := walk(root, f.Type, base+int(f.Offset), runs); err != nil {
				return fmt.Errorf("%s.%s: %w", t, f.Name, err)
			}
		}
	default:
		return fmt.Errorf("%w: %s contains %s", ErrNotPod, root, t.Kind())
	}
	return nil
}

func appendRun(runs *[]run, mem, size int) {
	if size == 0 {
		return
	}
	if n := len(*runs); n > 0 {
		last := &(*runs)[n-1]
		if last.mem+last.size == mem {
			last.size += size
			return
		}
	}
	*runs = append(*runs, run{mem: mem, size: size})
}

func memory(p unsafe.Pointer, off, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Add(p, off)), size)
}

// encode copies the value at p into dst, which must be Size bytes long.
func (l *Layout) encode(dst []byte, p unsafe.Pointer) {
	off := 0
	for _, r := range l.runs {
		copy(dst[off:off+r.size], memory(p, r.mem, r.size))
		off += r.size
	}
}

// decode copies src, which must be Size bytes long, into the value at p.
// Padding bytes are left untouched.
func (l *Layout) decode(src []byte, p unsafe.Pointer) {
	off := 0
	for _, r := range l.runs {
		copy(memory(p, r.mem, r.size), src[off:off+r.size])
		off += r.size
	}
}

func (l *Layout) checkLen(n int) {
	if n != l.Size {
		panic(fmt.Sprintf("pod: %s needs %d bytes, got %d", l.Type, l.Size, n))
	}
}

func pointer(l *Layout, v reflect.Value) unsafe.Pointer {
	if v.Type() != l.Type {
		panic(fmt.Sprintf("pod: value of type %s used with layout of %s", v.Type(), l.Type))
	}
	if !v.CanAddr() {
		panic("pod: value is not addressable")
	}
	return v.Addr().UnsafePointer()
}

// Write writes the wire encoding of v, an addressable value of the layout's type.
func (l *Layout) Write(w io.Writer, v reflect.Value) error {
	p := pointer(l, v)
	if l.Packed() {
		_, err := w.Write(memory(p, 0, l.Size))
		return err
	}
	buf := make([]byte, l.Size)
	l.encode(buf, p)
	_, err := w.Write(buf)
	return err
}

// Read fills v, an addressable value of the layout's type, from r. A short
// stream yields io.ErrUnexpectedEOF.
func (l *Layout) Read(r io.Reader, v reflect.Value) error {
	p := pointer(l, v)
	if l.Packed() {
		return podio.ReadExact(r, memory(p, 0, l.Size))
	}
	buf := make([]byte, l.Size)
	if err := podio.ReadExact(r, buf); err != nil {
		return err
	}
	l.decode(buf, p)
	return nil
}

// Marshal returns the wire encoding of *v. It panics if T is not Pod.
func Marshal[T any](v *T) []byte {
	l := mustLayout[T]()
	buf := make([]byte, l.Size)
	l.encode(buf, unsafe.Pointer(v))
	return buf
}

// MarshalTo writes the wire encoding of *v into dst, which must be exactly
// Size[T]() bytes long.
func MarshalTo[T any](dst []byte, v *T) {
	l := mustLayout[T]()
	l.checkLen(len(dst))
	l.encode(dst, unsafe.Pointer(v))
}

// Unmarshal fills *v from src, which must be exactly Size[T]() bytes long.
func Unmarshal[T any](src []byte, v *T) {
	l := mustLayout[T]()
	l.checkLen(len(src))
	l.decode(src, unsafe.Pointer(v))
}

// FromBytes decodes a T from src, which must be exactly Size[T]() bytes long.
func FromBytes[T any](src []byte) T {
	var v T
	Unmarshal(src, &v)
	return v
}

// Write writes the wire encoding of *v to w.
func Write[T any](w io.Writer, v *T) error {
	l, err := LayoutFor[T]()
	if err != nil {
		return err
	}
	return l.Write(w, reflect.ValueOf(v).Elem())
}

// Read fills *v from r.
func Read[T any](r io.Reader, v *T) error {
	l, err := LayoutFor[T]()
	if err != nil {
		return err
	}
	return l.Read(r, reflect.ValueOf(v).Elem())
}

// View reinterprets b as a *T without copying. T must be Packed and b must
// be exactly Size[T]() bytes long; otherwise View panics.
func View[T any](b []byte) *T {
	l := mustLayout[T]()
	if !l.Packed() {
		panic(fmt.Sprintf("pod: %s is not packed and cannot be viewed in place", l.Type))
	}
	l.checkLen(len(b))
	if l.Size == 0 {
		return new(T)
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// Bytes returns the memory of *v as a byte slice without copying. T must be
// Packed; writes through the slice change *v.
func Bytes[T any](v *T) []byte {
	l := mustLayout[T]()
	if !l.Packed() {
		panic(fmt.Sprintf("pod: %s is not packed and cannot be viewed in place", l.Type))
	}
	return memory(unsafe.Pointer(v), 0, l.Size)
}
