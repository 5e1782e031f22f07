package pod

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Order selects the byte order of an endian primitive. It is implemented by
// the zero-size markers Little, Big and Native.
type Order interface {
	byteOrder() binary.ByteOrder
}

type (
	Little struct{}
	Big    struct{}
	Native struct{}
)

func (Little) byteOrder() binary.ByteOrder { return binary.LittleEndian }
func (Big) byteOrder() binary.ByteOrder    { return binary.BigEndian }
func (Native) byteOrder() binary.ByteOrder { return binary.NativeEndian }

type (
	Word16 interface{ ~uint16 | ~int16 }
	Word32 interface {
		~uint32 | ~int32 | ~float32
	}
	Word64 interface {
		~uint64 | ~int64 | ~float64
	}
)

// Endian16 stores a 16-bit value in byte order O. It has no alignment
// requirement and no padding, so it can sit anywhere inside a Packed struct.
type Endian16[O Order, T Word16] struct {
	_   [0]O
	raw [2]byte
}

// Endian32 stores a 32-bit value in byte order O.
type Endian32[O Order, T Word32] struct {
	_   [0]O
	raw [4]byte
}

// Endian64 stores a 64-bit value in byte order O.
type Endian64[O Order, T Word64] struct {
	_   [0]O
	raw [8]byte
}

type (
	Le16[T Word16] = Endian16[Little, T]
	Le32[T Word32] = Endian32[Little, T]
	Le64[T Word64] = Endian64[Little, T]
	Be16[T Word16] = Endian16[Big, T]
	Be32[T Word32] = Endian32[Big, T]
	Be64[T Word64] = Endian64[Big, T]
	Ne16[T Word16] = Endian16[Native, T]
	Ne32[T Word32] = Endian32[Native, T]
	Ne64[T Word64] = Endian64[Native, T]
)

func order[O Order]() binary.ByteOrder {
	var o O
	return o.byteOrder()
}

// Get returns the stored value.
func (e Endian16[O, T]) Get() T {
	u := order[O]().Uint16(e.raw[:])
	return *(*T)(unsafe.Pointer(&u))
}

// Set stores v.
func (e *Endian16[O, T]) Set(v T) {
	order[O]().PutUint16(e.raw[:], *(*uint16)(unsafe.Pointer(&v)))
}

func (e Endian16[O, T]) String() string { return fmt.Sprint(e.Get()) }

func (e Endian32[O, T]) Get() T {
	u := order[O]().Uint32(e.raw[:])
	return *(*T)(unsafe.Pointer(&u))
}

func (e *Endian32[O, T]) Set(v T) {
	order[O]().PutUint32(e.raw[:], *(*uint32)(unsafe.Pointer(&v)))
}

func (e Endian32[O, T]) String() string { return fmt.Sprint(e.Get()) }

func (e Endian64[O, T]) Get() T {
	u := order[O]().Uint64(e.raw[:])
	return *(*T)(unsafe.Pointer(&u))
}

func (e *Endian64[O, T]) Set(v T) {
	order[O]().PutUint64(e.raw[:], *(*uint64)(unsafe.Pointer(&v)))
}

func (e Endian64[O, T]) String() string { return fmt.Sprint(e.Get()) }

// Of16 returns an Endian16 holding v.
func Of16[O Order, T Word16](v T) Endian16[O, T] {
	var e Endian16[O, T]
	e.Set(v)
	return e
}

// Of32 returns an Endian32 holding v.
func Of32[O Order, T Word32](v T) Endian32[O, T] {
	var e Endian32[O, T]
	e.Set(v)
	return e
}

// Of64 returns an Endian64 holding v.
func Of64[O Order, T Word64](v T) Endian64[O, T] {
	var e Endian64[O, T]
	e.Set(v)
	return e
}
