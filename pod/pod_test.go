package pod

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"github.com/oy3o/podio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mixed struct {
	A uint8
	B uint16
	C Le16[uint16]
	D Be32[uint32]
}

type packedHeader struct {
	Magic   [4]byte
	Version uint8
	Length  Le32[uint32]
	Flags   Be16[uint16]
}

type nested struct {
	Head  packedHeader
	Items [2]Le16[int16]
}

func TestMixedLayout(t *testing.T) {
	l, err := LayoutFor[mixed]()
	require.NoError(t, err)

	assert.Equal(t, 9, l.Size)
	assert.Equal(t, 2, l.Align)
	assert.False(t, l.Unaligned())
	assert.False(t, l.Packed())
	assert.True(t, IsPod[mixed]())
	assert.False(t, IsPacked[mixed]())

	names := make([]string, 0, len(l.Fields))
	offsets := make([]int, 0, len(l.Fields))
	for _, f := range l.Fields {
		names = append(names, f.Name)
		offsets = append(offsets, f.Offset)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, names)
	assert.Equal(t, []int{0, 1, 3, 5}, offsets)
}

func TestMixedEncoding(t *testing.T) {
	v := mixed{A: 0, B: 0xffff, C: Of16[Little](uint16(1)), D: Of32[Big](uint32(2))}
	want := []byte{0x00, 0xff, 0xff, 0x01, 0x00, 0x00, 0x00, 0x00, 0x02}

	assert.Equal(t, want, Marshal(&v))
	assert.Equal(t, v, FromBytes[mixed](want))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &v))
	assert.Equal(t, want, buf.Bytes())

	var got mixed
	require.NoError(t, Read(bytes.NewReader(want), &got))
	assert.Equal(t, v, got)
	assert.EqualValues(t, 1, got.C.Get())
	assert.EqualValues(t, 2, got.D.Get())

	err := Read(bytes.NewReader(want[:5]), &got)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestEndianPrimitives(t *testing.T) {
	assert.True(t, IsPacked[Le16[uint16]]())
	assert.True(t, IsPacked[Be64[float64]]())
	assert.True(t, IsUnaligned[Ne32[int32]]())
	assert.Equal(t, 2, Size[Be16[int16]]())
	assert.Equal(t, 4, Size[Le32[float32]]())
	assert.Equal(t, 8, Size[Ne64[uint64]]())

	le := Of32[Little](uint32(0x01020304))
	assert.Equal(t, []byte{4, 3, 2, 1}, Marshal(&le))
	be := Of32[Big](uint32(0x01020304))
	assert.Equal(t, []byte{1, 2, 3, 4}, Marshal(&be))

	f := Of64[Big](1.5)
	assert.Equal(t, 1.5, f.Get())
	assert.Equal(t, "1.5", f.String())

	n := Of16[Little](int16(-2))
	assert.Equal(t, int16(-2), n.Get())
	assert.Equal(t, []byte{0xfe, 0xff}, Marshal(&n))
}

func TestPackedView(t *testing.T) {
	assert.True(t, IsPacked[packedHeader]())
	assert.True(t, IsPacked[nested]())
	assert.Equal(t, 11, Size[packedHeader]())
	assert.Equal(t, 15, Size[nested]())

	b := []byte{'P', 'O', 'D', '!', 3, 0x10, 0, 0, 0, 0x00, 0x05}
	h := View[packedHeader](b)
	assert.Equal(t, [4]byte{'P', 'O', 'D', '!'}, h.Magic)
	assert.EqualValues(t, 3, h.Version)
	assert.EqualValues(t, 0x10, h.Length.Get())
	assert.EqualValues(t, 5, h.Flags.Get())

	h.Version = 4
	assert.EqualValues(t, 4, b[4], "views alias the bytes")
	assert.Equal(t, b, Bytes(h))
}

func TestViewPanics(t *testing.T) {
	assert.Panics(t, func() { View[mixed](make([]byte, 9)) }, "not packed")
	assert.Panics(t, func() { View[packedHeader](make([]byte, 12)) }, "size mismatch")
	assert.Panics(t, func() { FromBytes[mixed](make([]byte, 8)) })
	assert.Panics(t, func() { MarshalTo(make([]byte, 10), &mixed{}) })
	assert.Panics(t, func() { Marshal(&struct{ S string }{}) })
}

func TestNotPod(t *testing.T) {
	cases := []any{
		struct{ P *int }{},
		struct{ S []byte }{},
		struct{ S string }{},
		struct{ M map[int]int }{},
		struct{ B bool }{},
		struct{ I int }{},
		struct{ U uintptr }{},
		struct{ E any }{},
		struct{ F func() }{},
		struct{ C chan int }{},
		[2]struct{ I uint }{},
	}
	for _, c := range cases {
		_, err := LayoutOf(reflect.TypeOf(c))
		assert.ErrorIs(t, err, ErrNotPod, "%T", c)
	}

	var v struct{ S string }
	assert.ErrorIs(t, Write(io.Discard, &v), ErrNotPod)
}

func TestArrayOfPaddedStructs(t *testing.T) {
	type elem struct {
		A uint8
		B uint16
	}
	v := [2]elem{{A: 1, B: 0x0202}, {A: 3, B: 0x0404}}
	b := Marshal(&v)
	assert.Len(t, b, 6)
	assert.Equal(t, v, FromBytes[[2]elem](b))
}

func TestFixed(t *testing.T) {
	c := &Fixed[packedHeader]{Payload: packedHeader{Magic: [4]byte{'a', 'b', 'c', 'd'}, Version: 1}}
	c.Payload.Length.Set(7)
	assert.Equal(t, 11, c.Size())

	data, err := c.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 11)

	var d Fixed[packedHeader]
	require.NoError(t, d.UnmarshalBinary(append(data, 0, 0)))
	assert.Equal(t, c.Payload, d.Payload)

	assert.ErrorIs(t, d.UnmarshalBinary(append(data, 1)), podio.ErrTrailingData)
	assert.ErrorIs(t, d.UnmarshalBinary(data[:5]), podio.ErrTruncatedData)

	buf := make([]byte, 20)
	n, err := c.MarshalTo(buf)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	_, err = c.MarshalTo(buf[:3])
	assert.ErrorIs(t, err, io.ErrShortWrite)

	var out bytes.Buffer
	written, err := c.WriteTo(&out)
	require.NoError(t, err)
	assert.EqualValues(t, 11, written)

	var e Fixed[packedHeader]
	read, err := e.ReadFrom(&out)
	require.NoError(t, err)
	assert.EqualValues(t, 11, read)
	assert.Equal(t, c.Payload, e.Payload)
}
