package code

import (
	"bytes"
	"io"
	"testing"

	"github.com/oy3o/podio"
	"github.com/oy3o/podio/pod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Codec = (*pod.Fixed[uint32])(nil)
	_ Coder = (*String)(nil)
	_ Coder = (*CString)(nil)
	_ Coder = (*Bytes)(nil)
	_ Coder = (*Option[*String])(nil)
	_ Coder = (*List[*String])(nil)

	_ OptionsDecoder[StringOptions]              = (*String)(nil)
	_ OptionsEncoder[SliceOptions[StringOptions]] = (*Slice[*String, StringOptions])(nil)
)

type word = pod.Fixed[pod.Le16[uint16]]

func newWord(v uint16) *word { return &word{Payload: pod.Of16[pod.Little](v)} }

func TestString(t *testing.T) {
	t.Run("ToEndOfStream", func(t *testing.T) {
		var s String
		require.NoError(t, DecodeBytes([]byte("héllo"), &s))
		assert.Equal(t, String("héllo"), s)
	})

	t.Run("FixedLength", func(t *testing.T) {
		var s String
		require.NoError(t, s.DecodeWith(podio.NewBytesReader([]byte("abcdef")), StringOptions{Len: podio.Ptr(3)}))
		assert.Equal(t, String("abc"), s)

		var buf bytes.Buffer
		assert.ErrorIs(t, s.EncodeWith(&buf, StringOptions{Len: podio.Ptr(4)}), ErrInvalidEncoding)
		require.NoError(t, s.EncodeWith(&buf, StringOptions{Len: podio.Ptr(3)}))
		assert.Equal(t, "abc", buf.String())
	})

	t.Run("ShortStream", func(t *testing.T) {
		var s String
		err := s.DecodeWith(podio.NewBytesReader([]byte("ab")), StringOptions{Len: podio.Ptr(3)})
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		var s String
		assert.ErrorIs(t, DecodeBytes([]byte{0xff, 0xfe}, &s), ErrInvalidEncoding)
	})

	t.Run("NegativeLength", func(t *testing.T) {
		var s String
		err := s.DecodeWith(podio.NewBytesReader(nil), StringOptions{Len: podio.Ptr(-1)})
		assert.ErrorIs(t, err, ErrInvalidDirective)
	})
}

func TestCString(t *testing.T) {
	t.Run("StopsAtNul", func(t *testing.T) {
		r := podio.NewBytesReader([]byte("abc\x00rest"))
		var s CString
		require.NoError(t, s.Decode(r))
		assert.Equal(t, CString("abc"), s)
		assert.Equal(t, 4, r.N)
	})

	t.Run("EndWithoutNul", func(t *testing.T) {
		var s CString
		require.NoError(t, DecodeBytes([]byte("abc"), &s))
		assert.Equal(t, CString("abc"), s)

		err := s.DecodeWith(podio.NewBytesReader([]byte("abc")), CStringOptions{RequireNul: true})
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("Encode", func(t *testing.T) {
		s := CString("hi")
		out, err := EncodeBytes(&s)
		require.NoError(t, err)
		assert.Equal(t, []byte("hi\x00"), out)

		bad := CString("a\x00b")
		_, err = EncodeBytes(&bad)
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("InterruptedReads", func(t *testing.T) {
		var s CString
		require.NoError(t, s.Decode(&flaky{data: []byte("slow\x00")}))
		assert.Equal(t, CString("slow"), s)
	})
}

// flaky returns podio.ErrInterrupted on every other read.
type flaky struct {
	data  []byte
	calls int
}

func (f *flaky) Read(p []byte) (int, error) {
	f.calls++
	if f.calls%2 == 1 {
		return 0, podio.ErrInterrupted
	}
	if len(f.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p[:1], f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestBytes(t *testing.T) {
	var b Bytes
	require.NoError(t, b.DecodeWith(podio.NewBytesReader([]byte{1, 2, 3, 4}), BytesOptions{Len: podio.Ptr(2)}))
	assert.Equal(t, Bytes{1, 2}, b)

	require.NoError(t, DecodeBytes([]byte{9, 8, 7}, &b))
	assert.Equal(t, Bytes{9, 8, 7}, b)

	out, err := EncodeBytes(&b)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, out)

	var buf bytes.Buffer
	assert.ErrorIs(t, b.EncodeWith(&buf, BytesOptions{Len: podio.Ptr(1)}), ErrInvalidEncoding)
}

func TestBytesLengthFromInput(t *testing.T) {
	// A length far beyond the data fails on the data, not on allocation.
	var b Bytes
	err := b.DecodeWith(podio.NewBytesReader([]byte{1, 2, 3}), BytesOptions{Len: podio.Ptr(1 << 40)})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Lengths spanning several chunks still read exactly.
	data := bytes.Repeat([]byte{0xab}, 3*maxPrealloc+5)
	require.NoError(t, b.DecodeWith(podio.NewBytesReader(append(data, 1)), BytesOptions{Len: podio.Ptr(len(data))}))
	assert.Equal(t, Bytes(data), b)

	var s String
	err = s.DecodeWith(podio.NewBytesReader([]byte("abc")), StringOptions{Len: podio.Ptr(1 << 40)})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestOption(t *testing.T) {
	var none Option[*word]
	assert.False(t, none.IsSome())
	out, err := EncodeBytes(&none)
	require.NoError(t, err)
	assert.Empty(t, out)

	some := Some(newWord(0x0102))
	assert.True(t, some.IsSome())
	out, err = EncodeBytes(&some)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01}, out)

	var back Option[*word]
	require.NoError(t, DecodeBytes(out, &back))
	require.True(t, back.IsSome())
	assert.Equal(t, uint16(0x0102), back.Value.Payload.Get())
}

func TestList(t *testing.T) {
	t.Run("UntilEOF", func(t *testing.T) {
		var l List[*word]
		require.NoError(t, DecodeBytes([]byte{1, 0, 2, 0}, &l))
		require.Equal(t, 2, l.Len())
		assert.Equal(t, uint16(1), l.Items[0].Payload.Get())
		assert.Equal(t, uint16(2), l.Items[1].Payload.Get())

		out, err := EncodeBytes(&l)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 0, 2, 0}, out)
	})

	t.Run("Empty", func(t *testing.T) {
		var l List[*word]
		require.NoError(t, DecodeBytes(nil, &l))
		assert.Zero(t, l.Len())
	})

	t.Run("PartialElement", func(t *testing.T) {
		var l List[*word]
		assert.ErrorIs(t, DecodeBytes([]byte{1, 0, 2}, &l), io.ErrUnexpectedEOF)
	})

	t.Run("Counted", func(t *testing.T) {
		var l List[*word]
		r := podio.NewBytesReader([]byte{1, 0, 2, 0, 3, 0})
		require.NoError(t, l.DecodeWith(r, SliceOptions[None]{Len: podio.Ptr(2)}))
		assert.Equal(t, 2, l.Len())
		assert.Equal(t, 2, r.Available())

		assert.ErrorIs(t, l.DecodeWith(podio.NewBytesReader([]byte{1, 0}), SliceOptions[None]{Len: podio.Ptr(2)}), io.ErrUnexpectedEOF)

		var buf bytes.Buffer
		assert.ErrorIs(t, l.EncodeWith(&buf, SliceOptions[None]{Len: podio.Ptr(3)}), ErrInvalidEncoding)
	})
}

func TestSliceElementOptions(t *testing.T) {
	var l Slice[*String, StringOptions]
	opts := SliceOptions[StringOptions]{Len: podio.Ptr(3), Elem: StringOptions{Len: podio.Ptr(2)}}
	require.NoError(t, l.DecodeWith(podio.NewBytesReader([]byte("abcdef")), opts))
	require.Equal(t, 3, l.Len())
	assert.Equal(t, String("ab"), *l.Items[0])
	assert.Equal(t, String("cd"), *l.Items[1])
	assert.Equal(t, String("ef"), *l.Items[2])

	var buf bytes.Buffer
	require.NoError(t, l.EncodeWith(&buf, opts))
	assert.Equal(t, "abcdef", buf.String())
}

func TestUnmarshalExact(t *testing.T) {
	w := newWord(0)
	require.NoError(t, UnmarshalExact([]byte{5, 0, 0, 0}, w))
	assert.Equal(t, uint16(5), w.Payload.Get())

	assert.ErrorIs(t, UnmarshalExact([]byte{5, 0, 1}, w), ErrTrailingData)
	assert.ErrorIs(t, UnmarshalExact([]byte{5}, w), io.ErrUnexpectedEOF)
}
