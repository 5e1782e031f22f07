package code

import (
	"bytes"
	"io"
	"testing"

	"github.com/oy3o/podio"
	"github.com/oy3o/podio/pod"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test records ---

// tagged has its text aligned to tag+1 bytes.
type tagged struct {
	Tag  uint8
	Text String
}

var taggedCodec = Struct[tagged]{Fields: []Field[tagged]{
	PodField("Tag", func(v *tagged) *uint8 { return &v.Tag }),
	CoderField("Text", func(v *tagged) *String { return &v.Text }).With(Directives[tagged]{
		Moves: []Move[tagged]{Align(func(v *tagged) (int64, error) { return int64(v.Tag) + 1, nil })},
	}),
}}

func (v *tagged) Encode(w io.Writer) error { return taggedCodec.Encode(w, v) }
func (v *tagged) Decode(r io.Reader) error { return taggedCodec.Decode(r, v) }

type skipped struct {
	Tag  uint8
	Text String
}

var skippedCodec = Struct[skipped]{Fields: []Field[skipped]{
	PodField("Tag", func(v *skipped) *uint8 { return &v.Tag }),
	CoderField("Text", func(v *skipped) *String { return &v.Text }).With(Directives[skipped]{
		Moves: []Move[skipped]{Skip(Const[skipped](1))},
	}),
}}

// aligned places a u16 after a u8 tag at a fixed alignment.
type aligned struct {
	Tag uint8
	Val pod.Le16[uint16]
}

func alignedCodec(n int64) *Struct[aligned] {
	return &Struct[aligned]{Fields: []Field[aligned]{
		PodField("Tag", func(v *aligned) *uint8 { return &v.Tag }),
		PodField("Val", func(v *aligned) *pod.Le16[uint16] { return &v.Val }).With(Directives[aligned]{
			Moves: []Move[aligned]{Align(Const[aligned](n))},
		}),
	}}
}

type gated struct {
	A uint8
	B uint8
}

var gatedCodec = Struct[gated]{Fields: []Field[gated]{
	PodField("A", func(v *gated) *uint8 { return &v.A }),
	PodField("B", func(v *gated) *uint8 { return &v.B }).With(Directives[gated]{
		Cond:    func(v *gated) (bool, error) { return v.A == 1, nil },
		Default: func(v *gated) error { v.B = 5; return nil },
	}),
}}

type limited struct {
	Name CString
	N    uint8
}

func limitedCodec(n int64, consume bool) *Struct[limited] {
	return &Struct[limited]{Fields: []Field[limited]{
		CoderField("Name", func(v *limited) *CString { return &v.Name }).With(Directives[limited]{
			Limit:   Const[limited](n),
			Consume: consume,
		}),
		PodField("N", func(v *limited) *uint8 { return &v.N }),
	}}
}

type nameRest struct {
	Name CString
	Rest String
}

var nameRestCodec = Struct[nameRest]{Fields: []Field[nameRest]{
	CoderField("Name", func(v *nameRest) *CString { return &v.Name }).With(Directives[nameRest]{
		Limit:   Const[nameRest](4),
		Consume: true,
	}),
	CoderField("Rest", func(v *nameRest) *String { return &v.Rest }),
}}

type optional struct {
	Flag uint8
	Opt  uint8
	Tail uint8
}

func optionalCodec(never bool) *Struct[optional] {
	return &Struct[optional]{Fields: []Field[optional]{
		PodField("Flag", func(v *optional) *uint8 { return &v.Flag }),
		PodField("Opt", func(v *optional) *uint8 { return &v.Opt }).With(Directives[optional]{
			Moves: []Move[optional]{Skip(Const[optional](1))},
			Cond:  func(v *optional) (bool, error) { return v.Flag == 1, nil },
			Never: never,
		}),
		PodField("Tail", func(v *optional) *uint8 { return &v.Tail }),
	}}
}

type checked struct {
	Head uint8
	Tag  uint8
}

var checkedCodec = Struct[checked]{Fields: []Field[checked]{
	PodField("Head", func(v *checked) *uint8 { return &v.Head }),
	PodField("Tag", func(v *checked) *uint8 { return &v.Tag }).With(Directives[checked]{
		Assert:     func(v *checked) (bool, error) { return v.Tag < 5, nil },
		AssertText: "tag < 5",
	}),
}}

type inner struct {
	B uint8
	C uint8
}

var innerCodec = Struct[inner]{Fields: []Field[inner]{
	PodField("B", func(v *inner) *uint8 { return &v.B }),
	PodField("C", func(v *inner) *uint8 { return &v.C }).With(Directives[inner]{
		Moves: []Move[inner]{Align(Const[inner](4))},
	}),
}}

func (v *inner) Encode(w io.Writer) error { return innerCodec.Encode(w, v) }
func (v *inner) Decode(r io.Reader) error { return innerCodec.Decode(r, v) }

type outer struct {
	A  uint8
	In inner
}

var outerCodec = Struct[outer]{Fields: []Field[outer]{
	PodField("A", func(v *outer) *uint8 { return &v.A }),
	CoderField("In", func(v *outer) *inner { return &v.In }),
}}

// validated rejects odd values after decoding.
type validated struct {
	N uint8
}

var validatedCodec = Struct[validated]{Fields: []Field[validated]{
	PodField("N", func(v *validated) *uint8 { return &v.N }),
}}

var errOdd = errors.New("odd value")

func (v *validated) Encode(w io.Writer) error { return validatedCodec.Encode(w, v) }
func (v *validated) Decode(r io.Reader) error { return validatedCodec.Decode(r, v) }
func (v *validated) Validate() error {
	if v.N%2 == 1 {
		return errOdd
	}
	return nil
}

func encodeStruct[T any](t *testing.T, s *Struct[T], v *T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf, v))
	return buf.Bytes()
}

func decodeStruct[T any](t *testing.T, s *Struct[T], data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, s.Decode(podio.NewBytesReader(data), &v))
	return v
}

// --- Tests ---

func TestAlignFromEarlierField(t *testing.T) {
	data := []byte{2, 0, 0, 'h', 'i'}

	var v tagged
	require.NoError(t, DecodeBytes(data, &v))
	assert.Equal(t, tagged{Tag: 2, Text: "hi"}, v)

	out, err := EncodeBytes(&v)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestAlignOverPlainReader(t *testing.T) {
	var v tagged
	require.NoError(t, Decode(bytes.NewBufferString("\x03\x00\x00\x00ok"), &v))
	assert.Equal(t, tagged{Tag: 3, Text: "ok"}, v)
}

func TestSkip(t *testing.T) {
	data := []byte{2, 0, 'h', 'i'}
	v := decodeStruct(t, &skippedCodec, data)
	assert.Equal(t, skipped{Tag: 2, Text: "hi"}, v)
	assert.Equal(t, data, encodeStruct(t, &skippedCodec, &v))
}

func TestSkipPastEnd(t *testing.T) {
	var v skipped
	err := skippedCodec.Decode(podio.NewBytesReader([]byte{2}), &v)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSkipPastEndOfSeeker(t *testing.T) {
	var v skipped
	err := skippedCodec.Decode(bytes.NewReader([]byte{1}), &v)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var l limited
	err = limitedCodec(8, true).Decode(bytes.NewReader([]byte("hi\x00")), &l)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var a aligned
	err = alignedCodec(4).Decode(bytes.NewReader([]byte{7, 0}), &a)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	require.NoError(t, skippedCodec.Decode(bytes.NewReader([]byte{1, 0, 'h', 'i'}), &v))
	assert.Equal(t, skipped{Tag: 1, Text: "hi"}, v)
}

func TestAlignPadding(t *testing.T) {
	v := aligned{Tag: 7, Val: pod.Of16[pod.Little](uint16(0x0201))}

	// Three bytes of alignment after a one byte tag is two pads.
	three := encodeStruct(t, alignedCodec(3), &v)
	assert.Equal(t, []byte{7, 0, 0, 0x01, 0x02}, three)
	assert.Equal(t, v, decodeStruct(t, alignedCodec(3), three))

	four := encodeStruct(t, alignedCodec(4), &v)
	assert.Equal(t, []byte{7, 0, 0, 0, 0x01, 0x02}, four)
	assert.Equal(t, v, decodeStruct(t, alignedCodec(4), four))

	one := encodeStruct(t, alignedCodec(1), &v)
	assert.Equal(t, []byte{7, 0x01, 0x02}, one)
}

func TestAlignZeroIsInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := alignedCodec(0).Encode(&buf, &aligned{})
	assert.ErrorIs(t, err, ErrInvalidDirective)
}

func TestCondDefault(t *testing.T) {
	assert.Equal(t, gated{A: 2, B: 5}, decodeStruct(t, &gatedCodec, []byte{2}))
	assert.Equal(t, gated{A: 1, B: 9}, decodeStruct(t, &gatedCodec, []byte{1, 9}))

	assert.Equal(t, []byte{2}, encodeStruct(t, &gatedCodec, &gated{A: 2, B: 5}))
	assert.Equal(t, []byte{1, 9}, encodeStruct(t, &gatedCodec, &gated{A: 1, B: 9}))
}

func TestLimitTruncatesString(t *testing.T) {
	s := Struct[struct{ S String }]{Fields: []Field[struct{ S String }]{
		CoderField("S", func(v *struct{ S String }) *String { return &v.S }).With(Directives[struct{ S String }]{
			Limit: Const[struct{ S String }](4),
		}),
	}}
	v := decodeStruct(t, &s, []byte("hello"))
	assert.Equal(t, String("hell"), v.S)
}

func TestLimitConsume(t *testing.T) {
	data := []byte("hello\x00\x00\x00\x05")
	v := decodeStruct(t, limitedCodec(8, true), data)
	assert.Equal(t, limited{Name: "hello", N: 5}, v)

	// Encoding zero fills to the end of the limit.
	assert.Equal(t, data, encodeStruct(t, limitedCodec(8, true), &v))
}

func TestLimitWithoutConsume(t *testing.T) {
	// The terminator ends the field; the next one starts right after it.
	v := decodeStruct(t, limitedCodec(8, false), []byte("hi\x00\x07"))
	assert.Equal(t, limited{Name: "hi", N: 7}, v)
}

func TestConsumeStopsAtLimit(t *testing.T) {
	assert.Equal(t, nameRest{Name: "hel", Rest: "lo"}, decodeStruct(t, &nameRestCodec, []byte("hel\x00lo")))
	assert.Equal(t, nameRest{Name: "ab", Rest: "XYZ"}, decodeStruct(t, &nameRestCodec, []byte("ab\x00\x00XYZ")))
}

func TestConsumePastEnd(t *testing.T) {
	var v limited
	err := limitedCodec(8, true).Decode(podio.NewBytesReader([]byte("hi\x00")), &v)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestEncodeOverLimit(t *testing.T) {
	var buf bytes.Buffer
	err := limitedCodec(4, true).Encode(&buf, &limited{Name: "toolong"})
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestRuntimeFalseCondStillStages(t *testing.T) {
	s := optionalCodec(false)
	assert.Equal(t, optional{Flag: 0, Tail: 7}, decodeStruct(t, s, []byte{0, 0xAA, 7}))
	assert.Equal(t, optional{Flag: 1, Opt: 9, Tail: 7}, decodeStruct(t, s, []byte{1, 0, 9, 7}))

	assert.Equal(t, []byte{0, 0, 7}, encodeStruct(t, s, &optional{Tail: 7}))
}

func TestNeverSkipsMoves(t *testing.T) {
	s := optionalCodec(true)
	assert.Equal(t, optional{Flag: 1, Tail: 7}, decodeStruct(t, s, []byte{1, 7}))
	assert.Equal(t, []byte{1, 7}, encodeStruct(t, s, &optional{Flag: 1, Opt: 9, Tail: 7}))
}

func TestAssertion(t *testing.T) {
	t.Run("Decode", func(t *testing.T) {
		var v checked
		err := checkedCodec.Decode(podio.NewBytesReader([]byte{1, 9}), &v)
		require.ErrorIs(t, err, ErrAssertion)

		var ae *AssertionError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, "Tag", ae.Field)
		assert.Equal(t, "tag < 5", ae.Expr)
	})

	t.Run("EncodeWritesNothingForField", func(t *testing.T) {
		var buf bytes.Buffer
		err := checkedCodec.Encode(&buf, &checked{Head: 1, Tag: 9})
		require.ErrorIs(t, err, ErrAssertion)
		assert.Equal(t, []byte{1}, buf.Bytes())
	})

	t.Run("Passes", func(t *testing.T) {
		v := checked{Head: 1, Tag: 4}
		assert.Equal(t, v, decodeStruct(t, &checkedCodec, encodeStruct(t, &checkedCodec, &v)))
	})
}

func TestNestedAlignmentIsRelative(t *testing.T) {
	v := outer{A: 1, In: inner{B: 2, C: 3}}
	data := encodeStruct(t, &outerCodec, &v)
	// C is aligned to 4 from the start of In, which begins at offset 1.
	assert.Equal(t, []byte{1, 2, 0, 0, 0, 3}, data)
	assert.Equal(t, v, decodeStruct(t, &outerCodec, data))
}

func TestDecodeZeroesValue(t *testing.T) {
	v := gated{A: 9, B: 9}
	require.NoError(t, gatedCodec.Decode(podio.NewBytesReader([]byte{0}), &v))
	assert.Equal(t, gated{A: 0, B: 5}, v)
}

func TestValidation(t *testing.T) {
	var v validated
	assert.ErrorIs(t, DecodeBytes([]byte{3}, &v), errOdd)
	require.NoError(t, DecodeBytes([]byte{4}, &v))
	assert.Equal(t, uint8(4), v.N)

	hooked := Struct[gated]{
		Fields:   gatedCodec.Fields,
		Validate: func(v *gated) error { return errOdd },
	}
	var g gated
	assert.ErrorIs(t, hooked.Decode(podio.NewBytesReader([]byte{2}), &g), errOdd)
}

// counted records how often it was validated.
type counted struct {
	N      uint8
	checks int
}

var countedCodec = Struct[counted]{Fields: []Field[counted]{
	PodField("N", func(v *counted) *uint8 { return &v.N }),
}}

func (v *counted) Encode(w io.Writer) error { return countedCodec.Encode(w, v) }
func (v *counted) Decode(r io.Reader) error { return countedCodec.Decode(r, v) }
func (v *counted) Validate() error {
	v.checks++
	return nil
}

type holder struct {
	In counted
}

var holderCodec = Struct[holder]{Fields: []Field[holder]{
	CoderField("In", func(v *holder) *counted { return &v.In }),
}}

func TestValidatorRunsOnce(t *testing.T) {
	var v counted
	require.NoError(t, DecodeBytes([]byte{1}, &v))
	assert.Equal(t, 1, v.checks)

	var h holder
	require.NoError(t, holderCodec.Decode(podio.NewBytesReader([]byte{2}), &h))
	assert.Equal(t, counted{N: 2, checks: 1}, h.In)

	var l List[*counted]
	require.NoError(t, DecodeBytes([]byte{3, 4}, &l))
	require.Equal(t, 2, l.Len())
	for _, item := range l.Items {
		assert.Equal(t, 1, item.checks)
	}

	var o Option[*counted]
	require.NoError(t, DecodeBytes([]byte{5}, &o))
	assert.Equal(t, 1, o.Value.checks)
}

func TestFieldErrorsNameTheField(t *testing.T) {
	var v aligned
	err := alignedCodec(2).Decode(podio.NewBytesReader([]byte{1, 0, 5}), &v)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "decode field Val")
}

func TestDirectiveErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	s := Struct[gated]{Fields: []Field[gated]{
		PodField("A", func(v *gated) *uint8 { return &v.A }).With(Directives[gated]{
			Limit: func(*gated) (int64, error) { return 0, boom },
		}),
	}}
	var v gated
	assert.ErrorIs(t, s.Decode(podio.NewBytesReader([]byte{1}), &v), boom)

	neg := Struct[gated]{Fields: []Field[gated]{
		PodField("A", func(v *gated) *uint8 { return &v.A }).With(Directives[gated]{
			Limit: Const[gated](-1),
		}),
	}}
	assert.ErrorIs(t, neg.Decode(podio.NewBytesReader([]byte{1}), &v), ErrInvalidDirective)
}

func TestMerge(t *testing.T) {
	base := Directives[gated]{
		Moves: []Move[gated]{Align(Const[gated](2))},
		Limit: Const[gated](4),
	}
	m := base.Merge(Directives[gated]{
		Moves:   []Move[gated]{Skip(Const[gated](1))},
		Consume: true,
	})
	require.Len(t, m.Moves, 2)
	assert.Equal(t, MoveAlign, m.Moves[0].Kind)
	assert.Equal(t, MoveSkip, m.Moves[1].Kind)
	assert.NotNil(t, m.Limit)
	assert.True(t, m.Consume)
	assert.Len(t, base.Moves, 1)
}
