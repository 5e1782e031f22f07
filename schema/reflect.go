package schema

import (
	"bytes"
	"io"
	"reflect"

	"github.com/oy3o/podio"
	"github.com/oy3o/podio/code"
	"github.com/oy3o/podio/pod"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v4"
)

// StructPlan is the compiled coding of a tagged struct type. The values it
// codes are addressable reflect.Values of that type.
type StructPlan = code.Struct[reflect.Value]

type planEntry struct {
	plan *StructPlan
	err  error
}

// plans is keyed by struct type. Entries are immutable once stored.
var plans = xsync.NewMap[reflect.Type, planEntry]()

// Plan returns the cached plan of struct type t, building it on first use.
func Plan(t reflect.Type) (*StructPlan, error) {
	if e, ok := plans.Load(t); ok {
		return e.plan, e.err
	}
	p, err := buildPlan(t)
	e, _ := plans.LoadOrStore(t, planEntry{plan: p, err: err})
	return e.plan, e.err
}

// Encode writes the struct pointed to by v.
func Encode(w io.Writer, v any) error {
	rv, p, err := target(v)
	if err != nil {
		return err
	}
	return p.Encode(w, &rv)
}

// Decode fills the struct pointed to by v from r.
func Decode(r io.Reader, v any) error {
	rv, p, err := target(v)
	if err != nil {
		return err
	}
	return p.Decode(r, &rv)
}

// Marshal encodes v into a new byte slice.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes v from data. Trailing bytes are ignored.
func Unmarshal(data []byte, v any) error {
	return Decode(podio.NewBytesReader(data), v)
}

// Tagged adapts a tagged struct to code.Coder so it can sit inside the
// engine's generic containers, e.g. code.List[*schema.Tagged[Entry]].
type Tagged[T any] struct {
	Value T
}

func (t *Tagged[T]) Encode(w io.Writer) error { return Encode(w, &t.Value) }
func (t *Tagged[T]) Decode(r io.Reader) error { return Decode(r, &t.Value) }

func target(v any) (reflect.Value, *StructPlan, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, errors.Wrapf(ErrUnsupportedType, "%T is not a pointer to a struct", v)
	}
	p, err := Plan(rv.Elem().Type())
	return rv.Elem(), p, err
}

func buildPlan(t reflect.Type) (*StructPlan, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrUnsupportedType, "%s is not a struct", t)
	}

	sample := envOf(reflect.New(t).Elem())
	p := &StructPlan{
		Reset: func(v *reflect.Value) { v.Set(reflect.Zero(v.Type())) },
		Validate: func(v *reflect.Value) error {
			if val, ok := v.Addr().Interface().(code.Validator); ok {
				return val.Validate()
			}
			return nil
		},
	}
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f, err := buildField(sf, i, sample)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s.%s", t, sf.Name)
		}
		if f != nil {
			p.Fields = append(p.Fields, *f)
		}
	}
	return p, nil
}

func buildField(sf reflect.StructField, idx int, sample Env) (*code.Field[reflect.Value], error) {
	tags, err := parseTags(sf.Tag)
	if err != nil || tags.ignore {
		return nil, err
	}
	vc, err := coderFor(sf.Type)
	if err != nil {
		return nil, err
	}

	b := &binding[reflect.Value]{
		sample: sample,
		env:    func(v *reflect.Value) Env { return envOf(*v) },
		setDefault: func(v *reflect.Value, val any) error {
			return assign(v.Field(idx), val)
		},
	}
	enc, err := b.compile(tags.enc)
	if err != nil {
		return nil, err
	}
	dec, err := b.compile(tags.dec)
	if err != nil {
		return nil, err
	}

	var n code.Int[reflect.Value]
	switch {
	case tags.len != "" && tags.count != "":
		return nil, errors.Wrap(ErrSchema, "len and count are exclusive")
	case tags.len != "":
		n, err = b.intArg(tags.len)
	case tags.count != "":
		n, err = b.intArg(tags.count)
	}
	if err != nil {
		return nil, err
	}

	return &code.Field[reflect.Value]{
		Name: sf.Name,
		Enc:  enc,
		Dec:  dec,
		Encode: func(w io.Writer, v *reflect.Value) error {
			opt, err := option(n, v)
			if err != nil {
				return err
			}
			return vc.encode(w, v.Field(idx), opt)
		},
		Decode: func(r io.Reader, v *reflect.Value) error {
			opt, err := option(n, v)
			if err != nil {
				return err
			}
			return vc.decode(r, v.Field(idx), opt)
		},
	}, nil
}

func option[T any](n code.Int[T], v *T) (*int, error) {
	if n == nil {
		return nil, nil
	}
	x, err := n(v)
	if err != nil {
		return nil, err
	}
	if x < 0 {
		return nil, errors.Wrapf(code.ErrInvalidDirective, "negative length %d", x)
	}
	return podio.Ptr(int(x)), nil
}

// envOf exposes the exported fields of struct value v to expressions.
func envOf(v reflect.Value) Env {
	t := v.Type()
	env := make(Env, t.NumField()+1)
	for i := range t.NumField() {
		if sf := t.Field(i); sf.IsExported() {
			env[sf.Name] = normalize(v.Field(i))
		}
	}
	env["self"] = map[string]any(env)
	return env
}

// valueCoder codes one addressable value. n is the len or count option of
// the field; nil leaves the value unbounded.
type valueCoder struct {
	encode func(w io.Writer, v reflect.Value, n *int) error
	decode func(r io.Reader, v reflect.Value, n *int) error
}

var (
	coderType      = reflect.TypeFor[code.Coder]()
	stringOptsType = reflect.TypeFor[code.OptionsDecoder[code.StringOptions]]()
	bytesOptsType  = reflect.TypeFor[code.OptionsDecoder[code.BytesOptions]]()
)

func coderFor(t reflect.Type) (*valueCoder, error) {
	pt := reflect.PointerTo(t)
	if pt.Implements(coderType) {
		return coderOf(pt), nil
	}
	if l, err := pod.LayoutOf(t); err == nil && !hasTags(t) {
		return &valueCoder{
			encode: func(w io.Writer, v reflect.Value, _ *int) error { return l.Write(w, v) },
			decode: func(r io.Reader, v reflect.Value, _ *int) error { return l.Read(r, v) },
		}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return &valueCoder{
			encode: func(w io.Writer, v reflect.Value, n *int) error {
				s := code.String(v.String())
				return s.EncodeWith(w, code.StringOptions{Len: n})
			},
			decode: func(r io.Reader, v reflect.Value, n *int) error {
				var s code.String
				if err := s.DecodeWith(r, code.StringOptions{Len: n}); err != nil {
					return err
				}
				v.SetString(string(s))
				return nil
			},
		}, nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &valueCoder{
				encode: func(w io.Writer, v reflect.Value, n *int) error {
					b := code.Bytes(v.Bytes())
					return b.EncodeWith(w, code.BytesOptions{Len: n})
				},
				decode: func(r io.Reader, v reflect.Value, n *int) error {
					var b code.Bytes
					if err := b.DecodeWith(r, code.BytesOptions{Len: n}); err != nil {
						return err
					}
					v.SetBytes(b)
					return nil
				},
			}, nil
		}
		elem, err := coderFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return sliceCoder(elem), nil

	case reflect.Array:
		elem, err := coderFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return &valueCoder{
			encode: func(w io.Writer, v reflect.Value, _ *int) error {
				for i := range v.Len() {
					if err := elem.encode(w, v.Index(i), nil); err != nil {
						return errors.Wrapf(err, "element %d", i)
					}
				}
				return nil
			},
			decode: func(r io.Reader, v reflect.Value, _ *int) error {
				for i := range v.Len() {
					if err := elem.decode(r, v.Index(i), nil); err != nil {
						return errors.Wrapf(unexpected(err), "element %d", i)
					}
				}
				return nil
			},
		}, nil

	case reflect.Pointer:
		elem, err := coderFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return &valueCoder{
			encode: func(w io.Writer, v reflect.Value, n *int) error {
				if v.IsNil() {
					return nil
				}
				return elem.encode(w, v.Elem(), n)
			},
			decode: func(r io.Reader, v reflect.Value, n *int) error {
				p := reflect.New(t.Elem())
				if err := elem.decode(r, p.Elem(), n); err != nil {
					return err
				}
				v.Set(p)
				return nil
			},
		}, nil

	case reflect.Struct:
		// Resolved on first use so recursive types do not recurse here.
		return &valueCoder{
			encode: func(w io.Writer, v reflect.Value, _ *int) error {
				p, err := Plan(t)
				if err != nil {
					return err
				}
				return p.Encode(w, &v)
			},
			decode: func(r io.Reader, v reflect.Value, _ *int) error {
				p, err := Plan(t)
				if err != nil {
					return err
				}
				return p.Decode(r, &v)
			},
		}, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedType, "%s", t)
}

// hasTags reports whether any field of struct t carries codec tags, in
// which case it is coded through its plan even when it is Pod.
func hasTags(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := range t.NumField() {
		tag := t.Field(i).Tag
		for _, key := range []string{TagShared, TagEncode, TagDecode} {
			if _, ok := tag.Lookup(key); ok {
				return true
			}
		}
	}
	return false
}

// coderOf codes a type whose pointer implements code.Coder, passing a len
// option through when the type accepts string or bytes options.
func coderOf(pt reflect.Type) *valueCoder {
	withString := pt.Implements(stringOptsType)
	withBytes := pt.Implements(bytesOptsType)
	return &valueCoder{
		encode: func(w io.Writer, v reflect.Value, n *int) error {
			p := v.Addr().Interface()
			switch {
			case n != nil && withString:
				if e, ok := p.(code.OptionsEncoder[code.StringOptions]); ok {
					return e.EncodeWith(w, code.StringOptions{Len: n})
				}
			case n != nil && withBytes:
				if e, ok := p.(code.OptionsEncoder[code.BytesOptions]); ok {
					return e.EncodeWith(w, code.BytesOptions{Len: n})
				}
			}
			return p.(code.Coder).Encode(w)
		},
		decode: func(r io.Reader, v reflect.Value, n *int) error {
			p := v.Addr().Interface()
			switch {
			case n != nil && withString:
				return p.(code.OptionsDecoder[code.StringOptions]).DecodeWith(r, code.StringOptions{Len: n})
			case n != nil && withBytes:
				return p.(code.OptionsDecoder[code.BytesOptions]).DecodeWith(r, code.BytesOptions{Len: n})
			}
			return code.Decode(r, p.(code.Coder))
		},
	}
}

// sliceCoder codes a sequence with no count prefix: exactly n elements
// when a count is given, otherwise until the stream ends between elements.
func sliceCoder(elem *valueCoder) *valueCoder {
	return &valueCoder{
		encode: func(w io.Writer, v reflect.Value, n *int) error {
			if n != nil && *n != v.Len() {
				return errors.Wrapf(code.ErrInvalidEncoding, "%d elements, count is %d", v.Len(), *n)
			}
			for i := range v.Len() {
				if err := elem.encode(w, v.Index(i), nil); err != nil {
					return errors.Wrapf(err, "element %d", i)
				}
			}
			return nil
		},
		decode: func(r io.Reader, v reflect.Value, n *int) error {
			t := v.Type()
			if n != nil {
				s := reflect.MakeSlice(t, 0, min(*n, maxPrealloc))
				for i := range *n {
					item := reflect.New(t.Elem()).Elem()
					if err := elem.decode(r, item, nil); err != nil {
						return errors.Wrapf(unexpected(err), "element %d", i)
					}
					s = reflect.Append(s, item)
				}
				v.Set(s)
				return nil
			}

			s := reflect.MakeSlice(t, 0, 0)
			pr := podio.PeekReader(r)
			for i := 0; ; i++ {
				eof, err := pr.AtEOF()
				if err != nil {
					return err
				}
				if eof {
					break
				}
				item := reflect.New(t.Elem()).Elem()
				if err := elem.decode(pr, item, nil); err != nil {
					return errors.Wrapf(unexpected(err), "element %d", i)
				}
				s = reflect.Append(s, item)
			}
			v.Set(s)
			return nil
		},
	}
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
