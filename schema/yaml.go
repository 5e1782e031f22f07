package schema

import (
	"io"
	"os"
	"strings"

	"github.com/oy3o/podio/code"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Schema is a parsed YAML schema document:
//
//	records:
//	  - name: header
//	    fields:
//	      - {name: magic, type: bytes, len: 4}
//	      - {name: count, type: u16le, assert: count < 1000}
//	      - {name: pad, type: u8, align: 4}
//	      - {name: items, type: "[entry]", count: count}
//	      - name: note
//	        type: cstring
//	        limit: 16
//	        consume: true
//	        cond: count > 0
//	        default: '"none"'
//	        decode: {assert: 'len(note) < 16'}
//
// Field types are u8, i8, {u,i}{16,32,64}{le,be}, f32le, f32be, f64le,
// f64be, string, cstring ("cstring!" requires the terminator), bytes, the
// name of a record, or [elem] for an array.
type Schema struct {
	Records []*RecordType `yaml:"records"`

	byName map[string]*RecordType
}

// RecordType is one named record of a Schema.
type RecordType struct {
	Name   string     `yaml:"name"`
	Fields []FieldDef `yaml:"fields"`

	codec *code.Struct[Record]
}

// FieldDef declares one field of a record.
type FieldDef struct {
	Name  string
	Type  string
	Len   string
	Count string

	// Shared applies in both directions; Encode and Decode extend it.
	Shared Directive
	Encode Directive
	Decode Directive
}

// Load reads and compiles the schema file at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read schema")
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return s, nil
}

// Parse compiles a schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(ErrSchema, "%v", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Lookup returns the named record type. An empty name selects the first
// record of the document.
func (s *Schema) Lookup(name string) (*RecordType, error) {
	if name == "" {
		if len(s.Records) == 0 {
			return nil, errors.Wrap(ErrSchema, "schema has no records")
		}
		return s.Records[0], nil
	}
	rt, ok := s.byName[name]
	if !ok {
		return nil, errors.Wrapf(ErrSchema, "no record named %q", name)
	}
	return rt, nil
}

// Decode reads one record.
func (rt *RecordType) Decode(r io.Reader) (*Record, error) {
	rec := &Record{}
	if err := rt.codec.Decode(r, rec); err != nil {
		return nil, errors.WithMessage(err, rt.Name)
	}
	return rec, nil
}

// Encode writes rec, whose fields are looked up by name.
func (rt *RecordType) Encode(w io.Writer, rec *Record) error {
	return errors.WithMessage(rt.codec.Encode(w, rec), rt.Name)
}

func (s *Schema) compile() error {
	s.byName = make(map[string]*RecordType, len(s.Records))
	for _, rt := range s.Records {
		if rt.Name == "" {
			return errors.Wrap(ErrSchema, "record without a name")
		}
		if _, dup := s.byName[rt.Name]; dup {
			return errors.Wrapf(ErrSchema, "duplicate record %q", rt.Name)
		}
		s.byName[rt.Name] = rt
	}
	for _, rt := range s.Records {
		if err := s.compileRecord(rt); err != nil {
			return errors.WithMessagef(err, "record %s", rt.Name)
		}
	}
	return nil
}

func (s *Schema) compileRecord(rt *RecordType) error {
	name := rt.Name
	rt.codec = &code.Struct[Record]{
		Reset: func(v *Record) { *v = Record{Type: name} },
	}
	seen := make(map[string]bool, len(rt.Fields))
	for i := range rt.Fields {
		fd := &rt.Fields[i]
		if fd.Name == "" || fd.Name == "self" {
			return errors.Wrapf(ErrSchema, "field %d: invalid name %q", i, fd.Name)
		}
		if seen[fd.Name] {
			return errors.Wrapf(ErrSchema, "duplicate field %q", fd.Name)
		}
		seen[fd.Name] = true

		f, err := s.compileField(fd)
		if err != nil {
			return errors.WithMessagef(err, "field %s", fd.Name)
		}
		rt.codec.Fields = append(rt.codec.Fields, f)
	}
	return nil
}

func (s *Schema) compileField(fd *FieldDef) (code.Field[Record], error) {
	var f code.Field[Record]
	tc, kind, err := s.resolve(fd.Type)
	if err != nil {
		return f, err
	}

	name := fd.Name
	b := &binding[Record]{
		env: func(v *Record) Env { return v.env() },
		setDefault: func(v *Record, val any) error {
			v.Set(name, fromExpr(val))
			return nil
		},
	}
	if f.Enc, err = b.compile(fd.Shared.Merge(fd.Encode)); err != nil {
		return f, err
	}
	if f.Dec, err = b.compile(fd.Shared.Merge(fd.Decode)); err != nil {
		return f, err
	}

	var n code.Int[Record]
	switch {
	case fd.Len != "" && kind != kindSized:
		return f, errors.Wrapf(ErrSchema, "len is not valid for %s", fd.Type)
	case fd.Count != "" && kind != kindArray:
		return f, errors.Wrapf(ErrSchema, "count is not valid for %s", fd.Type)
	case fd.Len != "":
		n, err = b.intArg(fd.Len)
	case fd.Count != "":
		n, err = b.intArg(fd.Count)
	}
	if err != nil {
		return f, err
	}

	f.Name = name
	f.Encode = func(w io.Writer, v *Record) error {
		val, ok := v.Get(name)
		if !ok || val == nil {
			return errors.Wrapf(code.ErrInvalidEncoding, "missing field %s", name)
		}
		opt, err := option(n, v)
		if err != nil {
			return err
		}
		return tc.encode(w, val, opt)
	}
	f.Decode = func(r io.Reader, v *Record) error {
		opt, err := option(n, v)
		if err != nil {
			return err
		}
		val, err := tc.decode(r, opt)
		if err != nil {
			return err
		}
		v.Set(name, val)
		return nil
	}
	return f, nil
}

// fromExpr stores an expression result the way decoded values are stored.
func fromExpr(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// UnmarshalYAML reads a field mapping, keeping the declared order of align
// and skip directives.
func (fd *FieldDef) UnmarshalYAML(node *yaml.Node) error {
	node = resolveNode(node)
	if node.Kind != yaml.MappingNode {
		return errors.Wrapf(ErrSchema, "line %d: field must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, resolveNode(node.Content[i+1])
		switch key {
		case "name":
			fd.Name = val.Value
		case "type":
			fd.Type = val.Value
		case "len":
			fd.Len = val.Value
		case "count":
			fd.Count = val.Value
		case "encode", "decode":
			d := &fd.Encode
			if key == "decode" {
				d = &fd.Decode
			}
			if err := directiveBlock(val, d); err != nil {
				return errors.WithMessage(err, key)
			}
		default:
			if val.Kind != yaml.ScalarNode {
				return errors.Wrapf(ErrSchema, "line %d: %s must be a scalar", val.Line, key)
			}
			known, err := fd.Shared.set(key, strings.TrimSpace(val.Value))
			if err != nil {
				return err
			}
			if !known {
				return errors.Wrapf(ErrSchema, "line %d: unknown key %q", node.Content[i].Line, key)
			}
		}
	}
	return nil
}

func directiveBlock(node *yaml.Node, d *Directive) error {
	if node.Kind != yaml.MappingNode {
		return errors.Wrapf(ErrSchema, "line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, resolveNode(node.Content[i+1])
		known, err := d.set(key, strings.TrimSpace(val.Value))
		if err != nil {
			return err
		}
		if !known {
			return errors.Wrapf(ErrSchema, "line %d: unknown directive %q", node.Content[i].Line, key)
		}
	}
	return nil
}
