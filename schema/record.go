package schema

import (
	"encoding/base64"
	"reflect"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FieldValue is one named value of a Record.
type FieldValue struct {
	Name  string
	Value any
}

// Record is a dynamically typed value of a schema record type. Fields keep
// the order they were decoded or declared in.
//
// Values are int64, uint64 or float64 for numbers, string for string and
// cstring, []byte for bytes, *Record for nested records and []any for
// arrays.
type Record struct {
	Type   string
	Fields []FieldValue
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (any, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the named field or appends it.
func (r *Record) Set(name string, v any) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = v
			return
		}
	}
	r.Fields = append(r.Fields, FieldValue{Name: name, Value: v})
}

func (r *Record) env() Env {
	env := make(Env, len(r.Fields)+1)
	for _, f := range r.Fields {
		env[f.Name] = exprValue(f.Value)
	}
	env["self"] = map[string]any(env)
	return env
}

func exprValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *Record:
		return map[string]any(x.env())
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = exprValue(e)
		}
		return out
	}
	return normalize(reflect.ValueOf(v))
}

// MarshalYAML renders the record as a mapping in field order. Bytes are
// tagged !!binary.
func (r *Record) MarshalYAML() (any, error) {
	return recordNode(r)
}

func recordNode(r *Record) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range r.Fields {
		v, err := valueNode(f.Value)
		if err != nil {
			return nil, errors.WithMessage(err, f.Name)
		}
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name}, v)
	}
	return n, nil
}

func valueNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case *Record:
		return recordNode(x)
	case []byte:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(x)}, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			c, err := valueNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// UnmarshalYAML reads a mapping into an untyped record. Integers become
// int, mappings nested records and !!binary scalars []byte.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	rec, err := nodeRecord(node)
	if err != nil {
		return err
	}
	r.Fields = rec.Fields
	return nil
}

func nodeRecord(node *yaml.Node) (*Record, error) {
	node = resolveNode(node)
	if node.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(ErrSchema, "line %d: record must be a mapping", node.Line)
	}
	rec := &Record{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		v, err := nodeValue(node.Content[i+1])
		if err != nil {
			return nil, errors.WithMessage(err, node.Content[i].Value)
		}
		rec.Set(node.Content[i].Value, v)
	}
	return rec, nil
}

func nodeValue(node *yaml.Node) (any, error) {
	node = resolveNode(node)
	switch node.Kind {
	case yaml.MappingNode:
		return nodeRecord(node)
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	if node.Tag == "!!binary" {
		return base64.StdEncoding.DecodeString(node.Value)
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func resolveNode(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
