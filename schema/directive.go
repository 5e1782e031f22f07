package schema

import (
	"strconv"
	"strings"

	"github.com/oy3o/podio/code"
	"github.com/pkg/errors"
)

// Move is the source form of an align or skip directive.
type Move struct {
	Kind code.MoveKind
	Expr string
}

// Directive is the source form of one field's directives in one direction.
// Every argument is an expression; see Expr.
type Directive struct {
	Moves   []Move
	Limit   string
	Cond    string
	Default string
	Consume bool
	Assert  string
}

// set applies one key/value pair and reports whether key is a directive.
func (d *Directive) set(key, val string) (bool, error) {
	switch key {
	case "align":
		d.Moves = append(d.Moves, Move{Kind: code.MoveAlign, Expr: val})
	case "skip":
		d.Moves = append(d.Moves, Move{Kind: code.MoveSkip, Expr: val})
	case "limit":
		d.Limit = val
	case "cond":
		d.Cond = val
	case "default":
		d.Default = val
	case "assert":
		d.Assert = val
	case "consume":
		if val == "" {
			d.Consume = true
			break
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return true, errors.Wrapf(ErrSchema, "consume=%q", val)
		}
		d.Consume = b
	default:
		return false, nil
	}
	return true, nil
}

// Merge returns d extended by o, mirroring code.Directives.Merge.
func (d Directive) Merge(o Directive) Directive {
	out := d
	out.Moves = append(append([]Move(nil), d.Moves...), o.Moves...)
	if o.Limit != "" {
		out.Limit = o.Limit
	}
	if o.Cond != "" {
		out.Cond = o.Cond
	}
	if o.Default != "" {
		out.Default = o.Default
	}
	if o.Consume {
		out.Consume = true
	}
	if o.Assert != "" {
		out.Assert = o.Assert
	}
	return out
}

// String renders d in struct tag syntax.
func (d Directive) String() string {
	var parts []string
	for _, m := range d.Moves {
		parts = append(parts, m.Kind.String()+"="+m.Expr)
	}
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("limit", d.Limit)
	add("cond", d.Cond)
	add("default", d.Default)
	if d.Consume {
		parts = append(parts, "consume")
	}
	add("assert", d.Assert)
	return strings.Join(parts, ";")
}

// binding connects compiled expressions to values of T.
type binding[T any] struct {
	sample Env
	env    func(v *T) Env
	// setDefault stores the result of a default expression.
	setDefault func(v *T, val any) error
}

func (b *binding[T]) intArg(src string) (code.Int[T], error) {
	e, err := compileExpr(src, b.sample)
	if err != nil {
		return nil, err
	}
	if lit, ok := e.Literal(); ok {
		n, ok := lit.(int64)
		if !ok {
			return nil, errors.Wrapf(ErrSchema, "%q is not an integer", src)
		}
		return code.Const[T](n), nil
	}
	return func(v *T) (int64, error) { return e.Int(b.env(v)) }, nil
}

func (b *binding[T]) boolArg(src string) (code.Bool[T], error) {
	e, err := compileExpr(src, b.sample)
	if err != nil {
		return nil, err
	}
	if lit, ok := e.Literal(); ok {
		v, ok := lit.(bool)
		if !ok {
			return nil, errors.Wrapf(ErrSchema, "%q is not a boolean", src)
		}
		return func(*T) (bool, error) { return v, nil }, nil
	}
	return func(v *T) (bool, error) { return e.Bool(b.env(v)) }, nil
}

// compile turns d into engine directives. A literal false cond becomes
// Never; a literal true cond is dropped.
func (b *binding[T]) compile(d Directive) (code.Directives[T], error) {
	var out code.Directives[T]
	for _, m := range d.Moves {
		n, err := b.intArg(m.Expr)
		if err != nil {
			return out, errors.WithMessage(err, m.Kind.String())
		}
		out.Moves = append(out.Moves, code.Move[T]{Kind: m.Kind, N: n})
	}
	if d.Limit != "" {
		n, err := b.intArg(d.Limit)
		if err != nil {
			return out, errors.WithMessage(err, "limit")
		}
		out.Limit = n
	}
	switch strings.TrimSpace(d.Cond) {
	case "", "true":
	case "false":
		out.Never = true
	default:
		c, err := b.boolArg(d.Cond)
		if err != nil {
			return out, errors.WithMessage(err, "cond")
		}
		out.Cond = c
	}
	if d.Default != "" {
		e, err := compileExpr(d.Default, b.sample)
		if err != nil {
			return out, errors.WithMessage(err, "default")
		}
		out.Default = func(v *T) error {
			val, err := e.Eval(b.env(v))
			if err != nil {
				return err
			}
			return b.setDefault(v, val)
		}
	}
	out.Consume = d.Consume
	if d.Assert != "" {
		a, err := b.boolArg(d.Assert)
		if err != nil {
			return out, errors.WithMessage(err, "assert")
		}
		out.Assert, out.AssertText = a, d.Assert
	}
	return out, nil
}
