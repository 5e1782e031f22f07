package schema

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/oy3o/podio/code"
	"github.com/pkg/errors"
)

// Env is the variable set an expression is evaluated against: every field
// decoded so far by name, and the same map again as "self".
type Env map[string]any

// Expr is a compiled directive expression. Integer and boolean literals are
// folded at compile time and never reach the expression VM.
type Expr struct {
	Src  string
	prog *vm.Program
	lit  any
}

// compileExpr compiles src. sample, when non-nil, is a typed environment the
// program is checked against; otherwise unknown names evaluate to nil.
func compileExpr(src string, sample Env) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errors.Wrap(ErrSchema, "empty expression")
	}
	if n, err := strconv.ParseInt(src, 0, 64); err == nil {
		return &Expr{Src: src, lit: n}, nil
	}
	switch src {
	case "true":
		return &Expr{Src: src, lit: true}, nil
	case "false":
		return &Expr{Src: src, lit: false}, nil
	}

	opt := expr.AllowUndefinedVariables()
	if sample != nil {
		opt = expr.Env(map[string]any(sample))
	}
	prog, err := expr.Compile(src, opt)
	if err != nil {
		return nil, errors.Wrapf(ErrSchema, "expression %q: %v", src, err)
	}
	return &Expr{Src: src, prog: prog}, nil
}

// Literal reports the folded value of a literal expression.
func (e *Expr) Literal() (any, bool) { return e.lit, e.lit != nil }

// Eval runs the expression.
func (e *Expr) Eval(env Env) (any, error) {
	if e.lit != nil {
		return e.lit, nil
	}
	out, err := expr.Run(e.prog, map[string]any(env))
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate %q", e.Src)
	}
	return out, nil
}

// Int evaluates the expression to an integer.
func (e *Expr) Int(env Env) (int64, error) {
	v, err := e.Eval(env)
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, errors.Wrapf(code.ErrInvalidDirective, "%q is %T, not an integer", e.Src, v)
	}
	return n, nil
}

// Bool evaluates the expression to a boolean.
func (e *Expr) Bool(env Env) (bool, error) {
	v, err := e.Eval(env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.Wrapf(code.ErrInvalidDirective, "%q is %T, not a boolean", e.Src, v)
	}
	return b, nil
}

func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

// normalize converts a field value to what expressions see: integers of any
// width become int, floats become float64, named strings become string, and
// endian primitives become their numeric value.
func normalize(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return normalize(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Struct && !isWord(v.Type().Elem()) {
			return v.Interface()
		}
		return normalize(v.Elem())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes()
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = normalize(v.Index(i))
		}
		return out
	case reflect.Struct:
		if isWord(v.Type()) {
			return normalize(v.MethodByName("Get").Call(nil)[0])
		}
	}
	if v.CanInterface() {
		return v.Interface()
	}
	return nil
}

// isWord reports whether t is an endian primitive: a struct with a
// niladic Get returning a number and a matching Set on its pointer.
func isWord(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	get, ok := t.MethodByName("Get")
	if !ok || get.Type.NumIn() != 1 || get.Type.NumOut() != 1 {
		return false
	}
	switch get.Type.Out(0).Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
	default:
		return false
	}
	_, ok = reflect.PointerTo(t).MethodByName("Set")
	return ok
}

// assign stores v, typically the result of a default expression, into dst.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if isWord(dst.Type()) {
		set := dst.Addr().MethodByName("Set")
		arg := reflect.New(set.Type().In(0)).Elem()
		if err := assign(arg, v); err != nil {
			return err
		}
		set.Call([]reflect.Value{arg})
		return nil
	}

	src := reflect.ValueOf(v)
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(v)
		if !ok || dst.OverflowInt(n) {
			return errors.Wrapf(code.ErrInvalidDirective, "cannot assign %v to %s", v, dst.Type())
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := toInt64(v)
		if !ok || n < 0 || dst.OverflowUint(uint64(n)) {
			return errors.Wrapf(code.ErrInvalidDirective, "cannot assign %v to %s", v, dst.Type())
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		switch src.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(src.Float())
			return nil
		}
		if n, ok := toInt64(v); ok {
			dst.SetFloat(float64(n))
			return nil
		}
	case reflect.Pointer:
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}
	return errors.Wrapf(code.ErrInvalidDirective, "cannot assign %T to %s", v, dst.Type())
}
