package code

// Int is an integer directive argument, evaluated against the value being
// coded. On decode only the fields before the current one are filled in.
type Int[T any] func(v *T) (int64, error)

// Bool is a boolean directive argument.
type Bool[T any] func(v *T) (bool, error)

// Const returns an Int that ignores the value.
func Const[T any](n int64) Int[T] {
	return func(*T) (int64, error) { return n, nil }
}

// MoveKind selects how a staging move positions the stream.
type MoveKind uint8

const (
	// MoveAlign pads to the next multiple of N, relative to the start of
	// the enclosing value.
	MoveAlign MoveKind = iota
	// MoveSkip skips exactly N bytes; encoding writes N zeros.
	MoveSkip
)

func (k MoveKind) String() string {
	if k == MoveAlign {
		return "align"
	}
	return "skip"
}

// Move is one staging step run before a field.
type Move[T any] struct {
	Kind MoveKind
	N    Int[T]
}

// Align returns an alignment move.
func Align[T any](n Int[T]) Move[T] { return Move[T]{Kind: MoveAlign, N: n} }

// Skip returns a skip move.
func Skip[T any](n Int[T]) Move[T] { return Move[T]{Kind: MoveSkip, N: n} }

// Directives is the ordered set of directives of one field for one
// direction. The zero value codes the field with no directives.
//
// Evaluation order on decode: Moves in order, Limit, Cond, the field
// itself, Consume, Assert. On encode Cond and Assert are checked first so a
// failed assertion writes nothing for the field.
type Directives[T any] struct {
	Moves []Move[T]

	// Limit caps the bytes the field may use. Nil means no limit.
	Limit Int[T]

	// Cond gates the field. Nil means always present. When it is false the
	// moves and limit still apply but the field is not coded; decoding
	// assigns Default instead.
	Cond Bool[T]

	// Never marks a condition known to be false before any value exists.
	// Such a field is skipped entirely, moves included.
	Never bool

	// Default assigns the field when Cond is false on decode. Nil leaves
	// the zero value.
	Default func(v *T) error

	// Consume advances to the end of Limit after the field, zero filling on
	// encode. It is ignored without Limit.
	Consume bool

	Assert     Bool[T]
	AssertText string
}

// Merge returns d extended by o: moves are appended and every directive set
// in o replaces the one in d.
func (d Directives[T]) Merge(o Directives[T]) Directives[T] {
	out := d
	out.Moves = append(append([]Move[T](nil), d.Moves...), o.Moves...)
	if o.Limit != nil {
		out.Limit = o.Limit
	}
	if o.Cond != nil {
		out.Cond = o.Cond
	}
	if o.Never {
		out.Never = true
	}
	if o.Default != nil {
		out.Default = o.Default
	}
	if o.Consume {
		out.Consume = true
	}
	if o.Assert != nil {
		out.Assert, out.AssertText = o.Assert, o.AssertText
	}
	return out
}
