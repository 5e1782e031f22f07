package code

import (
	"fmt"

	"github.com/oy3o/podio"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidEncoding reports bytes that do not form a valid value, e.g.
	// a string that is not UTF-8.
	ErrInvalidEncoding = errors.New("code: invalid encoding")

	// ErrAssertion is matched by every *AssertionError.
	ErrAssertion = errors.New("code: assertion failed")

	// ErrInvalidDirective reports a directive expression that evaluated to
	// an unusable value, such as a negative limit.
	ErrInvalidDirective = errors.New("code: invalid directive value")

	ErrTrailingData  = podio.ErrTrailingData
	ErrTruncatedData = podio.ErrTruncatedData
)

// AssertionError is returned when a field's assert directive does not hold.
type AssertionError struct {
	Field string
	Expr  string
}

func (e *AssertionError) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("code: assertion failed on field %s", e.Field)
	}
	return fmt.Sprintf("code: assertion failed on field %s: %s", e.Field, e.Expr)
}

func (e *AssertionError) Is(target error) bool { return target == ErrAssertion }
