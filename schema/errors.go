// Package schema builds field-coding plans for the code engine from two
// declarative sources: Go struct tags read through reflection, and YAML
// schema documents describing dynamic records. Directive arguments are
// expr-lang expressions over the fields of the value being coded.
package schema

import "github.com/pkg/errors"

var (
	// ErrSchema reports a malformed struct tag or schema document.
	ErrSchema = errors.New("schema: invalid schema")

	// ErrUnsupportedType reports a Go type no coding is known for.
	ErrUnsupportedType = errors.New("schema: unsupported type")
)
