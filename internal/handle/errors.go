package handle

import (
	"errors"
	"fmt"

	"github.com/burrowdb/burrow/internal/typesys"
)

// Sentinels. ErrTypeIncompatible is the one error kind this layer defines;
// the remaining sentinels classify failures a backend reports from inside
// Perform or Query.
var (
	// ErrTypeIncompatible reports a Value Access API member invoked against
	// a handle whose type does not support it: wrong kind, wrong element
	// type, wrong native conversion target, or an unresolved name lookup.
	ErrTypeIncompatible = errors.New("type incompatible")

	// ErrOutOfRange reports an index a backend found out of bounds.
	ErrOutOfRange = errors.New("index out of range")

	// ErrNotSupported reports an operation a backend declines to specialize
	// (Append/Prepend fall back to Insert when they see it).
	ErrNotSupported = errors.New("operation not supported")

	// ErrCrossStore reports an argument handle whose location lives in a
	// different store than the operation requires.
	ErrCrossStore = errors.New("handle belongs to a different store")
)

// TypeError carries the context of a type-incompatibility: the API member,
// the offending type, and a short detail. It wraps ErrTypeIncompatible so
// errors.Is matching works through wrapping.
type TypeError struct {
	Op     string
	Type   *typesys.Type
	Detail string
}

func (e *TypeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s on %s: %s", ErrTypeIncompatible, e.Op, typeLabel(e.Type), e.Detail)
	}
	return fmt.Sprintf("%s: %s on %s", ErrTypeIncompatible, e.Op, typeLabel(e.Type))
}

func (e *TypeError) Unwrap() error { return ErrTypeIncompatible }

// NewTypeError builds a TypeError. Exported so backends can report the
// argument-type mismatches they are required to re-validate.
func NewTypeError(op string, t *typesys.Type, format string, args ...any) *TypeError {
	return &TypeError{Op: op, Type: t, Detail: fmt.Sprintf(format, args...)}
}

// IsTypeIncompatible reports whether err is, or wraps, a type
// incompatibility.
func IsTypeIncompatible(err error) bool {
	return errors.Is(err, ErrTypeIncompatible)
}

func incompatible(op string, t *typesys.Type, format string, args ...any) error {
	return &TypeError{Op: op, Type: t, Detail: fmt.Sprintf(format, args...)}
}

func typeLabel(t *typesys.Type) string {
	if t == nil {
		return "<nil type>"
	}
	return t.String()
}
