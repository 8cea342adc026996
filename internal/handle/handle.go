package handle

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/burrowdb/burrow/internal/typesys"
)

// Result is the datum a Query call returns. Which field is meaningful
// follows from the query code: handle-valued queries fill Handle (nil for
// an unbound target or inactive option), size and option-index queries
// fill N, fixed-width primitive reads fill Bits with the raw value, and
// GetPrimitiveDecimal fills Dec.
type Result struct {
	Handle *Handle
	N      int
	Bits   uint64
	Dec    *apd.Decimal
}

// Location is a backend's addressing context for one located value. It is
// the whole dispatch surface: a backend implements these two verbs once
// and gains every accessor on Handle.
//
// A Location may assume the op/type pairing was validated by the Value
// Access API, but must still validate index bounds and the element type of
// argument handles. Perform either fully applies its effect or fails
// without mutating the location.
type Location interface {
	Perform(op OpCode, arg *Handle, index int) error
	Query(q QueryCode, index int) (Result, error)
}

// Store is a backend's handle factory.
type Store interface {
	// New constructs a default-valued location for t.
	New(t *typesys.Type) (*Handle, error)

	// NewValue constructs a location seeded with a native value. Accepted
	// pairings are fixed: byte, uint16 (char/ushort), int16, int32, uint32,
	// int64, uint64, float32, float64, *apd.Decimal, bool and string, each
	// against the corresponding primitive or derived descriptor.
	NewValue(t *typesys.Type, v any) (*Handle, error)
}

// Handle locates a value of one type. It never changes its bound type over
// its lifetime, and carries no value state of its own: every read and
// mutation routes through the backend Location.
type Handle struct {
	typ *typesys.Type
	loc Location
	st  Store
}

// New binds a handle to a location. Backends call this from their
// factories and handle-returning queries.
func New(t *typesys.Type, loc Location, st Store) *Handle {
	return &Handle{typ: t, loc: loc, st: st}
}

// Type reports the descriptor the handle is bound to.
func (h *Handle) Type() *typesys.Type { return h.typ }

// Location exposes the backend addressing context. Backends use it to
// recognize their own handles in argument position.
func (h *Handle) Location() Location { return h.loc }

// Store reports the factory that produced the handle.
func (h *Handle) Store() Store { return h.st }
