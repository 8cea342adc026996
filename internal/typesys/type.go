package typesys

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Type describes the shape of a value. Compare descriptors by pointer:
// there is no structural equality, and structurally identical but
// independently declared schemas remain distinct.
type Type struct {
	kind Kind

	// name holds the display name once resolved. Primitives, structs,
	// variants and dynamic get theirs at construction; composite kinds
	// compute lazily from their constituents.
	name     string
	resolved bool
	naming   bool // guards against degenerate name cycles

	// primitive shape
	size   int
	signed bool

	// struct fields, variant options, or tuple elements (anonymous names)
	fields []Field
	byName map[string]int

	// list/set element type, or reference target (nil until Fix resolves)
	elem *Type

	derived struct {
		list *Type
		set  *Type
		ref  *Type
	}
}

// Field is a named constituent of a struct (field) or variant (option).
type Field struct {
	Name string
	Type *Type
}

// F is shorthand for constructing a Field.
func F(name string, t *Type) Field { return Field{Name: name, Type: t} }

// deriveMu serializes derived-descriptor memoization. Descriptor
// construction itself is single-threaded (see Fix), but derivation may
// happen from any goroutine once a type is published.
var deriveMu sync.Mutex

// Tuple constructs a fresh tuple descriptor over the given element types.
// Every call returns a distinct descriptor.
func Tuple(elems ...*Type) *Type {
	fs := make([]Field, len(elems))
	for i, e := range elems {
		fs[i] = Field{Type: e}
	}
	return &Type{kind: KindTuple, fields: fs}
}

// Struct constructs a fresh struct descriptor. Field names are
// NFC-normalized; an empty or duplicate name is a construction error.
func Struct(name string, fields ...Field) (*Type, error) {
	fs, byName, err := indexFields("struct", name, fields)
	if err != nil {
		return nil, err
	}
	return &Type{kind: KindStruct, name: name, resolved: true, fields: fs, byName: byName}, nil
}

// Variant constructs a fresh tagged-union descriptor. A variant needs at
// least one option: option 0 is the default form of a fresh value.
func Variant(name string, options ...Field) (*Type, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("variant %q: at least one option required", name)
	}
	fs, byName, err := indexFields("variant", name, options)
	if err != nil {
		return nil, err
	}
	return &Type{kind: KindVariant, name: name, resolved: true, fields: fs, byName: byName}, nil
}

// MustStruct is like Struct but panics on error. Intended for package-level
// descriptor constants.
func MustStruct(name string, fields ...Field) *Type {
	t, err := Struct(name, fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// MustVariant is like Variant but panics on error.
func MustVariant(name string, options ...Field) *Type {
	t, err := Variant(name, options...)
	if err != nil {
		panic(err)
	}
	return t
}

func indexFields(what, owner string, fields []Field) ([]Field, map[string]int, error) {
	fs := make([]Field, len(fields))
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, nil, fmt.Errorf("%s %q: field %d has no name", what, owner, i)
		}
		if f.Type == nil {
			return nil, nil, fmt.Errorf("%s %q: field %q has no type", what, owner, f.Name)
		}
		key := norm.NFC.String(f.Name)
		if prev, dup := byName[key]; dup {
			return nil, nil, fmt.Errorf("%s %q: duplicate name %q (positions %d and %d)", what, owner, f.Name, prev, i)
		}
		byName[key] = i
		fs[i] = f
	}
	return fs, byName, nil
}

// Fix builds a self-referential schema. It allocates a reference descriptor
// whose target is not yet resolved, hands it to build (which may embed it
// anywhere in the type it constructs), and back-patches the target with the
// returned type. The reference is also installed as the result's memoized
// Reference(), so later derivation yields the same pointer.
//
// Until Fix returns, the reference's target and target-dependent name are
// unavailable. Fix is a single-threaded two-phase build; do not read the
// placeholder concurrently.
func Fix(build func(self *Type) (*Type, error)) (*Type, error) {
	self := &Type{kind: KindReference}
	t, err := build(self)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("fix: builder returned nil type")
	}
	self.elem = t
	deriveMu.Lock()
	if t.derived.ref == nil {
		t.derived.ref = self
	}
	deriveMu.Unlock()
	return t, nil
}

// Kind reports the type's shape tag.
func (t *Type) Kind() Kind { return t.kind }

// Size reports a primitive's width in bytes. Zero for non-primitives.
func (t *Type) Size() int { return t.size }

// IsSigned reports whether a primitive is signed (floating-point
// primitives count as signed).
func (t *Type) IsSigned() bool { return t.signed }

// Len reports the arity of a tuple, struct or variant. Zero otherwise.
func (t *Type) Len() int { return len(t.fields) }

// At returns the constituent type at position i: tuple element, struct
// field type, or variant option type. Panics if i is out of range, in the
// manner of reflect.
func (t *Type) At(i int) *Type {
	return t.FieldAt(i).Type
}

// FieldAt returns the constituent at position i with its name (empty for
// tuple elements). Panics if i is out of range.
func (t *Type) FieldAt(i int) Field {
	if i < 0 || i >= len(t.fields) {
		panic(fmt.Sprintf("typesys: position %d out of range for %s of arity %d", i, t.kind, len(t.fields)))
	}
	return t.fields[i]
}

// Index resolves a field or option name to its position in O(1). Names are
// NFC-normalized before lookup.
func (t *Type) Index(name string) (int, bool) {
	if t.byName == nil {
		return 0, false
	}
	i, ok := t.byName[norm.NFC.String(name)]
	return i, ok
}

// Elem returns a list's or set's element type, or a reference's target
// type. The target is nil for a reference still under construction by Fix.
func (t *Type) Elem() *Type { return t.elem }

// List returns the memoized list-of-t descriptor, creating it on first use.
func (t *Type) List() *Type {
	deriveMu.Lock()
	defer deriveMu.Unlock()
	if t.derived.list == nil {
		t.derived.list = &Type{kind: KindList, elem: t}
	}
	return t.derived.list
}

// Set returns the memoized set-of-t descriptor, creating it on first use.
func (t *Type) Set() *Type {
	deriveMu.Lock()
	defer deriveMu.Unlock()
	if t.derived.set == nil {
		t.derived.set = &Type{kind: KindSet, elem: t}
	}
	return t.derived.set
}

// Reference returns the memoized reference-to-t descriptor, creating it on
// first use.
func (t *Type) Reference() *Type {
	deriveMu.Lock()
	defer deriveMu.Unlock()
	if t.derived.ref == nil {
		t.derived.ref = &Type{kind: KindReference, elem: t}
	}
	return t.derived.ref
}

// Name returns the type's display name. The second result is false while a
// constituent's name is not yet resolvable (a reference mid-Fix, or a
// composite over one). Once every constituent reports a name the result is
// cached and stable.
func (t *Type) Name() (string, bool) {
	if t.resolved {
		return t.name, true
	}
	if t.naming {
		// Degenerate cycle that never passes through a named struct or
		// variant; such a name can never resolve.
		return "", false
	}
	t.naming = true
	name, ok := t.computeName()
	t.naming = false
	if !ok {
		return "", false
	}
	t.name = name
	t.resolved = true
	return name, true
}

func (t *Type) computeName() (string, bool) {
	switch t.kind {
	case KindTuple:
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			n, ok := f.Type.Name()
			if !ok {
				return "", false
			}
			parts[i] = n
		}
		return "(" + strings.Join(parts, ", ") + ")", true
	case KindList:
		n, ok := t.elem.Name()
		if !ok {
			return "", false
		}
		return "[" + n + "]", true
	case KindSet:
		n, ok := t.elem.Name()
		if !ok {
			return "", false
		}
		return "{" + n + "}", true
	case KindReference:
		if t.elem == nil {
			return "", false
		}
		n, ok := t.elem.Name()
		if !ok {
			return "", false
		}
		return n + "*", true
	default:
		// Primitives, structs, variants and dynamic are named at
		// construction and never reach here.
		return t.name, true
	}
}

// String implements fmt.Stringer for diagnostics. Unresolved names render
// as the kind tag.
func (t *Type) String() string {
	if n, ok := t.Name(); ok {
		return n
	}
	return "<unresolved " + t.kind.String() + ">"
}
