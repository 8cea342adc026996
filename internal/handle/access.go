package handle

import (
	"errors"

	"github.com/burrowdb/burrow/internal/typesys"
)

// Target returns the handle a reference points at, or the typed handle a
// dynamic value currently holds. The result is nil while unbound.
func (h *Handle) Target() (*Handle, error) {
	switch h.typ.Kind() {
	case typesys.KindReference:
		res, err := h.loc.Query(QueryGetTargetReference, 0)
		return res.Handle, err
	case typesys.KindDynamic:
		res, err := h.loc.Query(QueryGetTargetDynamic, 0)
		return res.Handle, err
	}
	return nil, incompatible("Target", h.typ, "want reference or dynamic")
}

// SetTarget rebinds a reference's target, or binds a dynamic value to a
// typed handle. A reference target must carry exactly the reference's
// target type; a dynamic accepts any type.
func (h *Handle) SetTarget(arg *Handle) error {
	if arg == nil {
		return incompatible("SetTarget", h.typ, "nil target")
	}
	switch h.typ.Kind() {
	case typesys.KindReference:
		want := h.typ.Elem()
		if want == nil {
			return incompatible("SetTarget", h.typ, "reference target not yet resolved")
		}
		if arg.typ != want {
			return incompatible("SetTarget", h.typ, "target type %s, want %s", arg.typ, want)
		}
		return h.loc.Perform(OpSetTargetReference, arg, 0)
	case typesys.KindDynamic:
		return h.loc.Perform(OpSetTargetDynamic, arg, 0)
	}
	return incompatible("SetTarget", h.typ, "want reference or dynamic")
}

// Size reports the element count of a list or set, or the static arity of
// a tuple. Tuple size needs no backend query.
func (h *Handle) Size() (int, error) {
	switch h.typ.Kind() {
	case typesys.KindList:
		res, err := h.loc.Query(QueryGetListSize, 0)
		return res.N, err
	case typesys.KindSet:
		res, err := h.loc.Query(QueryGetSetSize, 0)
		return res.N, err
	case typesys.KindTuple:
		return h.typ.Len(), nil
	}
	return 0, incompatible("Size", h.typ, "want list, set or tuple")
}

// Option reports a variant's current form index.
func (h *Handle) Option() (int, error) {
	if h.typ.Kind() != typesys.KindVariant {
		return 0, incompatible("Option", h.typ, "want variant")
	}
	res, err := h.loc.Query(QueryGetOptionIndex, 0)
	return res.N, err
}

// SetOption switches a variant's current form to option i and resets the
// payload to that option type's default value. Switching never leaves
// stale payload data from the previous form.
func (h *Handle) SetOption(i int) error {
	if h.typ.Kind() != typesys.KindVariant {
		return incompatible("SetOption", h.typ, "want variant")
	}
	if i < 0 || i >= h.typ.Len() {
		return incompatible("SetOption", h.typ, "option %d out of range", i)
	}
	return h.loc.Perform(OpSetOption, nil, i)
}

// At resolves position i: a tuple element, a list element, a struct field,
// or a variant option's payload. For a variant the result is nil when
// option i is not the current form.
func (h *Handle) At(i int) (*Handle, error) {
	switch h.typ.Kind() {
	case typesys.KindTuple:
		if i < 0 || i >= h.typ.Len() {
			return nil, incompatible("At", h.typ, "element %d out of range", i)
		}
		res, err := h.loc.Query(QueryGetElementTuple, i)
		return res.Handle, err
	case typesys.KindList:
		res, err := h.loc.Query(QueryGetElementList, i)
		return res.Handle, err
	case typesys.KindStruct:
		if i < 0 || i >= h.typ.Len() {
			return nil, incompatible("At", h.typ, "field %d out of range", i)
		}
		res, err := h.loc.Query(QueryGetField, i)
		return res.Handle, err
	case typesys.KindVariant:
		if i < 0 || i >= h.typ.Len() {
			return nil, incompatible("At", h.typ, "option %d out of range", i)
		}
		res, err := h.loc.Query(QueryGetOption, i)
		return res.Handle, err
	}
	return nil, incompatible("At", h.typ, "not positionally addressable")
}

// SetAt writes position i: copy into a tuple element, list element or
// struct field, or activate variant option i with the supplied payload.
func (h *Handle) SetAt(i int, arg *Handle) error {
	if arg == nil {
		return incompatible("SetAt", h.typ, "nil argument")
	}
	switch h.typ.Kind() {
	case typesys.KindTuple:
		if i < 0 || i >= h.typ.Len() {
			return incompatible("SetAt", h.typ, "element %d out of range", i)
		}
		if arg.typ != h.typ.At(i) {
			return incompatible("SetAt", h.typ, "element %d is %s, got %s", i, h.typ.At(i), arg.typ)
		}
		return h.loc.Perform(OpSetElementTuple, arg, i)
	case typesys.KindList:
		if arg.typ != h.typ.Elem() {
			return incompatible("SetAt", h.typ, "element type %s, got %s", h.typ.Elem(), arg.typ)
		}
		return h.loc.Perform(OpSetElementList, arg, i)
	case typesys.KindStruct:
		if i < 0 || i >= h.typ.Len() {
			return incompatible("SetAt", h.typ, "field %d out of range", i)
		}
		if arg.typ != h.typ.At(i) {
			return incompatible("SetAt", h.typ, "field %d is %s, got %s", i, h.typ.At(i), arg.typ)
		}
		return h.loc.Perform(OpSetField, arg, i)
	case typesys.KindVariant:
		if i < 0 || i >= h.typ.Len() {
			return incompatible("SetAt", h.typ, "option %d out of range", i)
		}
		if arg.typ != h.typ.At(i) {
			return incompatible("SetAt", h.typ, "option %d payload is %s, got %s", i, h.typ.At(i), arg.typ)
		}
		return h.loc.Perform(OpSetOption, arg, i)
	}
	return incompatible("SetAt", h.typ, "not positionally addressable")
}

// Member resolves a struct field or variant option by name. A missing name
// is a type incompatibility; an inactive variant option yields nil exactly
// like At.
func (h *Handle) Member(name string) (*Handle, error) {
	i, err := h.memberIndex("Member", name)
	if err != nil {
		return nil, err
	}
	return h.At(i)
}

// SetMember writes a struct field or activates a variant option by name
// with the supplied payload.
func (h *Handle) SetMember(name string, arg *Handle) error {
	i, err := h.memberIndex("SetMember", name)
	if err != nil {
		return err
	}
	return h.SetAt(i, arg)
}

func (h *Handle) memberIndex(op, name string) (int, error) {
	switch h.typ.Kind() {
	case typesys.KindStruct, typesys.KindVariant:
		i, ok := h.typ.Index(name)
		if !ok {
			return 0, incompatible(op, h.typ, "no member %q", name)
		}
		return i, nil
	}
	return 0, incompatible(op, h.typ, "not addressable by name")
}

// Set replaces the whole value with the argument's. Source and destination
// must share the identical type descriptor, not merely an equal shape.
func (h *Handle) Set(arg *Handle) error {
	if arg == nil {
		return incompatible("Set", h.typ, "nil argument")
	}
	if arg.typ != h.typ {
		return incompatible("Set", h.typ, "argument type %s", arg.typ)
	}
	return h.loc.Perform(OpReplace, arg, 0)
}

// SetString writes a native string. For the String type it replaces the
// contents; for a variant it names the option to activate, resetting the
// payload to that option's default like SetOption.
func (h *Handle) SetString(s string) error {
	switch {
	case h.typ == typesys.String:
		arg, err := Literal(typesys.String, s)
		if err != nil {
			return err
		}
		return h.loc.Perform(OpReplace, arg, 0)
	case h.typ.Kind() == typesys.KindVariant:
		i, ok := h.typ.Index(s)
		if !ok {
			return incompatible("SetString", h.typ, "no option %q", s)
		}
		return h.loc.Perform(OpSetOption, nil, i)
	}
	return incompatible("SetString", h.typ, "want string or variant")
}

// Clear removes every element of a list or set.
func (h *Handle) Clear() error {
	switch h.typ.Kind() {
	case typesys.KindList:
		return h.loc.Perform(OpClearList, nil, 0)
	case typesys.KindSet:
		return h.loc.Perform(OpClearSet, nil, 0)
	}
	return incompatible("Clear", h.typ, "want list or set")
}

// Insert places arg at position i of a list, shifting later elements.
func (h *Handle) Insert(i int, arg *Handle) error {
	if err := h.checkElement("Insert", typesys.KindList, arg); err != nil {
		return err
	}
	return h.loc.Perform(OpInsertList, arg, i)
}

// Add inserts arg into a set. Adding an element already present is a
// no-op: sets forbid duplicates.
func (h *Handle) Add(arg *Handle) error {
	if err := h.checkElement("Add", typesys.KindSet, arg); err != nil {
		return err
	}
	return h.loc.Perform(OpInsertSet, arg, 0)
}

// Remove deletes the list element at position i.
func (h *Handle) Remove(i int) error {
	if h.typ.Kind() != typesys.KindList {
		return incompatible("Remove", h.typ, "want list")
	}
	return h.loc.Perform(OpRemoveList, nil, i)
}

// RemoveValue deletes the set element equal to arg. Removing an absent
// element is a no-op, mirroring Add.
func (h *Handle) RemoveValue(arg *Handle) error {
	if err := h.checkElement("RemoveValue", typesys.KindSet, arg); err != nil {
		return err
	}
	return h.loc.Perform(OpRemoveSet, arg, 0)
}

// Append inserts arg after the last list element. When the backend does
// not specialize the op, Append falls back to Insert(Size, arg).
func (h *Handle) Append(arg *Handle) error {
	if err := h.checkElement("Append", typesys.KindList, arg); err != nil {
		return err
	}
	err := h.loc.Perform(OpAppend, arg, 0)
	if errors.Is(err, ErrNotSupported) {
		n, serr := h.Size()
		if serr != nil {
			return serr
		}
		return h.loc.Perform(OpInsertList, arg, n)
	}
	return err
}

// Prepend inserts arg before the first list element, falling back to
// Insert(0, arg) like Append.
func (h *Handle) Prepend(arg *Handle) error {
	if err := h.checkElement("Prepend", typesys.KindList, arg); err != nil {
		return err
	}
	err := h.loc.Perform(OpPrepend, arg, 0)
	if errors.Is(err, ErrNotSupported) {
		return h.loc.Perform(OpInsertList, arg, 0)
	}
	return err
}

func (h *Handle) checkElement(op string, want typesys.Kind, arg *Handle) error {
	if h.typ.Kind() != want {
		return incompatible(op, h.typ, "want %s", want)
	}
	if arg == nil {
		return incompatible(op, h.typ, "nil argument")
	}
	if arg.typ != h.typ.Elem() {
		return incompatible(op, h.typ, "element type %s, got %s", h.typ.Elem(), arg.typ)
	}
	return nil
}
