package memstore

import (
	"unicode/utf16"

	"github.com/cockroachdb/apd/v3"

	"github.com/burrowdb/burrow/internal/handle"
	"github.com/burrowdb/burrow/internal/typesys"
)

// node is one located value. Children (tuple/struct/list/set elements and
// variant payloads) are owned nodes; reference and dynamic targets alias
// nodes owned elsewhere in the same store.
type node struct {
	typ *typesys.Type

	bits    uint64       // primitive raw value
	dec     *apd.Decimal // decimal primitive
	option  int          // variant current form
	payload *node        // variant payload
	elems   []*node      // tuple/struct/list/set children
	target  *node        // reference/dynamic target, nil while unbound
}

// newNode builds the default value for t: zero primitives, defaulted
// fields and elements, variant option 0, empty collections, unbound
// targets.
func newNode(t *typesys.Type) *node {
	n := &node{typ: t}
	switch t.Kind() {
	case typesys.KindPrimitive:
		if t == typesys.Decimal {
			n.dec = new(apd.Decimal)
		}
	case typesys.KindTuple, typesys.KindStruct:
		n.elems = make([]*node, t.Len())
		for i := range n.elems {
			n.elems[i] = newNode(t.At(i))
		}
	case typesys.KindVariant:
		n.payload = newNode(t.At(0))
	}
	return n
}

func nodeFromNative(t *typesys.Type, v any) *node {
	n := &node{typ: t}
	if bits, ok := handle.NativeBits(v); ok {
		n.bits = bits
		return n
	}
	switch x := v.(type) {
	case *apd.Decimal:
		n.dec = new(apd.Decimal).Set(x)
	case bool:
		if x {
			n.option = 1
		}
		n.payload = newNode(typesys.Void)
	case string:
		n.elems = stringNodes(x)
	}
	return n
}

// clone deep-copies owned state. Targets are relationships, not owned
// values, so the alias is carried over as-is.
func clone(n *node) *node {
	if n == nil {
		return nil
	}
	c := &node{typ: n.typ, bits: n.bits, option: n.option, target: n.target}
	if n.dec != nil {
		c.dec = new(apd.Decimal).Set(n.dec)
	}
	c.payload = clone(n.payload)
	if n.elems != nil {
		c.elems = make([]*node, len(n.elems))
		for i, e := range n.elems {
			c.elems[i] = clone(e)
		}
	}
	return c
}

// copyInto replaces dst's value with a copy of src while keeping the dst
// node itself, so handles aliasing dst observe the new value.
func copyInto(dst, src *node) {
	c := clone(src)
	dst.bits = c.bits
	dst.dec = c.dec
	dst.option = c.option
	dst.payload = c.payload
	dst.elems = c.elems
	dst.target = c.target
}

// deepEqual is structural value equality, used for set membership. Targets
// compare by identity: a reference is a relationship to a location, not to
// a value.
func deepEqual(a, b *node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.typ != b.typ {
		return false
	}
	switch a.typ.Kind() {
	case typesys.KindPrimitive:
		if a.typ == typesys.Decimal {
			return a.dec.Cmp(b.dec) == 0
		}
		return a.bits == b.bits
	case typesys.KindTuple, typesys.KindStruct, typesys.KindList:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !deepEqual(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	case typesys.KindSet:
		if len(a.elems) != len(b.elems) {
			return false
		}
		// Sets hold no duplicates, so equal size plus subset is equality.
		for _, ae := range a.elems {
			found := false
			for _, be := range b.elems {
				if deepEqual(ae, be) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case typesys.KindVariant:
		return a.option == b.option && deepEqual(a.payload, b.payload)
	case typesys.KindReference, typesys.KindDynamic:
		return a.target == b.target
	}
	return false
}

// stringNodes encodes a native string as char element nodes.
func stringNodes(s string) []*node {
	units := utf16.Encode([]rune(s))
	elems := make([]*node, len(units))
	for i, u := range units {
		elems[i] = &node{typ: typesys.Char, bits: uint64(u)}
	}
	return elems
}
