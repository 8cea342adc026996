package sqlstore

import (
	"encoding/json"
	"fmt"
	"unicode/utf16"

	"github.com/cockroachdb/apd/v3"

	"github.com/burrowdb/burrow/internal/handle"
	"github.com/burrowdb/burrow/internal/typesys"
)

// val is the stored form of one value tree. The shape follows the
// descriptor, so decoding needs the root's type and no per-node tags.
// Reference and dynamic targets are store-wide addresses, never owned
// subtrees.
type val struct {
	Bits    uint64 `json:"b,omitempty"`
	Dec     string `json:"d,omitempty"`
	Option  int    `json:"o,omitempty"`
	Payload *val   `json:"p,omitempty"`
	Elems   []*val `json:"e,omitempty"`
	Target  *addr  `json:"t,omitempty"`
}

// addr locates a value inside the store: a root key plus a path of
// positions. Variant payloads appear in the path as the option index that
// was current when the address was taken; navigation fails once the form
// has switched.
type addr struct {
	Root string `json:"root"`
	Path []int  `json:"path,omitempty"`
}

// Encoded tree framing: one format byte, then the JSON document.
const (
	frameRaw  byte = 0
	frameZstd byte = 1

	// Trees whose JSON exceeds this are zstd-compressed.
	compressThreshold = 512
)

func (s *Store) encode(v *val) ([]byte, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: encode: %w", err)
	}
	if len(doc) <= compressThreshold {
		return append([]byte{frameRaw}, doc...), nil
	}
	return s.zenc.EncodeAll(doc, []byte{frameZstd}), nil
}

func (s *Store) decode(enc []byte, t *typesys.Type) (*val, error) {
	if len(enc) == 0 {
		return nil, fmt.Errorf("sqlstore: decode: empty tree")
	}
	doc := enc[1:]
	switch enc[0] {
	case frameRaw:
	case frameZstd:
		var err error
		doc, err = s.zdec.DecodeAll(doc, nil)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: decode: %w", err)
		}
	default:
		return nil, fmt.Errorf("sqlstore: decode: unknown frame %d", enc[0])
	}
	v := &val{}
	if err := json.Unmarshal(doc, v); err != nil {
		return nil, fmt.Errorf("sqlstore: decode: %w", err)
	}
	return v, nil
}

// valEqual is descriptor-directed value equality, used for set membership.
// It must agree with memstore's relation: decimals compare numerically,
// set-kinded constituents compare without regard to insertion order, and
// targets compare by stored address.
func valEqual(t *typesys.Type, a, b *val) (bool, error) {
	switch t.Kind() {
	case typesys.KindPrimitive:
		if t == typesys.Decimal {
			da, err := a.decimal()
			if err != nil {
				return false, err
			}
			db, err := b.decimal()
			if err != nil {
				return false, err
			}
			return da.Cmp(db) == 0, nil
		}
		return a.Bits == b.Bits, nil
	case typesys.KindTuple, typesys.KindStruct:
		if len(a.Elems) != len(b.Elems) {
			return false, nil
		}
		for i := range a.Elems {
			eq, err := valEqual(t.At(i), a.Elems[i], b.Elems[i])
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case typesys.KindList:
		if len(a.Elems) != len(b.Elems) {
			return false, nil
		}
		for i := range a.Elems {
			eq, err := valEqual(t.Elem(), a.Elems[i], b.Elems[i])
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case typesys.KindSet:
		if len(a.Elems) != len(b.Elems) {
			return false, nil
		}
		// Sets hold no duplicates, so equal size plus subset is equality.
		for _, ae := range a.Elems {
			found := false
			for _, be := range b.Elems {
				eq, err := valEqual(t.Elem(), ae, be)
				if err != nil {
					return false, err
				}
				if eq {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil
	case typesys.KindVariant:
		if a.Option != b.Option {
			return false, nil
		}
		return valEqual(t.At(a.Option), a.Payload, b.Payload)
	case typesys.KindReference, typesys.KindDynamic:
		return sameAddr(a.Target, b.Target), nil
	}
	return false, nil
}

func sameAddr(a, b *addr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Root != b.Root || len(a.Path) != len(b.Path) {
		return false
	}
	for i := range a.Path {
		if a.Path[i] != b.Path[i] {
			return false
		}
	}
	return true
}

// defaultVal builds the default value for t: zero primitives, defaulted
// constituents, variant option 0, empty collections, unbound targets.
func defaultVal(t *typesys.Type) *val {
	v := &val{}
	switch t.Kind() {
	case typesys.KindPrimitive:
		if t == typesys.Decimal {
			v.Dec = "0"
		}
	case typesys.KindTuple, typesys.KindStruct:
		v.Elems = make([]*val, t.Len())
		for i := range v.Elems {
			v.Elems[i] = defaultVal(t.At(i))
		}
	case typesys.KindVariant:
		v.Payload = defaultVal(t.At(0))
	}
	return v
}

func valFromNative(t *typesys.Type, nv any) *val {
	v := &val{}
	if bits, ok := handle.NativeBits(nv); ok {
		v.Bits = bits
		return v
	}
	switch x := nv.(type) {
	case *apd.Decimal:
		v.Dec = x.String()
	case bool:
		if x {
			v.Option = 1
		}
		v.Payload = defaultVal(typesys.Void)
	case string:
		units := utf16.Encode([]rune(x))
		v.Elems = make([]*val, len(units))
		for i, u := range units {
			v.Elems[i] = &val{Bits: uint64(u)}
		}
	}
	return v
}

func (v *val) decimal() (*apd.Decimal, error) {
	text := v.Dec
	if text == "" {
		text = "0"
	}
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: decimal %q: %w", text, err)
	}
	return d, nil
}

func cloneVal(v *val) *val {
	if v == nil {
		return nil
	}
	c := &val{Bits: v.Bits, Dec: v.Dec, Option: v.Option}
	if v.Target != nil {
		t := *v.Target
		t.Path = append([]int(nil), v.Target.Path...)
		c.Target = &t
	}
	c.Payload = cloneVal(v.Payload)
	if v.Elems != nil {
		c.Elems = make([]*val, len(v.Elems))
		for i, e := range v.Elems {
			c.Elems[i] = cloneVal(e)
		}
	}
	return c
}

// walk navigates a tree alongside its descriptor. A variant step matches
// only while that option is the current form; a path taken before a form
// switch or a list splice is stale and fails with ErrOutOfRange.
func walk(v *val, t *typesys.Type, path []int) (*val, *typesys.Type, error) {
	for _, step := range path {
		switch t.Kind() {
		case typesys.KindTuple, typesys.KindStruct:
			if step < 0 || step >= len(v.Elems) {
				return nil, nil, fmt.Errorf("sqlstore: position %d: %w", step, handle.ErrOutOfRange)
			}
			v, t = v.Elems[step], t.At(step)
		case typesys.KindList:
			if step < 0 || step >= len(v.Elems) {
				return nil, nil, fmt.Errorf("sqlstore: element %d: %w", step, handle.ErrOutOfRange)
			}
			v, t = v.Elems[step], t.Elem()
		case typesys.KindVariant:
			if step != v.Option {
				return nil, nil, fmt.Errorf("sqlstore: option %d no longer current: %w", step, handle.ErrOutOfRange)
			}
			v, t = v.Payload, t.At(step)
		default:
			return nil, nil, fmt.Errorf("sqlstore: cannot navigate %s: %w", t.Kind(), handle.ErrOutOfRange)
		}
	}
	return v, t, nil
}

// typeWalk navigates descriptors only, for resolving the type at a stored
// address.
func typeWalk(t *typesys.Type, path []int) (*typesys.Type, error) {
	for _, step := range path {
		switch t.Kind() {
		case typesys.KindTuple, typesys.KindStruct, typesys.KindVariant:
			if step < 0 || step >= t.Len() {
				return nil, fmt.Errorf("sqlstore: position %d: %w", step, handle.ErrOutOfRange)
			}
			t = t.At(step)
		case typesys.KindList:
			t = t.Elem()
		default:
			return nil, fmt.Errorf("sqlstore: cannot navigate %s: %w", t.Kind(), handle.ErrOutOfRange)
		}
	}
	return t, nil
}
