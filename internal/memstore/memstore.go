// Package memstore is the in-memory backend for the handle protocol. A
// location is a node in a process-resident tree; child handles alias the
// nodes they address, so mutations through one handle are visible through
// every other handle over the same location.
package memstore

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/apd/v3"

	"github.com/burrowdb/burrow/internal/handle"
	"github.com/burrowdb/burrow/internal/typesys"
)

// Store is an in-memory backend. One mutex serializes every Perform and
// Query over the store's nodes; that is this backend's whole locking
// discipline.
type Store struct {
	mu sync.Mutex
}

// New creates an empty in-memory store.
func New() *Store { return &Store{} }

// New constructs a default-valued location for t.
func (s *Store) New(t *typesys.Type) (*handle.Handle, error) {
	if t == nil {
		return nil, fmt.Errorf("memstore: nil type")
	}
	return handle.New(t, &loc{st: s, n: newNode(t)}, s), nil
}

// NewValue constructs a location seeded with a native value.
func (s *Store) NewValue(t *typesys.Type, v any) (*handle.Handle, error) {
	if err := handle.CheckNative(t, v); err != nil {
		return nil, err
	}
	return handle.New(t, &loc{st: s, n: nodeFromNative(t, v)}, s), nil
}

// loc addresses one node. The store pointer identifies sibling handles in
// argument position.
type loc struct {
	st *Store
	n  *node
}

func (l *loc) Perform(op handle.OpCode, arg *handle.Handle, index int) error {
	an, err := l.adopt(op, arg)
	if err != nil {
		return err
	}
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return perform(l.st, l.n, op, an, index)
}

func (l *loc) Query(q handle.QueryCode, index int) (handle.Result, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return query(l.st, l.n, q, index)
}

// adopt resolves an argument handle to a node before the store lock is
// taken. A sibling handle's node is used directly; a foreign handle is
// imported by reading it through the protocol, except for the target ops,
// which bind locations and therefore only accept siblings.
func (l *loc) adopt(op handle.OpCode, arg *handle.Handle) (*node, error) {
	if arg == nil {
		return nil, nil
	}
	if ml, ok := arg.Location().(*loc); ok && ml.st == l.st {
		return ml.n, nil
	}
	switch op {
	case handle.OpSetTargetReference, handle.OpSetTargetDynamic:
		return nil, fmt.Errorf("memstore: %s: %w", op, handle.ErrCrossStore)
	}
	return importNode(arg)
}

// importNode snapshots a foreign handle's value by reading it through the
// value access API. Sets are not enumerable through the protocol and
// references bind store-local locations, so those kinds cannot cross
// stores.
func importNode(arg *handle.Handle) (*node, error) {
	t := arg.Type()
	switch t.Kind() {
	case typesys.KindPrimitive:
		n := &node{typ: t}
		q, ok := handle.PrimitiveQuery(t)
		if !ok {
			return n, nil // void carries no value
		}
		res, err := arg.Location().Query(q, 0)
		if err != nil {
			return nil, err
		}
		n.bits = res.Bits
		if res.Dec != nil {
			n.dec = new(apd.Decimal).Set(res.Dec)
		}
		return n, nil
	case typesys.KindTuple, typesys.KindStruct:
		n := &node{typ: t, elems: make([]*node, t.Len())}
		for i := range n.elems {
			ch, err := arg.At(i)
			if err != nil {
				return nil, err
			}
			imp, err := importNode(ch)
			if err != nil {
				return nil, err
			}
			n.elems[i] = imp
		}
		return n, nil
	case typesys.KindVariant:
		idx, err := arg.Option()
		if err != nil {
			return nil, err
		}
		ph, err := arg.At(idx)
		if err != nil {
			return nil, err
		}
		payload, err := importNode(ph)
		if err != nil {
			return nil, err
		}
		return &node{typ: t, option: idx, payload: payload}, nil
	case typesys.KindList:
		size, err := arg.Size()
		if err != nil {
			return nil, err
		}
		n := &node{typ: t, elems: make([]*node, size)}
		for i := 0; i < size; i++ {
			ch, err := arg.At(i)
			if err != nil {
				return nil, err
			}
			imp, err := importNode(ch)
			if err != nil {
				return nil, err
			}
			n.elems[i] = imp
		}
		return n, nil
	}
	return nil, fmt.Errorf("memstore: import %s: %w", t.Kind(), handle.ErrCrossStore)
}

func perform(st *Store, n *node, op handle.OpCode, an *node, index int) error {
	switch op {
	case handle.OpSetTargetReference, handle.OpSetTargetDynamic:
		n.target = an
		return nil

	case handle.OpSetOption:
		if index < 0 || index >= n.typ.Len() {
			return fmt.Errorf("memstore: option %d: %w", index, handle.ErrOutOfRange)
		}
		optType := n.typ.At(index)
		if an != nil {
			if an.typ != optType {
				return handle.NewTypeError("SetOption", n.typ, "payload type %s, want %s", an.typ, optType)
			}
			n.option = index
			n.payload = clone(an)
			return nil
		}
		n.option = index
		n.payload = newNode(optType)
		return nil

	case handle.OpSetField, handle.OpSetElementTuple:
		if index < 0 || index >= len(n.elems) {
			return fmt.Errorf("memstore: position %d: %w", index, handle.ErrOutOfRange)
		}
		if an == nil || an.typ != n.typ.At(index) {
			return handle.NewTypeError(op.String(), n.typ, "argument type mismatch, want %s", n.typ.At(index))
		}
		copyInto(n.elems[index], an)
		return nil

	case handle.OpSetElementList:
		if index < 0 || index >= len(n.elems) {
			return fmt.Errorf("memstore: element %d: %w", index, handle.ErrOutOfRange)
		}
		if an == nil || an.typ != n.typ.Elem() {
			return handle.NewTypeError("SetElementList", n.typ, "argument type mismatch, want %s", n.typ.Elem())
		}
		copyInto(n.elems[index], an)
		return nil

	case handle.OpReplace:
		if an == nil || an.typ != n.typ {
			return handle.NewTypeError("Replace", n.typ, "argument type mismatch")
		}
		copyInto(n, an)
		return nil

	case handle.OpClearList, handle.OpClearSet:
		n.elems = nil
		return nil

	case handle.OpInsertList:
		if err := checkElem(n, an); err != nil {
			return err
		}
		if index < 0 || index > len(n.elems) {
			return fmt.Errorf("memstore: insert at %d: %w", index, handle.ErrOutOfRange)
		}
		c := clone(an)
		n.elems = append(n.elems, nil)
		copy(n.elems[index+1:], n.elems[index:])
		n.elems[index] = c
		return nil

	case handle.OpInsertSet:
		if err := checkElem(n, an); err != nil {
			return err
		}
		for _, e := range n.elems {
			if deepEqual(e, an) {
				return nil // duplicate insert is a no-op
			}
		}
		n.elems = append(n.elems, clone(an))
		return nil

	case handle.OpRemoveList:
		if index < 0 || index >= len(n.elems) {
			return fmt.Errorf("memstore: remove at %d: %w", index, handle.ErrOutOfRange)
		}
		n.elems = append(n.elems[:index], n.elems[index+1:]...)
		return nil

	case handle.OpRemoveSet:
		if err := checkElem(n, an); err != nil {
			return err
		}
		for i, e := range n.elems {
			if deepEqual(e, an) {
				n.elems = append(n.elems[:i], n.elems[i+1:]...)
				return nil
			}
		}
		return nil // removing an absent element is a no-op

	case handle.OpAppend:
		if err := checkElem(n, an); err != nil {
			return err
		}
		n.elems = append(n.elems, clone(an))
		return nil

	case handle.OpPrepend:
		if err := checkElem(n, an); err != nil {
			return err
		}
		n.elems = append([]*node{clone(an)}, n.elems...)
		return nil
	}
	return fmt.Errorf("memstore: %s: %w", op, handle.ErrNotSupported)
}

func checkElem(n *node, an *node) error {
	if an == nil {
		return handle.NewTypeError("element op", n.typ, "nil argument")
	}
	if an.typ != n.typ.Elem() {
		return handle.NewTypeError("element op", n.typ, "got %s, want %s", an.typ, n.typ.Elem())
	}
	return nil
}

func query(st *Store, n *node, q handle.QueryCode, index int) (handle.Result, error) {
	mk := func(child *node) handle.Result {
		if child == nil {
			return handle.Result{}
		}
		return handle.Result{Handle: handle.New(child.typ, &loc{st: st, n: child}, st)}
	}

	switch q {
	case handle.QueryGetTargetReference, handle.QueryGetTargetDynamic:
		return mk(n.target), nil

	case handle.QueryGetListSize, handle.QueryGetSetSize:
		return handle.Result{N: len(n.elems)}, nil

	case handle.QueryGetOptionIndex:
		return handle.Result{N: n.option}, nil

	case handle.QueryGetOption:
		if index < 0 || index >= n.typ.Len() {
			return handle.Result{}, fmt.Errorf("memstore: option %d: %w", index, handle.ErrOutOfRange)
		}
		if index != n.option {
			return handle.Result{}, nil // inactive option reads as absent
		}
		return mk(n.payload), nil

	case handle.QueryGetField, handle.QueryGetElementTuple, handle.QueryGetElementList:
		if index < 0 || index >= len(n.elems) {
			return handle.Result{}, fmt.Errorf("memstore: position %d: %w", index, handle.ErrOutOfRange)
		}
		return mk(n.elems[index]), nil

	case handle.QueryGetPrimitiveByte, handle.QueryGetPrimitiveChar,
		handle.QueryGetPrimitiveShort, handle.QueryGetPrimitiveInt,
		handle.QueryGetPrimitiveLong, handle.QueryGetPrimitiveFloat,
		handle.QueryGetPrimitiveDouble:
		return handle.Result{Bits: n.bits}, nil

	case handle.QueryGetPrimitiveDecimal:
		d := new(apd.Decimal)
		if n.dec != nil {
			d.Set(n.dec)
		}
		return handle.Result{Dec: d}, nil
	}
	return handle.Result{}, fmt.Errorf("memstore: %s: %w", q, handle.ErrNotSupported)
}
