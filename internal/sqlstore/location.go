package sqlstore

import (
	"context"
	"fmt"

	"github.com/burrowdb/burrow/internal/handle"
	"github.com/burrowdb/burrow/internal/typesys"
)

// loc addresses one value: a root key plus a path from the root. The
// descriptor at the path is cached; the tree itself is reloaded on every
// call, so aliased handles observe each other's writes.
type loc struct {
	st       *Store
	rootID   string
	rootType *typesys.Type
	typ      *typesys.Type
	path     []int
}

func (l *loc) child(t *typesys.Type, step int) *loc {
	path := make([]int, len(l.path)+1)
	copy(path, l.path)
	path[len(l.path)] = step
	return &loc{st: l.st, rootID: l.rootID, rootType: l.rootType, typ: t, path: path}
}

func (l *loc) Perform(op handle.OpCode, arg *handle.Handle, index int) error {
	// Resolve the argument before taking the store lock: a foreign
	// handle is imported through the protocol, which may lock its own
	// store.
	var (
		argLoc  *loc
		foreign *val
	)
	if arg != nil {
		if al, ok := arg.Location().(*loc); ok && al.st == l.st {
			argLoc = al
		} else {
			switch op {
			case handle.OpSetTargetReference, handle.OpSetTargetDynamic:
				return fmt.Errorf("sqlstore: %s: %w", op, handle.ErrCrossStore)
			}
			var err error
			foreign, err = importVal(arg)
			if err != nil {
				return err
			}
		}
	}

	l.st.mu.Lock()
	defer l.st.mu.Unlock()

	tx, err := l.st.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer tx.Rollback()

	root, err := l.st.loadRoot(tx, l.rootID, l.rootType)
	if err != nil {
		return err
	}
	target, t, err := walk(root, l.rootType, l.path)
	if err != nil {
		return err
	}

	// Materialize the argument value. A sibling inside the same root is
	// read from the loaded tree so the snapshot stays consistent.
	var argVal *val
	var argType *typesys.Type
	var argAddr *addr
	if argLoc != nil {
		argType = argLoc.typ
		argAddr = &addr{Root: argLoc.rootID, Path: append([]int(nil), argLoc.path...)}
		switch op {
		case handle.OpSetTargetReference, handle.OpSetTargetDynamic:
			// Target ops bind the address; no value needed.
		default:
			src := root
			srcType := l.rootType
			if argLoc.rootID != l.rootID {
				src, err = l.st.loadRoot(tx, argLoc.rootID, argLoc.rootType)
				if err != nil {
					return err
				}
				srcType = argLoc.rootType
			}
			sv, _, err := walk(src, srcType, argLoc.path)
			if err != nil {
				return err
			}
			argVal = cloneVal(sv)
		}
	} else if foreign != nil {
		argType = arg.Type()
		argVal = foreign
	}

	if err := apply(target, t, op, argVal, argType, argAddr, index); err != nil {
		return err
	}
	if err := l.st.saveRoot(tx, l.rootID, root); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

func apply(v *val, t *typesys.Type, op handle.OpCode, argVal *val, argType *typesys.Type, argAddr *addr, index int) error {
	switch op {
	case handle.OpSetTargetReference, handle.OpSetTargetDynamic:
		v.Target = argAddr
		return nil

	case handle.OpSetOption:
		if index < 0 || index >= t.Len() {
			return fmt.Errorf("sqlstore: option %d: %w", index, handle.ErrOutOfRange)
		}
		optType := t.At(index)
		if argVal != nil {
			if argType != optType {
				return handle.NewTypeError("SetOption", t, "payload type %s, want %s", argType, optType)
			}
			v.Option = index
			v.Payload = argVal
			return nil
		}
		v.Option = index
		v.Payload = defaultVal(optType)
		return nil

	case handle.OpSetField, handle.OpSetElementTuple:
		if index < 0 || index >= len(v.Elems) {
			return fmt.Errorf("sqlstore: position %d: %w", index, handle.ErrOutOfRange)
		}
		if argType != t.At(index) {
			return handle.NewTypeError(op.String(), t, "got %s, want %s", argType, t.At(index))
		}
		*v.Elems[index] = *argVal
		return nil

	case handle.OpSetElementList:
		if index < 0 || index >= len(v.Elems) {
			return fmt.Errorf("sqlstore: element %d: %w", index, handle.ErrOutOfRange)
		}
		if argType != t.Elem() {
			return handle.NewTypeError("SetElementList", t, "got %s, want %s", argType, t.Elem())
		}
		*v.Elems[index] = *argVal
		return nil

	case handle.OpReplace:
		if argType != t {
			return handle.NewTypeError("Replace", t, "got %s", argType)
		}
		*v = *argVal
		return nil

	case handle.OpClearList, handle.OpClearSet:
		v.Elems = nil
		return nil

	case handle.OpInsertList:
		if err := checkElemType(t, argType); err != nil {
			return err
		}
		if index < 0 || index > len(v.Elems) {
			return fmt.Errorf("sqlstore: insert at %d: %w", index, handle.ErrOutOfRange)
		}
		v.Elems = append(v.Elems, nil)
		copy(v.Elems[index+1:], v.Elems[index:])
		v.Elems[index] = argVal
		return nil

	case handle.OpInsertSet:
		if err := checkElemType(t, argType); err != nil {
			return err
		}
		member, err := setMember(t, v, argVal)
		if err != nil {
			return err
		}
		if member < 0 {
			v.Elems = append(v.Elems, argVal)
		}
		return nil // duplicate insert is a no-op

	case handle.OpRemoveList:
		if index < 0 || index >= len(v.Elems) {
			return fmt.Errorf("sqlstore: remove at %d: %w", index, handle.ErrOutOfRange)
		}
		v.Elems = append(v.Elems[:index], v.Elems[index+1:]...)
		return nil

	case handle.OpRemoveSet:
		if err := checkElemType(t, argType); err != nil {
			return err
		}
		member, err := setMember(t, v, argVal)
		if err != nil {
			return err
		}
		if member >= 0 {
			v.Elems = append(v.Elems[:member], v.Elems[member+1:]...)
		}
		return nil // removing an absent element is a no-op

	case handle.OpAppend:
		if err := checkElemType(t, argType); err != nil {
			return err
		}
		v.Elems = append(v.Elems, argVal)
		return nil

	case handle.OpPrepend:
		if err := checkElemType(t, argType); err != nil {
			return err
		}
		v.Elems = append([]*val{argVal}, v.Elems...)
		return nil
	}
	return fmt.Errorf("sqlstore: %s: %w", op, handle.ErrNotSupported)
}

func checkElemType(t *typesys.Type, argType *typesys.Type) error {
	if argType == nil {
		return handle.NewTypeError("element op", t, "nil argument")
	}
	if argType != t.Elem() {
		return handle.NewTypeError("element op", t, "got %s, want %s", argType, t.Elem())
	}
	return nil
}

// setMember finds an element of set type t equal to x. Returns -1 when
// absent.
func setMember(t *typesys.Type, v *val, x *val) (int, error) {
	for i, e := range v.Elems {
		eq, err := valEqual(t.Elem(), e, x)
		if err != nil {
			return -1, err
		}
		if eq {
			return i, nil
		}
	}
	return -1, nil
}

func (l *loc) Query(q handle.QueryCode, index int) (handle.Result, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()

	root, err := l.st.loadRoot(l.st.db, l.rootID, l.rootType)
	if err != nil {
		return handle.Result{}, err
	}
	v, t, err := walk(root, l.rootType, l.path)
	if err != nil {
		return handle.Result{}, err
	}

	switch q {
	case handle.QueryGetTargetReference, handle.QueryGetTargetDynamic:
		if v.Target == nil {
			return handle.Result{}, nil
		}
		return l.targetHandle(t, q, v.Target)

	case handle.QueryGetListSize, handle.QueryGetSetSize:
		return handle.Result{N: len(v.Elems)}, nil

	case handle.QueryGetOptionIndex:
		return handle.Result{N: v.Option}, nil

	case handle.QueryGetOption:
		if index < 0 || index >= t.Len() {
			return handle.Result{}, fmt.Errorf("sqlstore: option %d: %w", index, handle.ErrOutOfRange)
		}
		if index != v.Option {
			return handle.Result{}, nil // inactive option reads as absent
		}
		child := l.child(t.At(index), index)
		return handle.Result{Handle: handle.New(child.typ, child, l.st)}, nil

	case handle.QueryGetField, handle.QueryGetElementTuple:
		if index < 0 || index >= len(v.Elems) {
			return handle.Result{}, fmt.Errorf("sqlstore: position %d: %w", index, handle.ErrOutOfRange)
		}
		child := l.child(t.At(index), index)
		return handle.Result{Handle: handle.New(child.typ, child, l.st)}, nil

	case handle.QueryGetElementList:
		if index < 0 || index >= len(v.Elems) {
			return handle.Result{}, fmt.Errorf("sqlstore: element %d: %w", index, handle.ErrOutOfRange)
		}
		child := l.child(t.Elem(), index)
		return handle.Result{Handle: handle.New(child.typ, child, l.st)}, nil

	case handle.QueryGetPrimitiveByte, handle.QueryGetPrimitiveChar,
		handle.QueryGetPrimitiveShort, handle.QueryGetPrimitiveInt,
		handle.QueryGetPrimitiveLong, handle.QueryGetPrimitiveFloat,
		handle.QueryGetPrimitiveDouble:
		return handle.Result{Bits: v.Bits}, nil

	case handle.QueryGetPrimitiveDecimal:
		d, err := v.decimal()
		if err != nil {
			return handle.Result{}, err
		}
		return handle.Result{Dec: d}, nil
	}
	return handle.Result{}, fmt.Errorf("sqlstore: %s: %w", q, handle.ErrNotSupported)
}

// targetHandle resolves a stored address to a handle. The registry must
// know the target root's descriptor, which it does for every root created
// or attached in this process.
func (l *loc) targetHandle(t *typesys.Type, q handle.QueryCode, a *addr) (handle.Result, error) {
	rootType, ok := l.st.types[a.Root]
	if !ok {
		return handle.Result{}, fmt.Errorf("sqlstore: target root %s not attached", a.Root)
	}

	var targetType *typesys.Type
	if q == handle.QueryGetTargetReference {
		targetType = t.Elem()
	} else {
		var err error
		targetType, err = typeWalk(rootType, a.Path)
		if err != nil {
			return handle.Result{}, err
		}
	}

	tl := &loc{
		st:       l.st,
		rootID:   a.Root,
		rootType: rootType,
		typ:      targetType,
		path:     append([]int(nil), a.Path...),
	}
	return handle.Result{Handle: handle.New(targetType, tl, l.st)}, nil
}

// importVal snapshots a foreign handle's value through the value access
// API. Sets are not enumerable through the protocol and targets bind
// store-local locations, so those kinds cannot cross stores.
func importVal(arg *handle.Handle) (*val, error) {
	t := arg.Type()
	switch t.Kind() {
	case typesys.KindPrimitive:
		v := &val{}
		q, ok := handle.PrimitiveQuery(t)
		if !ok {
			return v, nil // void carries no value
		}
		res, err := arg.Location().Query(q, 0)
		if err != nil {
			return nil, err
		}
		v.Bits = res.Bits
		if res.Dec != nil {
			v.Dec = res.Dec.String()
		}
		return v, nil
	case typesys.KindTuple, typesys.KindStruct:
		v := &val{Elems: make([]*val, t.Len())}
		for i := range v.Elems {
			ch, err := arg.At(i)
			if err != nil {
				return nil, err
			}
			imp, err := importVal(ch)
			if err != nil {
				return nil, err
			}
			v.Elems[i] = imp
		}
		return v, nil
	case typesys.KindVariant:
		idx, err := arg.Option()
		if err != nil {
			return nil, err
		}
		ph, err := arg.At(idx)
		if err != nil {
			return nil, err
		}
		payload, err := importVal(ph)
		if err != nil {
			return nil, err
		}
		return &val{Option: idx, Payload: payload}, nil
	case typesys.KindList:
		size, err := arg.Size()
		if err != nil {
			return nil, err
		}
		v := &val{Elems: make([]*val, size)}
		for i := 0; i < size; i++ {
			ch, err := arg.At(i)
			if err != nil {
				return nil, err
			}
			imp, err := importVal(ch)
			if err != nil {
				return nil, err
			}
			v.Elems[i] = imp
		}
		return v, nil
	}
	return nil, fmt.Errorf("sqlstore: import %s: %w", t.Kind(), handle.ErrCrossStore)
}
