package handle

import (
	"fmt"
	"unicode/utf16"

	"github.com/cockroachdb/apd/v3"

	"github.com/burrowdb/burrow/internal/typesys"
)

// Literal constructs a free-standing handle holding a native value. It
// belongs to no store: a backend sees it in argument position as foreign
// and imports the value through the protocol. The native setters seed
// their replacement values this way, so a scalar write never allocates
// backend state. Accepted pairings are the same as Store.NewValue.
func Literal(t *typesys.Type, v any) (*Handle, error) {
	if err := CheckNative(t, v); err != nil {
		return nil, err
	}
	l := &litLoc{typ: t}
	if bits, ok := NativeBits(v); ok {
		l.bits = bits
	} else {
		switch x := v.(type) {
		case *apd.Decimal:
			l.dec = new(apd.Decimal).Set(x)
		case bool:
			if x {
				l.option = 1
			}
		case string:
			l.units = utf16.Encode([]rune(x))
		}
	}
	return New(t, l, nil), nil
}

// litLoc is the read-only location behind Literal. It answers the queries
// the accepted native pairings need and declines every mutation.
type litLoc struct {
	typ    *typesys.Type
	bits   uint64
	dec    *apd.Decimal
	option int
	units  []uint16
}

func (l *litLoc) Perform(op OpCode, arg *Handle, index int) error {
	return fmt.Errorf("handle: literal value: %s: %w", op, ErrNotSupported)
}

func (l *litLoc) Query(q QueryCode, index int) (Result, error) {
	switch q {
	case QueryGetListSize:
		return Result{N: len(l.units)}, nil

	case QueryGetElementList:
		if index < 0 || index >= len(l.units) {
			return Result{}, fmt.Errorf("handle: literal element %d: %w", index, ErrOutOfRange)
		}
		ch, err := Literal(typesys.Char, l.units[index])
		if err != nil {
			return Result{}, err
		}
		return Result{Handle: ch}, nil

	case QueryGetOptionIndex:
		return Result{N: l.option}, nil

	case QueryGetOption:
		if index != l.option {
			return Result{}, nil // inactive option reads as absent
		}
		return Result{Handle: New(l.typ.At(index), &litLoc{typ: typesys.Void}, nil)}, nil

	case QueryGetPrimitiveByte, QueryGetPrimitiveChar,
		QueryGetPrimitiveShort, QueryGetPrimitiveInt,
		QueryGetPrimitiveLong, QueryGetPrimitiveFloat,
		QueryGetPrimitiveDouble:
		return Result{Bits: l.bits}, nil

	case QueryGetPrimitiveDecimal:
		d := new(apd.Decimal)
		if l.dec != nil {
			d.Set(l.dec)
		}
		return Result{Dec: d}, nil
	}
	return Result{}, fmt.Errorf("handle: literal value: %s: %w", q, ErrNotSupported)
}
