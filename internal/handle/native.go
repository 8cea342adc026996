package handle

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/burrowdb/burrow/internal/typesys"
)

// Native seeding helpers shared by backends. A Store.NewValue
// implementation validates the type/value pairing with CheckNative, then
// (for fixed-width primitives) takes the raw bits from NativeBits.

// CheckNative reports whether a native Go value can seed a location of
// type t. The pairings mirror the scalar conversions; anything else is a
// type incompatibility.
func CheckNative(t *typesys.Type, v any) error {
	ok := false
	switch v.(type) {
	case byte:
		ok = t == typesys.Byte
	case uint16:
		ok = t == typesys.Char || t == typesys.UShort
	case int16:
		ok = t == typesys.Short
	case int32:
		ok = t == typesys.Int
	case uint32:
		ok = t == typesys.UInt
	case int64:
		ok = t == typesys.Long
	case uint64:
		ok = t == typesys.ULong
	case float32:
		ok = t == typesys.Float
	case float64:
		ok = t == typesys.Double
	case *apd.Decimal:
		ok = t == typesys.Decimal
	case bool:
		ok = t == typesys.Bool
	case string:
		ok = t == typesys.String
	}
	if !ok {
		return incompatible("NewValue", t, "native %T not accepted", v)
	}
	return nil
}

// NativeBits converts a fixed-width native value to its raw bits. The
// second result is false for bool, string and decimal, which have no
// fixed-width bit pattern.
func NativeBits(v any) (uint64, bool) {
	switch x := v.(type) {
	case byte:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case int16:
		return uint64(uint16(x)), true
	case int32:
		return uint64(uint32(x)), true
	case uint32:
		return uint64(x), true
	case int64:
		return uint64(x), true
	case uint64:
		return x, true
	case float32:
		return uint64(math.Float32bits(x)), true
	case float64:
		return math.Float64bits(x), true
	}
	return 0, false
}

// PrimitiveQuery maps a primitive descriptor to the query code that reads
// it. The second result is false for Void, which carries no value.
func PrimitiveQuery(t *typesys.Type) (QueryCode, bool) {
	switch t {
	case typesys.Byte:
		return QueryGetPrimitiveByte, true
	case typesys.Char:
		return QueryGetPrimitiveChar, true
	case typesys.Short, typesys.UShort:
		return QueryGetPrimitiveShort, true
	case typesys.Int, typesys.UInt:
		return QueryGetPrimitiveInt, true
	case typesys.Long, typesys.ULong:
		return QueryGetPrimitiveLong, true
	case typesys.Float:
		return QueryGetPrimitiveFloat, true
	case typesys.Double:
		return QueryGetPrimitiveDouble, true
	case typesys.Decimal:
		return QueryGetPrimitiveDecimal, true
	}
	return 0, false
}
