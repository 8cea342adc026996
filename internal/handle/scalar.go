package handle

import (
	"math"
	"unicode/utf16"

	"github.com/cockroachdb/apd/v3"

	"github.com/burrowdb/burrow/internal/typesys"
)

// Scalar conversions. Each getter asserts the handle's type is exactly the
// corresponding primitive or derived descriptor, then issues the matching
// width query; each setter seeds a literal argument and replaces in place.
// The conversions are sugar over the protocol and never bypass the type
// check.

func (h *Handle) AsByte() (byte, error) {
	bits, err := h.primBits("AsByte", typesys.Byte, QueryGetPrimitiveByte)
	return byte(bits), err
}

func (h *Handle) AsChar() (uint16, error) {
	bits, err := h.primBits("AsChar", typesys.Char, QueryGetPrimitiveChar)
	return uint16(bits), err
}

func (h *Handle) AsShort() (int16, error) {
	bits, err := h.primBits("AsShort", typesys.Short, QueryGetPrimitiveShort)
	return int16(bits), err
}

func (h *Handle) AsUShort() (uint16, error) {
	bits, err := h.primBits("AsUShort", typesys.UShort, QueryGetPrimitiveShort)
	return uint16(bits), err
}

func (h *Handle) AsInt() (int32, error) {
	bits, err := h.primBits("AsInt", typesys.Int, QueryGetPrimitiveInt)
	return int32(bits), err
}

func (h *Handle) AsUInt() (uint32, error) {
	bits, err := h.primBits("AsUInt", typesys.UInt, QueryGetPrimitiveInt)
	return uint32(bits), err
}

func (h *Handle) AsLong() (int64, error) {
	bits, err := h.primBits("AsLong", typesys.Long, QueryGetPrimitiveLong)
	return int64(bits), err
}

func (h *Handle) AsULong() (uint64, error) {
	return h.primBits("AsULong", typesys.ULong, QueryGetPrimitiveLong)
}

func (h *Handle) AsFloat() (float32, error) {
	bits, err := h.primBits("AsFloat", typesys.Float, QueryGetPrimitiveFloat)
	return math.Float32frombits(uint32(bits)), err
}

func (h *Handle) AsDouble() (float64, error) {
	bits, err := h.primBits("AsDouble", typesys.Double, QueryGetPrimitiveDouble)
	return math.Float64frombits(bits), err
}

func (h *Handle) AsDecimal() (*apd.Decimal, error) {
	if h.typ != typesys.Decimal {
		return nil, incompatible("AsDecimal", h.typ, "want decimal")
	}
	res, err := h.loc.Query(QueryGetPrimitiveDecimal, 0)
	if err != nil {
		return nil, err
	}
	return res.Dec, nil
}

// AsBool reads the built-in bool variant: option 1 is true.
func (h *Handle) AsBool() (bool, error) {
	if h.typ != typesys.Bool {
		return false, incompatible("AsBool", h.typ, "want bool")
	}
	res, err := h.loc.Query(QueryGetOptionIndex, 0)
	if err != nil {
		return false, err
	}
	return res.N == 1, nil
}

// AsString decodes the String type (a list of UTF-16 code units) element
// by element through the protocol.
func (h *Handle) AsString() (string, error) {
	if h.typ != typesys.String {
		return "", incompatible("AsString", h.typ, "want string")
	}
	res, err := h.loc.Query(QueryGetListSize, 0)
	if err != nil {
		return "", err
	}
	units := make([]uint16, res.N)
	for i := range units {
		el, err := h.loc.Query(QueryGetElementList, i)
		if err != nil {
			return "", err
		}
		c, err := el.Handle.AsChar()
		if err != nil {
			return "", err
		}
		units[i] = c
	}
	return string(utf16.Decode(units)), nil
}

func (h *Handle) SetByte(v byte) error      { return h.setNative("SetByte", typesys.Byte, v) }
func (h *Handle) SetChar(v uint16) error    { return h.setNative("SetChar", typesys.Char, v) }
func (h *Handle) SetShort(v int16) error    { return h.setNative("SetShort", typesys.Short, v) }
func (h *Handle) SetUShort(v uint16) error  { return h.setNative("SetUShort", typesys.UShort, v) }
func (h *Handle) SetInt(v int32) error      { return h.setNative("SetInt", typesys.Int, v) }
func (h *Handle) SetUInt(v uint32) error    { return h.setNative("SetUInt", typesys.UInt, v) }
func (h *Handle) SetLong(v int64) error     { return h.setNative("SetLong", typesys.Long, v) }
func (h *Handle) SetULong(v uint64) error   { return h.setNative("SetULong", typesys.ULong, v) }
func (h *Handle) SetFloat(v float32) error  { return h.setNative("SetFloat", typesys.Float, v) }
func (h *Handle) SetDouble(v float64) error { return h.setNative("SetDouble", typesys.Double, v) }

func (h *Handle) SetDecimal(v *apd.Decimal) error {
	return h.setNative("SetDecimal", typesys.Decimal, v)
}

// SetBool switches the built-in bool variant's option.
func (h *Handle) SetBool(v bool) error {
	if h.typ != typesys.Bool {
		return incompatible("SetBool", h.typ, "want bool")
	}
	i := 0
	if v {
		i = 1
	}
	return h.loc.Perform(OpSetOption, nil, i)
}

func (h *Handle) primBits(op string, want *typesys.Type, q QueryCode) (uint64, error) {
	if h.typ != want {
		wantName, _ := want.Name()
		return 0, incompatible(op, h.typ, "want %s", wantName)
	}
	res, err := h.loc.Query(q, 0)
	return res.Bits, err
}

func (h *Handle) setNative(op string, want *typesys.Type, v any) error {
	if h.typ != want {
		wantName, _ := want.Name()
		return incompatible(op, h.typ, "want %s", wantName)
	}
	arg, err := Literal(want, v)
	if err != nil {
		return err
	}
	return h.loc.Perform(OpReplace, arg, 0)
}
