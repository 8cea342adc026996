package handle_test

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowdb/burrow/internal/handle"
	"github.com/burrowdb/burrow/internal/memstore"
	"github.com/burrowdb/burrow/internal/typesys"
)

func newStuff(t *testing.T) *typesys.Type {
	t.Helper()
	st, err := typesys.Struct("Stuff",
		typesys.F("Frequency", typesys.UInt),
		typesys.F("Name", typesys.String),
		typesys.F("IsHappy", typesys.Bool),
	)
	require.NoError(t, err)
	return st
}

func TestStructFieldRoundTrip(t *testing.T) {
	st := memstore.New()
	h, err := st.New(newStuff(t))
	require.NoError(t, err)

	freq, err := h.Member("Frequency")
	require.NoError(t, err)
	require.NoError(t, freq.SetUInt(4))

	name, err := h.Member("Name")
	require.NoError(t, err)
	require.NoError(t, name.SetString("Something"))

	happy, err := h.Member("IsHappy")
	require.NoError(t, err)
	require.NoError(t, happy.SetBool(true))

	// Fresh handles over the same value observe the writes.
	freq2, err := h.At(0)
	require.NoError(t, err)
	got, err := freq2.AsUInt()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), got)

	name2, err := h.At(1)
	require.NoError(t, err)
	s, err := name2.AsString()
	require.NoError(t, err)
	assert.Equal(t, "Something", s)

	happy2, err := h.At(2)
	require.NoError(t, err)
	b, err := happy2.AsBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestMemberUnknownName(t *testing.T) {
	st := memstore.New()
	h, err := st.New(newStuff(t))
	require.NoError(t, err)

	_, err = h.Member("NoSuchField")
	require.Error(t, err)
	assert.True(t, handle.IsTypeIncompatible(err))
}

func TestVariantSwitchResetsPayload(t *testing.T) {
	pet, err := typesys.Variant("Pet",
		typesys.F("dog", typesys.Int),
		typesys.F("cat", typesys.Void),
	)
	require.NoError(t, err)

	st := memstore.New()
	h, err := st.New(pet)
	require.NoError(t, err)

	// Starts at option 0 with a default payload.
	idx, err := h.Option()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	payload, err := h.At(0)
	require.NoError(t, err)
	require.NoError(t, payload.SetInt(7))

	// Switching away and back resets the payload to its default.
	require.NoError(t, h.SetOption(1))
	require.NoError(t, h.SetOption(0))

	payload, err = h.At(0)
	require.NoError(t, err)
	v, err := payload.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(0), v)
}

func TestVariantInactiveOptionReadsNil(t *testing.T) {
	gender, err := typesys.Variant("Gender",
		typesys.F("Male", typesys.Void),
		typesys.F("Female", typesys.Void),
		typesys.F("Undecided", typesys.Void),
	)
	require.NoError(t, err)

	st := memstore.New()
	h, err := st.New(gender)
	require.NoError(t, err)

	require.NoError(t, h.SetString("Undecided"))
	idx, err := h.Option()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	inactive, err := h.At(0)
	require.NoError(t, err)
	assert.Nil(t, inactive)

	active, err := h.Member("Undecided")
	require.NoError(t, err)
	assert.NotNil(t, active)
}

func TestListClearAppendPrepend(t *testing.T) {
	st := memstore.New()
	h, err := st.New(typesys.String.List())
	require.NoError(t, err)

	seed := func(s string) *handle.Handle {
		el, err := st.NewValue(typesys.String, s)
		require.NoError(t, err)
		return el
	}

	require.NoError(t, h.Append(seed("x")))
	require.NoError(t, h.Clear())

	require.NoError(t, h.Append(seed("a")))
	require.NoError(t, h.Prepend(seed("b")))

	n, err := h.Size()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	first, err := h.At(0)
	require.NoError(t, err)
	s, err := first.AsString()
	require.NoError(t, err)
	assert.Equal(t, "b", s)

	second, err := h.At(1)
	require.NoError(t, err)
	s, err = second.AsString()
	require.NoError(t, err)
	assert.Equal(t, "a", s)
}

func TestListInsertRemove(t *testing.T) {
	st := memstore.New()
	h, err := st.New(typesys.Int.List())
	require.NoError(t, err)

	for _, v := range []int32{1, 3} {
		el, err := st.NewValue(typesys.Int, v)
		require.NoError(t, err)
		require.NoError(t, h.Append(el))
	}
	mid, err := st.NewValue(typesys.Int, int32(2))
	require.NoError(t, err)
	require.NoError(t, h.Insert(1, mid))

	var got []int32
	n, err := h.Size()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		el, err := h.At(i)
		require.NoError(t, err)
		v, err := el.AsInt()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int32{1, 2, 3}, got)

	require.NoError(t, h.Remove(0))
	n, err = h.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	err = h.Remove(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, handle.ErrOutOfRange)
}

func TestSetDuplicateInsertIsNoOp(t *testing.T) {
	st := memstore.New()
	h, err := st.New(typesys.Int.Set())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		el, err := st.NewValue(typesys.Int, int32(42))
		require.NoError(t, err)
		require.NoError(t, h.Add(el))
	}

	n, err := h.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Removing an absent element is equally silent.
	absent, err := st.NewValue(typesys.Int, int32(7))
	require.NoError(t, err)
	require.NoError(t, h.RemoveValue(absent))

	present, err := st.NewValue(typesys.Int, int32(42))
	require.NoError(t, err)
	require.NoError(t, h.RemoveValue(present))

	n, err = h.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSetOfSetsMembership(t *testing.T) {
	st := memstore.New()
	inner := typesys.Int.Set()
	outer, err := st.New(inner.Set())
	require.NoError(t, err)

	mk := func(vals ...int32) *handle.Handle {
		h, err := st.New(inner)
		require.NoError(t, err)
		for _, v := range vals {
			el, err := st.NewValue(typesys.Int, v)
			require.NoError(t, err)
			require.NoError(t, h.Add(el))
		}
		return h
	}

	// The same inner elements in a different insertion order are the
	// same set, so the second add is a no-op.
	require.NoError(t, outer.Add(mk(1, 2, 3)))
	require.NoError(t, outer.Add(mk(3, 2, 1)))

	n, err := outer.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, outer.RemoveValue(mk(2, 1, 3)))
	n, err = outer.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLiteralValues(t *testing.T) {
	lit, err := handle.Literal(typesys.Int, int32(5))
	require.NoError(t, err)
	v, err := lit.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)

	s, err := handle.Literal(typesys.String, "hi")
	require.NoError(t, err)
	sv, err := s.AsString()
	require.NoError(t, err)
	assert.Equal(t, "hi", sv)

	b, err := handle.Literal(typesys.Bool, true)
	require.NoError(t, err)
	bv, err := b.AsBool()
	require.NoError(t, err)
	assert.True(t, bv)

	_, err = handle.Literal(typesys.Int, int64(5))
	require.Error(t, err)
	assert.True(t, handle.IsTypeIncompatible(err))

	// A literal serves as a replace argument like any foreign handle.
	st := memstore.New()
	h, err := st.New(typesys.Int)
	require.NoError(t, err)
	require.NoError(t, h.Set(lit))
	v, err = h.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)

	// Literals hold no backend state and refuse mutation.
	err = lit.SetInt(9)
	require.Error(t, err)
	assert.ErrorIs(t, err, handle.ErrNotSupported)

	// They cannot be reference targets: targets bind store locations.
	ref, err := st.New(typesys.Int.Reference())
	require.NoError(t, err)
	err = ref.SetTarget(lit)
	require.Error(t, err)
	assert.ErrorIs(t, err, handle.ErrCrossStore)
}

func TestTupleStaticSize(t *testing.T) {
	pair := typesys.Tuple(typesys.Int, typesys.String)
	st := memstore.New()
	h, err := st.New(pair)
	require.NoError(t, err)

	n, err := h.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	el, err := h.At(1)
	require.NoError(t, err)
	require.NoError(t, el.SetString("hello"))

	el, err = h.At(1)
	require.NoError(t, err)
	s, err := el.AsString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestSizeOnStructIsIncompatible(t *testing.T) {
	st := memstore.New()
	h, err := st.New(newStuff(t))
	require.NoError(t, err)

	_, err = h.Size()
	require.Error(t, err)
	assert.True(t, handle.IsTypeIncompatible(err))
}

func TestAsStringOnIntIsIncompatible(t *testing.T) {
	st := memstore.New()
	h, err := st.NewValue(typesys.Int, int32(9))
	require.NoError(t, err)

	_, err = h.AsString()
	require.Error(t, err)
	assert.True(t, handle.IsTypeIncompatible(err))
	assert.ErrorIs(t, err, handle.ErrTypeIncompatible)
}

func TestScalarRoundTrips(t *testing.T) {
	st := memstore.New()

	t.Run("byte", func(t *testing.T) {
		h, err := st.New(typesys.Byte)
		require.NoError(t, err)
		require.NoError(t, h.SetByte(0xAB))
		v, err := h.AsByte()
		require.NoError(t, err)
		assert.Equal(t, byte(0xAB), v)
	})

	t.Run("unsigned max", func(t *testing.T) {
		h, err := st.New(typesys.ULong)
		require.NoError(t, err)
		require.NoError(t, h.SetULong(^uint64(0)))
		v, err := h.AsULong()
		require.NoError(t, err)
		assert.Equal(t, ^uint64(0), v)
	})

	t.Run("negative long", func(t *testing.T) {
		h, err := st.New(typesys.Long)
		require.NoError(t, err)
		require.NoError(t, h.SetLong(-5))
		v, err := h.AsLong()
		require.NoError(t, err)
		assert.Equal(t, int64(-5), v)
	})

	t.Run("double", func(t *testing.T) {
		h, err := st.New(typesys.Double)
		require.NoError(t, err)
		require.NoError(t, h.SetDouble(3.25))
		v, err := h.AsDouble()
		require.NoError(t, err)
		assert.Equal(t, 3.25, v)
	})

	t.Run("float", func(t *testing.T) {
		h, err := st.New(typesys.Float)
		require.NoError(t, err)
		require.NoError(t, h.SetFloat(-1.5))
		v, err := h.AsFloat()
		require.NoError(t, err)
		assert.Equal(t, float32(-1.5), v)
	})

	t.Run("decimal", func(t *testing.T) {
		h, err := st.New(typesys.Decimal)
		require.NoError(t, err)
		d, _, err := apd.NewFromString("12.345")
		require.NoError(t, err)
		require.NoError(t, h.SetDecimal(d))
		got, err := h.AsDecimal()
		require.NoError(t, err)
		assert.Zero(t, got.Cmp(d))
	})

	t.Run("wrong width rejected", func(t *testing.T) {
		h, err := st.New(typesys.Int)
		require.NoError(t, err)
		err = h.SetLong(1)
		require.Error(t, err)
		assert.True(t, handle.IsTypeIncompatible(err))
	})
}

func TestReferenceTarget(t *testing.T) {
	stuff := newStuff(t)
	st := memstore.New()

	ref, err := st.New(stuff.Reference())
	require.NoError(t, err)

	// Unbound reference reads as nil.
	target, err := ref.Target()
	require.NoError(t, err)
	assert.Nil(t, target)

	obj, err := st.New(stuff)
	require.NoError(t, err)
	require.NoError(t, ref.SetTarget(obj))

	target, err = ref.Target()
	require.NoError(t, err)
	require.NotNil(t, target)

	// The target aliases the bound value.
	freq, err := obj.Member("Frequency")
	require.NoError(t, err)
	require.NoError(t, freq.SetUInt(11))

	freq2, err := target.Member("Frequency")
	require.NoError(t, err)
	v, err := freq2.AsUInt()
	require.NoError(t, err)
	assert.Equal(t, uint32(11), v)
}

func TestReferenceTargetTypeChecked(t *testing.T) {
	st := memstore.New()
	ref, err := st.New(typesys.Int.Reference())
	require.NoError(t, err)

	wrong, err := st.New(typesys.Long)
	require.NoError(t, err)
	err = ref.SetTarget(wrong)
	require.Error(t, err)
	assert.True(t, handle.IsTypeIncompatible(err))
}

func TestDynamicHoldsAnyType(t *testing.T) {
	st := memstore.New()
	dyn, err := st.New(typesys.Dynamic)
	require.NoError(t, err)

	target, err := dyn.Target()
	require.NoError(t, err)
	assert.Nil(t, target)

	v, err := st.NewValue(typesys.Int, int32(3))
	require.NoError(t, err)
	require.NoError(t, dyn.SetTarget(v))

	target, err = dyn.Target()
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, typesys.Int, target.Type())

	s, err := st.NewValue(typesys.String, "now a string")
	require.NoError(t, err)
	require.NoError(t, dyn.SetTarget(s))

	target, err = dyn.Target()
	require.NoError(t, err)
	assert.Equal(t, typesys.String, target.Type())
}

func TestSetRequiresIdenticalDescriptor(t *testing.T) {
	a, err := typesys.Struct("Point", typesys.F("X", typesys.Int))
	require.NoError(t, err)
	b, err := typesys.Struct("Point", typesys.F("X", typesys.Int))
	require.NoError(t, err)

	st := memstore.New()
	ha, err := st.New(a)
	require.NoError(t, err)
	hb, err := st.New(b)
	require.NoError(t, err)

	// Structurally equal but distinct descriptors do not interchange.
	err = ha.Set(hb)
	require.Error(t, err)
	assert.True(t, handle.IsTypeIncompatible(err))

	ha2, err := st.New(a)
	require.NoError(t, err)
	require.NoError(t, ha.Set(ha2))
}

func TestCrossStoreReplace(t *testing.T) {
	stuff := newStuff(t)
	src := memstore.New()
	dst := memstore.New()

	from, err := src.New(stuff)
	require.NoError(t, err)
	name, err := from.Member("Name")
	require.NoError(t, err)
	require.NoError(t, name.SetString("imported"))

	to, err := dst.New(stuff)
	require.NoError(t, err)
	require.NoError(t, to.Set(from))

	name2, err := to.Member("Name")
	require.NoError(t, err)
	s, err := name2.AsString()
	require.NoError(t, err)
	assert.Equal(t, "imported", s)
}

func TestCrossStoreTargetRejected(t *testing.T) {
	stuff := newStuff(t)
	src := memstore.New()
	dst := memstore.New()

	obj, err := src.New(stuff)
	require.NoError(t, err)
	ref, err := dst.New(stuff.Reference())
	require.NoError(t, err)

	err = ref.SetTarget(obj)
	require.Error(t, err)
	assert.ErrorIs(t, err, handle.ErrCrossStore)
}

func TestCrossStoreSetImportRejected(t *testing.T) {
	src := memstore.New()
	dst := memstore.New()

	from, err := src.New(typesys.Int.Set())
	require.NoError(t, err)
	to, err := dst.New(typesys.Int.Set())
	require.NoError(t, err)

	err = to.Set(from)
	require.Error(t, err)
	assert.ErrorIs(t, err, handle.ErrCrossStore)
}

func TestOpAndQueryNames(t *testing.T) {
	assert.Equal(t, "SetOption", handle.OpSetOption.String())
	assert.Equal(t, "Replace", handle.OpReplace.String())
	assert.Equal(t, "GetListSize", handle.QueryGetListSize.String())
	assert.Equal(t, "GetPrimitiveDecimal", handle.QueryGetPrimitiveDecimal.String())
}
