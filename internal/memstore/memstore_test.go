package memstore

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowdb/burrow/internal/typesys"
)

func TestDefaultNodes(t *testing.T) {
	st, err := typesys.Struct("Rec",
		typesys.F("N", typesys.Int),
		typesys.F("D", typesys.Decimal),
		typesys.F("Items", typesys.Int.List()),
		typesys.F("Flag", typesys.Bool),
	)
	require.NoError(t, err)

	n := newNode(st)
	require.Len(t, n.elems, 4)

	assert.Equal(t, uint64(0), n.elems[0].bits)

	require.NotNil(t, n.elems[1].dec)
	assert.True(t, n.elems[1].dec.IsZero())

	assert.Empty(t, n.elems[2].elems)

	// Bool defaults to option 0 (false) with a void payload.
	assert.Equal(t, 0, n.elems[3].option)
	require.NotNil(t, n.elems[3].payload)
	assert.Equal(t, typesys.Void, n.elems[3].payload.typ)
}

func TestChildHandlesAlias(t *testing.T) {
	pair := typesys.Tuple(typesys.Int, typesys.Int)
	s := New()
	h, err := s.New(pair)
	require.NoError(t, err)

	a, err := h.At(0)
	require.NoError(t, err)
	b, err := h.At(0)
	require.NoError(t, err)

	require.NoError(t, a.SetInt(42))
	v, err := b.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)
}

func TestInsertClonesArgument(t *testing.T) {
	s := New()
	list, err := s.New(typesys.Int.List())
	require.NoError(t, err)

	el, err := s.NewValue(typesys.Int, int32(1))
	require.NoError(t, err)
	require.NoError(t, list.Append(el))

	// Mutating the source after insertion must not touch the stored copy.
	require.NoError(t, el.SetInt(99))

	got, err := list.At(0)
	require.NoError(t, err)
	v, err := got.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
}

func TestSetFieldCopiesValue(t *testing.T) {
	rec, err := typesys.Struct("Rec", typesys.F("Name", typesys.String))
	require.NoError(t, err)

	s := New()
	h, err := s.New(rec)
	require.NoError(t, err)

	arg, err := s.NewValue(typesys.String, "alpha")
	require.NoError(t, err)
	require.NoError(t, h.SetMember("Name", arg))

	require.NoError(t, arg.SetString("beta"))

	name, err := h.Member("Name")
	require.NoError(t, err)
	v, err := name.AsString()
	require.NoError(t, err)
	assert.Equal(t, "alpha", v)
}

func TestDeepEqualStructural(t *testing.T) {
	rec, err := typesys.Struct("Rec",
		typesys.F("N", typesys.Int),
		typesys.F("S", typesys.String),
	)
	require.NoError(t, err)

	mk := func(n int32, sv string) *node {
		nd := newNode(rec)
		nd.elems[0].bits = uint64(uint32(n))
		nd.elems[1].elems = stringNodes(sv)
		return nd
	}

	assert.True(t, deepEqual(mk(1, "x"), mk(1, "x")))
	assert.False(t, deepEqual(mk(1, "x"), mk(2, "x")))
	assert.False(t, deepEqual(mk(1, "x"), mk(1, "y")))
}

func TestDeepEqualDecimal(t *testing.T) {
	a := newNode(typesys.Decimal)
	b := newNode(typesys.Decimal)
	var err error
	a.dec, _, err = apd.NewFromString("1.50")
	require.NoError(t, err)
	b.dec, _, err = apd.NewFromString("1.5")
	require.NoError(t, err)

	// Decimals compare by numeric value, not by representation.
	assert.True(t, deepEqual(a, b))
}

func TestDeepEqualSetOrderInsensitive(t *testing.T) {
	set := typesys.Int.Set()
	mk := func(vals ...uint64) *node {
		n := newNode(set)
		for _, v := range vals {
			n.elems = append(n.elems, &node{typ: typesys.Int, bits: v})
		}
		return n
	}

	assert.True(t, deepEqual(mk(1, 2, 3), mk(3, 1, 2)))
	assert.False(t, deepEqual(mk(1, 2), mk(1, 3)))
	assert.False(t, deepEqual(mk(1), mk(1, 2)))
}

func TestDeepEqualTargetsByIdentity(t *testing.T) {
	ref := typesys.Int.Reference()
	shared := newNode(typesys.Int)
	other := newNode(typesys.Int)

	a := &node{typ: ref, target: shared}
	b := &node{typ: ref, target: shared}
	c := &node{typ: ref, target: other}

	assert.True(t, deepEqual(a, b))
	assert.False(t, deepEqual(a, c))
}

func TestSetOfStructs(t *testing.T) {
	rec, err := typesys.Struct("Pt", typesys.F("X", typesys.Int))
	require.NoError(t, err)

	s := New()
	set, err := s.New(rec.Set())
	require.NoError(t, err)

	mk := func(x int32) *node {
		n := newNode(rec)
		n.elems[0].bits = uint64(uint32(x))
		return n
	}
	add := func(x int32) {
		h, err := s.New(rec)
		require.NoError(t, err)
		l := h.Location().(*loc)
		copyInto(l.n, mk(x))
		require.NoError(t, set.Add(h))
	}

	add(1)
	add(2)
	add(1) // duplicate by value

	n, err := set.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestVariantPayloadClonedOnSwitch(t *testing.T) {
	v, err := typesys.Variant("V",
		typesys.F("num", typesys.Int),
		typesys.F("none", typesys.Void),
	)
	require.NoError(t, err)

	s := New()
	h, err := s.New(v)
	require.NoError(t, err)

	arg, err := s.NewValue(typesys.Int, int32(5))
	require.NoError(t, err)
	require.NoError(t, h.SetAt(0, arg))

	require.NoError(t, arg.SetInt(6))

	p, err := h.At(0)
	require.NoError(t, err)
	got, err := p.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(5), got)
}
