package dataarray

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/zclconf/go-cty/cty"
)

func TestDispatchTable_CoversEveryType(t *testing.T) {
	for _, typ := range datatype.All() {
		t.Run(typ.String(), func(t *testing.T) {
			k := table[typ]
			require.NotNil(t, k.newArray, "no constructor for %s", typ)
			require.NotNil(t, k.convert, "no converter for %s", typ)
			require.NotNil(t, k.decode, "no decoder for %s", typ)

			a, err := New(typ, "A", 4, []int{2, 3}, true)
			require.NoError(t, err)
			assert.Equal(t, typ, a.Type())
			assert.Equal(t, typ.String(), a.TypeName())
			assert.Equal(t, []int{2, 3}, a.ComponentDims())
			assert.Equal(t, 6, a.NumComponents())
			assert.Equal(t, 4, a.NumTuples())
			assert.Equal(t, 24, a.Size())
			assert.True(t, a.IsAllocated())
		})
	}
	assert.Len(t, Supported(), datatype.Count)
}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(datatype.Unsupported, "A", 1, []int{1}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerr.UnsupportedType)

	var de *dataerr.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, datatype.Names(), de.Supported)
}

func TestNew_InvalidComponentDims(t *testing.T) {
	testCases := []struct {
		name string
		dims []int
		code int
	}{
		{name: "empty", dims: nil, code: -8051},
		{name: "zero", dims: []int{3, 0}, code: -8051},
		{name: "negative", dims: []int{-1}, code: -8050},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(datatype.Float32, "A", 2, tc.dims, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, dataerr.ShapeMismatch)
			assert.Equal(t, tc.code, dataerr.CodeOf(err))
		})
	}
}

func TestAs(t *testing.T) {
	a, err := New(datatype.Float32, "Confidence", 3, []int{1}, true)
	require.NoError(t, err)

	typed, err := As[float32](a)
	require.NoError(t, err)
	assert.Len(t, typed.Values(), 3)
	assert.True(t, Is[float32](a))
	assert.False(t, Is[int32](a))

	_, err = As[int32](a)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerr.TypeMismatch)
	assert.Equal(t, "Confidence", dataerr.PathOf(err))

	var de *dataerr.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, datatype.Names(), de.Supported)
}

func TestConvert(t *testing.T) {
	src, err := FromValues("Src", []int{1}, []float32{1.9, -2.7, 0, 300})
	require.NoError(t, err)

	t.Run("float to int truncates", func(t *testing.T) {
		out, err := Convert(context.Background(), src, datatype.Int32, "Dst", 2)
		require.NoError(t, err)
		typed, err := As[int32](out)
		require.NoError(t, err)
		assert.Equal(t, []int32{1, -2, 0, 300}, typed.Values())
		assert.Equal(t, "Dst", out.Name())
	})

	t.Run("float to bool", func(t *testing.T) {
		out, err := Convert(context.Background(), src, datatype.Bool, "Mask", 1)
		require.NoError(t, err)
		typed, err := As[bool](out)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, true, false, true}, typed.Values())
	})

	t.Run("int to string", func(t *testing.T) {
		ints, err := FromValues("Ids", []int{1}, []uint16{7, 42})
		require.NoError(t, err)
		out, err := Convert(context.Background(), ints, datatype.String, "Names", 1)
		require.NoError(t, err)
		typed, err := As[string](out)
		require.NoError(t, err)
		assert.Equal(t, []string{"7", "42"}, typed.Values())
	})

	t.Run("bad string to number fails", func(t *testing.T) {
		strs, err := FromValues("S", []int{1}, []string{"1", "x"})
		require.NoError(t, err)
		_, err = Convert(context.Background(), strs, datatype.Int8, "N", 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, dataerr.Compute)
	})

	t.Run("metadata only source", func(t *testing.T) {
		meta := src.DeepCopy(true)
		out, err := Convert(context.Background(), meta, datatype.UInt8, "Dst", 1)
		require.NoError(t, err)
		assert.False(t, out.IsAllocated())
		assert.Equal(t, 4, out.NumTuples())
	})
}

func TestCheckCompatible(t *testing.T) {
	a, err := New(datatype.UInt8, "RGB", 10, []int{3}, false)
	require.NoError(t, err)

	assert.NoError(t, CheckCompatible(a, datatype.UInt8, 10, []int{3}))
	assert.NoError(t, CheckCompatible(a, datatype.Unsupported, 0, nil))
	assert.ErrorIs(t, CheckCompatible(a, datatype.Int8, 0, nil), dataerr.TypeMismatch)
	assert.ErrorIs(t, CheckCompatible(a, datatype.UInt8, 11, nil), dataerr.TupleCountMismatch)
	assert.ErrorIs(t, CheckCompatible(a, datatype.UInt8, 10, []int{2}), dataerr.ShapeMismatch)
}

func TestEncodeDecode(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		src, err := FromValues("F", []int{2}, []float64{1.5, -2, 3.25, 4})
		require.NoError(t, err)
		raw, err := Encode(src)
		require.NoError(t, err)
		assert.Len(t, raw, 32)

		dst := src.DeepCopy(true)
		require.NoError(t, Decode(dst, raw))
		typed, err := As[float64](dst)
		require.NoError(t, err)
		assert.Equal(t, src.Values(), typed.Values())
	})

	t.Run("strings", func(t *testing.T) {
		src, err := FromValues("S", []int{1}, []string{"", "grain", "phase two"})
		require.NoError(t, err)
		raw, err := Encode(src)
		require.NoError(t, err)

		dst := src.DeepCopy(true)
		require.NoError(t, Decode(dst, raw))
		typed, err := As[string](dst)
		require.NoError(t, err)
		assert.Equal(t, src.Values(), typed.Values())
	})

	t.Run("wrong size", func(t *testing.T) {
		dst, err := New(datatype.Int32, "I", 2, []int{1}, false)
		require.NoError(t, err)
		err = Decode(dst, []byte{1, 2, 3})
		assert.ErrorIs(t, err, dataerr.ShapeMismatch)
	})

	t.Run("metadata only encodes to nothing", func(t *testing.T) {
		meta, err := New(datatype.Int32, "I", 2, []int{1}, false)
		require.NoError(t, err)
		raw, err := Encode(meta)
		require.NoError(t, err)
		assert.Nil(t, raw)
	})
}

func TestFromCty(t *testing.T) {
	v, err := FromCty[uint8](cty.NumberIntVal(200))
	require.NoError(t, err)
	assert.Equal(t, uint8(200), v)

	_, err = FromCty[uint8](cty.NumberIntVal(256))
	assert.Error(t, err)

	_, err = FromCty[int8](cty.NumberFloatVal(1.5))
	assert.Error(t, err)

	f, err := FromCty[float32](cty.StringVal("2.5"))
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), f)

	b, err := FromCty[bool](cty.True)
	require.NoError(t, err)
	assert.True(t, b)

	zero, err := FromCty[int64](cty.NullVal(cty.Number))
	require.NoError(t, err)
	assert.Zero(t, zero)
}
