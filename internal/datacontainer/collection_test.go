package datacontainer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/zclconf/go-cty/cty"
)

// newCellCollection builds DC/Cell with the given tuple count.
func newCellCollection(t *testing.T, tuples int) *Collection {
	t.Helper()
	c := New()
	_, err := c.CreateContainer("DC", Commit)
	require.NoError(t, err)
	_, err = c.CreateAttributeSet(datapath.MustParse("DC/Cell"), []int{tuples}, Cell, Commit)
	require.NoError(t, err)
	return c
}

func TestInsertArray_TupleCountEnforced(t *testing.T) {
	c := newCellCollection(t, 10)
	setPath := datapath.MustParse("DC/Cell")

	good, err := dataarray.NewDataArray[float32]("Array", 10, []int{1}, true)
	require.NoError(t, err)
	require.NoError(t, c.InsertArray(setPath, good))

	bad, err := dataarray.NewDataArray[float32]("Short", 5, []int{1}, true)
	require.NoError(t, err)
	err = c.InsertArray(setPath, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerr.TupleCountMismatch)

	set, err := c.FetchAttributeSet(setPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Array"}, set.ArrayNames(), "failed insert must leave the set unchanged")

	got, err := c.ResolvePath(datapath.MustParse("DC/Cell/Array"))
	require.NoError(t, err)
	assert.Same(t, good, got)
}

func TestResolvePath_FailsAtFirstMissingLevel(t *testing.T) {
	c := newCellCollection(t, 4)
	_, err := c.CreateArray(datapath.MustParse("DC/Cell/Phases"), datatype.Int32, []int{1}, cty.NilVal, Commit)
	require.NoError(t, err)

	testCases := []struct {
		name string
		path string
		kind dataerr.Kind
	}{
		{name: "missing container", path: "Nope/Missing/Array", kind: dataerr.MissingContainer},
		{name: "missing attribute set", path: "DC/Missing/Array", kind: dataerr.MissingAttributeSet},
		{name: "missing array", path: "DC/Cell/Missing", kind: dataerr.MissingArray},
		{name: "set path is not an array", path: "DC/Cell", kind: dataerr.InvalidPath},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.ResolvePath(datapath.MustParse(tc.path))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, tc.path, dataerr.PathOf(err))
		})
	}
}

func TestFetchArray_ShapeMismatch(t *testing.T) {
	c := newCellCollection(t, 4)
	path := datapath.MustParse("DC/Cell/Euler")
	_, err := c.CreateArray(path, datatype.Float32, []int{3}, cty.NilVal, Commit)
	require.NoError(t, err)

	_, err = c.FetchArray(path, []int{2})
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerr.ShapeMismatch)

	a, err := c.FetchArray(path, []int{3})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, a.ComponentDims())

	_, err = c.FetchArray(path, nil)
	require.NoError(t, err)
}

func TestFetch_TypeMismatchCarriesPath(t *testing.T) {
	c := newCellCollection(t, 4)
	path := datapath.MustParse("DC/Cell/Euler")
	_, err := c.CreateArray(path, datatype.Float32, []int{3}, cty.NilVal, Commit)
	require.NoError(t, err)

	typed, err := Fetch[float32](c, path, []int{3})
	require.NoError(t, err)
	assert.Len(t, typed.Values(), 12)

	_, err = Fetch[int32](c, path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerr.TypeMismatch)
	assert.Equal(t, "DC/Cell/Euler", dataerr.PathOf(err))
}

func TestCreateArray(t *testing.T) {
	path := datapath.MustParse("DC/Cell/Mask")

	t.Run("commit allocates and fills", func(t *testing.T) {
		c := newCellCollection(t, 3)
		a, err := c.CreateArray(path, datatype.UInt8, []int{1}, cty.NumberIntVal(7), Commit)
		require.NoError(t, err)
		typed, err := dataarray.As[uint8](a)
		require.NoError(t, err)
		assert.Equal(t, []uint8{7, 7, 7}, typed.Values())
	})

	t.Run("preflight is metadata only", func(t *testing.T) {
		c := newCellCollection(t, 3)
		a, err := c.CreateArray(path, datatype.UInt8, []int{2}, cty.NumberIntVal(7), Preflight)
		require.NoError(t, err)
		assert.False(t, a.IsAllocated())
		assert.Equal(t, 3, a.NumTuples())
		assert.Equal(t, []int{2}, a.ComponentDims())
	})

	t.Run("preflight declaration is idempotent", func(t *testing.T) {
		c := newCellCollection(t, 3)
		first, err := c.CreateArray(path, datatype.Float64, []int{1}, cty.NilVal, Preflight)
		require.NoError(t, err)
		second, err := c.CreateArray(path, datatype.Float64, []int{1}, cty.NilVal, Preflight)
		require.NoError(t, err)
		assert.Same(t, first, second)

		_, err = c.CreateArray(path, datatype.Float32, []int{1}, cty.NilVal, Preflight)
		assert.ErrorIs(t, err, dataerr.DuplicateName, "a different type is not a re-declaration")
	})

	t.Run("commit materializes a placeholder", func(t *testing.T) {
		c := newCellCollection(t, 3)
		placeholder, err := c.CreateArray(path, datatype.Int16, []int{1}, cty.NilVal, Preflight)
		require.NoError(t, err)
		materialized, err := c.CreateArray(path, datatype.Int16, []int{1}, cty.NumberIntVal(-1), Commit)
		require.NoError(t, err)
		assert.Same(t, placeholder, materialized)
		assert.True(t, materialized.IsAllocated())

		_, err = c.CreateArray(path, datatype.Int16, []int{1}, cty.NilVal, Commit)
		assert.ErrorIs(t, err, dataerr.DuplicateName)
	})

	t.Run("replace overwrites", func(t *testing.T) {
		c := newCellCollection(t, 3)
		_, err := c.CreateArray(path, datatype.Int16, []int{1}, cty.NilVal, Commit)
		require.NoError(t, err)
		a, err := c.CreateArray(path, datatype.Bool, []int{1}, cty.True, Mode{Allocate: true, Replace: true})
		require.NoError(t, err)
		assert.Equal(t, datatype.Bool, a.Type())
	})

	t.Run("errors", func(t *testing.T) {
		c := newCellCollection(t, 3)
		_, err := c.CreateArray(datapath.MustParse("X/Cell/A"), datatype.Int8, []int{1}, cty.NilVal, Commit)
		assert.ErrorIs(t, err, dataerr.MissingContainer)
		_, err = c.CreateArray(datapath.MustParse("DC/X/A"), datatype.Int8, []int{1}, cty.NilVal, Commit)
		assert.ErrorIs(t, err, dataerr.MissingAttributeSet)
		_, err = c.CreateArray(datapath.MustParse("DC/Cell"), datatype.Int8, []int{1}, cty.NilVal, Commit)
		assert.ErrorIs(t, err, dataerr.InvalidPath)
		_, err = c.CreateArray(path, datatype.Unsupported, []int{1}, cty.NilVal, Commit)
		assert.ErrorIs(t, err, dataerr.UnsupportedType)
		_, err = c.CreateArray(path, datatype.Int8, []int{0}, cty.NilVal, Commit)
		assert.ErrorIs(t, err, dataerr.ShapeMismatch)
		_, err = c.CreateArray(path, datatype.Int8, []int{1}, cty.NumberIntVal(500), Commit)
		assert.ErrorIs(t, err, dataerr.InvalidParameter)
		assert.Equal(t, "DC/Cell/Mask", dataerr.PathOf(err))
	})
}

func TestPlaceholderOwners(t *testing.T) {
	path := datapath.MustParse("DC/Cell/Out")
	first := Mode{Owner: 1}
	second := Mode{Owner: 2}

	c := newCellCollection(t, 2)
	_, err := c.CreateArray(path, datatype.Int8, []int{1}, cty.NilVal, first)
	require.NoError(t, err)
	_, err = c.CreateArray(path, datatype.Int8, []int{1}, cty.NilVal, first)
	require.NoError(t, err, "the owner may declare its placeholder again")
	_, err = c.CreateArray(path, datatype.Int8, []int{1}, cty.NilVal, second)
	assert.ErrorIs(t, err, dataerr.DuplicateName)
	assert.ErrorIs(t, c.RequireFree(path, second), dataerr.DuplicateName)
	assert.NoError(t, c.RequireFree(path, first))
	assert.True(t, c.Declared(path, first))
	assert.False(t, c.Declared(path, second))

	_, err = c.CreateContainer("Other", first)
	require.NoError(t, err)
	_, err = c.CreateContainer("Other", second)
	assert.ErrorIs(t, err, dataerr.DuplicateName)

	_, err = c.CreateAttributeSet(datapath.MustParse("Other/Set"), []int{1}, Generic, first)
	require.NoError(t, err)
	_, err = c.CreateAttributeSet(datapath.MustParse("Other/Set"), []int{1}, Generic, second)
	assert.ErrorIs(t, err, dataerr.DuplicateName)
}

func TestInsertNew(t *testing.T) {
	setPath := datapath.MustParse("DC/Cell")
	path := setPath.WithArray("Out")
	owner := Mode{Owner: 1}
	newArray := func(t *testing.T, typ datatype.Type, allocate bool) dataarray.Array {
		t.Helper()
		a, err := dataarray.New(typ, "Out", 3, []int{1}, allocate)
		require.NoError(t, err)
		return a
	}

	t.Run("preflight keeps the first declaration", func(t *testing.T) {
		c := newCellCollection(t, 3)
		first, err := c.InsertNew(setPath, newArray(t, datatype.Float32, false), owner)
		require.NoError(t, err)
		again, err := c.InsertNew(setPath, newArray(t, datatype.Float32, false), owner)
		require.NoError(t, err)
		assert.Same(t, first, again)
		assert.True(t, c.Declared(path, owner))
	})

	t.Run("commit replaces the placeholder", func(t *testing.T) {
		c := newCellCollection(t, 3)
		_, err := c.InsertNew(setPath, newArray(t, datatype.Float32, false), owner)
		require.NoError(t, err)
		full := newArray(t, datatype.Float32, true)
		stored, err := c.InsertNew(setPath, full, Mode{Allocate: true, Owner: 1})
		require.NoError(t, err)
		assert.Same(t, full, stored)
		assert.False(t, c.Declared(path, owner))

		_, err = c.InsertNew(setPath, newArray(t, datatype.Float32, true), Mode{Allocate: true, Owner: 1})
		assert.ErrorIs(t, err, dataerr.DuplicateName, "real data is never overwritten")
	})

	t.Run("shape must match the placeholder", func(t *testing.T) {
		c := newCellCollection(t, 3)
		_, err := c.InsertNew(setPath, newArray(t, datatype.Float32, false), owner)
		require.NoError(t, err)
		_, err = c.InsertNew(setPath, newArray(t, datatype.Int32, false), owner)
		assert.ErrorIs(t, err, dataerr.DuplicateName)
	})

	t.Run("replace overwrites", func(t *testing.T) {
		c := newCellCollection(t, 3)
		_, err := c.InsertNew(setPath, newArray(t, datatype.Float32, true), Commit)
		require.NoError(t, err)
		_, err = c.InsertNew(setPath, newArray(t, datatype.Int8, true), Mode{Allocate: true, Replace: true})
		require.NoError(t, err)
		got, err := c.ResolvePath(path)
		require.NoError(t, err)
		assert.Equal(t, datatype.Int8, got.Type())
	})
}

func TestInsertContainer(t *testing.T) {
	owner := Mode{Owner: 3}
	c := New()

	dc, err := NewContainer("Loaded")
	require.NoError(t, err)
	stored, err := c.InsertContainer(dc, owner)
	require.NoError(t, err)
	assert.True(t, stored.IsPlaceholder())

	again, err := NewContainer("Loaded")
	require.NoError(t, err)
	kept, err := c.InsertContainer(again, owner)
	require.NoError(t, err)
	assert.Same(t, dc, kept)

	_, err = c.InsertContainer(again, Mode{Owner: 4})
	assert.ErrorIs(t, err, dataerr.DuplicateName)

	stored, err = c.InsertContainer(again, Mode{Allocate: true, Owner: 3})
	require.NoError(t, err)
	assert.Same(t, again, stored)
	assert.False(t, stored.IsPlaceholder())
	assert.Equal(t, 1, c.Len())

	_, err = c.InsertContainer(again, Mode{Allocate: true, Owner: 3})
	assert.ErrorIs(t, err, dataerr.DuplicateName)
}

// castBack fetches path as the Go element type matching t and reports the
// tag the typed array holds.
func castBack(t *testing.T, c *Collection, path datapath.Path, typ datatype.Type) datatype.Type {
	t.Helper()
	var (
		a   dataarray.Array
		err error
	)
	switch typ {
	case datatype.Int8:
		a, err = Fetch[int8](c, path, nil)
	case datatype.UInt8:
		a, err = Fetch[uint8](c, path, nil)
	case datatype.Int16:
		a, err = Fetch[int16](c, path, nil)
	case datatype.UInt16:
		a, err = Fetch[uint16](c, path, nil)
	case datatype.Int32:
		a, err = Fetch[int32](c, path, nil)
	case datatype.UInt32:
		a, err = Fetch[uint32](c, path, nil)
	case datatype.Int64:
		a, err = Fetch[int64](c, path, nil)
	case datatype.UInt64:
		a, err = Fetch[uint64](c, path, nil)
	case datatype.Float32:
		a, err = Fetch[float32](c, path, nil)
	case datatype.Float64:
		a, err = Fetch[float64](c, path, nil)
	case datatype.Bool:
		a, err = Fetch[bool](c, path, nil)
	case datatype.String:
		a, err = Fetch[string](c, path, nil)
	default:
		t.Fatalf("no Go element type for %s", typ)
	}
	require.NoError(t, err)
	return a.Type()
}

func TestCreateFetchCast_EveryType(t *testing.T) {
	for _, typ := range datatype.All() {
		t.Run(typ.String(), func(t *testing.T) {
			c := newCellCollection(t, 4)
			path := datapath.MustParse("DC/Cell/" + typ.String())

			created, err := c.CreateArray(path, typ, []int{2}, cty.NilVal, Commit)
			require.NoError(t, err)
			assert.Equal(t, typ, created.Type())

			fetched, err := c.FetchArray(path, []int{2})
			require.NoError(t, err)
			assert.Same(t, created, fetched)
			assert.Equal(t, typ, fetched.Type())
			assert.Equal(t, typ, castBack(t, c, path, typ))

			if typ == datatype.Int8 {
				_, err = Fetch[uint8](c, path, nil)
			} else {
				_, err = Fetch[int8](c, path, nil)
			}
			assert.ErrorIs(t, err, dataerr.TypeMismatch)
		})
	}
}

func TestCreateFetch_ShapeRoundTrip(t *testing.T) {
	testCases := []struct {
		tuples   []int
		compDims []int
	}{
		{tuples: []int{1}, compDims: []int{1}},
		{tuples: []int{10}, compDims: []int{3}},
		{tuples: []int{4, 5}, compDims: []int{2, 2}},
		{tuples: []int{2, 3, 4}, compDims: []int{6}},
		{tuples: []int{0}, compDims: []int{1}},
		{tuples: []int{7}, compDims: []int{1, 2, 3}},
	}

	for _, tc := range testCases {
		for _, mode := range []Mode{Preflight, Commit} {
			c := New()
			_, err := c.CreateContainer("DC", Commit)
			require.NoError(t, err)
			set, err := c.CreateAttributeSet(datapath.MustParse("DC/S"), tc.tuples, Generic, Commit)
			require.NoError(t, err)
			path := datapath.MustParse("DC/S/A")

			_, err = c.CreateArray(path, datatype.Float64, tc.compDims, cty.NilVal, mode)
			require.NoError(t, err)
			got, err := c.FetchArray(path, tc.compDims)
			require.NoError(t, err, "tuples %v dims %v", tc.tuples, tc.compDims)
			assert.Equal(t, set.NumTuples(), got.NumTuples())
			assert.Equal(t, tc.compDims, got.ComponentDims())
			assert.Equal(t, mode.Allocate, got.IsAllocated())
		}
	}
}

func TestCreateContainerAndSet(t *testing.T) {
	c := New()

	_, err := c.CreateContainer("DC", Preflight)
	require.NoError(t, err)
	_, err = c.CreateContainer("DC", Preflight)
	require.NoError(t, err, "re-declaring a placeholder container is allowed")
	dc, err := c.CreateContainer("DC", Commit)
	require.NoError(t, err)
	assert.False(t, dc.IsPlaceholder())
	_, err = c.CreateContainer("DC", Commit)
	assert.ErrorIs(t, err, dataerr.DuplicateName)
	_, err = c.CreateContainer("a/b", Commit)
	assert.ErrorIs(t, err, dataerr.InvalidPath)

	setPath := datapath.MustParse("DC/Cell")
	_, err = c.CreateAttributeSet(setPath, []int{2, 3}, Cell, Preflight)
	require.NoError(t, err)
	_, err = c.CreateAttributeSet(setPath, []int{2, 4}, Cell, Preflight)
	assert.ErrorIs(t, err, dataerr.DuplicateName)
	s, err := c.CreateAttributeSet(setPath, []int{2, 3}, Cell, Commit)
	require.NoError(t, err)
	assert.Equal(t, 6, s.NumTuples())

	_, err = c.CreateAttributeSet(datapath.MustParse("Nope/Cell"), []int{1}, Cell, Commit)
	assert.ErrorIs(t, err, dataerr.MissingContainer)
}

func TestRemoveAndRename(t *testing.T) {
	c := newCellCollection(t, 2)
	for _, name := range []string{"A", "B", "C"} {
		_, err := c.CreateArray(datapath.MustParse("DC/Cell/"+name), datatype.Int8, []int{1}, cty.NilVal, Commit)
		require.NoError(t, err)
	}

	require.NoError(t, c.Rename(datapath.MustParse("DC/Cell/B"), "Bee"))
	assert.Equal(t, []string{"DC", "DC/Cell", "DC/Cell/A", "DC/Cell/Bee", "DC/Cell/C"}, c.Paths())
	a, err := c.ResolvePath(datapath.MustParse("DC/Cell/Bee"))
	require.NoError(t, err)
	assert.Equal(t, "Bee", a.Name())

	assert.ErrorIs(t, c.Rename(datapath.MustParse("DC/Cell/A"), "C"), dataerr.DuplicateName)
	assert.ErrorIs(t, c.Rename(datapath.MustParse("DC/Cell/Z"), "Y"), dataerr.MissingArray)

	require.NoError(t, c.RemovePath(datapath.MustParse("DC/Cell/A")))
	assert.ErrorIs(t, c.RemovePath(datapath.MustParse("DC/Cell/A")), dataerr.MissingArray)

	require.NoError(t, c.Rename(datapath.MustParse("DC/Cell"), "Voxel"))
	require.NoError(t, c.Rename(datapath.MustParse("DC"), "Image"))
	assert.Equal(t, []string{"Image", "Image/Voxel", "Image/Voxel/Bee", "Image/Voxel/C"}, c.Paths())

	require.NoError(t, c.RemovePath(datapath.MustParse("Image/Voxel")))
	require.NoError(t, c.RemovePath(datapath.MustParse("Image")))
	assert.Equal(t, 0, c.Len())
	assert.ErrorIs(t, c.RemovePath(datapath.MustParse("Image")), dataerr.MissingContainer)
}

func TestDeepCopy_MetadataOnly(t *testing.T) {
	c := newCellCollection(t, 5)
	dc, ok := c.Container("DC")
	require.True(t, ok)
	dc.SetGeometry(NewImageGeometry([3]int{5, 1, 1}))
	path := datapath.MustParse("DC/Cell/Data")
	_, err := c.CreateArray(path, datatype.Float32, []int{1}, cty.NumberIntVal(1), Commit)
	require.NoError(t, err)

	meta := c.DeepCopy(true)
	a, err := meta.ResolvePath(path)
	require.NoError(t, err)
	assert.False(t, a.IsAllocated())
	assert.Equal(t, 5, a.NumTuples())

	metaDC, ok := meta.Container("DC")
	require.True(t, ok)
	require.NotNil(t, metaDC.Geometry())
	assert.NotSame(t, dc.Geometry(), metaDC.Geometry())

	_, err = meta.CreateArray(path.WithArray("New"), datatype.Int8, []int{1}, cty.NilVal, Preflight)
	require.NoError(t, err)
	_, err = c.ResolvePath(path.WithArray("New"))
	assert.ErrorIs(t, err, dataerr.MissingArray, "the copy must not alias the original")

	full := c.DeepCopy(false)
	b, err := full.ResolvePath(path)
	require.NoError(t, err)
	assert.True(t, b.IsAllocated())
}

func TestAttributeSet_ResizeTuples(t *testing.T) {
	c := newCellCollection(t, 2)
	path := datapath.MustParse("DC/Cell/Data")
	_, err := c.CreateArray(path, datatype.Int32, []int{2}, cty.NilVal, Commit)
	require.NoError(t, err)

	s, err := c.FetchAttributeSet(path)
	require.NoError(t, err)
	require.NoError(t, s.ResizeTuples([]int{2, 2}))
	a, err := c.ResolvePath(path)
	require.NoError(t, err)
	assert.Equal(t, 4, a.NumTuples())
	assert.Equal(t, 8, a.Size())
}

func TestCollection_ConcurrentReaders(t *testing.T) {
	c := newCellCollection(t, 1)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Paths()
		}()
		go func(i int) {
			defer wg.Done()
			_, _ = c.CreateArray(datapath.New("DC", "Cell", string(rune('a'+i))), datatype.Int8, []int{1}, cty.NilVal, Commit)
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.ArrayPaths(), 20)
}

func TestParseSetKind(t *testing.T) {
	k, err := ParseSetKind("CellFeature")
	require.NoError(t, err)
	assert.Equal(t, CellFeature, k)
	k, err = ParseSetKind("cell_ensemble")
	require.NoError(t, err)
	assert.Equal(t, CellEnsemble, k)
	_, err = ParseSetKind("volume")
	assert.Error(t, err)
}
