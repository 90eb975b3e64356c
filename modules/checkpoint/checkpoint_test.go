package checkpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/internal/snapshot"
	"github.com/vk/voxelflow/internal/testutil"
	"github.com/vk/voxelflow/modules/checkpoint"
	"github.com/zclconf/go-cty/cty"
)

func writer(t *testing.T, file, compression string) *checkpoint.WriteSnapshot {
	t.Helper()
	s := checkpoint.NewWriteSnapshot()
	require.NoError(t, s.ReadParameters(params.Values{
		"file":        cty.StringVal(file),
		"compression": cty.StringVal(compression),
	}))
	return s
}

func reader(t *testing.T, file string) *checkpoint.ReadSnapshot {
	t.Helper()
	s := checkpoint.NewReadSnapshot()
	require.NoError(t, s.ReadParameters(params.Values{"file": cty.StringVal(file)}))
	return s
}

func populated(t *testing.T) *datacontainer.Collection {
	t.Helper()
	coll := testutil.CellCollection(3)
	a, err := dataarray.FromValues("Phases", []int{1}, []int32{4, 5, 6})
	require.NoError(t, err)
	require.NoError(t, coll.InsertArray(datapath.MustParse("DC/Cell"), a))
	return coll
}

func TestWriteThenRead(t *testing.T) {
	for _, compression := range []string{"none", "lz4", "zstd"} {
		t.Run(compression, func(t *testing.T) {
			ctx := testutil.Context(t)
			file := filepath.Join(t.TempDir(), "state.vfs")

			res := testutil.Run(ctx, populated(t), writer(t, file, compression))
			require.True(t, res.Ok(), res.Report())
			_, err := os.Stat(file)
			require.NoError(t, err)

			restored := datacontainer.New()
			res = testutil.Run(ctx, restored, reader(t, file))
			require.True(t, res.Ok(), res.Report())

			phases, err := datacontainer.Fetch[int32](restored, datapath.MustParse("DC/Cell/Phases"), []int{1})
			require.NoError(t, err)
			assert.Equal(t, []int32{4, 5, 6}, phases.Values())
		})
	}
}

func TestReadSnapshot_ValidateDeclaresContainers(t *testing.T) {
	ctx := testutil.Context(t)
	file := filepath.Join(t.TempDir(), "state.vfs")
	require.NoError(t, snapshot.WriteFile(ctx, file, populated(t), snapshot.Options{}))

	coll := datacontainer.New()
	consumer := testutil.RequiresArray(testutil.NewFuncStep("consumer", nil), "DC/Cell/Phases", nil)
	res := testutil.Validate(ctx, coll, reader(t, file), consumer)
	require.True(t, res.Ok(), res.Report())
	assert.Equal(t, 2, res.Completed)
	assert.Equal(t, 0, coll.Len())
}

func TestValidateIsRepeatable(t *testing.T) {
	ctx := testutil.Context(t)
	file := filepath.Join(t.TempDir(), "state.vfs")
	require.NoError(t, snapshot.WriteFile(ctx, file, populated(t), snapshot.Options{}))

	coll := datacontainer.New()
	first, second := testutil.ValidateTwice(ctx, coll, reader(t, file))
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	assert.Equal(t, []string{"DC", "DC/Cell", "DC/Cell/Phases"}, coll.Paths())

	first, second = testutil.ValidateTwice(ctx, coll, writer(t, filepath.Join(t.TempDir(), "out.vfs"), "lz4"))
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
}

func TestReadSnapshot_Failures(t *testing.T) {
	ctx := testutil.Context(t)

	res := testutil.Validate(ctx, datacontainer.New(), reader(t, filepath.Join(t.TempDir(), "missing.vfs")))
	assert.ErrorIs(t, res.Err, dataerr.InvalidParameter)
	assert.Equal(t, -11002, res.Code())

	file := filepath.Join(t.TempDir(), "state.vfs")
	require.NoError(t, snapshot.WriteFile(ctx, file, populated(t), snapshot.Options{}))
	res = testutil.Validate(ctx, populated(t), reader(t, file))
	assert.ErrorIs(t, res.Err, dataerr.DuplicateName)

	garbage := filepath.Join(t.TempDir(), "garbage.vfs")
	require.NoError(t, os.WriteFile(garbage, []byte("not a snapshot"), 0o644))
	res = testutil.Validate(ctx, datacontainer.New(), reader(t, garbage))
	require.Error(t, res.Err)

	res = testutil.Validate(ctx, datacontainer.New(), checkpoint.NewReadSnapshot())
	assert.ErrorIs(t, res.Err, dataerr.InvalidParameter)
}

func TestWriteSnapshot_Failures(t *testing.T) {
	ctx := testutil.Context(t)

	res := testutil.Validate(ctx, populated(t), checkpoint.NewWriteSnapshot())
	assert.ErrorIs(t, res.Err, dataerr.InvalidParameter)

	res = testutil.Validate(ctx, populated(t), writer(t, filepath.Join(t.TempDir(), "no", "such", "dir", "x.vfs"), "none"))
	assert.ErrorIs(t, res.Err, dataerr.InvalidParameter)

	err := checkpoint.NewWriteSnapshot().ReadParameters(params.Values{"compression": cty.StringVal("brotli")})
	assert.ErrorIs(t, err, dataerr.InvalidParameter)
}

func TestModuleRegistersValidSteps(t *testing.T) {
	r := registry.New()
	r.RegisterModules(&checkpoint.Module{})
	require.NoError(t, r.ValidateRegistry(testutil.Context(t)))
}
