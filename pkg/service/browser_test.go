package service

import (
	"context"
	"testing"

	"exdir/pkg/dtype"
	"exdir/pkg/exdir"
	"exdir/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowser_CreateAndList(t *testing.T) {
	ctx := context.Background()
	b, backend := setupTestBrowser(t, dtype.AllowLossy)

	info, err := b.CreateGroup(ctx, "/experiment")
	require.NoError(t, err)
	assert.Equal(t, "experiment", info.Name)
	assert.Equal(t, "Group", info.DisplayType)
	assert.Equal(t, "0 objects", info.Info)

	require.NoError(t, b.WriteArray(ctx, "/experiment/trace", []int{2, 3}, dtype.Float32,
		[]float64{1, 2, 3, 4, 5, 6}, exdir.OrderC))
	_, err = b.CreateGroup(ctx, "/experiment/sub")
	require.NoError(t, err)
	require.NoError(t, backend.MkdirAll(ctx, "experiment/bare"))

	children, err := b.ListChildren(ctx, "/experiment")
	require.NoError(t, err)
	require.Len(t, children, 3)

	assert.Equal(t, NodeInfo{Name: "bare", Path: "/experiment/bare", Kind: exdir.KindInvalid, DisplayType: "Unknown type", Info: ""}, children[0])
	assert.Equal(t, NodeInfo{Name: "sub", Path: "/experiment/sub", Kind: exdir.KindGroup, DisplayType: "Group", Info: "0 objects"}, children[1])
	assert.Equal(t, NodeInfo{Name: "trace", Path: "/experiment/trace", Kind: exdir.KindDataset, DisplayType: "Dataset", Info: "2x3 matrix"}, children[2])

	root, err := b.Resolve(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "File", root.DisplayType)
	assert.Equal(t, "1 objects", root.Info)
}

func TestBrowser_Resolve_Missing(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBrowser(t, dtype.AllowLossy)

	info, err := b.Resolve(ctx, "/nothing/here")
	require.NoError(t, err)
	assert.Equal(t, exdir.KindInvalid, info.Kind)
	assert.Equal(t, "Unknown type", info.DisplayType)

	_, err = b.Resolve(ctx, "/a/../b")
	assert.ErrorIs(t, err, types.ErrInvalidPath)

	_, err = b.ListChildren(ctx, "/nothing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBrowser_ReadArray(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBrowser(t, dtype.AllowLossy)

	tests := []struct {
		name  string
		shape []int
		dt    dtype.Dtype
		in    any
		order exdir.Order
		want  any
	}{
		{"scalar", []int{}, dtype.Int64, []int64{42}, exdir.OrderC, []int64{42}},
		{"vector", []int{3}, dtype.Uint8, []uint8{1, 2, 3}, exdir.OrderC, []uint8{1, 2, 3}},
		{"matrix fortran", []int{2, 2}, dtype.Float64, []float64{1, 2, 3, 4}, exdir.OrderFortran, []float64{1, 2, 3, 4}},
		{"converted", []int{2}, dtype.Int16, []float64{1.9, -2.9}, exdir.OrderC, []int16{1, -2}},
		{"bool", []int{2}, dtype.Bool, []bool{true, false}, exdir.OrderC, []bool{true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/" + tt.name
			require.NoError(t, b.WriteArray(ctx, path, tt.shape, tt.dt, tt.in, tt.order))

			view, err := b.ReadArray(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, tt.dt, view.Dtype)
			assert.Equal(t, tt.order, view.Order)
			assert.Equal(t, tt.want, view.Elements)
			if len(tt.shape) == 0 {
				assert.Empty(t, view.Shape)
			} else {
				assert.Equal(t, tt.shape, view.Shape)
			}
		})
	}
}

func TestBrowser_WriteArray_Errors(t *testing.T) {
	ctx := context.Background()
	b, _ := setupTestBrowser(t, dtype.RequireExactType)

	err := b.WriteArray(ctx, "/x", []int{2}, dtype.Float32, []float64{1, 2}, exdir.OrderC)
	assert.ErrorIs(t, err, types.ErrTypeMismatch)

	err = b.WriteArray(ctx, "/", []int{1}, dtype.Float64, []float64{1}, exdir.OrderC)
	assert.ErrorIs(t, err, types.ErrInvalidPath)

	err = b.WriteArray(ctx, "/missing/x", []int{1}, dtype.Float64, []float64{1}, exdir.OrderC)
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = b.WriteArray(ctx, "/x", []int{1, 1, 1, 1}, dtype.Float64, []float64{1}, exdir.OrderC)
	assert.ErrorIs(t, err, types.ErrUnsupportedRank)

	_, err = b.CreateGroup(ctx, "/g")
	require.NoError(t, err)
	err = b.WriteArray(ctx, "/g", []int{1}, dtype.Float64, []float64{1}, exdir.OrderC)
	assert.ErrorIs(t, err, types.ErrWrongKind)

	_, err = b.ReadArray(ctx, "/g")
	assert.ErrorIs(t, err, types.ErrWrongKind)
}

func TestBrowser_Attributes(t *testing.T) {
	ctx := context.Background()
	b, backend := setupTestBrowser(t, dtype.AllowLossy)

	_, err := b.CreateGroup(ctx, "/probe")
	require.NoError(t, err)
	mustWriteFile(t, backend, "probe/attributes.yml",
		"sample_rate: {value: 30000, unit: Hz}\nlabel: left\ngains: [1, 2]\n")

	list, err := b.ListAttributes(ctx, "/probe")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "sample_rate", list[0].Name)
	assert.Equal(t, "30000 Hz", list[0].Display)
	assert.Equal(t, "left", list[1].Display)
	assert.Equal(t, "left", list[1].Raw)
	assert.Equal(t, "1, 2", list[2].Display)

	changed, err := b.SetAttributeValue(ctx, "/probe", "sample_rate", 30000)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = b.SetAttributeValue(ctx, "/probe", "sample_rate", 20000)
	require.NoError(t, err)
	assert.True(t, changed)

	list, err = b.ListAttributes(ctx, "/probe")
	require.NoError(t, err)
	assert.Equal(t, "20000 Hz", list[0].Display)

	_, err = b.ListAttributes(ctx, "/ghost")
	assert.ErrorIs(t, err, types.ErrInvalidNode)
	_, err = b.SetAttributeValue(ctx, "/ghost", "x", 1)
	assert.ErrorIs(t, err, types.ErrInvalidNode)
}
