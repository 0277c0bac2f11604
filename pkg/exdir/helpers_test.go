package exdir

import (
	"context"
	"testing"

	"exdir/pkg/dtype"
	"exdir/pkg/npy"
	"exdir/pkg/storage"
	"exdir/pkg/storage/disk"
	"exdir/pkg/tensor"
	"exdir/pkg/types"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 通用辅助函数 (Helpers)
// -----------------------------------------------------------------------------

// mustCreate 在内存文件系统上初始化一个空仓库
func mustCreate(t *testing.T, opts ...Option) (*File, storage.Backend) {
	t.Helper()
	backend := disk.NewAdapterFs(afero.NewMemMapFs())
	f, err := Create(context.Background(), backend, opts...)
	require.NoError(t, err)
	return f, backend
}

func mustGroup(t *testing.T, parent Node, name string) Node {
	t.Helper()
	g, err := parent.CreateGroup(context.Background(), name)
	require.NoError(t, err)
	return g
}

// mustArray 用逻辑行优先的元素构造 npy 数组
func mustArray[T dtype.Element](t *testing.T, shape []int, elems []T, order Order) *npy.Array {
	t.Helper()
	arr, err := tensor.EncodeAny(elems, shape, dtype.Of[T](), order == OrderFortran, dtype.RequireExactType)
	require.NoError(t, err)
	return arr
}

func mustDataset(t *testing.T, parent Node, name string, arr *npy.Array) Node {
	t.Helper()
	ds, err := parent.CreateDataset(context.Background(), name, arr)
	require.NoError(t, err)
	return ds
}

func mustResolve(t *testing.T, f *File, path string) Node {
	t.Helper()
	n, err := f.Resolve(context.Background(), types.MustParsePath(path))
	require.NoError(t, err)
	return n
}
