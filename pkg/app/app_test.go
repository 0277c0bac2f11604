package app

import (
	"context"
	"path/filepath"
	"testing"

	"exdir/pkg/dtype"
	"exdir/pkg/exdir"
	"exdir/pkg/storage/disk"
	"exdir/pkg/types"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitStore_Disk(t *testing.T) {
	// 1. Mock 配置
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("storage.type", "disk")

	// 2. 调用私有函数 (因为我们在同一个包)
	store, err := initStore(context.Background(), t.TempDir())

	// 3. 验证
	require.NoError(t, err)
	assert.IsType(t, &disk.Adapter{}, store)
}

func TestInitStore_S3_MissingBucket(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("storage.type", "s3")
	// 故意不设置 bucket

	store, err := initStore(context.Background(), ".")
	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestInitStore_UnknownType(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("storage.type", "ftp") // 不支持的类型

	store, err := initStore(context.Background(), ".")
	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

func TestNewApp_Lifecycle(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "store")
	viper.Set("storage.type", "disk")
	viper.Set("storage.path", root)
	viper.Set("conversion.policy", "exact")

	// 仓库还不存在
	_, err := NewApp(ctx)
	assert.ErrorIs(t, err, types.ErrNotFound)

	created, err := CreateApp(ctx)
	require.NoError(t, err)
	assert.Equal(t, root, created.Location)

	a, err := NewApp(ctx)
	require.NoError(t, err)
	assert.Equal(t, dtype.RequireExactType, a.Policy)
	assert.Equal(t, exdir.KindFile, a.File.Root().Kind())
	assert.Equal(t, dtype.RequireExactType, a.File.Root().Policy())

	info, err := a.Browser.Resolve(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "0 objects", info.Info)
}

func TestNewApp_BadPolicy(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("storage.path", t.TempDir())
	viper.Set("conversion.policy", "sloppy")

	_, err := NewApp(context.Background())
	assert.Error(t, err)
}
