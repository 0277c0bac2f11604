package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"exdir/pkg/dtype"
	"exdir/pkg/exdir"
	"exdir/pkg/storage/disk"
	"exdir/pkg/tensor"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// -----------------------------------------------------------------------------
// 通用辅助函数 (Helpers)
// -----------------------------------------------------------------------------

// setupTestRepo 构建隔离的测试环境 (内存 sqlite)
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	catalogDB := NewWithConn(db)
	require.NoError(t, catalogDB.AutoMigrate(&DatasetRecord{}))
	return NewRepository(catalogDB)
}

func mustUpsert(t *testing.T, repo *Repository, rec *DatasetRecord, msgAndArgs ...any) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), rec), msgAndArgs...)
}

func mustStore(t *testing.T) *exdir.File {
	t.Helper()
	f, err := exdir.Create(context.Background(), disk.NewAdapterFs(afero.NewMemMapFs()))
	require.NoError(t, err)
	return f
}

func mustDataset[T dtype.Element](t *testing.T, parent exdir.Node, name string, shape []int, elems []T) exdir.Node {
	t.Helper()
	arr, err := tensor.EncodeAny(elems, shape, dtype.Of[T](), false, dtype.AllowLossy)
	require.NoError(t, err)
	n, err := parent.CreateDataset(context.Background(), name, arr)
	require.NoError(t, err)
	return n
}
