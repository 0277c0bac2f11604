package service

import (
	"context"
	"testing"

	"exdir/pkg/dtype"
	"exdir/pkg/exdir"
	"exdir/pkg/storage"
	"exdir/pkg/storage/disk"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// setupTestBrowser 是所有 Browser 测试共享的基础设施初始化逻辑
// 仓库建在内存文件系统上
func setupTestBrowser(t *testing.T, policy dtype.Policy) (*Browser, storage.Backend) {
	t.Helper()
	backend := disk.NewAdapterFs(afero.NewMemMapFs())
	f, err := exdir.Create(context.Background(), backend, exdir.WithDefaultPolicy(policy))
	require.NoError(t, err)
	return NewBrowser(f), backend
}

func mustWriteFile(t *testing.T, backend storage.Backend, name, content string) {
	t.Helper()
	require.NoError(t, backend.WriteFile(context.Background(), name, []byte(content)))
}
