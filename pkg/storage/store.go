package storage

import (
	"context"
	"fmt"
	"io"

	"exdir/pkg/types"
)

var (
	// ErrNotFound 包装 types.ErrNotFound，上层统一用 errors.Is(err, types.ErrNotFound)
	ErrNotFound = fmt.Errorf("%w: no such file or directory", types.ErrNotFound)
)

// Backend 是仓库目录树的存储后端
// 所有 name 都是相对于仓库根目录、用 "/" 分隔的路径，"" 表示根目录本身
// 实现可以是本地磁盘，也可以是对象存储 (目录 = key 前缀)
type Backend interface {
	// ReadFile 读取整个文件，不存在时返回 ErrNotFound
	ReadFile(ctx context.Context, name string) ([]byte, error)

	// Open 以流的方式读取文件 (npy 数据可能很大)
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// WriteFile 原子写入：要么是旧内容，要么是完整的新内容
	WriteFile(ctx context.Context, name string, data []byte) error

	// Exists 检查文件或目录是否存在
	Exists(ctx context.Context, name string) (bool, error)

	// IsDir 检查 name 是否是目录；不存在返回 false, nil
	IsDir(ctx context.Context, name string) (bool, error)

	// ListDirs 列出 name 下一级的子目录名 (顺序不保证)
	ListDirs(ctx context.Context, name string) ([]string, error)

	// MkdirAll 创建目录 (以及缺失的父目录)
	MkdirAll(ctx context.Context, name string) error
}

// IOError 把底层错误归类为 types.ErrIO
func IOError(op, name string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", types.ErrIO, op, name, err)
}
