package disk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"exdir/pkg/storage"

	"github.com/spf13/afero"
)

// Adapter 实现了 storage.Backend 接口
// 底层是 afero.Fs：生产环境用 BasePathFs(OsFs)，测试用 MemMapFs
type Adapter struct {
	fs afero.Fs
}

// NewAdapter 创建以 root 为根目录的磁盘后端
// 注意：不会自动创建 root，是否存在由上层 (exdir.Open / exdir.Create) 决定
func NewAdapter(root string) (*Adapter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Adapter{fs: afero.NewBasePathFs(afero.NewOsFs(), abs)}, nil
}

// NewAdapterFs 允许注入任意 afero.Fs (比如内存文件系统)
func NewAdapterFs(fsys afero.Fs) *Adapter {
	return &Adapter{fs: fsys}
}

// layout 把仓库内的相对名字映射成 afero 路径
// Example: "grp/data.npy" -> "/grp/data.npy"，"" -> "/"
func (a *Adapter) layout(name string) string {
	return filepath.Join(string(filepath.Separator), filepath.FromSlash(name))
}

// notExist 也把 ENOTDIR 当作不存在：路径中间某一段是普通文件
func notExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR)
}

func (a *Adapter) ReadFile(ctx context.Context, name string) ([]byte, error) {
	data, err := afero.ReadFile(a.fs, a.layout(name))
	if notExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.IOError("read", name, err)
	}
	return data, nil
}

func (a *Adapter) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := a.fs.Open(a.layout(name))
	if notExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.IOError("open", name, err)
	}
	return f, nil
}

func (a *Adapter) WriteFile(ctx context.Context, name string, data []byte) error {
	targetPath := a.layout(name)

	// 1. 准备目录
	dir := filepath.Dir(targetPath)
	if err := a.fs.MkdirAll(dir, 0755); err != nil {
		return storage.IOError("mkdir", name, err)
	}

	// 2. 原子写入 (Atomic Write)
	// 先写到同目录的临时文件，然后 Rename。
	// 这样读者要么看到旧文件，要么看到完整的新文件。
	tempFile, err := afero.TempFile(a.fs, dir, ".tmp-*")
	if err != nil {
		return storage.IOError("create temp", name, err)
	}
	// 如果成功 Rename 了，这个删除无害
	defer a.fs.Remove(tempFile.Name())

	if _, err := io.Copy(tempFile, bytes.NewReader(data)); err != nil {
		tempFile.Close()
		return storage.IOError("write", name, err)
	}
	if err := tempFile.Close(); err != nil { // 必须先关闭才能 Rename
		return storage.IOError("close", name, err)
	}

	// 3. 移动到最终位置
	if err := a.fs.Rename(tempFile.Name(), targetPath); err != nil {
		return storage.IOError("rename", name, err)
	}
	return nil
}

func (a *Adapter) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := afero.Exists(a.fs, a.layout(name))
	if notExist(err) {
		return false, nil
	}
	if err != nil {
		return false, storage.IOError("stat", name, err)
	}
	return ok, nil
}

func (a *Adapter) IsDir(ctx context.Context, name string) (bool, error) {
	ok, err := afero.IsDir(a.fs, a.layout(name))
	if notExist(err) {
		return false, nil
	}
	if err != nil {
		return false, storage.IOError("stat", name, err)
	}
	return ok, nil
}

func (a *Adapter) ListDirs(ctx context.Context, name string) ([]string, error) {
	entries, err := afero.ReadDir(a.fs, a.layout(name))
	if notExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.IOError("list", name, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

func (a *Adapter) MkdirAll(ctx context.Context, name string) error {
	if err := a.fs.MkdirAll(a.layout(name), 0755); err != nil {
		return storage.IOError("mkdir", name, err)
	}
	return nil
}
