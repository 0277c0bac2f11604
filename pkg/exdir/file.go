// Package exdir implements a directory-backed hierarchy of groups and
// datasets. Every node is a directory whose meta.yml declares its kind;
// attributes live in attributes.yml and array payloads in data.npy.
//
// Handles are plain values. Nothing is cached: every query goes back to
// the storage backend, so a handle always reflects the current tree.
package exdir

import (
	"context"
	"errors"
	"fmt"

	"exdir/pkg/dtype"
	"exdir/pkg/storage"
	"exdir/pkg/types"

	"gopkg.in/yaml.v3"
)

// 节点目录里的固定文件名
const (
	MetaFile = "meta.yml"
	DataFile = "data.npy"
)

// 写入 meta.yml 时使用的格式版本
const formatVersion = 1

// File 是仓库根目录的句柄
type File struct {
	backend storage.Backend
	policy  dtype.Policy
}

type Option func(*File)

// WithDefaultPolicy 设置根节点的转换策略，子节点默认继承
func WithDefaultPolicy(p dtype.Policy) Option {
	return func(f *File) { f.policy = p }
}

// Open 打开已存在的仓库；根目录不存在时返回 ErrNotFound
func Open(ctx context.Context, backend storage.Backend, opts ...Option) (*File, error) {
	f := newFile(backend, opts)
	ok, err := backend.IsDir(ctx, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: store root", types.ErrNotFound)
	}
	return f, nil
}

// Create 初始化一个新仓库 (幂等)：创建根目录并写入 type: file 的 meta.yml
func Create(ctx context.Context, backend storage.Backend, opts ...Option) (*File, error) {
	f := newFile(backend, opts)
	if err := backend.MkdirAll(ctx, ""); err != nil {
		return nil, err
	}
	ok, err := backend.Exists(ctx, MetaFile)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := writeMeta(ctx, backend, types.Root(), typeFile); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func newFile(backend storage.Backend, opts []Option) *File {
	f := &File{backend: backend, policy: dtype.AllowLossy}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *File) Backend() storage.Backend { return f.backend }
func (f *File) Policy() dtype.Policy     { return f.policy }

// Root 返回根节点
func (f *File) Root() Node {
	return Node{file: f, path: types.Root(), kind: KindFile, policy: f.policy}
}

// Resolve 按路径解析节点
// 没有 meta.yml 不算错误，返回 KindInvalid 的节点
func (f *File) Resolve(ctx context.Context, p types.Path) (Node, error) {
	if p.IsRoot() {
		return f.Root(), nil
	}
	kind, found, err := classify(ctx, f.backend, p)
	if err != nil {
		return Node{}, err
	}
	if !found {
		kind = KindInvalid
	}
	return Node{file: f, path: p, kind: kind, policy: f.policy}, nil
}

// ResolveString 是 Resolve 的字符串版本
func (f *File) ResolveString(ctx context.Context, s string) (Node, error) {
	p, err := types.ParsePath(s)
	if err != nil {
		return Node{}, err
	}
	return f.Resolve(ctx, p)
}

// -----------------------------------------------------------------------------
// meta.yml
// -----------------------------------------------------------------------------

const (
	typeFile    = "file"
	typeGroup   = "group"
	typeDataset = "dataset"
)

type metaDoc struct {
	Exdir struct {
		Type    string `yaml:"type"`
		Version int    `yaml:"version,omitempty"`
	} `yaml:"exdir"`
}

// classify 读取 <p>/meta.yml
// found=false 表示没有 sidecar；格式不对或类型未知都归为 KindInvalid
func classify(ctx context.Context, backend storage.Backend, p types.Path) (Kind, bool, error) {
	data, err := backend.ReadFile(ctx, p.File(MetaFile))
	if errors.Is(err, types.ErrNotFound) {
		return KindInvalid, false, nil
	}
	if err != nil {
		return KindInvalid, false, err
	}

	var meta metaDoc
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return KindInvalid, true, nil
	}
	switch meta.Exdir.Type {
	case typeGroup:
		return KindGroup, true, nil
	case typeDataset:
		return KindDataset, true, nil
	case typeFile:
		if p.IsRoot() {
			return KindFile, true, nil
		}
	}
	return KindInvalid, true, nil
}

func writeMeta(ctx context.Context, backend storage.Backend, p types.Path, typ string) error {
	var meta metaDoc
	meta.Exdir.Type = typ
	meta.Exdir.Version = formatVersion

	data, err := yaml.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", MetaFile, err)
	}
	return backend.WriteFile(ctx, p.File(MetaFile), data)
}
