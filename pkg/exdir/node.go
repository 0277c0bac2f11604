package exdir

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"exdir/pkg/attrs"
	"exdir/pkg/dtype"
	"exdir/pkg/types"
)

// Kind 是节点的类型，由 meta.yml 在解析时决定
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFile
	KindGroup
	KindDataset
	KindAttribute
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindGroup:
		return "group"
	case KindDataset:
		return "dataset"
	case KindAttribute:
		return "attribute"
	}
	return "invalid"
}

// Node 是一个轻量句柄：{file, path, kind, policy}
// 复制 Node 只复制身份，不带任何缓存的数据
type Node struct {
	file   *File
	path   types.Path
	kind   Kind
	policy dtype.Policy
}

func (n Node) Path() types.Path     { return n.path }
func (n Node) Kind() Kind           { return n.kind }
func (n Node) Name() string         { return n.path.Name() }
func (n Node) Policy() dtype.Policy { return n.policy }
func (n Node) File() *File          { return n.file }
func (n Node) Valid() bool          { return n.kind != KindInvalid }

// IsContainer: 根节点和 group 可以有子节点
func (n Node) IsContainer() bool { return n.kind == KindFile || n.kind == KindGroup }

// WithPolicy 返回换了转换策略的副本，之后的子节点继承新策略
func (n Node) WithPolicy(p dtype.Policy) Node {
	n.policy = p
	return n
}

// Close 没有需要释放的资源，可以调用任意次
func (n Node) Close() error { return nil }

// DisplayType 给展示层用的类型名
func (n Node) DisplayType() string {
	switch n.kind {
	case KindFile:
		return "File"
	case KindGroup:
		return "Group"
	case KindDataset:
		return "Dataset"
	}
	return "Unknown type"
}

func (n Node) requireValid() error {
	if n.kind == KindInvalid {
		return fmt.Errorf("%w: %s", types.ErrInvalidNode, n.path)
	}
	return nil
}

func (n Node) requireContainer() error {
	if err := n.requireValid(); err != nil {
		return err
	}
	if !n.IsContainer() {
		return fmt.Errorf("%w: %s is a %s, not a group", types.ErrWrongKind, n.path, n.kind)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Group 操作
// -----------------------------------------------------------------------------

// Keys 列出子目录名，按字节序排序
// 无效节点返回空列表 (不是错误)
func (n Node) Keys(ctx context.Context) ([]string, error) {
	if n.kind == KindInvalid {
		return []string{}, nil
	}
	if err := n.requireContainer(); err != nil {
		return nil, err
	}

	names, err := n.file.backend.ListDirs(ctx, n.path.Rel())
	if errors.Is(err, types.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Item 返回子节点
// 子目录没有 meta.yml 时返回 ErrNotFound；子节点继承当前的策略
func (n Node) Item(ctx context.Context, name string) (Node, error) {
	if err := n.requireContainer(); err != nil {
		return Node{}, err
	}
	if err := types.ValidateName(name); err != nil {
		return Node{}, err
	}

	child := n.path.Join(name)
	kind, found, err := classify(ctx, n.file.backend, child)
	if err != nil {
		return Node{}, err
	}
	if !found {
		return Node{}, fmt.Errorf("%w: %s", types.ErrNotFound, child)
	}
	return Node{file: n.file, path: child, kind: kind, policy: n.policy}, nil
}

// HasKey 只检查存在性；无效节点和 dataset 永远返回 false
func (n Node) HasKey(ctx context.Context, name string) (bool, error) {
	if !n.IsContainer() {
		return false, nil
	}
	if types.ValidateName(name) != nil {
		return false, nil
	}
	return n.file.backend.Exists(ctx, n.path.Join(name).Rel())
}

// Children 依次返回所有子节点；没有 sidecar 的子目录以 KindInvalid 返回
func (n Node) Children(ctx context.Context) ([]Node, error) {
	keys, err := n.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(keys))
	for _, k := range keys {
		child, err := n.Item(ctx, k)
		if errors.Is(err, types.ErrNotFound) {
			out = append(out, Node{file: n.file, path: n.path.Join(k), kind: KindInvalid, policy: n.policy})
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// 属性
// -----------------------------------------------------------------------------

// Attributes 读取全部属性；没有 sidecar 返回空集合
func (n Node) Attributes(ctx context.Context) (*attrs.Set, error) {
	if err := n.requireValid(); err != nil {
		return nil, err
	}
	return attrs.Load(ctx, n.file.backend, n.path)
}

// Attribute 读取单个属性；不存在时返回 undefined 值 (DisplayString 为 "[undefined]")
func (n Node) Attribute(ctx context.Context, name string) (attrs.Value, error) {
	set, err := n.Attributes(ctx)
	if err != nil {
		return attrs.Value{}, err
	}
	return set.Get(name), nil
}

func (n Node) HasAttribute(ctx context.Context, name string) (bool, error) {
	set, err := n.Attributes(ctx)
	if err != nil {
		return false, err
	}
	return set.Has(name), nil
}

// SetAttribute 写入数值属性，值不变时不写文件
func (n Node) SetAttribute(ctx context.Context, name string, value float64) (bool, error) {
	if err := n.requireValid(); err != nil {
		return false, err
	}
	return attrs.SetNumber(ctx, n.file.backend, n.path, name, value)
}

// -----------------------------------------------------------------------------
// 展示
// -----------------------------------------------------------------------------

// Info 返回简短描述："3 objects"、"2x3 matrix"、"vector of size 5" ...
// 无效节点返回空字符串
func (n Node) Info(ctx context.Context) (string, error) {
	switch n.kind {
	case KindFile, KindGroup:
		keys, err := n.Keys(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d objects", len(keys)), nil
	case KindDataset:
		shape, err := n.Shape(ctx)
		if err != nil {
			return "", err
		}
		return ShapeInfo(shape), nil
	}
	return "", nil
}

// ShapeInfo 根据形状生成描述
func ShapeInfo(shape []int) string {
	switch len(shape) {
	case 0:
		return "scalar"
	case 1:
		return fmt.Sprintf("vector of size %d", shape[0])
	case 2:
		return fmt.Sprintf("%dx%d matrix", shape[0], shape[1])
	case 3:
		return fmt.Sprintf("%dx%dx%d cube", shape[0], shape[1], shape[2])
	}
	return fmt.Sprintf("%d dimensional object", len(shape))
}

// FormatShape 把形状写成 "2x3x4"，标量写成 "()"
func FormatShape(shape []int) string {
	if len(shape) == 0 {
		return "()"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}
