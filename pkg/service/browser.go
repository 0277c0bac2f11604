// Package service exposes the operations a presentation layer needs:
// resolving paths, listing children, reading and writing arrays and
// editing attributes. Every result is a plain value so callers never
// hold a node handle across calls.
package service

import (
	"context"
	"fmt"
	"time"

	"exdir/pkg/dtype"
	"exdir/pkg/exdir"
	"exdir/pkg/tensor"
	"exdir/pkg/types"
)

// NodeInfo 是单个节点的展示信息
type NodeInfo struct {
	Name        string
	Path        string
	Kind        exdir.Kind
	DisplayType string
	Info        string
}

// ArrayView 是 dataset 的内容
// Elements 是逻辑行优先的 []T，T 由 Dtype 决定
type ArrayView struct {
	Shape    []int
	Dtype    dtype.Dtype
	Order    exdir.Order
	Elements any
}

// AttributeInfo 是一条属性的展示信息
type AttributeInfo struct {
	Name    string
	Display string
	Raw     any
}

// Browser 是面向 CLI 的门面
type Browser struct {
	file *exdir.File
}

func NewBrowser(f *exdir.File) *Browser {
	return &Browser{file: f}
}

func (b *Browser) File() *exdir.File { return b.file }

// Resolve 按路径解析节点；节点不存在不算错误，返回 Kind 为 invalid 的信息
func (b *Browser) Resolve(ctx context.Context, path string) (info NodeInfo, err error) {
	defer func(start time.Time) { logCall(ctx, "Resolve", path, start, err) }(time.Now())

	n, err := b.file.ResolveString(ctx, path)
	if err != nil {
		return NodeInfo{}, err
	}
	return describe(ctx, n)
}

// ListChildren 列出 group 的直接子节点 (按名字排序)
// 没有 meta.yml 的子目录以 invalid 节点出现，不会让整个列表失败
func (b *Browser) ListChildren(ctx context.Context, path string) (out []NodeInfo, err error) {
	defer func(start time.Time) { logCall(ctx, "ListChildren", path, start, err) }(time.Now())

	n, err := b.resolveValid(ctx, path)
	if err != nil {
		return nil, err
	}
	children, err := n.Children(ctx)
	if err != nil {
		return nil, err
	}

	out = make([]NodeInfo, 0, len(children))
	for _, child := range children {
		info, err := describe(ctx, child)
		if err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", child.Path(), err)
		}
		out = append(out, info)
	}
	return out, nil
}

// ReadArray 读取 dataset 的全部元素，元素类型与磁盘 dtype 一致
func (b *Browser) ReadArray(ctx context.Context, path string) (view ArrayView, err error) {
	defer func(start time.Time) { logCall(ctx, "ReadArray", path, start, err) }(time.Now())

	n, err := b.resolveValid(ctx, path)
	if err != nil {
		return ArrayView{}, err
	}
	arr, err := n.ReadArray(ctx)
	if err != nil {
		return ArrayView{}, err
	}
	elems, err := tensor.DecodeAny(arr, n.Policy())
	if err != nil {
		return ArrayView{}, err
	}

	order := exdir.OrderC
	if arr.Fortran {
		order = exdir.OrderFortran
	}
	return ArrayView{Shape: arr.Shape, Dtype: arr.Dtype, Order: order, Elements: elems}, nil
}

// WriteArray 把逻辑行优先的 elements 以 dt 写入 path
// dataset 已存在则替换数据，不存在则在父 group 下新建
func (b *Browser) WriteArray(ctx context.Context, path string, shape []int, dt dtype.Dtype, elements any, order exdir.Order) (err error) {
	defer func(start time.Time) { logCall(ctx, "WriteArray", path, start, err) }(time.Now())

	p, err := parseChildPath(path)
	if err != nil {
		return err
	}
	arr, err := tensor.EncodeAny(elements, shape, dt, order == exdir.OrderFortran, b.file.Policy())
	if err != nil {
		return err
	}

	n, err := b.file.Resolve(ctx, p)
	if err != nil {
		return err
	}
	if n.Valid() {
		return n.WriteArray(ctx, arr)
	}

	parent, err := b.resolveValid(ctx, p.Parent().String())
	if err != nil {
		return err
	}
	_, err = parent.CreateDataset(ctx, p.Name(), arr)
	return err
}

// ListAttributes 按文件中的顺序返回所有属性
func (b *Browser) ListAttributes(ctx context.Context, path string) (out []AttributeInfo, err error) {
	defer func(start time.Time) { logCall(ctx, "ListAttributes", path, start, err) }(time.Now())

	n, err := b.file.ResolveString(ctx, path)
	if err != nil {
		return nil, err
	}
	set, err := n.Attributes(ctx)
	if err != nil {
		return nil, err
	}

	out = make([]AttributeInfo, 0, set.Len())
	for _, v := range set.All() {
		out = append(out, AttributeInfo{Name: v.Name, Display: v.DisplayString(), Raw: v.Raw()})
	}
	return out, nil
}

// SetAttributeValue 写入数值属性；返回值表示文件是否真的被修改
func (b *Browser) SetAttributeValue(ctx context.Context, path, name string, value float64) (changed bool, err error) {
	defer func(start time.Time) { logCall(ctx, "SetAttributeValue", path, start, err) }(time.Now())

	n, err := b.file.ResolveString(ctx, path)
	if err != nil {
		return false, err
	}
	return n.SetAttribute(ctx, name, value)
}

// CreateGroup 在父节点下创建 group (幂等)
func (b *Browser) CreateGroup(ctx context.Context, path string) (info NodeInfo, err error) {
	defer func(start time.Time) { logCall(ctx, "CreateGroup", path, start, err) }(time.Now())

	p, err := parseChildPath(path)
	if err != nil {
		return NodeInfo{}, err
	}
	parent, err := b.resolveValid(ctx, p.Parent().String())
	if err != nil {
		return NodeInfo{}, err
	}
	g, err := parent.CreateGroup(ctx, p.Name())
	if err != nil {
		return NodeInfo{}, err
	}
	return describe(ctx, g)
}

// --- 内部辅助 ---

func (b *Browser) resolveValid(ctx context.Context, path string) (exdir.Node, error) {
	n, err := b.file.ResolveString(ctx, path)
	if err != nil {
		return exdir.Node{}, err
	}
	if !n.Valid() {
		return exdir.Node{}, fmt.Errorf("%w: %s", types.ErrNotFound, n.Path())
	}
	return n, nil
}

func parseChildPath(path string) (types.Path, error) {
	p, err := types.ParsePath(path)
	if err != nil {
		return types.Path{}, err
	}
	if p.IsRoot() {
		return types.Path{}, fmt.Errorf("%w: the root cannot be replaced", types.ErrInvalidPath)
	}
	return p, nil
}

func describe(ctx context.Context, n exdir.Node) (NodeInfo, error) {
	info, err := n.Info(ctx)
	if err != nil {
		return NodeInfo{}, err
	}
	return NodeInfo{
		Name:        n.Name(),
		Path:        n.Path().String(),
		Kind:        n.Kind(),
		DisplayType: n.DisplayType(),
		Info:        info,
	}, nil
}
