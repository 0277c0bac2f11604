package exdir

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"exdir/pkg/dtype"
	"exdir/pkg/npy"
	"exdir/pkg/tensor"
	"exdir/pkg/types"
)

// Order 是数组在磁盘上的存储顺序
type Order uint8

const (
	OrderC Order = iota
	OrderFortran
)

func (o Order) String() string {
	if o == OrderFortran {
		return "Fortran"
	}
	return "C"
}

// ParseOrder 接受 "c" / "f" / "fortran" (不区分大小写)
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "c", "row-major":
		return OrderC, nil
	case "f", "fortran", "column-major":
		return OrderFortran, nil
	}
	return OrderC, fmt.Errorf("unknown storage order %q", s)
}

func (n Node) requireDataset() error {
	if err := n.requireValid(); err != nil {
		return err
	}
	if n.kind != KindDataset {
		return fmt.Errorf("%w: %s is a %s, not a dataset", types.ErrWrongKind, n.path, n.kind)
	}
	return nil
}

// Header 只读取 data.npy 的文件头
func (n Node) Header(ctx context.Context) (npy.Header, error) {
	if err := n.requireDataset(); err != nil {
		return npy.Header{}, err
	}
	r, err := n.file.backend.Open(ctx, n.path.File(DataFile))
	if err != nil {
		return npy.Header{}, err
	}
	defer r.Close()
	return npy.ReadHeader(r)
}

func (n Node) Shape(ctx context.Context) ([]int, error) {
	h, err := n.Header(ctx)
	if err != nil {
		return nil, err
	}
	return h.Shape, nil
}

func (n Node) Dtype(ctx context.Context) (dtype.Dtype, error) {
	h, err := n.Header(ctx)
	if err != nil {
		return dtype.Dtype{}, err
	}
	return h.Dtype, nil
}

// Rank 就是 len(shape)
func (n Node) Rank(ctx context.Context) (int, error) {
	h, err := n.Header(ctx)
	if err != nil {
		return 0, err
	}
	return h.Rank(), nil
}

// ElementCount = product(shape)，标量为 1
func (n Node) ElementCount(ctx context.Context) (int, error) {
	h, err := n.Header(ctx)
	if err != nil {
		return 0, err
	}
	return h.ElementCount(), nil
}

func (n Node) StorageOrder(ctx context.Context) (Order, error) {
	h, err := n.Header(ctx)
	if err != nil {
		return OrderC, err
	}
	if h.Fortran {
		return OrderFortran, nil
	}
	return OrderC, nil
}

// ReadArray 读取原始数组 (不做类型转换和轴变换)
func (n Node) ReadArray(ctx context.Context) (*npy.Array, error) {
	if err := n.requireDataset(); err != nil {
		return nil, err
	}
	r, err := n.file.backend.Open(ctx, n.path.File(DataFile))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return npy.Read(r)
}

// WriteArray 原子替换已有 dataset 的 data.npy
func (n Node) WriteArray(ctx context.Context, arr *npy.Array) error {
	if err := n.requireDataset(); err != nil {
		return err
	}
	return writeData(ctx, n, arr)
}

func writeData(ctx context.Context, n Node, arr *npy.Array) error {
	var buf bytes.Buffer
	if err := npy.Write(&buf, arr); err != nil {
		return err
	}
	return n.file.backend.WriteFile(ctx, n.path.File(DataFile), buf.Bytes())
}

// ReadCube 读取数组并按节点策略转换成 Cube[T]
func ReadCube[T dtype.Element](ctx context.Context, n Node) (*tensor.Cube[T], error) {
	arr, err := n.ReadArray(ctx)
	if err != nil {
		return nil, err
	}
	return tensor.FromArray[T](arr, n.policy)
}

// WriteCube 把 cube 以 target 类型写入 dataset
func WriteCube[T dtype.Element](ctx context.Context, n Node, c *tensor.Cube[T], target dtype.Dtype, order Order) error {
	if err := n.requireDataset(); err != nil {
		return err
	}
	arr, err := tensor.ToArray(c, target, order == OrderFortran, n.policy)
	if err != nil {
		return err
	}
	return writeData(ctx, n, arr)
}

// -----------------------------------------------------------------------------
// 创建节点
// -----------------------------------------------------------------------------

// CreateGroup 在当前节点下创建子 group
// 已存在同名 group 时直接返回它；同名的其他节点返回 ErrWrongKind
func (n Node) CreateGroup(ctx context.Context, name string) (Node, error) {
	if err := n.requireContainer(); err != nil {
		return Node{}, err
	}
	if err := types.ValidateName(name); err != nil {
		return Node{}, err
	}

	child := n.path.Join(name)
	exists, err := n.file.backend.Exists(ctx, child.Rel())
	if err != nil {
		return Node{}, err
	}
	if exists {
		existing, err := n.file.Resolve(ctx, child)
		if err != nil {
			return Node{}, err
		}
		if existing.kind != KindGroup {
			return Node{}, fmt.Errorf("%w: %s already exists as %s", types.ErrWrongKind, child, existing.kind)
		}
		return existing.WithPolicy(n.policy), nil
	}

	if err := n.file.backend.MkdirAll(ctx, child.Rel()); err != nil {
		return Node{}, err
	}
	if err := writeMeta(ctx, n.file.backend, child, typeGroup); err != nil {
		return Node{}, err
	}
	return Node{file: n.file, path: child, kind: KindGroup, policy: n.policy}, nil
}

// CreateDataset 创建新的 dataset 并写入数组
// 先写 data.npy 再写 meta.yml，这样不会出现没有数据的 dataset
func (n Node) CreateDataset(ctx context.Context, name string, arr *npy.Array) (Node, error) {
	if err := n.requireContainer(); err != nil {
		return Node{}, err
	}
	if err := types.ValidateName(name); err != nil {
		return Node{}, err
	}

	child := n.path.Join(name)
	exists, err := n.file.backend.Exists(ctx, child.Rel())
	if err != nil {
		return Node{}, err
	}
	if exists {
		return Node{}, fmt.Errorf("%w: %s already exists", types.ErrWrongKind, child)
	}

	node := Node{file: n.file, path: child, kind: KindDataset, policy: n.policy}
	if err := writeData(ctx, node, arr); err != nil {
		return Node{}, err
	}
	if err := writeMeta(ctx, n.file.backend, child, typeDataset); err != nil {
		return Node{}, err
	}
	return node, nil
}
