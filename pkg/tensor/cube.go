// Package tensor maps npy arrays of rank 0-3 onto a column-major
// rows x cols x slices cube and back.
package tensor

import (
	"fmt"

	"exdir/pkg/dtype"
	"exdir/pkg/types"
)

// MaxRank 是能转换成 Cube 的最大维数
const MaxRank = 3

// Cube 是列优先 (column-major) 的 rows x cols x slices 缓冲区
// 元素 (r, c, s) 位于 data[r + c*rows + s*rows*cols]
// rank 记录它来自几维的磁盘数组，用于还原 Shape
type Cube[T dtype.Element] struct {
	rows, cols, slices int
	rank               int
	data               []T
}

// NewCube 创建全零的 rank-3 cube
func NewCube[T dtype.Element](rows, cols, slices int) *Cube[T] {
	return &Cube[T]{
		rows: rows, cols: cols, slices: slices,
		rank: 3,
		data: make([]T, rows*cols*slices),
	}
}

func (c *Cube[T]) Rows() int   { return c.rows }
func (c *Cube[T]) Cols() int   { return c.cols }
func (c *Cube[T]) Slices() int { return c.slices }
func (c *Cube[T]) Rank() int   { return c.rank }
func (c *Cube[T]) Len() int    { return len(c.data) }

func (c *Cube[T]) index(r, col, s int) int {
	return r + col*c.rows + s*c.rows*c.cols
}

func (c *Cube[T]) At(r, col, s int) T { return c.data[c.index(r, col, s)] }

func (c *Cube[T]) Set(r, col, s int, v T) { c.data[c.index(r, col, s)] = v }

// Slice 返回第 s 个 rows x cols 平面 (列优先，复制)
func (c *Cube[T]) Slice(s int) []T {
	plane := c.rows * c.cols
	out := make([]T, plane)
	copy(out, c.data[s*plane:(s+1)*plane])
	return out
}

// Data 返回底层列优先数据 (不复制)
func (c *Cube[T]) Data() []T { return c.data }

// Shape 是磁盘上的逻辑形状
// rank1: [N]，rank2: [R, C]，rank3: [S, R, C]
func (c *Cube[T]) Shape() []int {
	switch c.rank {
	case 0:
		return []int{}
	case 1:
		return []int{c.rows * c.cols}
	case 2:
		return []int{c.rows, c.cols}
	}
	return []int{c.slices, c.rows, c.cols}
}

// Transpose 对每个 slice 做转置，返回新的 cube
func (c *Cube[T]) Transpose() *Cube[T] {
	out := &Cube[T]{
		rows: c.cols, cols: c.rows, slices: c.slices,
		rank: c.rank,
		data: make([]T, len(c.data)),
	}
	for s := 0; s < c.slices; s++ {
		for col := 0; col < c.cols; col++ {
			for r := 0; r < c.rows; r++ {
				out.Set(col, r, s, c.At(r, col, s))
			}
		}
	}
	return out
}

// Column 是向量的最终消费形式：N x 1
// 读出来的 rank1 数据是一行 1 x N
func (c *Cube[T]) Column() *Cube[T] {
	if c.cols == 1 {
		return c
	}
	return c.Transpose()
}

// Elements 按磁盘形状的逻辑行优先顺序返回所有元素
func (c *Cube[T]) Elements() []T {
	if c.rank <= 1 {
		// 1 x N 和 N x 1 的列优先顺序是一样的
		out := make([]T, len(c.data))
		copy(out, c.data)
		return out
	}
	out := make([]T, 0, len(c.data))
	for s := 0; s < c.slices; s++ {
		for r := 0; r < c.rows; r++ {
			for col := 0; col < c.cols; col++ {
				out = append(out, c.At(r, col, s))
			}
		}
	}
	return out
}

// FromElements 用逻辑行优先的元素构造 cube
func FromElements[T dtype.Element](shape []int, elems []T) (*Cube[T], error) {
	if err := checkRank(len(shape)); err != nil {
		return nil, err
	}
	if n := product(shape); n != len(elems) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, have %d", types.ErrIO, shape, n, len(elems))
	}

	switch len(shape) {
	case 0:
		return &Cube[T]{rows: 1, cols: 1, slices: 1, rank: 0, data: append([]T{}, elems...)}, nil
	case 1:
		return &Cube[T]{rows: 1, cols: shape[0], slices: 1, rank: 1, data: append([]T{}, elems...)}, nil
	case 2:
		// 行优先 R x C 就是列优先 C x R，再转置一次
		raw := &Cube[T]{rows: shape[1], cols: shape[0], slices: 1, rank: 2, data: append([]T{}, elems...)}
		return raw.Transpose(), nil
	}
	raw := &Cube[T]{rows: shape[2], cols: shape[1], slices: shape[0], rank: 3, data: append([]T{}, elems...)}
	return raw.Transpose(), nil
}

func checkRank(rank int) error {
	if rank > MaxRank {
		return fmt.Errorf("%w: rank %d exceeds maximum supported rank %d", types.ErrUnsupportedRank, rank, MaxRank)
	}
	return nil
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
