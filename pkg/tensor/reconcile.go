package tensor

import (
	"fmt"

	"exdir/pkg/dtype"
	"exdir/pkg/npy"
	"exdir/pkg/types"
)

// FromArray 把 npy 数组读成 Cube[T]
// 1. 元素先按策略从磁盘 dtype 转成 T
// 2. 再按 rank 处理轴顺序：
//   - rank0: 1x1x1
//   - rank1 [N]: 一行 1xN，需要列向量的调用方用 Column()
//   - rank2 [R,C]: C 顺序数据按 CxR 读入再转置一次；Fortran 数据直接读
//   - rank3 [S,R,C]: 按 (C,R,S) 读入，每个 slice 转置得到 (R,C,S)
func FromArray[T dtype.Element](arr *npy.Array, p dtype.Policy) (*Cube[T], error) {
	rank := arr.Rank()
	if err := checkRank(rank); err != nil {
		return nil, err
	}

	data := arr.Data
	if rank == 3 && arr.Fortran {
		data = Reorder(data, arr.Dtype.Width, arr.Shape, false)
	}

	elems, err := dtype.DecodeAs[T](data, arr.Dtype, p)
	if err != nil {
		return nil, err
	}
	if len(elems) != arr.ElementCount() {
		return nil, fmt.Errorf("%w: shape %v declares %d elements, data has %d",
			types.ErrIO, arr.Shape, arr.ElementCount(), len(elems))
	}

	switch rank {
	case 0:
		return &Cube[T]{rows: 1, cols: 1, slices: 1, rank: 0, data: elems}, nil
	case 1:
		return &Cube[T]{rows: 1, cols: arr.Shape[0], slices: 1, rank: 1, data: elems}, nil
	case 2:
		r, c := arr.Shape[0], arr.Shape[1]
		if arr.Fortran {
			return &Cube[T]{rows: r, cols: c, slices: 1, rank: 2, data: elems}, nil
		}
		swapped := &Cube[T]{rows: c, cols: r, slices: 1, rank: 2, data: elems}
		return swapped.Transpose(), nil
	}

	s, r, c := arr.Shape[0], arr.Shape[1], arr.Shape[2]
	raw := &Cube[T]{rows: c, cols: r, slices: s, rank: 3, data: elems}
	return raw.Transpose(), nil
}

// ToArray 是 FromArray 的镜像
//   - rank2: 列优先数据直接以 fortran_order=True 写出；要 C 顺序就先转置
//   - rank3: 每个 slice 先转置，以 fortran_order=False 写出；要 Fortran 就再重排
func ToArray[T dtype.Element](c *Cube[T], target dtype.Dtype, fortran bool, p dtype.Policy) (*npy.Array, error) {
	if err := checkRank(c.rank); err != nil {
		return nil, err
	}

	var elems []T
	switch c.rank {
	case 0, 1:
		elems = c.data
	case 2:
		if fortran {
			elems = c.data
		} else {
			elems = c.Transpose().data
		}
	default:
		elems = c.Transpose().data
	}

	raw, err := dtype.EncodeAs(elems, target, p)
	if err != nil {
		return nil, err
	}

	shape := c.Shape()
	if c.rank == 3 && fortran {
		raw = Reorder(raw, target.Width, shape, true)
	}
	return npy.New(target, shape, fortran, raw)
}

// Reorder 在 C 顺序和 Fortran 顺序之间转换任意维数的原始数据
// toFortran=true: C -> F；false: F -> C
func Reorder(data []byte, width int, shape []int, toFortran bool) []byte {
	out := make([]byte, len(data))
	n := product(shape)
	if len(shape) < 2 || n == 0 {
		copy(out, data)
		return out
	}

	// Fortran 步长：第一维最快
	fStride := make([]int, len(shape))
	fStride[0] = 1
	for k := 1; k < len(shape); k++ {
		fStride[k] = fStride[k-1] * shape[k-1]
	}

	idx := make([]int, len(shape))
	for cPos := 0; cPos < n; cPos++ {
		fPos := 0
		for k, i := range idx {
			fPos += i * fStride[k]
		}

		src, dst := cPos, fPos
		if !toFortran {
			src, dst = fPos, cPos
		}
		copy(out[dst*width:(dst+1)*width], data[src*width:(src+1)*width])

		// C 顺序：最后一维最快
		for k := len(shape) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out
}
